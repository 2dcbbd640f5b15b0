// Package service orchestrates the question answering pipeline: retrieval
// over the document index, answer generation, scoring, and persistence.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"hrchat/internal/answer"
	"hrchat/internal/domain"
	"hrchat/internal/embedding"
	"hrchat/internal/extract"
	"hrchat/internal/index"
	"hrchat/internal/llm"
	"hrchat/internal/store"
	"hrchat/internal/summarize"
)

var (
	// ErrEmptyQuestion is returned when the question is blank.
	ErrEmptyQuestion = errors.New("question must not be empty")
	// ErrNoDocuments is returned by Reindex when no supported files exist.
	ErrNoDocuments = errors.New("no supported documents found")
)

const noDocumentsReason = "No relevant documents found"

// Service answers HR questions over the indexed document corpus.
type Service struct {
	embedders  embedding.Factory
	segmenter  domain.Segmenter
	handle     *index.Handle
	generator  *answer.Generator
	policy     answer.Policy
	summarizer domain.Summarizer
	chats      *store.Store
	log        *zap.SugaredLogger

	docsDir string
	topK    int

	reindexMu sync.Mutex
}

// Options configures optional service collaborators.
type Options struct {
	// Chats enables chat history and escalation persistence when non-nil.
	Chats *store.Store
	// Summarizer is used for the corpus digest after reindexing.
	Summarizer domain.Summarizer
	Log        *zap.SugaredLogger
}

func New(embedders embedding.Factory, segmenter domain.Segmenter, generator *answer.Generator,
	policy answer.Policy, docsDir string, topK int, opts Options) *Service {
	if topK <= 0 {
		topK = 3
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	summarizer := opts.Summarizer
	if summarizer == nil {
		summarizer = summarize.NewFrequency()
	}
	return &Service{
		embedders:  embedders,
		segmenter:  segmenter,
		handle:     index.NewHandle(),
		generator:  generator,
		policy:     policy,
		summarizer: summarizer,
		chats:      opts.Chats,
		log:        log,
		docsDir:    docsDir,
		topK:       topK,
	}
}

// ChunkCount reports the size of the current index.
func (s *Service) ChunkCount() int {
	return s.handle.Len()
}

// ProviderName reports the answer provider in use.
func (s *Service) ProviderName() string {
	return s.generator.ProviderName()
}

// Reindex rebuilds the index from every supported document under the
// configured directory and atomically replaces the previous index. Readers
// keep the old index until the swap. It returns a corpus summary and the
// new chunk count.
func (s *Service) Reindex(ctx context.Context) (string, int, error) {
	s.reindexMu.Lock()
	defer s.reindexMu.Unlock()

	entries, err := os.ReadDir(s.docsDir)
	if err != nil {
		return "", 0, fmt.Errorf("read documents dir: %w", err)
	}

	var chunks []domain.Chunk
	var corpus strings.Builder
	docCount := 0
	for _, entry := range entries {
		if entry.IsDir() || !extract.Supported(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		path := filepath.Join(s.docsDir, entry.Name())
		text, err := extract.File(path)
		if err != nil {
			s.log.Warnw("skipping unreadable document", "path", path, "error", err)
			continue
		}
		docChunks := s.segmenter.CleanAndChunk(text, entry.Name())
		chunks = append(chunks, docChunks...)
		corpus.WriteString(text)
		corpus.WriteString("\n")
		docCount++
	}
	if len(chunks) == 0 {
		return "", 0, ErrNoDocuments
	}
	// Chunk IDs restart per document; renumber across the corpus so source
	// references stay unambiguous.
	for i := range chunks {
		chunks[i].ID = i + 1
	}

	embedder, err := s.embedders()
	if err != nil {
		return "", 0, fmt.Errorf("create embedder: %w", err)
	}
	snap, err := index.Build(embedder, chunks)
	if err != nil {
		return "", 0, fmt.Errorf("build index: %w", err)
	}
	s.handle.Swap(snap)
	s.log.Infow("index rebuilt", "documents", docCount, "chunks", snap.Len())

	summary, err := s.summarizer.Summarize(corpus.String(), 5)
	if err != nil {
		s.log.Warnw("corpus summary failed", "error", err)
		summary = ""
	}
	return summary, snap.Len(), nil
}

// Ask answers one question. It never fails on model or scoring trouble;
// only an empty question or an unbuilt index is an error. When a store and
// userID are present the exchange is persisted, and low-confidence answers
// are recorded for escalation.
func (s *Service) Ask(ctx context.Context, userID, question string, topK int) (domain.AnswerEnvelope, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.AnswerEnvelope{}, ErrEmptyQuestion
	}
	if topK <= 0 {
		topK = s.topK
	}

	snap := s.handle.Snapshot()
	results, err := snap.Search(question, topK)
	if err != nil {
		return domain.AnswerEnvelope{}, fmt.Errorf("search: %w", err)
	}
	if allZeroScores(results) && snap.Len() > 0 {
		// The query shares no vocabulary with the trained space; fall back
		// to plain lexical overlap so the user still gets candidates.
		results = lexicalSearch(question, snap.Chunks(), topK)
	}

	var env domain.AnswerEnvelope
	if len(results) == 0 {
		env = domain.AnswerEnvelope{
			Answer:          llm.NoInformationMessage,
			Confidence:      0.0,
			NeedsEscalation: true,
			Reason:          noDocumentsReason,
			Sources:         []domain.Source{},
		}
	} else {
		avgSim := averageScore(results)
		raw := s.generator.Answer(ctx, question, results)
		parsed := answer.Parse(raw, avgSim)
		env = s.policy.Finalize(parsed, avgSim, question)
		env.Sources = make([]domain.Source, 0, len(results))
		for _, r := range results {
			env.Sources = append(env.Sources, domain.Source{ChunkID: r.ChunkID, Score: r.Score})
		}
	}

	if s.chats != nil && userID != "" {
		if _, err := s.chats.SaveChat(ctx, userID, question, env); err != nil {
			s.log.Errorw("persist chat failed", "user_id", userID, "error", err)
		}
	}
	return env, nil
}

func averageScore(results []domain.RetrievalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}

func allZeroScores(results []domain.RetrievalResult) bool {
	for _, r := range results {
		if r.Score > 1e-9 {
			return false
		}
	}
	return true
}

var lexicalWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// lexicalSearch ranks chunks by Ochiai overlap between the question and
// chunk vocabularies. Zero-overlap chunks are excluded.
func lexicalSearch(question string, chunks []domain.Chunk, topK int) []domain.RetrievalResult {
	qset := toTokenSet(question)
	type pair struct {
		idx   int
		score float64
	}
	var scored []pair
	for i, ch := range chunks {
		if score := overlapOchiai(qset, ch.Text); score > 0 {
			scored = append(scored, pair{i, score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if topK > len(scored) {
		topK = len(scored)
	}
	out := make([]domain.RetrievalResult, 0, topK)
	for i := 0; i < topK; i++ {
		p := scored[i]
		out = append(out, domain.RetrievalResult{
			ChunkID: chunks[p.idx].ID,
			Text:    chunks[p.idx].Text,
			Score:   p.score,
		})
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := lexicalWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over distinct token sets.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	stoks := lexicalWordRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(stoks))
	inter := 0
	for _, t := range stoks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}

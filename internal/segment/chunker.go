// Package segment turns raw extracted document text into retrievable chunks.
package segment

import (
	"regexp"
	"strings"

	"hrchat/internal/domain"
)

// Config bounds chunk sizes in words. Paragraphs are packed greedily until
// TargetWords, hard-split at MaxWords, and consecutive chunks share
// OverlapWords words of context.
type Config struct {
	TargetWords  int `yaml:"target_words"`
	MinWords     int `yaml:"min_words"`
	MaxWords     int `yaml:"max_words"`
	OverlapWords int `yaml:"overlap_words"`
}

// DefaultConfig returns the chunk size bounds used for HR policy documents.
func DefaultConfig() Config {
	return Config{TargetWords: 400, MinWords: 300, MaxWords: 500, OverlapWords: 50}
}

// Chunker splits cleaned text into overlapping chunks on paragraph
// boundaries, falling back to sentence boundaries for oversized paragraphs.
type Chunker struct {
	cfg Config
}

// NewChunker creates a chunker, substituting defaults for non-positive bounds.
func NewChunker(cfg Config) *Chunker {
	def := DefaultConfig()
	if cfg.TargetWords <= 0 {
		cfg.TargetWords = def.TargetWords
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = def.MinWords
	}
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = def.MaxWords
	}
	if cfg.OverlapWords < 0 {
		cfg.OverlapWords = def.OverlapWords
	}
	return &Chunker{cfg: cfg}
}

var sentenceSplitRe = regexp.MustCompile(`([.!?])\s+(\p{Lu})`)

// CleanAndChunk runs the cleaning pass and then chunks the result. Non-empty
// input always yields at least one chunk: if chunking produces nothing, the
// cleaned (or raw) text becomes a single chunk.
func (c *Chunker) CleanAndChunk(raw, sourceDocument string) []domain.Chunk {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	cleaned := Clean(raw)
	if cleaned == "" {
		cleaned = strings.TrimSpace(raw)
	}
	chunks := c.Chunk(cleaned)
	if len(chunks) == 0 {
		chunks = []domain.Chunk{{ID: 1, Text: cleaned}}
	}
	for i := range chunks {
		chunks[i].SourceDocument = sourceDocument
	}
	return chunks
}

// Chunk splits cleaned text into chunks. Every chunk except possibly the
// last holds at most MaxWords words; the trailing buffer is emitted even
// below MinWords so no content is lost.
func (c *Chunker) Chunk(cleaned string) []domain.Chunk {
	paragraphs := splitParagraphs(cleaned)
	if len(paragraphs) == 0 {
		return nil
	}

	b := &builder{cfg: c.cfg}
	for _, para := range paragraphs {
		if wordCount(para) > c.cfg.MaxWords {
			// Oversized paragraph: flush and pack sentence by sentence.
			b.flush()
			for _, sent := range SplitSentences(para) {
				b.add(sent)
			}
			continue
		}
		b.add(para)
	}
	b.finish()
	return b.chunks
}

// builder accumulates text pieces into chunks, seeding each new chunk with
// the tail of the previous one for context continuity.
type builder struct {
	cfg    Config
	chunks []domain.Chunk
	buf    []string
	words  int
	// seedOnly marks a buffer holding nothing but the overlap seed, which
	// must not become a chunk of its own.
	seedOnly bool
}

func (b *builder) add(piece string) {
	n := wordCount(piece)
	// A buffer holding only the overlap seed never becomes a chunk of its
	// own; the seed merges into the incoming piece instead.
	if b.words+n > b.cfg.MaxWords && len(b.buf) > 0 && !b.seedOnly {
		b.emit()
		b.seedOverlap()
	}
	b.seedOnly = false
	b.buf = append(b.buf, piece)
	b.words += n
	if b.words >= b.cfg.TargetWords {
		b.emit()
		b.seedOverlap()
	}
}

// flush emits the buffer before switching to sentence-level packing. A
// buffer holding only the overlap seed stays put so the seed carries into
// the sentence-packed chunk.
func (b *builder) flush() {
	if len(b.buf) > 0 && !b.seedOnly {
		b.emit()
	}
}

// finish emits whatever remains, even below the minimum size, unless the
// buffer is empty or pure overlap.
func (b *builder) finish() {
	if len(b.buf) == 0 || b.seedOnly {
		return
	}
	text := strings.Join(b.buf, " ")
	if strings.TrimSpace(text) == "" {
		b.buf, b.words = nil, 0
		return
	}
	b.chunks = append(b.chunks, domain.Chunk{ID: len(b.chunks) + 1, Text: text})
	b.buf, b.words = nil, 0
}

func (b *builder) emit() {
	text := strings.Join(b.buf, " ")
	b.chunks = append(b.chunks, domain.Chunk{ID: len(b.chunks) + 1, Text: text})
	b.buf, b.words = nil, 0
}

func (b *builder) seedOverlap() {
	if b.cfg.OverlapWords <= 0 || len(b.chunks) == 0 {
		return
	}
	prev := strings.Fields(b.chunks[len(b.chunks)-1].Text)
	start := len(prev) - b.cfg.OverlapWords
	if start < 0 {
		start = 0
	}
	overlap := strings.Join(prev[start:], " ")
	b.buf = []string{overlap}
	b.words = wordCount(overlap)
	b.seedOnly = true
}

// SplitSentences splits text on ./!/? followed by whitespace and an upper
// case letter. Text without sentence boundaries comes back as one sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	marked := sentenceSplitRe.ReplaceAllString(text, "$1\x00$2")
	parts := strings.Split(marked, "\x00")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrchat/internal/answer"
	"hrchat/internal/embedding"
	"hrchat/internal/llm"
	"hrchat/internal/segment"
	"hrchat/internal/store"
)

// topicEmbedder maps topic keywords onto fixed axes so retrieval scores in
// tests are predictable. "parking" leaks slightly onto the vacation axis to
// model a near-orthogonal query.
type topicEmbedder struct{}

func (topicEmbedder) Name() string            { return "topic" }
func (topicEmbedder) Prepare([]string) error  { return nil }
func (topicEmbedder) Dimension() int          { return 4 }

func (topicEmbedder) Embed(text string) ([]float64, error) {
	axes := map[string][]float64{
		"vacation": {1, 0, 0, 0},
		"sick":     {0, 1, 0, 0},
		"remote":   {0, 0, 1, 0},
		"parking":  {0.1, 0, 0, 1},
	}
	vec := make([]float64, 4)
	for word, axis := range axes {
		n := strings.Count(strings.ToLower(text), word)
		for i := range vec {
			vec[i] += float64(n) * axis[i]
		}
	}
	return vec, nil
}

func writeDocs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	vacation := "Vacation Policy\n\nEmployees receive 20 vacation days per year. " +
		"Vacation days accrue monthly and unused vacation time carries over up to five days."
	sick := "Sick Leave\n\nEmployees receive 10 sick days per year. " +
		"A doctor's note is required after three consecutive sick days."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vacation.txt"), []byte(vacation), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sick.txt"), []byte(sick), 0o644))
	return dir
}

func newTestService(t *testing.T, docsDir string, topK int, opts Options) *Service {
	t.Helper()
	factory := embedding.Factory(func() (embedding.Embedder, error) {
		return topicEmbedder{}, nil
	})
	gen := answer.NewGenerator(llm.NewMock(), nil)
	return New(factory, segment.NewChunker(segment.DefaultConfig()), gen,
		answer.DefaultPolicy(), docsDir, topK, opts)
}

func TestReindexBuildsIndex(t *testing.T) {
	svc := newTestService(t, writeDocs(t), 3, Options{})
	_, chunks, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, chunks)
	assert.Equal(t, 2, svc.ChunkCount())
}

func TestReindexNoDocuments(t *testing.T) {
	svc := newTestService(t, t.TempDir(), 3, Options{})
	_, _, err := svc.Reindex(context.Background())
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestAskConfidentAnswer(t *testing.T) {
	svc := newTestService(t, writeDocs(t), 1, Options{})
	_, _, err := svc.Reindex(context.Background())
	require.NoError(t, err)

	env, err := svc.Ask(context.Background(), "", "How many vacation days do employees get?", 1)
	require.NoError(t, err)

	assert.Contains(t, strings.ToLower(env.Answer), "vacation")
	assert.GreaterOrEqual(t, env.Confidence, 0.60)
	assert.False(t, env.NeedsEscalation)
	require.Len(t, env.Sources, 1)
	assert.Greater(t, env.Sources[0].Score, 0.9)
}

func TestAskLowSimilarityEscalates(t *testing.T) {
	svc := newTestService(t, writeDocs(t), 1, Options{})
	_, _, err := svc.Reindex(context.Background())
	require.NoError(t, err)

	// "parking" is nearly orthogonal to every indexed topic and absent from
	// the documents, so the mock admits ignorance and confidence stays low.
	env, err := svc.Ask(context.Background(), "", "What is the parking reimbursement?", 1)
	require.NoError(t, err)

	assert.Equal(t, llm.NoInformationMessage, env.Answer)
	assert.LessOrEqual(t, env.Confidence, 0.40)
	assert.True(t, env.NeedsEscalation)
}

func TestAskNoRelevantDocuments(t *testing.T) {
	svc := newTestService(t, writeDocs(t), 3, Options{})
	_, _, err := svc.Reindex(context.Background())
	require.NoError(t, err)

	// No embedding signal and no lexical overlap at all.
	env, err := svc.Ask(context.Background(), "", "Zzyzx qwerty?", 3)
	require.NoError(t, err)

	assert.Equal(t, llm.NoInformationMessage, env.Answer)
	assert.Equal(t, 0.0, env.Confidence)
	assert.True(t, env.NeedsEscalation)
	assert.Equal(t, "No relevant documents found", env.Reason)
	assert.Empty(t, env.Sources)
}

func TestAskEmptyQuestion(t *testing.T) {
	svc := newTestService(t, writeDocs(t), 3, Options{})
	_, err := svc.Ask(context.Background(), "", "   ", 3)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAskBeforeReindex(t *testing.T) {
	svc := newTestService(t, writeDocs(t), 3, Options{})
	env, err := svc.Ask(context.Background(), "", "vacation days?", 3)
	require.NoError(t, err)
	assert.Equal(t, llm.NoInformationMessage, env.Answer)
	assert.True(t, env.NeedsEscalation)
}

func TestAskLexicalFallback(t *testing.T) {
	svc := newTestService(t, writeDocs(t), 2, Options{})
	_, _, err := svc.Reindex(context.Background())
	require.NoError(t, err)

	// "doctor's note" hits no embedding axis, so retrieval falls back to
	// lexical overlap and still finds the sick leave chunk.
	env, err := svc.Ask(context.Background(), "", "When is a doctor's note required?", 2)
	require.NoError(t, err)
	require.NotEmpty(t, env.Sources)
	assert.Contains(t, strings.ToLower(env.Answer), "note")
}

func TestAskPersistsChatAndEscalation(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "chats.db"))
	require.NoError(t, err)
	defer st.Close()

	svc := newTestService(t, writeDocs(t), 1, Options{Chats: st})
	_, _, err = svc.Reindex(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.Ask(ctx, "emp-7", "How many vacation days do employees get?", 1)
	require.NoError(t, err)
	_, err = svc.Ask(ctx, "emp-7", "What is the parking reimbursement?", 1)
	require.NoError(t, err)

	chats, err := st.ListChats(ctx, "emp-7", 10)
	require.NoError(t, err)
	assert.Len(t, chats, 2)

	escalations, err := st.ListEscalations(ctx, "pending", 10)
	require.NoError(t, err)
	require.Len(t, escalations, 1)
	assert.Equal(t, "What is the parking reimbursement?", escalations[0].Question)
}

func TestAverageScore(t *testing.T) {
	assert.Equal(t, 0.0, averageScore(nil))
}

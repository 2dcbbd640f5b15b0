package domain

// Chunk is a bounded span of cleaned document text, the unit of retrieval.
type Chunk struct {
	ID             int
	Text           string
	SourceDocument string
}

// RetrievalResult is a matching chunk with its cosine similarity to a query.
type RetrievalResult struct {
	ChunkID int
	Text    string
	Score   float64
}

// Source identifies a chunk that contributed to an answer.
type Source struct {
	ChunkID int     `json:"chunk_id"`
	Score   float64 `json:"score"`
}

// AnswerEnvelope is the final structured output of the answer pipeline.
// Confidence is always in [0, 1] rounded to 2 decimals, and NeedsEscalation
// always equals Confidence < the escalation threshold.
type AnswerEnvelope struct {
	Answer          string   `json:"answer"`
	Confidence      float64  `json:"confidence"`
	NeedsEscalation bool     `json:"needsEscalation"`
	Reason          string   `json:"reason"`
	Sources         []Source `json:"sources"`
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// Segmenter cleans raw extracted document text and splits it into chunks.
type Segmenter interface {
	CleanAndChunk(raw, sourceDocument string) []Chunk
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

package menu

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/tmc/langchaingo/embeddings"
)

// Embedder turns text into vectors in a shared space
type Embedder interface {
	// Name identifies the embedding space; cached vectors are only reused
	// when the name matches.
	Name() string
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// HashEmbedder produces deterministic feature-hashed vectors from words and
// character trigrams. It needs no network and is the default embedder.
type HashEmbedder struct {
	Dimensions int
}

// NewHashEmbedder creates a hash embedder with the given dimensionality
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 512
	}
	return &HashEmbedder{Dimensions: dimensions}
}

// Name implements Embedder
func (h *HashEmbedder) Name() string {
	return fmt.Sprintf("hash-%d", h.Dimensions)
}

// EmbedDocuments implements Embedder
func (h *HashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = h.embed(text)
	}
	return vectors, nil
}

// EmbedQuery implements Embedder
func (h *HashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}

func (h *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, h.Dimensions)

	for _, word := range words(text) {
		h.add(vec, "w:"+word, 1.0)

		padded := []rune("^" + word + "$")
		for i := 0; i+3 <= len(padded); i++ {
			h.add(vec, "t:"+string(padded[i:i+3]), 0.5)
		}
	}

	normalizeVector(vec)
	return vec
}

func (h *HashEmbedder) add(vec []float32, feature string, weight float32) {
	hasher := fnv.New32a()
	hasher.Write([]byte(feature))
	sum := hasher.Sum32()

	// The top bit picks the sign so collisions partially cancel out
	sign := float32(1)
	if sum&0x80000000 != 0 {
		sign = -1
	}
	vec[int(sum%uint32(len(vec)))] += sign * weight
}

// LLMEmbedder embeds through a langchaingo embedding client
type LLMEmbedder struct {
	model    string
	embedder embeddings.Embedder
}

// NewLLMEmbedder wraps a langchaingo embedder client (for example an
// openai.LLM) under the given model name
func NewLLMEmbedder(client embeddings.EmbedderClient, model string) (*LLMEmbedder, error) {
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(32))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return &LLMEmbedder{model: model, embedder: embedder}, nil
}

// Name implements Embedder
func (l *LLMEmbedder) Name() string {
	return "llm-" + l.model
}

// EmbedDocuments implements Embedder
func (l *LLMEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := l.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	return vectors, nil
}

// EmbedQuery implements Embedder
func (l *LLMEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vector, nil
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0
// when either is empty or the lengths differ
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / math.Sqrt(normA*normB)
}

func normalizeVector(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbeddingClient satisfies langchaingo's embeddings.EmbedderClient
type fakeEmbeddingClient struct {
	calls int
	err   error
}

func (f *fakeEmbeddingClient) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1, 0}
	}
	return out, nil
}

func TestHashEmbedder_DeterministicAndNormalized(t *testing.T) {
	embedder := NewHashEmbedder(0)
	ctx := context.Background()

	a, err := embedder.EmbedQuery(ctx, "Crunchy Taco")
	require.NoError(t, err)
	b, err := embedder.EmbedQuery(ctx, "crunchy   taco")
	require.NoError(t, err)

	assert.Len(t, a, 512)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, cosineSimilarity(a, b), 1e-6)
	assert.Equal(t, "hash-512", embedder.Name())
}

func TestHashEmbedder_SimilarTextScoresHigher(t *testing.T) {
	embedder := NewHashEmbedder(256)
	ctx := context.Background()

	docs, err := embedder.EmbedDocuments(ctx, []string{"cinnamon twists dessert", "beef burrito"})
	require.NoError(t, err)
	query, err := embedder.EmbedQuery(ctx, "cinnamon twist")
	require.NoError(t, err)

	assert.Greater(t, cosineSimilarity(query, docs[0]), cosineSimilarity(query, docs[1]))
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestLLMEmbedder(t *testing.T) {
	client := &fakeEmbeddingClient{}
	embedder, err := NewLLMEmbedder(client, "text-embedding-3-small")
	require.NoError(t, err)

	assert.Equal(t, "llm-text-embedding-3-small", embedder.Name())

	docs, err := embedder.EmbedDocuments(context.Background(), []string{"taco", "burrito"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	query, err := embedder.EmbedQuery(context.Background(), "taco")
	require.NoError(t, err)
	assert.Len(t, query, 3)
	assert.Positive(t, client.calls)
}

func TestLLMEmbedder_PropagatesErrors(t *testing.T) {
	client := &fakeEmbeddingClient{err: errors.New("quota exceeded")}
	embedder, err := NewLLMEmbedder(client, "m")
	require.NoError(t, err)

	_, err = embedder.EmbedQuery(context.Background(), "taco")
	assert.ErrorContains(t, err, "quota exceeded")
}

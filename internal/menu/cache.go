package menu

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"drivethru/internal/models"
)

// embeddingCache is the on-disk form of the catalog vectors
type embeddingCache struct {
	Embedder    string      `json:"embedder"`
	Fingerprint string      `json:"fingerprint"`
	Vectors     [][]float32 `json:"vectors"`
}

// catalogFingerprint identifies a catalog's searchable content
func catalogFingerprint(items []models.CatalogItem) string {
	h := sha256.New()
	for _, item := range items {
		h.Write([]byte(item.SearchText()))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// loadEmbeddingCache returns cached vectors when the file exists and was
// produced by the same embedder over the same catalog
func loadEmbeddingCache(path, embedder, fingerprint string, count int) ([][]float32, bool) {
	if path == "" {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var cache embeddingCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, false
	}

	if cache.Embedder != embedder || cache.Fingerprint != fingerprint || len(cache.Vectors) != count {
		return nil, false
	}
	return cache.Vectors, true
}

// saveEmbeddingCache writes vectors to path, creating parent directories
func saveEmbeddingCache(path, embedder, fingerprint string, vectors [][]float32) error {
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(embeddingCache{
		Embedder:    embedder,
		Fingerprint: fingerprint,
		Vectors:     vectors,
	})
	if err != nil {
		return fmt.Errorf("failed to encode embedding cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write embedding cache: %w", err)
	}
	return nil
}

package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Document is one indexed chunk of the knowledge base.
type Document struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Scored pairs a document with its similarity to a query.
type Scored struct {
	Document
	Score float64 `json:"score"`
}

// Embedder turns text into a vector. Implementations must be
// deterministic for the same input within a process lifetime, or the
// index and queries drift apart.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type entry struct {
	doc Document
	vec []float64
}

// VectorStore is an in-memory cosine-similarity index over embedded
// document chunks. The corpus is small and per-process, so a flat scan
// is the whole search strategy.
type VectorStore struct {
	mu       sync.RWMutex
	embedder Embedder
	entries  []entry
}

// NewVectorStore creates an empty store using the given embedder for
// both documents and queries.
func NewVectorStore(embedder Embedder) *VectorStore {
	return &VectorStore{embedder: embedder}
}

// Add embeds and indexes the given documents.
func (s *VectorStore) Add(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		vec, err := s.embedder.Embed(ctx, doc.Text)
		if err != nil {
			return fmt.Errorf("failed to embed document from %s: %w", doc.Source, err)
		}
		s.mu.Lock()
		s.entries = append(s.entries, entry{doc: doc, vec: vec})
		s.mu.Unlock()
	}
	return nil
}

// Len returns the number of indexed chunks.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Query embeds the query text and returns the topK most similar
// chunks, best first.
func (s *VectorStore) Query(ctx context.Context, query string, topK int) ([]Scored, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.QueryEmbedding(ctx, vec, topK)
}

// QueryEmbedding returns the topK chunks most similar to the given
// embedding, best first.
func (s *VectorStore) QueryEmbedding(ctx context.Context, embedding []float64, topK int) ([]Scored, error) {
	if topK <= 0 {
		topK = 3
	}

	s.mu.RLock()
	scored := make([]Scored, 0, len(s.entries))
	for _, e := range s.entries {
		scored = append(scored, Scored{
			Document: e.doc,
			Score:    cosine(embedding, e.vec),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

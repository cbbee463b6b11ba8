package retrieval

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(128)

	a, err := e.Embed(context.Background(), "TechNova revenue grew in Q1 2024")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "TechNova revenue grew in Q1 2024")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
}

func TestHashEmbedderNormalized(t *testing.T) {
	e := NewHashEmbedder(64)

	vec, err := e.Embed(context.Background(), "alpha beta gamma delta")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestHashEmbedderEmptyText(t *testing.T) {
	e := NewHashEmbedder(64)

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)

	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestHashEmbedderCaseInsensitive(t *testing.T) {
	e := NewHashEmbedder(64)

	a, _ := e.Embed(context.Background(), "TechNova Revenue")
	b, _ := e.Embed(context.Background(), "technova revenue")
	assert.Equal(t, a, b)
}

func TestHashEmbedderTinyDimsRaised(t *testing.T) {
	e := NewHashEmbedder(2)

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 256)
}

func TestVectorStoreQueryRanksBySimilarity(t *testing.T) {
	store := NewVectorStore(NewHashEmbedder(256))
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []Document{
		{Text: "TechNova quarterly revenue reached 125 million dollars in the first quarter", Source: "earnings.txt"},
		{Text: "the weather in the mountains stays cold through late spring", Source: "weather.txt"},
		{Text: "TechNova revenue guidance for next quarter remains unchanged", Source: "guidance.txt"},
	}))
	require.Equal(t, 3, store.Len())

	scored, err := store.Query(ctx, "TechNova revenue for the quarter", 3)
	require.NoError(t, err)
	require.Len(t, scored, 3)

	// Best match first, and the off-topic chunk last.
	assert.True(t, scored[0].Score >= scored[1].Score)
	assert.True(t, scored[1].Score >= scored[2].Score)
	assert.Equal(t, "weather.txt", scored[2].Source)
	assert.Greater(t, scored[0].Score, scored[2].Score)
}

func TestVectorStoreQueryTopK(t *testing.T) {
	store := NewVectorStore(NewHashEmbedder(256))
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []Document{
		{Text: "first chunk of text long enough to matter", Source: "a.txt"},
		{Text: "second chunk of text long enough to matter", Source: "b.txt"},
		{Text: "third chunk of text long enough to matter", Source: "c.txt"},
	}))

	scored, err := store.Query(ctx, "chunk of text", 2)
	require.NoError(t, err)
	assert.Len(t, scored, 2)

	// Non-positive topK falls back to the default.
	scored, err = store.Query(ctx, "chunk of text", 0)
	require.NoError(t, err)
	assert.Len(t, scored, 3)
}

func TestVectorStoreEmpty(t *testing.T) {
	store := NewVectorStore(NewHashEmbedder(64))

	scored, err := store.Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, scored)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.Zero(t, cosine([]float64{0, 0}, []float64{1, 1}))
	assert.InDelta(t, math.Sqrt2/2, cosine([]float64{1, 0}, []float64{1, 1}), 1e-9)
}

func TestSplitParagraphs(t *testing.T) {
	text := strings.Join([]string{
		"This opening paragraph is comfortably longer than the minimum chunk size.",
		"short",
		"A second real paragraph that also clears the minimum length threshold easily.",
	}, "\n\n")

	chunks := SplitParagraphs(text)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "opening paragraph")
	assert.Contains(t, chunks[1], "second real paragraph")
}

func TestSplitParagraphsWindowsLineEndings(t *testing.T) {
	text := "First paragraph with enough words to pass the cutoff check.\r\n\r\nSecond paragraph with enough words to pass the cutoff check."

	chunks := SplitParagraphs(text)
	assert.Len(t, chunks, 2)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	report := "TechNova Q1 2024 earnings summary with all the usual headline figures.\n\nRevenue grew eighteen percent year over year to 125 million dollars."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "q1_2024.txt"), []byte(report), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("markdown files are ignored by the loader entirely"), 0o644))

	docs, err := LoadDirectory(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, doc := range docs {
		assert.Equal(t, "q1_2024.txt", doc.Source)
	}
}

func TestLoadDirectoryMissing(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat/internal/docproc"
	"coursechat/internal/embedding/tfidf"
	"coursechat/internal/vectorstore"
	"coursechat/internal/vectorstore/memory"
)

const goodDocument = `Course Title: Sample Course
Course Link: https://example.com/sample
Course Instructor: Test Instructor

Lesson 0: Introduction
Lesson Link: https://example.com/lesson0
This is the introduction lesson with basic concepts. It lays out the course structure.

Lesson 1: Advanced Topics
Lesson Link: https://example.com/lesson1
This lesson covers more advanced material and techniques in depth.
`

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newLoader(t *testing.T) (*Loader, *vectorstore.Store, *memory.Index) {
	t.Helper()
	content := memory.NewIndex()
	emb := tfidf.NewEmbedder()
	store := vectorstore.NewStore(memory.NewIndex(), content, emb, vectorstore.Options{
		MaxResults:       5,
		ResolveThreshold: 0.3,
	})
	proc := docproc.NewProcessor(200, 40)
	return NewLoader(proc, store, emb, nil), store, content
}

func TestLoadDirectorySkipsMalformedAndContinues(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"good.txt":    goodDocument,
		"broken.txt":  "No header here.\nJust text.",
		"ignored.pdf": "binary stuff",
	})
	loader, store, _ := newLoader(t)

	courses, chunks, err := loader.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, courses)
	assert.Greater(t, chunks, 0)

	count, titles := store.Analytics()
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"Sample Course"}, titles)
}

func TestLoadDirectoryTwiceIsIdempotent(t *testing.T) {
	dir := writeDocs(t, map[string]string{"good.txt": goodDocument})
	loader, _, content := newLoader(t)

	_, firstChunks, err := loader.LoadDirectory(dir)
	require.NoError(t, err)
	size := content.Len()
	require.Greater(t, size, 0)

	_, _, err = loader.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, size, content.Len())
	assert.Equal(t, size, firstChunks)
}

func TestLoadDirectoryEmptyIsNoop(t *testing.T) {
	dir := writeDocs(t, map[string]string{})
	loader, _, _ := newLoader(t)

	courses, chunks, err := loader.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Zero(t, courses)
	assert.Zero(t, chunks)
}

func TestLoadedContentIsSearchable(t *testing.T) {
	dir := writeDocs(t, map[string]string{"good.txt": goodDocument})
	loader, store, _ := newLoader(t)

	_, _, err := loader.LoadDirectory(dir)
	require.NoError(t, err)

	lesson := 1
	title := "Sample Course"
	hits, err := store.Search("advanced material and techniques",
		vectorstore.BuildFilter(&title, &lesson), 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.Equal(t, "Sample Course", h.Chunk.CourseTitle)
		require.NotNil(t, h.Chunk.LessonNumber)
		assert.Equal(t, 1, *h.Chunk.LessonNumber)
	}
}

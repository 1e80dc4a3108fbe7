package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Processor.ChunkSize)
	require.NotNil(t, cfg.Processor.ChunkOverlap)
	assert.Equal(t, 100, *cfg.Processor.ChunkOverlap)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	require.NotNil(t, cfg.Search.ResolveThreshold)
	assert.Equal(t, 0.3, *cfg.Search.ResolveThreshold)
	assert.Equal(t, 2, cfg.Session.MaxHistory)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.Generator.APIKeyEnv)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
processor:
  chunk_size: 200
search:
  max_results: 3
vector_store:
  type: qdrant
  qdrant:
    url: http://localhost:6333
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Processor.ChunkSize)
	require.NotNil(t, cfg.Processor.ChunkOverlap)
	assert.Equal(t, 100, *cfg.Processor.ChunkOverlap)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	require.NotNil(t, cfg.VectorStore.Qdrant)
	assert.Equal(t, "coursechat", cfg.VectorStore.Qdrant.CollectionPrefix)
	assert.Equal(t, 15, cfg.VectorStore.Qdrant.TimeoutSecs)
}

func TestLoadKeepsExplicitZeroes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
processor:
  chunk_overlap: 0
search:
  resolve_threshold: 0
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Processor.ChunkOverlap)
	assert.Equal(t, 0, *cfg.Processor.ChunkOverlap)
	require.NotNil(t, cfg.Search.ResolveThreshold)
	assert.Equal(t, 0.0, *cfg.Search.ResolveThreshold)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("::not yaml::"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

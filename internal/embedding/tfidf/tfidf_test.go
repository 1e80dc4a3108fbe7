package tfidf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedRequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed("anything")
	require.Error(t, err)
}

func TestPrepareRejectsEmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	require.Error(t, e.Prepare(nil))
}

func TestSimilarTextsScoreHigherThanDissimilar(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"retrieval augmented generation combines search with language models",
		"vector embeddings map text into numeric space",
		"cooking pasta requires boiling water and salt",
	}))
	require.Greater(t, e.Dimension(), 0)

	query, err := e.Embed("how do vector embeddings work")
	require.NoError(t, err)
	onTopic, err := e.Embed("embeddings map text into vector space")
	require.NoError(t, err)
	offTopic, err := e.Embed("boiling water for pasta")
	require.NoError(t, err)

	assert.Greater(t, dot(query, onTopic), dot(query, offTopic))
}

func TestUnknownTokensEmbedToZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"alpha beta gamma"}))

	vec, err := e.Embed("zzz qqq")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestVectorsAreL2Normalized(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"alpha beta gamma delta",
		"alpha epsilon zeta",
	}))

	vec, err := e.Embed("alpha beta")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dot(vec, vec), 1e-9)
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

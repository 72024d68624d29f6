package entity

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDocumentHit(t *testing.T) {
	doc := &schema.Document{ID: "a", Content: "alpha", MetaData: map[string]any{"year": 2023}}

	res, err := Normalize(DocumentHit{Doc: doc})
	require.NoError(t, err)
	assert.Equal(t, "alpha", res.Text)
	assert.Nil(t, res.Score)
	assert.Equal(t, Metadata{"year": 2023}, res.Metadata)

	res, err = Normalize(DocumentHit{Doc: WithScore(doc, 0.75)})
	require.NoError(t, err)
	require.NotNil(t, res.Score)
	assert.InDelta(t, 0.75, *res.Score, 1e-6)
	assert.NotContains(t, res.Metadata, "_score")
}

func TestNormalizeMappingHit(t *testing.T) {
	res, err := Normalize(MappingHit{Fields: map[string]any{
		"id":       "b",
		"document": "beta",
		"metadata": map[string]any{"source": "raw"},
		"distance": 0.2,
	}})
	require.NoError(t, err)
	assert.Equal(t, "b", res.ID)
	assert.Equal(t, "beta", res.Text)
	assert.Equal(t, "raw", res.Metadata["source"])
	require.NotNil(t, res.Score)
	assert.InDelta(t, 0.2, *res.Score, 1e-6)

	res, err = Normalize(MappingHit{Fields: map[string]any{"text": "no score"}})
	require.NoError(t, err)
	assert.Equal(t, "no score", res.Text)
	assert.Nil(t, res.Score)
	assert.NotNil(t, res.Metadata)
}

func TestNormalizeScoredHit(t *testing.T) {
	res, err := Normalize(&ScoredHit{Doc: Document{ID: "c", Text: "gamma"}, Score: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "gamma", res.Text)
	require.NotNil(t, res.Score)
	assert.Equal(t, float32(0.5), *res.Score)
	assert.NotNil(t, res.Metadata)
}

func TestNormalizeAllKeepsOrder(t *testing.T) {
	out, err := NormalizeAll([]RawHit{
		ScoredHit{Doc: Document{Text: "first"}, Score: 0.1},
		MappingHit{Fields: map[string]any{"document": "second"}},
		DocumentHit{Doc: &schema.Document{Content: "third"}},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{out[0].Text, out[1].Text, out[2].Text})
}

func TestNormalizeUnknown(t *testing.T) {
	_, err := Normalize(nil)
	assert.Error(t, err)
}

func TestChunkID(t *testing.T) {
	a := ChunkID(0, "hello")
	assert.Equal(t, a, ChunkID(0, "hello"))
	assert.NotEqual(t, a, ChunkID(1, "hello"))
	assert.NotEqual(t, a, ChunkID(0, "hello!"))
	// sha256("hello") = 2cf24dba...
	assert.Equal(t, "chunk_0_2cf24dba", a)
}

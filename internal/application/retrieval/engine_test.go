package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-novel-assistant/internal/workflow/prompt"
)

func segment(id, owner, body string) *VectorSearchResult {
	meta := SegmentMeta{BookID: "b-" + owner, ChapterID: "c1", PageID: "p-" + id}
	return &VectorSearchResult{ID: id, OwnerID: owner, TextContent: encodeSegmentText(meta, body)}
}

func newTestEngine(vec *fakeVectors, gen *scoringGenerator) *Engine {
	return NewEngine(&fakeEmbedder{}, vec, NewReranker(gen, prompt.NewRegistry(), 1), 5)
}

func TestEngine_OwnerIsolation(t *testing.T) {
	vec := &fakeVectors{
		leak: true,
		byOwner: map[string][]*VectorSearchResult{
			"owner-a": {segment("a1", "owner-a", "the dragon sleeps under the lake")},
			"owner-b": {segment("b1", "owner-b", "the dragon sleeps under the lake, secret draft")},
		},
	}

	docs, err := newTestEngine(vec, &scoringGenerator{}).Candidates(context.Background(), "owner-a", "dragon")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a1", docs[0].ID)
	assert.Equal(t, "owner-a", docs[0].OwnerID)
	assert.Equal(t, "book/b-owner-a/chapter/c1/page/p-a1", docs[0].SourceRef)
	assert.Equal(t, 5, vec.lastTopK)
}

func TestEngine_RetrieveKeepsSingleQualifyingDoc(t *testing.T) {
	vec := &fakeVectors{byOwner: map[string][]*VectorSearchResult{
		"u": {segment("1", "u", "lake chapter"), segment("2", "u", "forest chapter")},
	}}
	gen := &scoringGenerator{scores: map[string]string{"lake": "8", "forest": "3"}}

	res := newTestEngine(vec, gen).Retrieve(context.Background(), "u", "which one?", nil)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "1", res.Sources[0].ID)
	assert.Contains(t, res.ContextText, "lake chapter")
	assert.Empty(t, res.DisabledReason)
}

func TestEngine_RetrieveNoQualifyingDocs(t *testing.T) {
	vec := &fakeVectors{byOwner: map[string][]*VectorSearchResult{
		"u": {segment("1", "u", "lake chapter")},
	}}
	gen := &scoringGenerator{scores: map[string]string{"lake": "3"}}

	res := newTestEngine(vec, gen).Retrieve(context.Background(), "u", "q", nil)
	assert.True(t, res.Empty())
	assert.Equal(t, "", res.ContextText)
	assert.NotNil(t, res.Sources)
}

func TestEngine_RetrieveDegrades(t *testing.T) {
	tests := []struct {
		name   string
		engine *Engine
		owner  string
	}{
		{name: "search error", engine: newTestEngine(&fakeVectors{searchErr: errors.New("milvus down")}, &scoringGenerator{}), owner: "u"},
		{name: "disabled", engine: NewEngine(nil, nil, nil, 0), owner: "u"},
		{name: "missing owner", engine: newTestEngine(&fakeVectors{}, &scoringGenerator{}), owner: " "},
		{name: "embed error", engine: NewEngine(&fakeEmbedder{err: errors.New("429")}, &fakeVectors{}, nil, 0), owner: "u"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.engine.Retrieve(context.Background(), tt.owner, "q", nil)
			assert.True(t, res.Empty())
			assert.Equal(t, "", res.ContextText)
			assert.NotEmpty(t, res.DisabledReason)
		})
	}
}

func TestIndexer_PrepareAndWrite(t *testing.T) {
	vec := &fakeVectors{}
	emb := &fakeEmbedder{}
	idx := NewIndexer(emb, vec, 2, 10)

	ref := PageRef{OwnerID: "o", BookID: "b", ChapterID: "c", PageID: "p", Title: "Intro"}
	prepared, err := idx.Prepare(context.Background(), ref, "0123456789abcdefghij0123456789")
	require.NoError(t, err)
	require.NotEmpty(t, prepared.Segments)
	for _, s := range prepared.Segments {
		assert.Equal(t, "o", s.OwnerID)
		meta, _ := decodeSegmentText(s.TextContent)
		assert.Equal(t, "p", meta.PageID)
	}

	require.NoError(t, idx.Write(context.Background(), prepared))
	assert.Equal(t, []string{"o/p"}, vec.deleted)
	assert.Len(t, vec.inserted, len(prepared.Segments))
}

func TestIndexer_Disabled(t *testing.T) {
	_, err := NewIndexer(nil, nil, 0, 0).Prepare(context.Background(), PageRef{OwnerID: "o", PageID: "p"}, "x")
	assert.ErrorIs(t, err, ErrVectorDisabled)
}

func TestSplitByRunes(t *testing.T) {
	assert.Nil(t, splitByRunes("   ", 10, 2))
	assert.Equal(t, []string{"abc"}, splitByRunes("abc", 10, 2))
	assert.Equal(t, []string{"abcd", "cdef", "efgh"}, splitByRunes("abcdefgh", 4, 2))
}

package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		hasChapter bool
		want       Resolution
	}{
		{name: "empty action is rag", action: "", hasChapter: false, want: Resolution{Route: RouteRAG}},
		{name: "unknown action is rag", action: "summarize", hasChapter: true, want: Resolution{Route: RouteRAG}},
		{name: "chapter with context", action: "generate_chapter", hasChapter: true, want: Resolution{Route: RouteChapter}},
		{name: "chapter alias case-insensitive", action: " Chapter ", hasChapter: true, want: Resolution{Route: RouteChapter}},
		{name: "chapter without context", action: "generate_chapter", hasChapter: false, want: Resolution{Route: RouteError, Error: ErrMsgChapterContext}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.action, tt.hasChapter)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Resolve(tt.action, tt.hasChapter))
		})
	}
}

func TestUseRetrieval(t *testing.T) {
	assert.True(t, UseRetrieval(""))
	assert.True(t, UseRetrieval("library"))
	assert.False(t, UseRetrieval("General"))
}

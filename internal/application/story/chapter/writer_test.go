package chapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-novel-assistant/internal/application/page"
	"z-novel-assistant/internal/application/stream"
	"z-novel-assistant/internal/application/stream/streamtest"
	"z-novel-assistant/internal/domain/entity"
	"z-novel-assistant/internal/domain/repository"
	"z-novel-assistant/internal/workflow/port/porttest"
	"z-novel-assistant/internal/workflow/prompt"
	apperrors "z-novel-assistant/pkg/errors"
)

type memBooks struct {
	books   map[string]*entity.Book
	members map[string]bool
}

func (m *memBooks) GetByID(_ context.Context, id string) (*entity.Book, error) {
	if b, ok := m.books[id]; ok {
		return b, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memBooks) IsMember(_ context.Context, bookID, userID string) (bool, error) {
	return m.members[bookID+"/"+userID], nil
}

type memChapters map[string]*entity.Chapter

func (m memChapters) GetByID(_ context.Context, id string) (*entity.Chapter, error) {
	if c, ok := m[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

type recordingPersister struct {
	mu     sync.Mutex
	drafts []page.Draft
	failAt int // 第几次调用失败，从 1 开始；0 表示不失败
}

func (r *recordingPersister) Persist(_ context.Context, d page.Draft) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts = append(r.drafts, d)
	if r.failAt == len(r.drafts) {
		return "", apperrors.ErrQuotaExceeded
	}
	return fmt.Sprintf("page-%d", len(r.drafts)), nil
}

func fixtures() (*memBooks, memChapters) {
	books := &memBooks{
		books: map[string]*entity.Book{
			"book-1": {ID: "book-1", OwnerID: "owner", Title: "The Tide"},
		},
		members: map[string]bool{"book-1/editor": true},
	}
	chapters := memChapters{
		"ch-1":    {ID: "ch-1", BookID: "book-1", Title: "Landfall", Summary: "They reach the shore."},
		"ch-else": {ID: "ch-else", BookID: "book-2", Title: "Elsewhere"},
	}
	return books, chapters
}

func isOutlinePrompt(msgs []*schema.Message) bool {
	return strings.Contains(porttest.SystemText(msgs), "You plan the pages")
}

func chapterGen(outline string, outlineErr error, pageStream func(user string) (*porttest.Stream, error)) *porttest.Generator {
	return &porttest.Generator{
		GenerateFunc: func(msgs []*schema.Message) (string, error) {
			if !isOutlinePrompt(msgs) {
				return "", errors.New("unexpected generate call")
			}
			return outline, outlineErr
		},
		StreamFunc: func(msgs []*schema.Message) (*porttest.Stream, error) {
			return pageStream(porttest.UserText(msgs))
		},
	}
}

func request(userID string) Request {
	return Request{
		Messages: []entity.Message{
			{Role: entity.RoleAssistant, Content: "How can I help?"},
			{Role: entity.RoleUser, Content: "Write the landing scene."},
		},
		UserID:    userID,
		BookID:    "book-1",
		ChapterID: "ch-1",
	}
}

func TestWriter_Stream_TwoPages(t *testing.T) {
	books, chapters := fixtures()
	gen := chapterGen(`{"pages":[{"title":"Shore","summary":"s1","keyPoints":["sand"]},{"title":"Camp","summary":"s2"}]}`, nil,
		func(user string) (*porttest.Stream, error) {
			if strings.Contains(user, "Page 1 of 2") {
				return porttest.NewStream("Waves ", "broke."), nil
			}
			return porttest.NewStream("Fire ", "lit."), nil
		})
	persister := &recordingPersister{}
	w := NewWriter(gen, prompt.NewRegistry(), books, chapters, persister, 0)
	rec := &streamtest.Recorder{}

	done, err := w.Stream(context.Background(), rec, request("editor"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		stream.EventOutline,
		stream.EventPageStart, stream.EventPageChunk, stream.EventChunk, stream.EventPageChunk, stream.EventChunk, stream.EventPageDone,
		stream.EventPageStart, stream.EventPageChunk, stream.EventChunk, stream.EventPageChunk, stream.EventChunk, stream.EventPageDone,
	}, rec.Names())

	outline := rec.Events()[0].Payload.(stream.OutlinePayload)
	assert.Equal(t, 2, outline.TotalPages)
	assert.Equal(t, "Shore", outline.Pages[0].Title)

	assert.Equal(t, "Waves broke.\n\nFire lit.", done.Text)
	assert.Equal(t, []string{"page-1", "page-2"}, done.CreatedPageIDs)
	assert.Equal(t, "", done.PageError)

	require.Len(t, persister.drafts, 2)
	assert.Equal(t, "editor", persister.drafts[0].UserID)
	assert.Equal(t, []string{"sand"}, persister.drafts[0].KeyPoints)
	assert.Equal(t, "Camp", persister.drafts[1].Title)
}

func TestWriter_Stream_FirstPageFails(t *testing.T) {
	books, chapters := fixtures()
	gen := chapterGen(`[{"title":"Intro","summary":"s"},{"title":"Second","summary":"t"}]`, nil,
		func(string) (*porttest.Stream, error) {
			return nil, apperrors.ErrLLMUnavailable
		})
	persister := &recordingPersister{}
	w := NewWriter(gen, prompt.NewRegistry(), books, chapters, persister, 0)
	rec := &streamtest.Recorder{}

	done, err := w.Stream(context.Background(), rec, request("owner"))
	require.NoError(t, err)

	assert.Equal(t, []string{stream.EventOutline, stream.EventPageStart, stream.EventPageError}, rec.Names())
	pe := rec.Events()[2].Payload.(stream.PageErrorPayload)
	assert.Equal(t, 0, pe.Index)
	assert.Equal(t, "Intro", pe.Title)
	assert.NotEmpty(t, pe.Message)

	assert.Empty(t, done.CreatedPageIDs)
	assert.NotNil(t, done.CreatedPageIDs)
	assert.Equal(t, pe.Message, done.PageError)
	assert.Empty(t, persister.drafts)
}

func TestWriter_Stream_PersistFailureKeepsEarlierPages(t *testing.T) {
	books, chapters := fixtures()
	gen := chapterGen(`{"pages":[{"title":"A"},{"title":"B"},{"title":"C"}]}`, nil,
		func(string) (*porttest.Stream, error) { return porttest.NewStream("text"), nil })
	persister := &recordingPersister{failAt: 2}
	w := NewWriter(gen, prompt.NewRegistry(), books, chapters, persister, 0)
	rec := &streamtest.Recorder{}

	done, err := w.Stream(context.Background(), rec, request("owner"))
	require.NoError(t, err)

	assert.Equal(t, 2, rec.Count(stream.EventPageStart))
	assert.Equal(t, 1, rec.Count(stream.EventPageDone))
	assert.Equal(t, 1, rec.Count(stream.EventPageError))
	assert.Equal(t, []string{"page-1"}, done.CreatedPageIDs)
	assert.Equal(t, "text", done.Text)
	assert.Contains(t, done.PageError, "quota")
}

func TestWriter_Stream_OutlineFallback(t *testing.T) {
	tests := []struct {
		name    string
		outline string
		err     error
	}{
		{"planner error", "", errors.New("timeout")},
		{"not json", "I cannot plan this", nil},
		{"only empty titles", `{"pages":[{"title":"  "},{"summary":"x"}]}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, chapters := fixtures()
			gen := chapterGen(tt.outline, tt.err,
				func(string) (*porttest.Stream, error) { return porttest.NewStream("body"), nil })
			w := NewWriter(gen, prompt.NewRegistry(), books, chapters, &recordingPersister{}, 0)
			rec := &streamtest.Recorder{}

			_, err := w.Stream(context.Background(), rec, request("owner"))
			require.NoError(t, err)

			outline := rec.Events()[0].Payload.(stream.OutlinePayload)
			require.Len(t, outline.Pages, 1)
			assert.Equal(t, "Landfall", outline.Pages[0].Title)
			assert.Equal(t, "They reach the shore.", outline.Pages[0].Summary)
		})
	}
}

func TestWriter_Stream_CancelledMidPageDoesNotPersist(t *testing.T) {
	books, chapters := fixtures()
	gen := chapterGen(`{"pages":[{"title":"A"},{"title":"B"}]}`, nil,
		func(string) (*porttest.Stream, error) { return porttest.NewStream("one ", "two ", "three"), nil })
	persister := &recordingPersister{}
	w := NewWriter(gen, prompt.NewRegistry(), books, chapters, persister, 0)
	rec := &streamtest.Recorder{CloseAfter: streamtest.AfterCount(stream.EventChunk, 2)}

	_, err := w.Stream(context.Background(), rec, request("owner"))
	assert.ErrorIs(t, err, stream.ErrCancelled)
	assert.Empty(t, persister.drafts)
	assert.Equal(t, 2, rec.Count(stream.EventPageChunk))
	assert.Equal(t, 1, rec.Count(stream.EventPageStart))
}

func TestWriter_Stream_EmptyStreamUsesFullText(t *testing.T) {
	books, chapters := fixtures()
	gen := chapterGen(`{"pages":[{"title":"A"}]}`, nil,
		func(string) (*porttest.Stream, error) { return &porttest.Stream{Full: "whole page"}, nil })
	persister := &recordingPersister{}
	w := NewWriter(gen, prompt.NewRegistry(), books, chapters, persister, 0)

	done, err := w.Stream(context.Background(), &streamtest.Recorder{}, request("owner"))
	require.NoError(t, err)
	assert.Equal(t, "whole page", done.Text)
	require.Len(t, persister.drafts, 1)
	assert.Equal(t, "whole page", persister.drafts[0].Markdown)
}

func TestWriter_Stream_AccessErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Request)
		wantCode apperrors.ErrorCode
	}{
		{"missing book", func(r *Request) { r.BookID = "nope" }, apperrors.CodeBookNotFound},
		{"stranger", func(r *Request) { r.UserID = "stranger" }, apperrors.CodeForbidden},
		{"missing chapter", func(r *Request) { r.ChapterID = "nope" }, apperrors.CodeChapterNotFound},
		{"chapter of another book", func(r *Request) { r.ChapterID = "ch-else" }, apperrors.CodeChapterNotFound},
		{"last message not user", func(r *Request) {
			r.Messages = append(r.Messages, entity.Message{Role: entity.RoleAssistant, Content: "x"})
		}, apperrors.CodeInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, chapters := fixtures()
			gen := chapterGen(`[]`, nil, func(string) (*porttest.Stream, error) { return porttest.NewStream("x"), nil })
			w := NewWriter(gen, prompt.NewRegistry(), books, chapters, &recordingPersister{}, 0)
			rec := &streamtest.Recorder{}

			req := request("owner")
			tt.mutate(&req)
			_, err := w.Stream(context.Background(), rec, req)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), err.Error())
			assert.Empty(t, rec.Events())
			assert.Zero(t, gen.Calls())
		})
	}
}

func TestParseOutline_CapsPages(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("```json\n[")
	for i := 0; i < 12; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"title":"P%d"}`, i)
	}
	sb.WriteString("]\n```")

	pages, err := ParseOutline(sb.String(), DefaultMaxOutlinePages)
	require.NoError(t, err)
	assert.Len(t, pages, DefaultMaxOutlinePages)
	assert.Equal(t, "P0", pages[0].Title)
	assert.NotNil(t, pages[0].KeyPoints)
}

func TestBuildTranscript(t *testing.T) {
	got := BuildTranscript([]entity.Message{
		{Role: entity.RoleSystem, Content: "be brief"},
		{Role: entity.RoleUser, Content: "hello"},
		{Role: entity.RoleAssistant, Content: " hi "},
		{Role: entity.RoleUser, Content: ""},
	})
	assert.Equal(t, "System: be brief\nUser: hello\nAssistant: hi", got)
}

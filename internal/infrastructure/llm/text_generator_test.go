package llm

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "z-novel-assistant/pkg/errors"
)

type fakeChatModel struct {
	reply  string
	chunks []string
	err    error
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if f.err != nil {
		return nil, f.err
	}
	msgs := make([]*schema.Message, 0, len(f.chunks))
	for _, c := range f.chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

type fakeFactory struct {
	m   model.BaseChatModel
	err error
}

func (f *fakeFactory) Get(context.Context, string) (model.BaseChatModel, error) {
	return f.m, f.err
}

func TestTextGenerator_Generate(t *testing.T) {
	g := NewTextGenerator(&fakeFactory{m: &fakeChatModel{reply: "7"}}, "openai")

	out, err := g.Generate(context.Background(), []*schema.Message{schema.UserMessage("q")})
	require.NoError(t, err)
	assert.Equal(t, "7", out)
}

func TestTextGenerator_GenerateError(t *testing.T) {
	g := NewTextGenerator(&fakeFactory{m: &fakeChatModel{err: errors.New("503")}}, "openai")

	_, err := g.Generate(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLLMUnavailable))
}

func TestTextGenerator_StreamSkipsEmptyDeltas(t *testing.T) {
	g := NewTextGenerator(&fakeFactory{m: &fakeChatModel{chunks: []string{"Once ", "", "upon"}}}, "")

	s, err := g.Stream(context.Background(), nil)
	require.NoError(t, err)
	defer s.Close()

	var got []string
	for {
		chunk, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, chunk)
	}
	assert.Equal(t, []string{"Once ", "upon"}, got)
	assert.Equal(t, "Once upon", s.Text())
}

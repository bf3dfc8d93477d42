package stream_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"z-novel-assistant/internal/application/stream"
	"z-novel-assistant/internal/application/stream/streamtest"
)

type failingSink struct {
	closeOnSend bool
	closed      bool
}

func (f *failingSink) Send(string, any) error {
	if f.closeOnSend {
		f.closed = true
	}
	return errors.New("broken pipe")
}

func (f *failingSink) Cancelled() bool { return f.closed }

func TestEmit(t *testing.T) {
	rec := &streamtest.Recorder{}
	assert.NoError(t, stream.Emit(rec, stream.EventChunk, stream.ChunkPayload{Text: "a"}))

	rec.Close()
	err := stream.Emit(rec, stream.EventChunk, stream.ChunkPayload{Text: "b"})
	assert.ErrorIs(t, err, stream.ErrCancelled)
	assert.Equal(t, 1, rec.Count(stream.EventChunk))
}

func TestEmit_WriteFailure(t *testing.T) {
	err := stream.Emit(&failingSink{closeOnSend: true}, stream.EventChunk, nil)
	assert.ErrorIs(t, err, stream.ErrCancelled)

	err = stream.Emit(&failingSink{}, stream.EventChunk, nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, stream.ErrCancelled)
}

func TestNewDonePayload_NonNilSlices(t *testing.T) {
	p := stream.NewDonePayload()
	assert.NotNil(t, p.Sources)
	assert.NotNil(t, p.Actions)
	assert.NotNil(t, p.CreatedPageIDs)
}

package dmsclient

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/MrEthical07/dmsclient/session"
)

// EventSink receives session events after the dispatcher has taken them off
// the caller's goroutine.
type EventSink = session.EventSink

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, session.Event) {}

// ChannelSink forwards events to a buffered channel.
type ChannelSink struct {
	events chan session.Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan session.Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event session.Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan session.Event {
	return s.events
}

// JSONWriterSink writes one JSON document per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(_ context.Context, event session.Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
}

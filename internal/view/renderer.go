package view

import (
	"context"
	"fmt"
	"io"
	"sync"

	"ai-ragchat-client/internal/session"
	"ai-ragchat-client/pkg/events"
)

type StateSource interface {
	Current() session.State
}

type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handle func(events.Envelope) error) error
}

// Renderer redraws the session to out whenever the session changes.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	source StateSource
	frames int
}

func NewRenderer(out io.Writer, source StateSource) *Renderer {
	return &Renderer{out: out, source: source}
}

// Refresh draws the latest state.
func (r *Renderer) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprint(r.out, Render(r.source.Current()))
	r.frames++
}

// Frames reports how many times the view has been drawn.
func (r *Renderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Attach redraws on every session change event until ctx is done. The event
// only signals that something changed; the state itself is re-read.
func (r *Renderer) Attach(ctx context.Context, bus Subscriber) error {
	return bus.Subscribe(ctx, events.TopicSessionChanged, func(events.Envelope) error {
		r.Refresh()
		return nil
	})
}

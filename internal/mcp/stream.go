// ABOUTME: Server-to-client stream abstraction over Server-Sent Events.
// ABOUTME: Decouples the dispatcher from the HTTP-specific transport.

package mcp

import (
	"errors"
	"sync"

	"github.com/tmaxmax/go-sse"
)

// ErrStreamClosed is returned when sending on a closed stream.
var ErrStreamClosed = errors.New("stream closed")

// Stream is the server-to-client half of a session's transport. The
// session layer talks to this interface only, so dispatch logic never
// touches SSE specifics and tests can substitute an in-memory stream.
type Stream interface {
	// Send writes one event to the client.
	Send(event string, data []byte) error

	// Close tears the stream down. Safe to call multiple times.
	Close()

	// Done is closed when the stream is no longer usable.
	Done() <-chan struct{}
}

// sseStream implements Stream on a go-sse upgraded connection.
type sseStream struct {
	sess *sse.Session

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newSSEStream(sess *sse.Session) *sseStream {
	return &sseStream{
		sess: sess,
		done: make(chan struct{}),
	}
}

func (s *sseStream) Send(event string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}

	msg := &sse.Message{Type: sse.Type(event)}
	msg.AppendData(string(data))
	if err := s.sess.Send(msg); err != nil {
		return err
	}
	return s.sess.Flush()
}

func (s *sseStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

func (s *sseStream) Done() <-chan struct{} {
	return s.done
}

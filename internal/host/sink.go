// Package host implements the process-integration boundary: domain events
// out on stdout, commands in on stdin, both as line-delimited JSON.
package host

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/ybarkan/wagate/internal/logging"
)

// Emitter delivers one domain event to a consumer.
type Emitter interface {
	Emit(v any)
}

// Sink serializes events to a writer, one compact JSON object per line.
// Writes are mutex-guarded so concurrent pollers cannot interleave lines.
type Sink struct {
	mu  sync.Mutex
	w   io.Writer
	log *logging.Logger
}

// NewSink creates a Sink. For the host wire, w is os.Stdout.
func NewSink(w io.Writer, log *logging.Logger) *Sink {
	return &Sink{w: w, log: log.Sub("sink")}
}

// Emit writes one event line. Serialization failures are logged, never
// propagated — a bad event must not take down a polling loop.
func (s *Sink) Emit(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to serialize event")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		s.log.Error().Err(err).Msg("failed to write event")
	}
}

// Tee fans one event out to several emitters.
type Tee []Emitter

func (t Tee) Emit(v any) {
	for _, e := range t {
		e.Emit(v)
	}
}

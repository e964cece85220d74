package pipeline

import (
	"time"

	"github.com/Career-Scout/careerscout/internal/logger"
	"github.com/Career-Scout/careerscout/pkg/types"
)

const defaultQueueCapacity = 256

// ProgressQueue carries progress events from a running graph to whoever is
// streaming them. Publishing never blocks the run: when the buffer is full
// the event is dropped, progress is advisory.
type ProgressQueue struct {
	ch chan types.StreamEvent
}

func NewProgressQueue() *ProgressQueue {
	return &ProgressQueue{ch: make(chan types.StreamEvent, defaultQueueCapacity)}
}

// Publish enqueues an event, dropping it if the consumer is behind.
func (q *ProgressQueue) Publish(ev types.StreamEvent) {
	select {
	case q.ch <- ev:
	default:
		logger.Logger.Debug().Str("agent", ev.Agent).Msg("progress queue full, dropping event")
	}
}

// Poll waits up to timeout for the next event. ok is false on timeout.
func (q *ProgressQueue) Poll(timeout time.Duration) (types.StreamEvent, bool) {
	select {
	case ev := <-q.ch:
		return ev, true
	case <-time.After(timeout):
		return types.StreamEvent{}, false
	}
}

// Drain returns every event currently buffered without waiting.
func (q *ProgressQueue) Drain() []types.StreamEvent {
	var out []types.StreamEvent
	for {
		select {
		case ev := <-q.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

package status

import (
	"time"

	"github.com/sweeney/light-controller/internal/control"
)

// DefaultHistory is the number of phase entries a Tracker keeps.
const DefaultHistory = 16

// Entry records one phase entry.
type Entry struct {
	At    time.Time
	State control.State
	Duty  uint8
}

// history is a fixed-capacity FIFO of phase entries. When full the oldest
// entry is overwritten. Not safe for concurrent use; Tracker holds the lock.
type history struct {
	buf     []Entry
	head    int // next write position
	count   int
	dropped int
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = 1
	}
	return &history{buf: make([]Entry, capacity)}
}

func (h *history) push(e Entry) {
	h.buf[h.head] = e
	h.head = (h.head + 1) % len(h.buf)
	if h.count == len(h.buf) {
		h.dropped++
		return
	}
	h.count++
}

// entries returns a copy, oldest first.
func (h *history) entries() []Entry {
	if h.count == 0 {
		return nil
	}
	out := make([]Entry, h.count)
	start := (h.head - h.count + len(h.buf)) % len(h.buf)
	for i := range out {
		out[i] = h.buf[(start+i)%len(h.buf)]
	}
	return out
}

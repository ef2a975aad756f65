// Package status provides a thread-safe status tracker for the controller.
// The run loop updates it after every step; heartbeat log lines read it.
package status

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/light-controller/internal/control"
)

// Config contains daemon configuration for display.
type Config struct {
	Sensor      string
	PWM         string
	TickMs      int64
	HeartbeatMs int64
}

// Snapshot is a point-in-time view of controller state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	State   control.State
	Target  uint16
	Duty    uint8
	Reading uint16
	// Elapsed is time spent in the current phase, in time base milliseconds.
	Elapsed uint32
	Counts  control.Counts
	// Entries holds recent phase entries, oldest first.
	Entries []Entry
	// EntriesDropped counts entries overwritten since startup.
	EntriesDropped int
	StartTime      time.Time
	Now            time.Time
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// LogValue renders the snapshot as a log group.
func (s Snapshot) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("state", s.State.String()),
		slog.Int("target", int(s.Target)),
		slog.Int("duty", int(s.Duty)),
		slog.Int("reading", int(s.Reading)),
		slog.Duration("phase_elapsed", time.Duration(s.Elapsed)*time.Millisecond),
		slog.Duration("uptime", s.Uptime().Truncate(time.Second)),
		slog.Int("transitions", s.Counts.Transitions),
		slog.Int("samples", s.Counts.Samples),
		slog.Int("raises", s.Counts.Raises),
		slog.Int("lowers", s.Counts.Lowers),
		slog.Int("holds", s.Counts.Holds),
		slog.Int("failures", s.Counts.Failures),
		slog.Int("dips", s.Counts.Dips),
	}
	if n := len(s.Entries); n > 0 {
		attrs = append(attrs, slog.Duration("in_state", s.Now.Sub(s.Entries[n-1].At).Truncate(time.Second)))
	}
	if s.EntriesDropped > 0 {
		attrs = append(attrs, slog.Int("history_dropped", s.EntriesDropped))
	}
	return slog.GroupValue(attrs...)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	snap          Snapshot
	history       *history
	lastHeartbeat time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		history:       newHistory(DefaultHistory),
		lastHeartbeat: startTime,
	}
}

// Update records the result of a control step and the running counters.
// Called from runLoop after every step.
func (t *Tracker) Update(out control.Outcome, counts control.Counts) {
	t.mu.Lock()
	t.snap.State = out.State
	t.snap.Target = out.Target
	t.snap.Duty = out.Duty
	t.snap.Elapsed = out.Elapsed
	if out.Sampled && !out.Failed {
		t.snap.Reading = out.Reading
	}
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordEntry appends a phase entry to the history.
func (t *Tracker) RecordEntry(at time.Time, state control.State, duty uint8) {
	t.mu.Lock()
	t.history.push(Entry{At: at, State: state, Duty: duty})
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	return t.snapshotAt(time.Now())
}

func (t *Tracker) snapshotAt(now time.Time) Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Entries = t.history.entries()
	s.EntriesDropped = t.history.dropped
	t.mu.RUnlock()
	s.Now = now
	return s
}

// CheckHeartbeat returns a snapshot if interval has elapsed since the last
// heartbeat (or startup). Returns false if the interval has not elapsed or
// if interval is <= 0 (disabled).
func (t *Tracker) CheckHeartbeat(now time.Time, interval time.Duration) (Snapshot, bool) {
	if interval <= 0 {
		return Snapshot{}, false
	}

	t.mu.Lock()
	due := now.Sub(t.lastHeartbeat) >= interval
	if due {
		t.lastHeartbeat = now
	}
	t.mu.Unlock()

	if !due {
		return Snapshot{}, false
	}
	return t.snapshotAt(now), true
}

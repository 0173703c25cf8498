package playback

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultMinFrameDelay replaces zero-length animation frame durations.
const DefaultMinFrameDelay = 10 * time.Millisecond

type State int

const (
	StoppedStatic State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "static"
	}
}

// Scheduler tracks which frame of an animation is current.
type Scheduler struct {
	clock     clockwork.Clock
	minDelay  time.Duration
	durations []time.Duration
	index     int
	deadline  time.Time
	pausedAt  time.Time
	state     State
}

// New returns a scheduler reading time from clock. Frame durations of zero
// are raised to minDelay (DefaultMinFrameDelay when minDelay <= 0).
func New(clock clockwork.Clock, minDelay time.Duration) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if minDelay <= 0 {
		minDelay = DefaultMinFrameDelay
	}
	return &Scheduler{clock: clock, minDelay: minDelay}
}

// Load starts a new sequence. Two or more frames start Running at index 0
// with the first deadline one frame duration from now; anything shorter
// stays StoppedStatic.
func (s *Scheduler) Load(durations []time.Duration) {
	s.index = 0
	s.pausedAt = time.Time{}
	if len(durations) < 2 {
		s.durations = nil
		s.deadline = time.Time{}
		s.state = StoppedStatic
		return
	}
	s.durations = make([]time.Duration, len(durations))
	for i, d := range durations {
		s.durations[i] = max(d, s.minDelay)
	}
	s.deadline = s.clock.Now().Add(s.durations[0])
	s.state = Running
}

// Toggle pauses a running animation or resumes a paused one, shifting the
// deadline by the time spent paused. Static sequences are unaffected.
func (s *Scheduler) Toggle() {
	now := s.clock.Now()
	switch s.state {
	case Running:
		s.pausedAt = now
		s.state = Paused
	case Paused:
		s.deadline = s.deadline.Add(now.Sub(s.pausedAt))
		s.pausedAt = time.Time{}
		s.state = Running
	}
}

// Tick advances past every expired deadline, one frame per expiry, and
// reports whether the current frame changed. Frames whose deadline had
// already passed again by the time they became current are skipped for
// rendering but still counted.
func (s *Scheduler) Tick() bool {
	if s.state != Running {
		return false
	}
	now := s.clock.Now()
	advanced := false
	for !s.deadline.After(now) {
		s.index = (s.index + 1) % len(s.durations)
		s.deadline = s.deadline.Add(s.durations[s.index])
		advanced = true
	}
	return advanced
}

// Timeout is how long the loop may wait before the next Tick is due.
// It is negative when no deadline is pending.
func (s *Scheduler) Timeout() time.Duration {
	if s.state != Running {
		return -1
	}
	return max(s.deadline.Sub(s.clock.Now()), 0)
}

func (s *Scheduler) Index() int          { return s.index }
func (s *Scheduler) State() State        { return s.state }
func (s *Scheduler) Deadline() time.Time { return s.deadline }

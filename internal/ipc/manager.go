package ipc

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
)

// ErrBusy is returned when the viewer has not drained earlier commands.
var ErrBusy = errors.New("viewer is busy, command dropped")

// Manager is the hand-off point between the socket goroutine and the viewer
// loop. Handlers enqueue commands and read a status snapshot; the loop
// drains the commands and publishes the snapshot.
type Manager struct {
	sync.Mutex
	session string
	cmds    chan Command
	wake    func()
	status  Status
}

// NewManager returns a manager that calls wake after every enqueued command
// so a blocked event wait returns. wake may be nil.
func NewManager(wake func()) *Manager {
	if wake == nil {
		wake = func() {}
	}
	return &Manager{
		session: ulid.Make().String(),
		cmds:    make(chan Command, 8),
		wake:    wake,
	}
}

func (m *Manager) Session() string { return m.session }

// Commands is drained by the viewer loop.
func (m *Manager) Commands() <-chan Command { return m.cmds }

func (m *Manager) EnqueueCommand(cmd Command) error {
	m.Lock()
	defer m.Unlock()

	select {
	case m.cmds <- cmd:
	default:
		log.Warnf("dropping %s command: queue full", cmd.Type)
		return ErrBusy
	}
	m.wake()
	return nil
}

func (m *Manager) Status() Status {
	m.Lock()
	defer m.Unlock()
	return m.status
}

func (m *Manager) SetStatus(s Status) {
	m.Lock()
	defer m.Unlock()
	m.status = s
}

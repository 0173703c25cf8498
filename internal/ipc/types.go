package ipc

type CommandType string

const (
	CommandQuit   CommandType = "quit"
	CommandNext   CommandType = "next"
	CommandPrev   CommandType = "prev"
	CommandLoad   CommandType = "load"
	CommandPause  CommandType = "pause"
	CommandStatus CommandType = "status"
)

type Command struct {
	Type CommandType `json:"type"`
	Args []string    `json:"args"`
}

// Status is the viewer state reported over the socket.
type Status struct {
	File       string `json:"file"`
	Index      int    `json:"index"`
	Count      int    `json:"count"`
	Frame      int    `json:"frame"`
	Frames     int    `json:"frames"`
	Playback   string `json:"playback"`
	Level      int    `json:"level"`
	Fullscreen bool   `json:"fullscreen"`
}

type ManagerInterface interface {
	Session() string
	Status() Status
	EnqueueCommand(Command) error
}

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
	PID     int    `json:"pid"`
	Socket  string `json:"socket"`
	Config  string `json:"config"`
	Session string `json:"session"`
	Viewer  Status `json:"viewer"`
}

package ipc

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/matjam/glance"
)

// GET /status
func statusHandler(m ManagerInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, StatusResponse{
			Status:  "ok",
			Message: "glance is running",
			Version: strings.Trim(glance.Version, "\n\r "),
			PID:     os.Getpid(),
			Socket:  SocketPath(),
			Config:  viper.ConfigFileUsed(),
			Session: m.Session(),
			Viewer:  m.Status(),
		}, "  ")
	}
}

// POST /quit, /next, /prev, /pause
func simpleHandler(m ManagerInterface, t CommandType) echo.HandlerFunc {
	return func(c echo.Context) error {
		return enqueue(c, m, Command{Type: t})
	}
}

// POST /load
func loadHandler(m ManagerInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		var paths []string
		if err := c.Bind(&paths); err != nil || len(paths) != 1 {
			return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "expected a JSON array with one path"})
		}
		path, err := filepath.Abs(paths[0])
		if err != nil {
			return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
		}
		return enqueue(c, m, Command{Type: CommandLoad, Args: []string{path}})
	}
}

// POST /command takes a Command body and dispatches it like the typed routes.
func commandHandler(m ManagerInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		var cmd Command
		if err := c.Bind(&cmd); err != nil {
			return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "invalid command"})
		}
		switch cmd.Type {
		case CommandStatus:
			return c.JSON(http.StatusOK, Response{Status: "ok", Data: m.Status()})
		case CommandQuit, CommandNext, CommandPrev, CommandPause:
			return enqueue(c, m, Command{Type: cmd.Type})
		case CommandLoad:
			if len(cmd.Args) != 1 {
				return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "load takes one path"})
			}
			return enqueue(c, m, cmd)
		default:
			return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "unknown command: " + string(cmd.Type)})
		}
	}
}

func enqueue(c echo.Context, m ManagerInterface, cmd Command) error {
	if err := m.EnqueueCommand(cmd); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrBusy) {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, Response{Status: "error", Message: err.Error()})
	}
	return c.JSON(http.StatusOK, Response{Status: "ok", Message: string(cmd.Type) + " queued"})
}

package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/matjam/glance/internal/middleware"
)

// SocketPath is where the viewer listens for remote commands.
func SocketPath() string {
	sockDir := os.Getenv("XDG_RUNTIME_DIR")
	if sockDir == "" {
		sockDir = os.TempDir()
	}
	return filepath.Join(sockDir, "glance.sock")
}

type Server struct {
	e    *echo.Echo
	path string
}

// Listen binds the control socket at path, replacing a stale socket file.
// The server does not accept requests until Serve is called.
func Listen(path string, manager ManagerInterface) (*Server, error) {
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Listener = listener

	e.Use(middleware.CharmLog())

	RegisterRoutes(e, manager)

	return &Server{e: e, path: path}, nil
}

// Serve blocks until Shutdown.
func (s *Server) Serve() error {
	log.Debugf("control socket listening on %s", s.path)
	if err := s.e.StartServer(s.e.Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("socket server: %w", err)
	}
	return nil
}

// Shutdown stops the server and removes the socket file.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.e.Shutdown(ctx)
	_ = os.Remove(s.path)
	return err
}

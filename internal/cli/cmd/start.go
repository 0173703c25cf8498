package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sevlyar/go-daemon"
	"github.com/sourcegraph/conc"
	"github.com/spf13/viper"

	"github.com/matjam/glance/internal/decode"
	"github.com/matjam/glance/internal/glrender"
	"github.com/matjam/glance/internal/ipc"
	"github.com/matjam/glance/internal/viewer"
)

// ViewerConfig reads the viewer settings from viper.
func ViewerConfig() viewer.Config {
	cfg := viewer.DefaultConfig()
	cfg.PanStep = viper.GetFloat64("view.pan_step")
	cfg.Shadow = viper.GetBool("view.shadow")
	cfg.ExitOnClick = viper.GetBool("exit_on_click")
	cfg.Fullscreen = viper.GetBool("fullscreen")
	if d := viper.GetDuration("animation.min_frame_delay"); d > 0 {
		cfg.MinFrameDelay = d
	}
	return cfg
}

// Daemonize re-executes the process detached from the terminal. It returns
// true in the parent, which should exit.
func Daemonize() bool {
	ctx := &daemon.Context{Umask: 027}
	child, err := ctx.Reborn()
	if err != nil {
		log.Fatalf("Failed to start in background: %v", err)
	}
	if child != nil {
		log.Infof("glance started in background with PID %d", child.Pid)
		return true
	}
	return false
}

// StartViewer opens path in a window and runs until the viewer quits.
// It must be called on the main goroutine.
func StartViewer(path string) {
	if daemon.WasReborn() {
		setupRotatingLogger()
	}
	log.Debugf("StartViewer() started in PID: %d", os.Getpid())

	cfg := ViewerConfig()
	display, err := glrender.NewDisplay(glrender.Options{
		Title:      viewer.AppName,
		Width:      viper.GetInt("window.width"),
		Height:     viper.GetInt("window.height"),
		Fullscreen: cfg.Fullscreen,
	})
	if err != nil {
		log.Fatalf("Failed to create display: %v", err)
	}
	defer display.Close()

	session := viewer.New(display, nil, nil, cfg)
	defer session.Close()

	if err := session.Open(path); err != nil {
		var le *decode.LoadError
		if errors.As(err, &le) {
			log.Fatalf("Cannot open %s: %v", path, err)
		}
		log.Fatalf("Failed to show %s: %v", path, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg conc.WaitGroup
	var server *ipc.Server
	if viper.GetBool("socket") {
		server = startSocket(session, display.Wake, &wg)
	}

	runErr := session.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Socket shutdown: %v", err)
		}
		cancel()
	}
	if r := wg.WaitAndRecover(); r != nil {
		log.Errorf("Socket server panicked: %v", r.Value)
	}

	if runErr != nil {
		log.Fatalf("Viewer stopped: %v", runErr)
	}
	log.Debug("glance exited")
}

// startSocket serves the control socket unless another viewer already owns
// it, in which case this viewer runs without one.
func startSocket(session *viewer.Session, wake func(), wg *conc.WaitGroup) *ipc.Server {
	if _, err := ipc.SendStatus(); err == nil {
		log.Warnf("Another glance is listening on %s, running without a control socket", ipc.SocketPath())
		return nil
	}

	manager := ipc.NewManager(wake)
	session.Attach(manager)

	server, err := ipc.Listen(ipc.SocketPath(), manager)
	if err != nil {
		log.Errorf("Control socket disabled: %v", err)
		return nil
	}
	log.Debugf("Session %s", manager.Session())

	wg.Go(func() {
		if err := server.Serve(); err != nil {
			log.Errorf("Socket server error: %v", err)
		}
	})
	return server
}

func setupRotatingLogger() {
	home := os.Getenv("HOME")
	logDir := filepath.Join(home, ".local", "share", "glance")
	logPath := filepath.Join(logDir, "glance.log")

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatalf("failed to create log directory: %v", err)
	}

	writer, err := rotatelogs.New(
		logPath+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(logPath),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithRotationSize(10*1024*1024),
	)
	if err != nil {
		log.Fatalf("failed to configure log rotation: %v", err)
	}

	log.SetOutput(writer)
	if !viper.GetBool("debug") {
		log.SetLevel(log.InfoLevel)
	}
}

package main

import (
	"runtime"

	"github.com/matjam/glance/internal/cli"
)

func init() {
	// glfw must be driven from the main thread.
	runtime.LockOSThread()
}

func main() {
	cli.Execute()
}

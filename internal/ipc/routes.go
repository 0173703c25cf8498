package ipc

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, manager ManagerInterface) {
	e.GET("/status", statusHandler(manager))
	e.POST("/quit", simpleHandler(manager, CommandQuit))
	e.POST("/next", simpleHandler(manager, CommandNext))
	e.POST("/prev", simpleHandler(manager, CommandPrev))
	e.POST("/pause", simpleHandler(manager, CommandPause))
	e.POST("/load", loadHandler(manager))
	e.POST("/command", commandHandler(manager))
}

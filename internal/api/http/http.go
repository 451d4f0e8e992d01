package http

import (
	stdContext "context"
	"fmt"
	"time"

	"draw-guess-be/internal/api/http/websocket"
	"draw-guess-be/internal/state"

	"github.com/kataras/iris/v12"
)

func RunServer(appState *state.AppState) {
	app := iris.Default()

	api := app.Party("/api/v1")

	api.Post("/rooms/create", CreateRoom(appState))

	api.Get("/rooms/{room_id}/qr", RoomJoinQR(appState))

	api.Get("/ws/connect", websocket.ConnectGame(appState))

	// 收到中断信号时先停掉房间协程再关闭监听
	iris.RegisterOnInterrupt(func() {
		appState.RoomSvc.Stop()

		shutdownCtx, cancel := stdContext.WithTimeout(
			stdContext.Background(),
			5*time.Second,
		)
		defer cancel()

		app.Shutdown(shutdownCtx)
	})

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	app.Listen(addr, iris.WithoutInterruptHandler)
}

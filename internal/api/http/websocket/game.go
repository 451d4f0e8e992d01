package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"draw-guess-be/internal/service/game"
	"draw-guess-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// ConnectGame 处理一个客户端的完整连接生命周期：
// 升级到 WebSocket、校验首条 connect 消息、加入房间，
// 然后由读循环（当前协程）和写协程分别承担收发
func ConnectGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		clientIP := ctx.RemoteAddr()

		// 写协程从这个通道取响应，带缓冲避免房间协程被慢连接阻塞
		respCh := make(chan game.ResponseWrapper, 64)

		// 读取首条消息，必须是 connect
		_, msg, err := conn.ReadMessage()
		if err != nil {
			zap.L().Error(
				"读取首条消息失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return
		}

		var wrapper game.RequestWrapper

		if err := json.Unmarshal(msg, &wrapper); err != nil {
			zap.L().Error(
				"解析首条消息失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return
		}

		req, err := game.TryUnwrapConnectRequest(wrapper)
		if err != nil {
			zap.L().Error(
				"首条消息不符合协议，关闭连接",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return
		}

		// 目标房间也可以用查询参数指定（二维码加入链接走这条路）
		roomID := req.RoomID
		if roomID == "" {
			roomID = ctx.URLParam("room_id")
		}

		reqCh, res, err := appState.RoomSvc.Connect(roomID, req.Name, respCh)
		if err != nil {
			zap.L().Warn(
				"加入房间失败",
				zap.String("client_ip", clientIP),
				zap.String("room_id", roomID),
				zap.Error(err),
			)

			// 加入被拒绝（房间已满等）时告知客户端后关闭
			if errors.Is(err, game.ErrRoomFull) {
				conn.WriteJSON(game.WrapErrResponse("房间已满"))
			} else {
				conn.WriteJSON(game.WrapErrResponse(err.Error()))
			}

			return
		}

		playerID := res.Player.ID

		zap.L().Info(
			"玩家成功加入房间",
			zap.String("client_ip", clientIP),
			zap.String("room_id", res.RoomID),
			zap.String("player_id", playerID),
			zap.String("player_name", res.Player.Name),
		)

		// 写协程的退出信号
		writeDoneCh := make(chan struct{})
		defer close(writeDoneCh)

		// 写协程：唯一向连接写数据的协程，响应之间不会交错
		go func() {
			ticker := time.NewTicker(HEARTBEAT_INTERVAL)
			defer ticker.Stop()

			for {
				select {
				case <-writeDoneCh:
					zap.L().Debug(
						"WebSocket写协程退出",
						zap.String("client_ip", clientIP),
					)
					return

				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						zap.L().Error(
							"发送心跳失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						conn.Close()
						return
					}

				case resp, ok := <-respCh:
					// 通道已关闭：玩家退出时房间协程关闭了通道
					if !ok {
						zap.L().Info(
							"响应通道已关闭，退出写协程",
							zap.String("client_ip", clientIP),
						)
						conn.Close()
						return
					}

					if err := conn.WriteJSON(resp); err != nil {
						zap.L().Error(
							"发送消息失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						// 写失败视为对端失联，关闭连接让读循环退出，
						// 走统一的断开清理路径
						conn.Close()
						return
					}
				}
			}
		}()

		// 读循环（当前协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			var wrapper game.RequestWrapper

			if err := json.Unmarshal(msg, &wrapper); err != nil {
				zap.L().Error(
					"解析消息失败，关闭连接",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				break
			}

			act, err := game.DecodeAction(playerID, wrapper)
			if err != nil {
				// 未知类型或缺少必需字段：记录后直接断开，不做部分恢复
				zap.L().Error(
					"消息不符合协议，关闭连接",
					zap.String("client_ip", clientIP),
					zap.String("type", wrapper.Type),
					zap.Error(err),
				)
				break
			}

			// respCh 由房间协程关闭，读循环不能向它写入，
			// 通道满时只记录并丢弃该动作
			select {
			case reqCh <- act:
			default:
				zap.L().Error(
					"房间动作通道已满，丢弃动作",
					zap.String("client_ip", clientIP),
					zap.String("room_id", res.RoomID),
				)
			}
		}

		// 读循环退出表示客户端断开，同步将玩家从房间移除
		zap.L().Info(
			"客户端连接断开，移除玩家",
			zap.String("client_ip", clientIP),
			zap.String("player_id", playerID),
		)

		appState.RoomSvc.Disconnect(playerID)
	}
}

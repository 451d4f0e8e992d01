package game

import "time"

// 房间内的玩家信息，在进入房间后有效
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsDrawer bool   `json:"is_drawer"`

	// 该玩家连接的写协程从这个通道取响应
	RespCh chan ResponseWrapper `json:"-"`
	// 最后一次收到该玩家消息的时间，用作存活判断
	LastActive time.Time `json:"-"`
}

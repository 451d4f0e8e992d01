package game

// Action 是房间协程处理的动作集合，同一时刻只有一个字段非空。
// 消息目录是封闭的：新增消息类型必须同时扩展这里和各阶段的分发逻辑
type Action struct {
	Connect *ConnectAction
	Draw    *DrawAction
	Guess   *GuessAction
	Chat    *ChatAction
	Start   *StartAction
	Exit    *ExitAction
	Timeout *TimeoutAction
	Done    *struct{}
}

// 发起动作的玩家 ID，没有对应玩家的动作返回空串
func (a Action) actorID() string {
	switch {
	case a.Draw != nil:
		return a.Draw.PlayerID
	case a.Guess != nil:
		return a.Guess.PlayerID
	case a.Chat != nil:
		return a.Chat.PlayerID
	case a.Start != nil:
		return a.Start.PlayerID
	}

	return ""
}

// ConnectAction 携带应答通道，加入结果经 Ack 同步返回给连接协程。
// Ack 必须带缓冲，房间协程不会阻塞等待连接方接收
type ConnectAction struct {
	Name   string
	RespCh chan ResponseWrapper
	Ack    chan ConnectResult
}

type ConnectResult struct {
	Player  Player
	RoomID  string
	Players []Player
	Err     error
}

type DrawAction struct {
	PlayerID string
	Stroke   DrawPayload
}

type GuessAction struct {
	PlayerID string
	Text     string
}

type ChatAction struct {
	PlayerID string
	Text     string
}

type StartAction struct {
	PlayerID string
}

type ExitAction struct {
	PlayerID string
}

// 回合定时器到期事件，Round 与当前回合不符时视为过期事件丢弃
type TimeoutAction struct {
	Round int
}

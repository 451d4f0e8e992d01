package game

import (
	"time"

	set "github.com/hashicorp/go-set/v3"
	"go.uber.org/zap"
)

// WordSource 是房间开始回合时取词的能力，
// 词库为空时 ChooseWord 返回错误而不是崩溃
type WordSource interface {
	ChooseWord() (string, error)
}

// RoomContext 是一个房间的全部可变状态。
// 只有该房间的协程会读写这些字段，因此不需要加锁
type RoomContext struct {
	RoomID   string
	RoomName string
	Stage    string

	MaxPlayers int
	MinPlayers int

	// Order 按加入顺序排列，决定画家轮换次序
	Players map[string]*Player
	Order   []string

	RoundNumber   int
	CurrentWord   string
	CurrentDrawer string

	// 本回合已猜中的玩家：集合做成员判断，切片保留猜中顺序
	Guessed    *set.Set[string]
	GuessOrder []string

	Words WordSource
	// 为 0 时回合没有时间限制
	RoundTimeout time.Duration

	timer *time.Timer
	// 定时器到期事件经由这个通道回到房间协程
	TmoCh chan Action
}

func NewRoomContext(
	roomID string,
	roomName string,
	maxPlayers int,
	minPlayers int,
	source WordSource,
	roundTimeout time.Duration,
) *RoomContext {
	return &RoomContext{
		RoomID:       roomID,
		RoomName:     roomName,
		Stage:        STAGE_IDLE,
		MaxPlayers:   maxPlayers,
		MinPlayers:   minPlayers,
		Players:      make(map[string]*Player),
		Order:        make([]string, 0, maxPlayers),
		Guessed:      set.New[string](maxPlayers),
		GuessOrder:   make([]string, 0, maxPlayers),
		Words:        source,
		RoundTimeout: roundTimeout,
		TmoCh:        make(chan Action, 8),
	}
}

// PlayerList 按加入顺序返回名单快照，用于广播
func (rc *RoomContext) PlayerList() []Player {
	players := make([]Player, 0, len(rc.Order))

	for _, id := range rc.Order {
		if p, ok := rc.Players[id]; ok {
			// 复制值（会复制 RespCh 但该字段 json:"-"，不会被序列化）
			players = append(players, *p)
		}
	}

	return players
}

// Broadcast 向房间内除 excludeID 外的所有玩家投递响应。
// 单个玩家通道已满只记录告警，不影响其余玩家的投递
func (rc *RoomContext) Broadcast(resp ResponseWrapper, excludeID string) {
	for _, p := range rc.Players {
		if p.ID == excludeID {
			continue
		}

		select {
		case p.RespCh <- resp:
		default:
			zap.L().Warn(
				"发送广播响应失败：玩家响应通道已满",
				zap.String("room_id", rc.RoomID),
				zap.String("player_id", p.ID),
			)
		}
	}
}

func (rc *RoomContext) Unicast(playerID string, resp ResponseWrapper) {
	player, ok := rc.Players[playerID]
	if !ok {
		zap.L().Warn(
			"无法找到玩家进行单播响应",
			zap.String("room_id", rc.RoomID),
			zap.String("player_id", playerID),
		)
		return
	}

	select {
	case player.RespCh <- resp:
	default:
		zap.L().Warn(
			"发送单播响应失败：玩家响应通道已满",
			zap.String("room_id", rc.RoomID),
			zap.String("player_id", playerID),
		)
	}
}

// SetTimeout 启动回合定时器。事件带上当前回合号，
// 回合已自然结束时旧事件会因回合号不符被丢弃
func (rc *RoomContext) SetTimeout(d time.Duration) {
	rc.ClearTimeout()

	round := rc.RoundNumber
	rc.timer = time.AfterFunc(d, func() {
		select {
		case rc.TmoCh <- Action{Timeout: &TimeoutAction{Round: round}}:
		default:
		}
	})
}

func (rc *RoomContext) ClearTimeout() {
	if rc.timer != nil {
		rc.timer.Stop()
		rc.timer = nil
	}
}

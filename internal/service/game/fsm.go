package game

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// GameMachine 是房间的事件循环：所有对房间状态的操作都经由
// 它的动作通道串行执行，不同房间互不争用
type GameMachine struct {
	ctx     *RoomContext
	handler StageHandler
	// 该房间所有连接的动作汇总到这个通道
	reqCh chan Action
	// 服务停止信号，关闭后所有房间协程退出
	doneCh chan struct{}

	createdAt time.Time
	// 供清理协程无锁读取的活跃信息
	lastActive atomic.Int64
	empty      atomic.Bool
}

func NewGameMachine(ctx *RoomContext, doneCh chan struct{}) *GameMachine {
	gm := &GameMachine{
		ctx:       ctx,
		handler:   NewIdleStageHandler(),
		reqCh:     make(chan Action, 64),
		doneCh:    doneCh,
		createdAt: time.Now(),
	}

	gm.lastActive.Store(gm.createdAt.Unix())
	gm.empty.Store(true)

	gm.handler.SetOnSwitch(func(nextStage string) {
		gm.ctx.Stage = nextStage
	})

	return gm
}

func (gm *GameMachine) GetReqCh() chan Action {
	return gm.reqCh
}

func (gm *GameMachine) Start() {
	gm.handler.OnEnter(gm.ctx)

	for {
		var act Action

		select {
		case act = <-gm.reqCh:
			zap.L().Debug(
				"接收到客户端动作",
				zap.String("room_id", gm.ctx.RoomID),
			)
		case act = <-gm.ctx.TmoCh:
			zap.L().Debug(
				"接收到定时器事件",
				zap.String("room_id", gm.ctx.RoomID),
			)
		case <-gm.doneCh:
			zap.L().Info(
				"收到停止信号，结束房间协程",
				zap.String("room_id", gm.ctx.RoomID),
			)
			gm.shutdown()
			return
		}

		if act.Done != nil {
			zap.L().Info(
				"收到关闭指令",
				zap.String("room_id", gm.ctx.RoomID),
			)
			gm.shutdown()
			return
		}

		gm.touch(act)

		if err := gm.handler.OnHandle(gm.ctx, act); err != nil {
			zap.L().Debug(
				"处理动作失败",
				zap.Error(err),
				zap.String("room_id", gm.ctx.RoomID),
				zap.String("stage", gm.handler.Stage()),
			)
		}

		// 阶段发生变化时切换 handler
		if gm.ctx.Stage != gm.handler.Stage() {
			gm.switchStage()
			gm.handler.OnEnter(gm.ctx)
		}

		gm.lastActive.Store(time.Now().Unix())
		gm.empty.Store(len(gm.ctx.Order) == 0)
	}
}

func (gm *GameMachine) switchStage() {
	gm.handler.OnExit(gm.ctx)

	var newHandler StageHandler

	switch gm.ctx.Stage {
	case STAGE_IDLE:
		newHandler = NewIdleStageHandler()
	case STAGE_ROUND:
		newHandler = NewRoundStageHandler()
	default:
		zap.L().Error(
			"未知的游戏阶段",
			zap.String("room_id", gm.ctx.RoomID),
			zap.String("stage", gm.ctx.Stage),
		)
		return
	}

	newHandler.SetOnSwitch(func(nextStage string) {
		gm.ctx.Stage = nextStage
	})

	gm.handler = newHandler
}

// 更新动作发起者的最后活跃时间
func (gm *GameMachine) touch(act Action) {
	id := act.actorID()
	if id == "" {
		return
	}

	if p, ok := gm.ctx.Players[id]; ok {
		p.LastActive = time.Now()
	}
}

func (gm *GameMachine) shutdown() {
	gm.ctx.ClearTimeout()

	// 关闭所有玩家的响应通道，让各自的写协程退出
	for _, p := range gm.ctx.Players {
		close(p.RespCh)
	}

	zap.L().Info(
		"房间协程已退出",
		zap.String("room_id", gm.ctx.RoomID),
	)
}

// Reclaimable 报告房间是否空置超过 idleFor，供清理协程判断。
// 默认房间不会被清理，调用方负责跳过
func (gm *GameMachine) Reclaimable(idleFor time.Duration) bool {
	if !gm.empty.Load() {
		return false
	}

	last := time.Unix(gm.lastActive.Load(), 0)
	return time.Since(last) > idleFor
}

func (gm *GameMachine) CreatedAt() time.Time {
	return gm.createdAt
}

package game

import (
	"fmt"
	"slices"
	"strings"
	"time"

	set "github.com/hashicorp/go-set/v3"
	"go.uber.org/zap"
)

// 房间只有两个阶段：
// 1. 空闲阶段（Idle）：没有进行中的回合，玩家可以加入、聊天、涂鸦，
//    人数达到下限后任意玩家可以请求开始回合
// 2. 回合阶段（RoundActive）：画家已选定、词语已记录，非画家玩家猜词，
//    全部猜中、画家离开、人数不足或超时都会让回合回到空闲阶段
const (
	STAGE_IDLE  = "Idle"
	STAGE_ROUND = "RoundActive"
)

type StageHandler interface {
	Stage() string

	OnEnter(ctx *RoomContext)
	OnHandle(ctx *RoomContext, act Action) error
	OnExit(ctx *RoomContext)

	SetOnSwitch(func(nextStage string))
}

// 空闲阶段是房间的初始阶段
type idleStageHandler struct {
	onSwitch func(string)
}

func NewIdleStageHandler() *idleStageHandler {
	return &idleStageHandler{}
}

func (ish *idleStageHandler) Stage() string {
	return STAGE_IDLE
}

func (ish *idleStageHandler) OnEnter(ctx *RoomContext) {
	// 清理上一回合遗留的画家标记和词语，分数保留
	ctx.CurrentWord = ""
	ctx.CurrentDrawer = ""

	for _, p := range ctx.Players {
		p.IsDrawer = false
	}
}

func (ish *idleStageHandler) OnHandle(ctx *RoomContext, act Action) error {
	switch {
	case act.Connect != nil:
		_, err := onPlayerJoin(ctx, act.Connect)
		return err

	case act.Exit != nil:
		onPlayerExit(ctx, act.Exit)
		return nil

	case act.Chat != nil:
		onChat(ctx, act.Chat)
		return nil

	case act.Draw != nil:
		onDraw(ctx, act.Draw)
		return nil

	case act.Guess != nil:
		// 回合未开始，任何猜测都按未猜中处理且不改变状态
		player, ok := ctx.Players[act.Guess.PlayerID]
		if !ok {
			return fmt.Errorf("玩家 %s 不在房间中", act.Guess.PlayerID)
		}

		ctx.Unicast(player.ID, WrapResponse(
			RESP_GUESS_RESULT,
			GuessResultResponse{Correct: false, Score: player.Score},
		))

		return nil

	case act.Start != nil:
		return ish.onStartRound(ctx, act.Start)

	case act.Timeout != nil:
		// 上一回合遗留的定时器事件
		return nil

	default:
		return fmt.Errorf("空闲阶段收到无法识别的动作")
	}
}

func (ish *idleStageHandler) onStartRound(ctx *RoomContext, act *StartAction) error {
	if len(ctx.Order) < ctx.MinPlayers {
		ctx.Unicast(act.PlayerID, WrapErrResponse("无法开始回合：玩家人数不足"))
		return fmt.Errorf(
			"%w: 玩家人数不足（%d/%d）",
			ErrInvalidState, len(ctx.Order), ctx.MinPlayers,
		)
	}

	word, err := ctx.Words.ChooseWord()
	if err != nil {
		ctx.Unicast(act.PlayerID, WrapErrResponse("无法开始回合：词库不可用"))
		return fmt.Errorf("选择词语失败: %w", err)
	}

	startRound(ctx, word)
	ish.onSwitch(STAGE_ROUND)

	return nil
}

// startRound 递增回合数、清空猜中集合、按当前名单轮换画家。
// 轮换索引按当前名单实时计算，名单在两回合之间发生变化时
// 可能跳过或重复某个玩家，这是沿用的既有行为
func startRound(ctx *RoomContext, word string) {
	ctx.RoundNumber++
	ctx.Guessed = set.New[string](len(ctx.Order))
	ctx.GuessOrder = ctx.GuessOrder[:0]
	ctx.CurrentWord = word

	drawerID := ctx.Order[ctx.RoundNumber%len(ctx.Order)]
	ctx.CurrentDrawer = drawerID

	for id, p := range ctx.Players {
		p.IsDrawer = id == drawerID
	}

	// 画家收到词语，其他玩家只知道画家是谁
	drawerName := ctx.Players[drawerID].Name

	for id := range ctx.Players {
		if id == drawerID {
			ctx.Unicast(id, WrapResponse(
				RESP_GAME_STARTED,
				GameStartedResponse{
					Word:     word,
					IsDrawer: true,
					Round:    ctx.RoundNumber,
				},
			))
		} else {
			ctx.Unicast(id, WrapResponse(
				RESP_GAME_STARTED,
				GameStartedResponse{
					IsDrawer:   false,
					Round:      ctx.RoundNumber,
					DrawerName: drawerName,
				},
			))
		}
	}

	zap.L().Info(
		"回合开始",
		zap.String("room_id", ctx.RoomID),
		zap.Int("round", ctx.RoundNumber),
		zap.String("drawer_id", drawerID),
	)
}

func (ish *idleStageHandler) OnExit(ctx *RoomContext) {}

func (ish *idleStageHandler) SetOnSwitch(onSwitch func(string)) {
	ish.onSwitch = onSwitch
}

// 回合阶段
type roundStageHandler struct {
	onSwitch func(string)
}

func NewRoundStageHandler() *roundStageHandler {
	return &roundStageHandler{}
}

func (rsh *roundStageHandler) Stage() string {
	return STAGE_ROUND
}

func (rsh *roundStageHandler) OnEnter(ctx *RoomContext) {
	if ctx.RoundTimeout > 0 {
		ctx.SetTimeout(ctx.RoundTimeout)
	}
}

func (rsh *roundStageHandler) OnHandle(ctx *RoomContext, act Action) error {
	switch {
	case act.Connect != nil:
		// 回合进行中也允许加入，新玩家作为猜词者参与当前回合，
		// 补发一帧回合状态让其知道回合已开始、画家是谁
		player, err := onPlayerJoin(ctx, act.Connect)
		if err != nil {
			return err
		}

		ctx.Unicast(player.ID, WrapResponse(
			RESP_GAME_STARTED,
			GameStartedResponse{
				IsDrawer:   false,
				Round:      ctx.RoundNumber,
				DrawerName: ctx.Players[ctx.CurrentDrawer].Name,
			},
		))

		return nil

	case act.Exit != nil:
		left := onPlayerExit(ctx, act.Exit)
		if left == nil {
			return nil
		}

		// 画家离开或人数跌破下限时回合立即结束；
		// 否则离开可能让剩余的非画家玩家恰好全部猜中，需要重新判定
		if left.wasDrawer {
			rsh.endRound(ctx, END_DRAWER_LEFT)
		} else if len(ctx.Order) < ctx.MinPlayers {
			rsh.endRound(ctx, END_TOO_FEW_PLAYERS)
		} else {
			rsh.maybeAutoEnd(ctx)
		}

		return nil

	case act.Chat != nil:
		onChat(ctx, act.Chat)
		return nil

	case act.Draw != nil:
		onDraw(ctx, act.Draw)
		return nil

	case act.Guess != nil:
		return rsh.onGuess(ctx, act.Guess)

	case act.Start != nil:
		ctx.Unicast(act.Start.PlayerID, WrapErrResponse("无法开始回合：回合正在进行"))
		return fmt.Errorf("%w: 回合已在进行", ErrInvalidState)

	case act.Timeout != nil:
		if act.Timeout.Round != ctx.RoundNumber {
			// 旧回合的定时器事件
			return nil
		}

		rsh.endRound(ctx, END_TIMEOUT)
		return nil

	default:
		return fmt.Errorf("回合阶段收到无法识别的动作")
	}
}

func (rsh *roundStageHandler) onGuess(ctx *RoomContext, act *GuessAction) error {
	player, ok := ctx.Players[act.PlayerID]
	if !ok {
		return fmt.Errorf("玩家 %s 不在房间中", act.PlayerID)
	}

	// 画家本人和已猜中的玩家不会再次得分；
	// 未命中的猜测只私下告知本人，不广播
	if act.PlayerID == ctx.CurrentDrawer ||
		ctx.Guessed.Contains(act.PlayerID) ||
		!wordMatches(act.Text, ctx.CurrentWord) {
		ctx.Unicast(player.ID, WrapResponse(
			RESP_GUESS_RESULT,
			GuessResultResponse{Correct: false, Score: player.Score},
		))

		return nil
	}

	// 越早猜中得分越高：100、90、80……下限 10 分
	prior := ctx.Guessed.Size()
	ctx.Guessed.Insert(player.ID)
	ctx.GuessOrder = append(ctx.GuessOrder, player.ID)

	points := 100 - 10*prior
	if points < 10 {
		points = 10
	}

	player.Score += points

	ctx.Unicast(player.ID, WrapResponse(
		RESP_GUESS_RESULT,
		GuessResultResponse{Correct: true, Score: player.Score},
	))

	ctx.Broadcast(WrapResponse(
		RESP_PLAYER_GUESSED,
		PlayerGuessedResponse{PlayerID: player.ID, PlayerName: player.Name},
	), "")

	zap.L().Info(
		"玩家猜中词语",
		zap.String("room_id", ctx.RoomID),
		zap.String("player_id", player.ID),
		zap.Int("points", points),
	)

	rsh.maybeAutoEnd(ctx)

	return nil
}

// 所有非画家玩家都已猜中时自动结束回合
func (rsh *roundStageHandler) maybeAutoEnd(ctx *RoomContext) {
	if ctx.Guessed.Size() == len(ctx.Order)-1 {
		rsh.endRound(ctx, END_ALL_GUESSED)
	}
}

func (rsh *roundStageHandler) endRound(ctx *RoomContext, reason string) {
	ctx.Broadcast(WrapResponse(
		RESP_ROUND_ENDED,
		RoundEndedResponse{
			Round:  ctx.RoundNumber,
			Word:   ctx.CurrentWord,
			Reason: reason,
		},
	), "")

	zap.L().Info(
		"回合结束",
		zap.String("room_id", ctx.RoomID),
		zap.Int("round", ctx.RoundNumber),
		zap.String("reason", reason),
	)

	rsh.onSwitch(STAGE_IDLE)
}

func (rsh *roundStageHandler) OnExit(ctx *RoomContext) {
	ctx.ClearTimeout()
}

func (rsh *roundStageHandler) SetOnSwitch(onSwitch func(string)) {
	rsh.onSwitch = onSwitch
}

// 猜测去除首尾空白后与词语做大小写不敏感比较
func wordMatches(guess, word string) bool {
	return word != "" && strings.EqualFold(strings.TrimSpace(guess), word)
}

func onPlayerJoin(ctx *RoomContext, act *ConnectAction) (*Player, error) {
	if len(ctx.Order) >= ctx.MaxPlayers {
		act.Ack <- ConnectResult{Err: ErrRoomFull}
		return nil, fmt.Errorf("%w: %s", ErrRoomFull, ctx.RoomID)
	}

	player := &Player{
		ID:         ShortID(),
		Name:       act.Name,
		RespCh:     act.RespCh,
		LastActive: time.Now(),
	}

	ctx.Players[player.ID] = player
	ctx.Order = append(ctx.Order, player.ID)

	act.Ack <- ConnectResult{
		Player:  *player,
		RoomID:  ctx.RoomID,
		Players: ctx.PlayerList(),
	}

	// 新玩家收到完整名单，其他人收到加入通知
	ctx.Unicast(player.ID, WrapResponse(
		RESP_CONNECTED,
		ConnectedResponse{
			PlayerID: player.ID,
			RoomID:   ctx.RoomID,
			Players:  ctx.PlayerList(),
		},
	))

	ctx.Broadcast(WrapResponse(
		RESP_PLAYER_JOINED,
		PlayerJoinedResponse{Player: *player},
	), player.ID)

	zap.L().Info(
		"玩家加入房间",
		zap.String("room_id", ctx.RoomID),
		zap.String("player_id", player.ID),
		zap.String("player_name", player.Name),
	)

	return player, nil
}

type leftInfo struct {
	wasDrawer bool
}

func onPlayerExit(ctx *RoomContext, act *ExitAction) *leftInfo {
	player, exists := ctx.Players[act.PlayerID]
	if !exists {
		zap.L().Warn(
			"玩家不存在，无法退出",
			zap.String("room_id", ctx.RoomID),
			zap.String("player_id", act.PlayerID),
		)
		return nil
	}

	wasDrawer := act.PlayerID == ctx.CurrentDrawer

	delete(ctx.Players, act.PlayerID)
	ctx.Order = slices.DeleteFunc(ctx.Order, func(id string) bool {
		return id == act.PlayerID
	})

	// 已猜中的玩家离开后必须从猜中集合移除，
	// 否则集合大小和名单人数失配，回合无法自动结束
	ctx.Guessed.Remove(act.PlayerID)
	ctx.GuessOrder = slices.DeleteFunc(ctx.GuessOrder, func(id string) bool {
		return id == act.PlayerID
	})

	leftResp := WrapResponse(
		RESP_PLAYER_LEFT,
		PlayerLeftResponse{PlayerID: player.ID, PlayerName: player.Name},
	)

	// 先给退出者发送确认，再关闭其通道让写协程退出
	select {
	case player.RespCh <- leftResp:
	default:
	}

	close(player.RespCh)

	ctx.Broadcast(leftResp, "")

	zap.L().Info(
		"玩家离开房间",
		zap.String("room_id", ctx.RoomID),
		zap.String("player_id", player.ID),
		zap.String("player_name", player.Name),
	)

	return &leftInfo{wasDrawer: wasDrawer}
}

func onChat(ctx *RoomContext, act *ChatAction) {
	player, ok := ctx.Players[act.PlayerID]
	if !ok {
		zap.L().Warn(
			"玩家不存在，丢弃聊天消息",
			zap.String("room_id", ctx.RoomID),
			zap.String("player_id", act.PlayerID),
		)
		return
	}

	// 聊天广播包含发送者本人
	ctx.Broadcast(WrapResponse(
		RESP_CHAT,
		ChatResponse{
			PlayerID:   player.ID,
			PlayerName: player.Name,
			Message:    act.Text,
		},
	), "")
}

func onDraw(ctx *RoomContext, act *DrawAction) {
	if _, ok := ctx.Players[act.PlayerID]; !ok {
		zap.L().Warn(
			"玩家不存在，丢弃绘图消息",
			zap.String("room_id", ctx.RoomID),
			zap.String("player_id", act.PlayerID),
		)
		return
	}

	// 原样转发给除发送者外的所有玩家
	ctx.Broadcast(WrapResponse(RESP_DRAW, act.Stroke), act.PlayerID)
}

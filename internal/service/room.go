package service

import (
	"errors"
	"sync"
	"time"

	"draw-guess-be/internal/service/dto"
	"draw-guess-be/internal/service/game"

	"go.uber.org/zap"
)

// 服务器启动时创建的默认房间，所有未指明房间的连接都加入它。
// 默认房间与服务器同生共死，不会被清理
const DEFAULT_ROOM_ID = "default"

// 额外创建的房间空置超过该时长后被回收
const ROOM_IDLE_TTL = 10 * time.Minute

// RoomOptions 控制每个房间的人数与回合限时
type RoomOptions struct {
	MaxPlayers int
	MinPlayers int
	// 为 0 时回合不限时
	RoundTimeout time.Duration
}

// RoomService 持有房间表和会话注册表，是连接层进入游戏逻辑的入口。
// 每个房间有独立的协程和动作通道，对不同房间的操作互不阻塞
type RoomService struct {
	state    *roomServiceState
	registry *Registry

	opts  RoomOptions
	words game.WordSource
}

type roomEntry struct {
	name    string
	machine *game.GameMachine
	reqCh   chan game.Action
}

type roomServiceState struct {
	mu sync.RWMutex

	rooms map[string]*roomEntry

	stopCh chan struct{}
}

func NewRoomService(opts RoomOptions, source game.WordSource) *RoomService {
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = 8
	}
	if opts.MinPlayers < 2 {
		opts.MinPlayers = 2
	}

	state := &roomServiceState{
		rooms:  make(map[string]*roomEntry),
		stopCh: make(chan struct{}),
	}

	rs := &RoomService{
		state:    state,
		registry: NewRegistry(),
		opts:     opts,
		words:    source,
	}

	// 创建默认房间
	rs.state.mu.Lock()
	rs.spawnRoomLocked(DEFAULT_ROOM_ID, DEFAULT_ROOM_ID)
	rs.state.mu.Unlock()

	// 启动一个协程定期回收空置的附加房间
	go rs.cleanupLoop()

	return rs
}

// 必须持有 state.mu 调用
func (rs *RoomService) spawnRoomLocked(roomID, roomName string) *roomEntry {
	ctx := game.NewRoomContext(
		roomID,
		roomName,
		rs.opts.MaxPlayers,
		rs.opts.MinPlayers,
		rs.words,
		rs.opts.RoundTimeout,
	)

	machine := game.NewGameMachine(ctx, rs.state.stopCh)

	entry := &roomEntry{
		name:    roomName,
		machine: machine,
		reqCh:   machine.GetReqCh(),
	}

	rs.state.rooms[roomID] = entry

	go machine.Start()

	return entry
}

func (rs *RoomService) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rs.state.stopCh:
			return

		case <-ticker.C:
			rs.state.mu.Lock()

			for roomID, entry := range rs.state.rooms {
				if roomID == DEFAULT_ROOM_ID {
					continue
				}

				if !entry.machine.Reclaimable(ROOM_IDLE_TTL) {
					continue
				}

				zap.S().Infof("房间 %s 长时间无人使用，开始清理", roomID)

				// 通知对应的房间协程退出
				select {
				case entry.reqCh <- game.Action{Done: &struct{}{}}:
				default:
					zap.S().Warnf("房间 %s 关闭指令发送失败：通道已满", roomID)
				}

				delete(rs.state.rooms, roomID)
			}

			rs.state.mu.Unlock()
		}
	}
}

// Stop 关闭所有房间协程和清理协程
func (rs *RoomService) Stop() {
	close(rs.state.stopCh)
}

func (rs *RoomService) CreateRoom(req dto.CreateRoomRequest) (dto.CreateRoomResponse, error) {
	if req.RoomName == "" {
		return dto.CreateRoomResponse{}, errors.New("房间名称不能为空")
	}

	roomID := game.ShortID()

	rs.state.mu.Lock()
	rs.spawnRoomLocked(roomID, req.RoomName)
	rs.state.mu.Unlock()

	zap.S().Infof("房间 %s(%s) 已创建", roomID, req.RoomName)

	return dto.CreateRoomResponse{
		RoomID:   roomID,
		RoomName: req.RoomName,
	}, nil
}

func (rs *RoomService) RoomExists(roomID string) bool {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	_, ok := rs.state.rooms[roomID]
	return ok
}

// Connect 将一个新连接加入指定房间，同步等待房间协程的确认。
// 成功时返回该房间的动作通道，后续入站消息都投递到这个通道
func (rs *RoomService) Connect(
	roomID string,
	name string,
	respCh chan game.ResponseWrapper,
) (chan game.Action, game.ConnectResult, error) {
	if roomID == "" {
		roomID = DEFAULT_ROOM_ID
	}

	rs.state.mu.RLock()
	entry := rs.state.rooms[roomID]
	rs.state.mu.RUnlock()

	if entry == nil {
		return nil, game.ConnectResult{}, errors.New("房间不存在")
	}

	ack := make(chan game.ConnectResult, 1)

	act := game.Action{
		Connect: &game.ConnectAction{
			Name:   name,
			RespCh: respCh,
			Ack:    ack,
		},
	}

	sendTimer := time.NewTimer(5 * time.Second)
	defer sendTimer.Stop()

	select {
	case entry.reqCh <- act:
	case <-sendTimer.C:
		zap.S().Warnf("房间 %s 无法及时处理加入请求，%s 发送失败", roomID, name)
		return nil, game.ConnectResult{}, errors.New("加入房间失败")
	}

	ackTimer := time.NewTimer(5 * time.Second)
	defer ackTimer.Stop()

	select {
	case res := <-ack:
		if res.Err != nil {
			zap.S().Warnf("房间 %s 拒绝 %s 加入：%v", roomID, name, res.Err)
			return nil, game.ConnectResult{}, res.Err
		}

		rs.registry.Register(Session{
			PlayerID: res.Player.ID,
			Name:     res.Player.Name,
			RoomID:   roomID,
			JoinedAt: time.Now(),
		})

		zap.S().Infof("房间 %s 接纳玩家 %s(%s)", roomID, res.Player.Name, res.Player.ID)

		return entry.reqCh, res, nil

	case <-ackTimer.C:
		zap.S().Warnf("房间 %s 加入请求响应超时：%s", roomID, name)
		return nil, game.ConnectResult{}, errors.New("加入房间失败")
	}
}

// Disconnect 在连接断开时触发，保证玩家从房间名单中同步移除
func (rs *RoomService) Disconnect(playerID string) {
	sess, ok := rs.registry.Lookup(playerID)
	if !ok {
		return
	}

	rs.state.mu.RLock()
	entry := rs.state.rooms[sess.RoomID]
	rs.state.mu.RUnlock()

	if entry != nil {
		exitTimer := time.NewTimer(5 * time.Second)
		defer exitTimer.Stop()

		select {
		case entry.reqCh <- game.Action{Exit: &game.ExitAction{PlayerID: playerID}}:
		case <-exitTimer.C:
			zap.S().Warnf("向房间 %s 发送退出请求超时", sess.RoomID)
		}
	}

	rs.registry.Unregister(playerID)
}

// Registry 暴露会话注册表，供测试和诊断接口使用
func (rs *RoomService) Registry() *Registry {
	return rs.registry
}

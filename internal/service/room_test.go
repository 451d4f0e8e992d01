package service

import (
	"errors"
	"testing"
	"time"

	"draw-guess-be/internal/service/dto"
	"draw-guess-be/internal/service/game"
	"draw-guess-be/internal/words"
)

func newTestService() *RoomService {
	return NewRoomService(
		RoomOptions{MaxPlayers: 4, MinPlayers: 2},
		words.NewList("apple"),
	)
}

func waitConnected(t *testing.T, respCh chan game.ResponseWrapper) {
	t.Helper()

	deadline := time.After(2 * time.Second)

	for {
		select {
		case resp, ok := <-respCh:
			if !ok {
				t.Fatalf("response channel closed before connected frame")
			}
			if resp.Type == game.RESP_CONNECTED {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for connected frame")
		}
	}
}

func TestConnectJoinsDefaultRoom(t *testing.T) {
	rs := newTestService()
	defer rs.Stop()

	respCh := make(chan game.ResponseWrapper, 64)

	reqCh, res, err := rs.Connect("", "Alice", respCh)
	if err != nil {
		t.Fatalf("connect should succeed, got: %v", err)
	}
	if reqCh == nil {
		t.Fatalf("connect must return the room action channel")
	}
	if res.RoomID != DEFAULT_ROOM_ID {
		t.Fatalf("empty room id must fall back to the default room, got %q", res.RoomID)
	}

	waitConnected(t, respCh)

	sess, ok := rs.Registry().Lookup(res.Player.ID)
	if !ok || sess.RoomID != DEFAULT_ROOM_ID || sess.Name != "Alice" {
		t.Fatalf("session must be registered on join, got %+v ok=%v", sess, ok)
	}
}

func TestConnectUnknownRoom(t *testing.T) {
	rs := newTestService()
	defer rs.Stop()

	respCh := make(chan game.ResponseWrapper, 64)

	if _, _, err := rs.Connect("no-such-room", "Alice", respCh); err == nil {
		t.Fatalf("connecting to an unknown room must fail")
	}
}

func TestConnectRejectsWhenRoomFull(t *testing.T) {
	rs := NewRoomService(
		RoomOptions{MaxPlayers: 2, MinPlayers: 2},
		words.NewList("apple"),
	)
	defer rs.Stop()

	for i := 0; i < 2; i++ {
		respCh := make(chan game.ResponseWrapper, 64)
		if _, _, err := rs.Connect("", "Player", respCh); err != nil {
			t.Fatalf("join %d should succeed, got: %v", i, err)
		}
	}

	respCh := make(chan game.ResponseWrapper, 64)
	_, _, err := rs.Connect("", "Late", respCh)
	if !errors.Is(err, game.ErrRoomFull) {
		t.Fatalf("want ErrRoomFull, got: %v", err)
	}
	if rs.Registry().Count() != 2 {
		t.Fatalf("rejected join must not register a session, count=%d", rs.Registry().Count())
	}
}

func TestDisconnectRemovesSession(t *testing.T) {
	rs := newTestService()
	defer rs.Stop()

	respCh := make(chan game.ResponseWrapper, 64)

	_, res, err := rs.Connect("", "Alice", respCh)
	if err != nil {
		t.Fatalf("connect should succeed, got: %v", err)
	}

	rs.Disconnect(res.Player.ID)

	if _, ok := rs.Registry().Lookup(res.Player.ID); ok {
		t.Fatalf("disconnect must unregister the session")
	}

	// 房间协程处理退出后会关闭响应通道
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-respCh:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("response channel must be closed after disconnect")
		}
	}
}

func TestDisconnectUnknownPlayerIsNoop(t *testing.T) {
	rs := newTestService()
	defer rs.Stop()

	rs.Disconnect("absent")

	if rs.Registry().Count() != 0 {
		t.Fatalf("disconnecting an unknown player must be a no-op")
	}
}

// 服务停止后房间协程退出、响应通道关闭，但动作通道保持打开；
// 仍在运行的连接读循环继续非阻塞投递动作时不允许崩溃
func TestActionsAfterStopAreDropped(t *testing.T) {
	rs := newTestService()

	respCh := make(chan game.ResponseWrapper, 64)

	reqCh, res, err := rs.Connect("", "Alice", respCh)
	if err != nil {
		t.Fatalf("connect should succeed, got: %v", err)
	}

	rs.Stop()

	// 等房间协程退出（关闭所有玩家的响应通道）
	deadline := time.After(2 * time.Second)
	for open := true; open; {
		select {
		case _, ok := <-respCh:
			open = ok
		case <-deadline:
			t.Fatalf("room goroutine must shut down on stop")
		}
	}

	// 无人消费时用非阻塞发送灌满动作通道，与连接读循环的投递方式一致
	for i := 0; i < 128; i++ {
		select {
		case reqCh <- game.Action{Chat: &game.ChatAction{PlayerID: res.Player.ID, Text: "hello"}}:
		default:
		}
	}
}

func TestCreateRoomAndConnect(t *testing.T) {
	rs := newTestService()
	defer rs.Stop()

	if _, err := rs.CreateRoom(dto.CreateRoomRequest{}); err == nil {
		t.Fatalf("room name must be required")
	}

	created, err := rs.CreateRoom(dto.CreateRoomRequest{RoomName: "周末画室"})
	if err != nil {
		t.Fatalf("create room should succeed, got: %v", err)
	}
	if created.RoomID == "" || created.RoomName != "周末画室" {
		t.Fatalf("unexpected create room response: %+v", created)
	}

	if !rs.RoomExists(created.RoomID) {
		t.Fatalf("created room must be joinable")
	}
	if rs.RoomExists("no-such-room") {
		t.Fatalf("unknown room id must not exist")
	}

	respCh := make(chan game.ResponseWrapper, 64)

	_, res, err := rs.Connect(created.RoomID, "Alice", respCh)
	if err != nil {
		t.Fatalf("connect to created room should succeed, got: %v", err)
	}
	if res.RoomID != created.RoomID {
		t.Fatalf("want room %q, got %q", created.RoomID, res.RoomID)
	}

	waitConnected(t, respCh)

	// 两个房间互不影响：默认房间依然可加入
	otherCh := make(chan game.ResponseWrapper, 64)
	if _, _, err := rs.Connect("", "Bob", otherCh); err != nil {
		t.Fatalf("default room must stay available, got: %v", err)
	}
}

package game

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTryUnwrapConnectRequest(t *testing.T) {
	req, err := TryUnwrapConnectRequest(RequestWrapper{
		Type: REQ_CONNECT,
		Data: json.RawMessage(`{"name": "Alice", "room_id": "r1"}`),
	})
	if err != nil {
		t.Fatalf("valid connect should parse, got: %v", err)
	}
	if req.Name != "Alice" || req.RoomID != "r1" {
		t.Fatalf("unexpected connect request: %+v", req)
	}

	// room_id 可选
	req, err = TryUnwrapConnectRequest(RequestWrapper{
		Type: REQ_CONNECT,
		Data: json.RawMessage(`{"name": "Bob"}`),
	})
	if err != nil || req.RoomID != "" {
		t.Fatalf("connect without room_id should parse, got: %v %+v", err, req)
	}

	cases := []RequestWrapper{
		{Type: REQ_GUESS, Data: json.RawMessage(`{"text": "apple"}`)},
		{Type: REQ_CONNECT, Data: json.RawMessage(`{}`)},
		{Type: REQ_CONNECT, Data: json.RawMessage(`not json`)},
	}

	for i, c := range cases {
		if _, err := TryUnwrapConnectRequest(c); !errors.Is(err, ErrMalformed) {
			t.Fatalf("case %d: want ErrMalformed, got: %v", i, err)
		}
	}
}

func TestDecodeActionDraw(t *testing.T) {
	act, err := DecodeAction("p0", RequestWrapper{
		Type: REQ_DRAW,
		Data: json.RawMessage(`{"x": 0, "y": 0, "prev_x": 1, "prev_y": 2, "color": [255, 0, 0], "size": 3}`),
	})
	if err != nil {
		t.Fatalf("valid draw should decode, got: %v", err)
	}
	if act.Draw == nil {
		t.Fatalf("want a draw action, got %+v", act)
	}

	// 零值坐标合法，字段缺失才是错误
	stroke := act.Draw.Stroke
	if stroke.X != 0 || stroke.PrevX != 1 || stroke.Size != 3 || len(stroke.Color) != 3 {
		t.Fatalf("unexpected stroke: %+v", stroke)
	}
	if act.Draw.PlayerID != "p0" {
		t.Fatalf("stroke must carry the sender id, got %q", act.Draw.PlayerID)
	}

	_, err = DecodeAction("p0", RequestWrapper{
		Type: REQ_DRAW,
		Data: json.RawMessage(`{"x": 0, "y": 0, "prev_y": 2, "color": [255, 0, 0], "size": 3}`),
	})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("draw missing prev_x must be malformed, got: %v", err)
	}
}

func TestDecodeActionGuessAndChat(t *testing.T) {
	act, err := DecodeAction("p0", RequestWrapper{
		Type: REQ_GUESS,
		Data: json.RawMessage(`{"text": "apple"}`),
	})
	if err != nil || act.Guess == nil || act.Guess.Text != "apple" {
		t.Fatalf("valid guess should decode, got: %v %+v", err, act)
	}

	// 空串 text 合法，缺失才是错误
	act, err = DecodeAction("p0", RequestWrapper{
		Type: REQ_CHAT,
		Data: json.RawMessage(`{"text": ""}`),
	})
	if err != nil || act.Chat == nil {
		t.Fatalf("chat with empty text should decode, got: %v", err)
	}

	_, err = DecodeAction("p0", RequestWrapper{
		Type: REQ_GUESS,
		Data: json.RawMessage(`{}`),
	})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("guess without text must be malformed, got: %v", err)
	}
}

func TestDecodeActionRejectsUnknownAndRepeatConnect(t *testing.T) {
	_, err := DecodeAction("p0", RequestWrapper{Type: "vote", Data: json.RawMessage(`{}`)})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("unknown type must be malformed, got: %v", err)
	}

	_, err = DecodeAction("p0", RequestWrapper{
		Type: REQ_CONNECT,
		Data: json.RawMessage(`{"name": "Alice"}`),
	})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("repeat connect must be malformed, got: %v", err)
	}
}

func TestDecodeActionStartGame(t *testing.T) {
	act, err := DecodeAction("p0", RequestWrapper{Type: REQ_START_GAME})
	if err != nil || act.Start == nil || act.Start.PlayerID != "p0" {
		t.Fatalf("start_game should decode, got: %v %+v", err, act)
	}
}

package game

import (
	"encoding/json"
	"fmt"
)

// 客户端发送的消息类型
const (
	REQ_CONNECT    = "connect"
	REQ_DRAW       = "draw"
	REQ_GUESS      = "guess"
	REQ_CHAT       = "chat"
	REQ_START_GAME = "start_game"
)

// 通信帧格式为 {"type": ..., "data": {...}}，data 中的未知字段被忽略
type RequestWrapper struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ConnectRequest struct {
	Name   string `json:"name"`
	RoomID string `json:"room_id"`
}

// 画笔轨迹，服务器原样转发不做解释
type DrawPayload struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	PrevX int   `json:"prev_x"`
	PrevY int   `json:"prev_y"`
	Color []int `json:"color"`
	Size  int   `json:"size"`
}

// TryUnwrapConnectRequest 解析连接的首条消息，必须是带 name 的 connect
func TryUnwrapConnectRequest(wrapper RequestWrapper) (*ConnectRequest, error) {
	if wrapper.Type != REQ_CONNECT {
		return nil, fmt.Errorf("%w: 首条消息必须是 connect，收到 %q", ErrMalformed, wrapper.Type)
	}

	var req ConnectRequest

	if err := json.Unmarshal(wrapper.Data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if req.Name == "" {
		return nil, fmt.Errorf("%w: connect 缺少 name 字段", ErrMalformed)
	}

	return &req, nil
}

// DecodeAction 将一条入站消息解码为房间动作。
// 类型未知或缺少必需字段时返回 ErrMalformed，调用方应关闭该连接
func DecodeAction(playerID string, wrapper RequestWrapper) (Action, error) {
	switch wrapper.Type {
	case REQ_DRAW:
		// 用指针区分字段缺失和零值坐标
		var raw struct {
			X     *int  `json:"x"`
			Y     *int  `json:"y"`
			PrevX *int  `json:"prev_x"`
			PrevY *int  `json:"prev_y"`
			Color []int `json:"color"`
			Size  *int  `json:"size"`
		}

		if err := json.Unmarshal(wrapper.Data, &raw); err != nil {
			return Action{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		if raw.X == nil || raw.Y == nil || raw.PrevX == nil || raw.PrevY == nil ||
			len(raw.Color) == 0 || raw.Size == nil {
			return Action{}, fmt.Errorf("%w: draw 缺少必需字段", ErrMalformed)
		}

		return Action{
			Draw: &DrawAction{
				PlayerID: playerID,
				Stroke: DrawPayload{
					X:     *raw.X,
					Y:     *raw.Y,
					PrevX: *raw.PrevX,
					PrevY: *raw.PrevY,
					Color: raw.Color,
					Size:  *raw.Size,
				},
			},
		}, nil

	case REQ_GUESS:
		var raw struct {
			Text *string `json:"text"`
		}

		if err := json.Unmarshal(wrapper.Data, &raw); err != nil {
			return Action{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		if raw.Text == nil {
			return Action{}, fmt.Errorf("%w: guess 缺少 text 字段", ErrMalformed)
		}

		return Action{Guess: &GuessAction{PlayerID: playerID, Text: *raw.Text}}, nil

	case REQ_CHAT:
		var raw struct {
			Text *string `json:"text"`
		}

		if err := json.Unmarshal(wrapper.Data, &raw); err != nil {
			return Action{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		if raw.Text == nil {
			return Action{}, fmt.Errorf("%w: chat 缺少 text 字段", ErrMalformed)
		}

		return Action{Chat: &ChatAction{PlayerID: playerID, Text: *raw.Text}}, nil

	case REQ_START_GAME:
		return Action{Start: &StartAction{PlayerID: playerID}}, nil

	case REQ_CONNECT:
		return Action{}, fmt.Errorf("%w: 连接已建立，不允许重复 connect", ErrMalformed)

	default:
		return Action{}, fmt.Errorf("%w: 未知的消息类型 %q", ErrMalformed, wrapper.Type)
	}
}

// 服务器发送的消息类型
const (
	RESP_ERROR          = "error"
	RESP_CONNECTED      = "connected"
	RESP_PLAYER_JOINED  = "player_joined"
	RESP_PLAYER_LEFT    = "player_left"
	RESP_DRAW           = "draw"
	RESP_CHAT           = "chat"
	RESP_GUESS_RESULT   = "guess_result"
	RESP_PLAYER_GUESSED = "player_guessed"
	RESP_GAME_STARTED   = "game_started"
	RESP_ROUND_ENDED    = "round_ended"
)

type ResponseWrapper struct {
	Type   string `json:"type"`
	Data   any    `json:"data,omitempty"`
	ErrMsg string `json:"error,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		Type: respType,
		Data: data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		Type:   RESP_ERROR,
		ErrMsg: errMsg,
	}
}

type ConnectedResponse struct {
	PlayerID string   `json:"player_id"`
	RoomID   string   `json:"room_id"`
	Players  []Player `json:"players"`
}

type PlayerJoinedResponse struct {
	Player Player `json:"player"`
}

type PlayerLeftResponse struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

type ChatResponse struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Message    string `json:"message"`
}

// 只发给猜测者本人，Score 为其当前总分
type GuessResultResponse struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score"`
}

type PlayerGuessedResponse struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// Word 只下发给画家，其他玩家收到 DrawerName
type GameStartedResponse struct {
	Word       string `json:"word,omitempty"`
	IsDrawer   bool   `json:"is_drawer"`
	Round      int    `json:"round"`
	DrawerName string `json:"drawer_name,omitempty"`
}

// 回合结束原因
const (
	END_ALL_GUESSED     = "all_guessed"
	END_DRAWER_LEFT     = "drawer_left"
	END_TOO_FEW_PLAYERS = "too_few_players"
	END_TIMEOUT         = "timeout"
)

// 回合结束时向全房间公布答案
type RoundEndedResponse struct {
	Round  int    `json:"round"`
	Word   string `json:"word"`
	Reason string `json:"reason"`
}

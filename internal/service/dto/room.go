package dto

type CreateRoomRequest struct {
	RoomName string `json:"room_name"`
}

type CreateRoomResponse struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
}

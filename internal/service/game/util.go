package game

import "github.com/google/uuid"

func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// ShortID 取 UUID 的末 8 位作为玩家/房间的短 ID
func ShortID() string {
	id := GenID()
	return id[len(id)-8:]
}

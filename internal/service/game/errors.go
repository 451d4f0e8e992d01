package game

import "errors"

// 房间操作的错误分类，调用方用 errors.Is 判断后
// 决定是回复错误响应还是直接关闭连接
var (
	// 房间人数已达上限，加入被拒绝
	ErrRoomFull = errors.New("房间已满")
	// 当前阶段不允许该操作（例如回合进行中重复开始）
	ErrInvalidState = errors.New("当前阶段不允许该操作")
	// 消息类型未知或缺少必需字段，连接将被关闭
	ErrMalformed = errors.New("消息格式无效")
	// 对端已断开连接
	ErrDisconnected = errors.New("连接已断开")
)

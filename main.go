package main

import (
	"time"

	"draw-guess-be/internal/api/http"
	"draw-guess-be/internal/config"
	"draw-guess-be/internal/logger"
	"draw-guess-be/internal/service"
	"draw-guess-be/internal/state"
	"draw-guess-be/internal/words"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)

	// 加载词库。词库不可用不阻止启动，开始回合时会返回错误
	wordList, err := words.Load(cfg.WordsFile)
	if err != nil {
		zap.S().Warnf("加载词库失败：%v，开始回合将不可用", err)
		wordList = words.NewList()
	} else {
		zap.S().Infof("词库加载完成，共 %d 个词", wordList.Len())
	}

	// 组装应用状态
	appState := state.NewAppState(
		cfg,
		service.NewRoomService(
			service.RoomOptions{
				MaxPlayers:   cfg.MaxPlayers,
				MinPlayers:   cfg.MinPlayers,
				RoundTimeout: time.Duration(cfg.RoundTimeoutSec) * time.Second,
			},
			wordList,
		),
	)

	// 启动服务器
	http.RunServer(appState)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	LogLevel        string `mapstructure:"log_level"`
	WordsFile       string `mapstructure:"words_file"`
	MaxPlayers      int    `mapstructure:"max_players"`
	MinPlayers      int    `mapstructure:"min_players"`
	RoundTimeoutSec int    `mapstructure:"round_timeout_secs"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	// .env 仅供本地开发覆盖环境变量，缺失时忽略
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigFile("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8765)
	v.SetDefault("log_level", "info")
	v.SetDefault("words_file", "data/words.txt")
	v.SetDefault("max_players", 8)
	v.SetDefault("min_players", 2)
	v.SetDefault("round_timeout_secs", 0)

	v.SetEnvPrefix("DRAWGUESS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时使用默认值和环境变量
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			panic(fmt.Errorf("加载配置失败: %w", err))
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("解析配置失败: %w", err))
	}

	return &config
}

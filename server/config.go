package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"dodgearena/game"
)

// RoomConfig 房间生命周期的各类计时
type RoomConfig struct {
	TickInterval  time.Duration // 固定步长，默认 50ms（20 TPS）
	WaitTimeout   time.Duration // 等待凑齐并全部准备的时限
	Countdown     time.Duration // 全部准备后到开局的倒计时
	CleanupDelay  time.Duration // 对局结束后保留房间的时长
	ReportTimeout time.Duration // 上报结果的整体超时
}

// DefaultRoomConfig 与线上节奏一致的默认值
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		TickInterval:  time.Second / game.TicksPerSecond,
		WaitTimeout:   5 * time.Minute,
		Countdown:     3 * time.Second,
		CleanupDelay:  5 * time.Minute,
		ReportTimeout: 30 * time.Second,
	}
}

// Config 进程级配置：先读 .env（可选），再读环境变量
type Config struct {
	Addr     string
	LogFile  string
	LogLevel string

	APIURL        string // 身份验证与结果上报后端
	AdminUsername string
	AdminPassword string

	ExternalTimeout time.Duration // 单次外部请求超时
	SentryDSN       string
	StatsviewAddr   string

	Room RoomConfig
}

// LoadConfig 加载配置；.env 不存在不算错误
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Addr:          getEnv("ADDR", ":8080"),
		LogFile:       getEnv("LOG_FILE", "app.log"),
		LogLevel:      getEnv("LOG_LEVEL", "debug"),
		APIURL:        getEnv("DODGE_API_URL", "http://localhost:8000"),
		AdminUsername: getEnv("DODGE_ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("DODGE_ADMIN_PASSWORD", "password"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		StatsviewAddr: os.Getenv("STATSVIEW_ADDR"),
		Room:          DefaultRoomConfig(),
	}

	var err error
	if cfg.ExternalTimeout, err = getDuration("EXTERNAL_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Room.WaitTimeout, err = getDuration("ROOM_WAIT_TIMEOUT", cfg.Room.WaitTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Room.CleanupDelay, err = getDuration("ROOM_CLEANUP_DELAY", cfg.Room.CleanupDelay); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("COUNTDOWN_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("COUNTDOWN_SECONDS: invalid value %q", v)
		}
		cfg.Room.Countdown = time.Duration(n) * time.Second
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jengzang/location-bridge-go/internal/geocoding"
	"github.com/jengzang/location-bridge-go/internal/simulator"
)

// Config 应用配置
type Config struct {
	Port      string `mapstructure:"PORT"`
	DBPath    string `mapstructure:"DB_PATH"`
	JWTSecret string `mapstructure:"JWT_SECRET"` // 为空时关闭鉴权
	LogLevel  string `mapstructure:"LOG_LEVEL"`

	GeocoderEnabled   bool          `mapstructure:"GEOCODER_ENABLED"`
	GeocoderURL       string        `mapstructure:"GEOCODER_URL"`
	GeocoderUserAgent string        `mapstructure:"GEOCODER_USER_AGENT"`
	GeocoderRPS       float64       `mapstructure:"GEOCODER_RPS"`
	GeocoderTimeout   time.Duration `mapstructure:"GEOCODER_TIMEOUT"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	DevicePermissionFine   bool   `mapstructure:"DEVICE_PERMISSION_FINE"`
	DevicePermissionCoarse bool   `mapstructure:"DEVICE_PERMISSION_COARSE"`
	DevicePermissionPrompt string `mapstructure:"DEVICE_PERMISSION_PROMPT"` // grant | deny
	DeviceForeground       bool   `mapstructure:"DEVICE_FOREGROUND"`
	DeviceHighAccuracy     bool   `mapstructure:"DEVICE_HIGH_ACCURACY"`
	DeviceNetworkProvider  bool   `mapstructure:"DEVICE_NETWORK_PROVIDER"`
	DeviceSettingsDialog   string `mapstructure:"DEVICE_SETTINGS_DIALOG"` // accept | decline
}

var defaults = map[string]any{
	"PORT":                     ":8080",
	"DB_PATH":                  "file:locationbridge?mode=memory&cache=shared",
	"JWT_SECRET":               "",
	"LOG_LEVEL":                "info",
	"GEOCODER_ENABLED":         true,
	"GEOCODER_URL":             geocoding.DefaultBaseURL,
	"GEOCODER_USER_AGENT":      "location-bridge-go",
	"GEOCODER_RPS":             1.0,
	"GEOCODER_TIMEOUT":         "10s",
	"RATE_LIMIT_RPS":           20.0,
	"RATE_LIMIT_BURST":         40,
	"DEVICE_PERMISSION_FINE":   true,
	"DEVICE_PERMISSION_COARSE": true,
	"DEVICE_PERMISSION_PROMPT": "grant",
	"DEVICE_FOREGROUND":        true,
	"DEVICE_HIGH_ACCURACY":     false,
	"DEVICE_NETWORK_PROVIDER":  false,
	"DEVICE_SETTINGS_DIALOG":   "accept",
}

// Load 加载配置（环境变量优先，其次默认值）
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Level 返回 slog 日志级别，无法识别时为 info
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Device 返回模拟设备配置
func (c *Config) Device() simulator.Config {
	return simulator.Config{
		PermissionFine:   c.DevicePermissionFine,
		PermissionCoarse: c.DevicePermissionCoarse,
		PromptGrants:     !strings.EqualFold(c.DevicePermissionPrompt, "deny"),
		Foreground:       c.DeviceForeground,
		HighAccuracy:     c.DeviceHighAccuracy,
		NetworkProvider:  c.DeviceNetworkProvider,
		DialogAccepts:    !strings.EqualFold(c.DeviceSettingsDialog, "decline"),
	}
}

// Geocoder 返回地理编码配置
func (c *Config) Geocoder() geocoding.Config {
	return geocoding.Config{
		BaseURL:        c.GeocoderURL,
		UserAgent:      c.GeocoderUserAgent,
		RequestsPerSec: c.GeocoderRPS,
		Timeout:        c.GeocoderTimeout,
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Setting keys, shared by the config file, environment and CLI flags.
const (
	KeyLogLevel       = "log_level"
	KeyLogFile        = "log_file"
	KeyDemo           = "demo"
	KeyAdapter        = "adapter"
	KeyReconnect      = "reconnect"
	KeyReconnectDelay = "reconnect_delay"
	KeyConnectTimeout = "connect_timeout"
	KeyNotify         = "notify"
	KeyWSListen       = "ws_listen"
	KeyPairingFile    = "pairing_file"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	LogLevel       string        `mapstructure:"log_level"`
	LogFile        string        `mapstructure:"log_file"`
	Demo           bool          `mapstructure:"demo"`
	Adapter        string        `mapstructure:"adapter"`
	Reconnect      bool          `mapstructure:"reconnect"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Notify         bool          `mapstructure:"notify"`
	WSListen       string        `mapstructure:"ws_listen"`
	PairingFile    string        `mapstructure:"pairing_file"`
}

// DefaultDir returns the per-user state directory (~/.fishing-buddy).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, AppDir), nil
}

// NewViper returns a viper instance with defaults, FISHING_BUDDY_* environment
// overrides and, if it exists, the config file. An empty configFile means
// config.yaml in DefaultDir.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	dir, err := DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, filepath.Join(dir, "fishing-buddy.log"))
	v.SetDefault(KeyDemo, false)
	v.SetDefault(KeyAdapter, "hci0")
	v.SetDefault(KeyReconnect, false)
	v.SetDefault(KeyReconnectDelay, DefaultReconnectDelay)
	v.SetDefault(KeyConnectTimeout, time.Duration(DefaultConnectTimeout))
	v.SetDefault(KeyNotify, true)
	v.SetDefault(KeyWSListen, "")
	v.SetDefault(KeyPairingFile, filepath.Join(dir, "pairing.yaml"))

	v.SetEnvPrefix("FISHING_BUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = filepath.Join(dir, "config.yaml")
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
	}

	return v, nil
}

// Load resolves Settings from v.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

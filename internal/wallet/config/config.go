package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
)

// Secure storage backends.
const (
	BackendSQLite = "sqlite"
	BackendSSM    = "ssm"
	BackendMemory = "memory"
)

// Config holds runtime settings for the wallet CLI.
//
// DatabaseFile and DeviceKeyFile are resolved against DataDir when relative.
type Config struct {
	DataDir       string
	DatabaseFile  string
	SecureBackend string
	DeviceKeyFile string
	SSMPrefix     string
	AWSRegion     string
	SessionTTL    time.Duration
	LogFormat     string
	LogLevel      string
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gophwallet")
	}
	return ".gophwallet"
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.DatabaseFile = "wallet.db"
	c.SecureBackend = BackendSQLite
	c.DeviceKeyFile = "device.key"
	c.SSMPrefix = "/gophwallet"
	c.AWSRegion = ""
	c.SessionTTL = common.SessionTTL
	c.LogFormat = logging.FormatText
	c.LogLevel = "info"
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func (c *Config) DatabasePath() string { return c.resolve(c.DatabaseFile) }

func (c *Config) DeviceKeyPath() string { return c.resolve(c.DeviceKeyFile) }

// Validate clamps SessionTTL and rejects unknown backends.
func (c *Config) Validate() error {
	c.SessionTTL = max(c.SessionTTL, common.MinSessionTTL)

	switch c.SecureBackend {
	case BackendSQLite, BackendSSM, BackendMemory:
	default:
		return fmt.Errorf("unknown secure backend %q", c.SecureBackend)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given) and command-line flags (if present). Later sources
// take precedence over earlier ones. It panics on unreadable input.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

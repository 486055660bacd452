package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophwallet/internal/flagx"
	"github.com/dmitrijs2005/gophwallet/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for file unmarshalling. Empty fields
// leave the corresponding Config value untouched.
type FileConfig struct {
	DataDir       string         `json:"data_dir" yaml:"data_dir"`
	DatabaseFile  string         `json:"database_file" yaml:"database_file"`
	SecureBackend string         `json:"secure_backend" yaml:"secure_backend"`
	DeviceKeyFile string         `json:"device_key_file" yaml:"device_key_file"`
	SSMPrefix     string         `json:"ssm_prefix" yaml:"ssm_prefix"`
	AWSRegion     string         `json:"aws_region" yaml:"aws_region"`
	SessionTTL    timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	LogFormat     string         `json:"log_format" yaml:"log_format"`
	LogLevel      string         `json:"log_level" yaml:"log_level"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeFile(path string) (FileConfig, error) {
	var fc FileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	return fc, err
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseFile overlays cfg with the file named by -c / -config. It is a no-op
// when neither flag is given and panics on read or decode errors.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	fc, err := decodeFile(path)
	if err != nil {
		panic(err)
	}

	overlay(&cfg.DataDir, fc.DataDir)
	overlay(&cfg.DatabaseFile, fc.DatabaseFile)
	overlay(&cfg.SecureBackend, fc.SecureBackend)
	overlay(&cfg.DeviceKeyFile, fc.DeviceKeyFile)
	overlay(&cfg.SSMPrefix, fc.SSMPrefix)
	overlay(&cfg.AWSRegion, fc.AWSRegion)
	overlay(&cfg.LogFormat, fc.LogFormat)
	overlay(&cfg.LogLevel, fc.LogLevel)
	if fc.SessionTTL.Duration != 0 {
		cfg.SessionTTL = fc.SessionTTL.Duration
	}
}

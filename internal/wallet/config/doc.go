// Package config loads runtime configuration for the wallet CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected via -c or -config. Files ending in
//     .yaml or .yml are parsed as YAML, anything else as JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   data directory holding the database and device key
//	-s string   secure storage backend: sqlite, ssm or memory
//	-l string   log level: debug, info, warn, error
//
// # File schema
//
// Durations use timex.Duration, so "24h" and integer nanoseconds both work:
//
//	{
//	  "data_dir": "/home/me/.config/gophwallet",
//	  "secure_backend": "ssm",
//	  "ssm_prefix": "/gophwallet/laptop",
//	  "aws_region": "eu-central-1",
//	  "session_ttl": "2h",
//	  "log_format": "json",
//	  "log_level": "debug"
//	}
//
// Only keys present in the file override the defaults. SessionTTL is raised
// to common.MinSessionTTL when set lower.
package config

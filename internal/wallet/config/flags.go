package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gophwallet/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-d string   data directory
//	-s string   secure storage backend
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs so flags owned by other loaders
// (such as -c) do not trip the parser.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-s", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.SecureBackend, "s", cfg.SecureBackend, "secure storage backend (sqlite, ssm, memory)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

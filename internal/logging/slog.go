package logging

import (
	"context"
	"log/slog"
	"strings"
)

var (
	_ Logger = (*SlogLogger)(nil)
	_ Logger = (*ZerologLogger)(nil)
)

// Redacted replaces the value of any attribute whose key names secret
// material.
const Redacted = "[REDACTED]"

// secretKeys are matched case-insensitively with '_' and '-' removed, so
// "private_key", "privateKey" and "Private-Key" all hit.
var secretKeys = map[string]struct{}{
	"password":       {},
	"newpassword":    {},
	"mnemonic":       {},
	"mnemonicphrase": {},
	"privatekey":     {},
	"secret":         {},
	"secretkey":      {},
	"seed":           {},
	"hashkey":        {},
	"devicekey":      {},
}

func isSecretKey(key string) bool {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(key))
	_, ok := secretKeys[norm]
	return ok
}

// redact returns args with the values of secret keys replaced. args is
// never modified in place.
func redact(args []any) []any {
	var out []any
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case slog.Attr:
			if isSecretKey(v.Key) {
				out = ensureCopy(out, args)
				out[i] = slog.String(v.Key, Redacted)
			}
		case string:
			if i+1 >= len(args) {
				return pick(out, args)
			}
			if isSecretKey(v) {
				out = ensureCopy(out, args)
				out[i+1] = Redacted
			}
			i++
		}
	}
	return pick(out, args)
}

func ensureCopy(out, args []any) []any {
	if out != nil {
		return out
	}
	return append([]any(nil), args...)
}

func pick(out, args []any) []any {
	if out != nil {
		return out
	}
	return args
}

// SlogLogger adapts *slog.Logger to Logger and redacts secret attributes
// before they reach the handler.
type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.Log(ctx, slog.LevelDebug, msg, redact(args)...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.Log(ctx, slog.LevelInfo, msg, redact(args)...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.Log(ctx, slog.LevelWarn, msg, redact(args)...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.Log(ctx, slog.LevelError, msg, redact(args)...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(redact(args)...)}
}

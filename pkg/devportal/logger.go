package devportal

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// MaskValue replaces sensitive values in log fields.
const MaskValue = "***"

var sensitiveFields = []string{
	"authorization", "password", "token", "accesstoken", "refreshtoken",
	"access_token", "refresh_token", "cookie", "set-cookie",
}

// IsSensitiveField reports whether values logged under key must be masked.
func IsSensitiveField(key string) bool {
	lower := strings.ToLower(key)
	for _, field := range sensitiveFields {
		if lower == field {
			return true
		}
	}

	return false
}

// MaskFields returns a copy of fields with sensitive values masked.
// Nested maps are masked recursively.
func MaskFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	masked := make(map[string]interface{}, len(fields))

	for key, value := range fields {
		switch {
		case IsSensitiveField(key):
			masked[key] = MaskValue
		default:
			if nested, ok := value.(map[string]interface{}); ok {
				masked[key] = MaskFields(nested)
			} else {
				masked[key] = value
			}
		}
	}

	return masked
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// ZerologLogger adapts a zerolog.Logger to Logger. Fields are masked before writing.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger creates a Logger writing to w at the given level
// (debug, info, warn, error). Unknown levels fall back to info.
func NewZerologLogger(w io.Writer, level string, pretty bool) *ZerologLogger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}

	return &ZerologLogger{
		logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
}

// FromZerolog wraps an existing zerolog.Logger.
func FromZerolog(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(MaskFields(fields)).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(MaskFields(fields)).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(MaskFields(fields)).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(MaskFields(fields)).Msg(msg)
}

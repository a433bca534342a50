package logger

import (
	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/fatih/color"
	"github.com/rise-and-shine/cqrsbus/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	messageKey = "msg"
	levelKey   = "level"
	nameKey    = "logger"
	callerKey  = "file"
	timeKey    = "time"

	EncodingConsole = "console"
	EncodingJSON    = "json"
)

// Config defines configuration options for the logger.
type Config struct {
	// Level specifies the minimum log level to emit.
	// Valid values are: "debug", "info", "warn", "error".
	Level string `yaml:"level"    validate:"oneof=debug info warn error" default:"debug"`

	// Encoding specifies the log format.
	//
	// "console" produces a development-friendly format with colored levels.
	// "json" produces compact JSON suitable for log processing systems.
	Encoding string `yaml:"encoding" validate:"oneof=json console"         default:"json"`
}

// build converts the Config into a zap.Config, applying defaults and
// validating first.
func (c Config) build() (*zap.Config, error) {
	if err := defaults.Set(&c); err != nil {
		return nil, errx.Wrap(err)
	}

	if err := validation.ValidateSchema(c); err != nil {
		return nil, err
	}

	zapLevel := zap.NewAtomicLevel()
	if err := zapLevel.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, errx.Wrap(err)
	}

	encodeLevel := zapcore.CapitalLevelEncoder
	if c.Encoding == EncodingConsole {
		encodeLevel = colorLevelEncoder
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     messageKey,
		LevelKey:       levelKey,
		NameKey:        nameKey,
		CallerKey:      callerKey,
		TimeKey:        timeKey,
		EncodeLevel:    encodeLevel,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	zapConfig := zap.Config{
		Level:            zapLevel,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		Encoding:         c.Encoding,
		EncoderConfig:    encoderConfig,
	}

	return &zapConfig, nil
}

// colorLevelEncoder renders capitalized level names with per-level colors
// for console output.
func colorLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var c *color.Color

	switch l {
	case zapcore.DebugLevel:
		c = color.New(color.FgMagenta)
	case zapcore.InfoLevel:
		c = color.New(color.FgBlue)
	case zapcore.WarnLevel:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed)
	}

	enc.AppendString(c.Sprint(l.CapitalString()))
}

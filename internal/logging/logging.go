// Package logging builds zap loggers from configuration.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level, encoding and outputs.
type Config struct {
	Level       string   `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Encoding    string   `json:"encoding" yaml:"encoding" validate:"omitempty,oneof=console json"`
	OutputPaths []string `json:"outputPaths,omitempty" yaml:"outputPaths,omitempty"`
}

// DefaultConfig logs info and above to stderr in console encoding.
func DefaultConfig() Config {
	return Config{Level: "info", Encoding: "console"}
}

// New builds a logger for config.
func New(config Config) (*zap.Logger, error) {
	level := zap.InfoLevel
	if config.Level != "" {
		if err := level.UnmarshalText([]byte(config.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
	}
	encoding := config.Encoding
	if encoding == "" {
		encoding = "console"
	}
	outputs := config.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig,
	}
	return zapConfig.Build()
}

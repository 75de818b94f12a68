package utils

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

const logPrefix = "[habitgrowth] "

// LoggerConfig describes where and how the service logs.
type LoggerConfig struct {
	// Format is "text" (with source positions) or "compact".
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
	// File, when set, also receives every line and is rotated by size.
	File string
	// EnableColors colours the prefix; never applied to File.
	EnableColors bool
}

// InitLogger builds the process logger. Timestamps are always UTC.
func InitLogger(config ...LoggerConfig) *log.Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	flags := log.LstdFlags | log.LUTC | log.Lmsgprefix
	if cfg.Format != "compact" {
		flags |= log.Lshortfile
	}

	prefix := logPrefix
	if cfg.EnableColors && cfg.File == "" {
		prefix = "\033[36m" + logPrefix + "\033[0m"
	}

	out := cfg.Output
	if cfg.File != "" {
		out = io.MultiWriter(cfg.Output, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
	}
	return log.New(out, prefix, flags)
}

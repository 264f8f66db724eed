// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the rotating file logger used by thinkprompt.
//
// A terminal UI owns stdout, so nothing may log there while a session runs.
// Everything goes to a lumberjack-rotated file instead. Until Init is called
// the logger discards its output, which keeps tests and library use quiet.
//
// Messages follow the "EVENT | key=value" form:
//
//	logging.Printf("THINKING_START | turn=%s", id)
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jeranaias/thinkprompt/internal/config"
)

var (
	mu     sync.RWMutex
	logger = log.New(io.Discard, "", log.LstdFlags)
	file   *lumberjack.Logger
)

// DefaultPath returns ~/.thinkprompt/logs/thinkprompt.log.
func DefaultPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "thinkprompt.log"), nil
}

// Init points the package logger at a rotating log file. Calling Init again
// closes the previous file.
func Init(cfg config.LogConfig) error {
	path := cfg.Path
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
		Compress:   cfg.Compress,
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
	}
	file = lj
	logger = log.New(lj, "", log.LstdFlags)
	return nil
}

// SetOutput redirects the logger, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", log.LstdFlags)
}

// L returns the current logger.
func L() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Printf logs a formatted message.
func Printf(format string, args ...interface{}) {
	L().Printf(format, args...)
}

// Close flushes and closes the log file, then discards further output.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(io.Discard, "", log.LstdFlags)
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

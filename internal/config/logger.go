package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// InitLogger builds the application logger. Output goes to stdout and, when
// file is set, is appended to that file as well. The returned closer releases
// the file and is never nil.
func InitLogger(level, file string) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)

	if file == "" {
		logger.SetOutput(os.Stdout)
		return logger, nopCloser{}, nil
	}
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		// fallback to console only
		logger.SetOutput(os.Stdout)
		logger.Warnf("failed to open log file %s, logging to console only: %v", file, err)
		return logger, nopCloser{}, nil
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return logger, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

package dogbutler

import (
	"log/slog"
	"sync"
)

var (
	loggerMu      sync.RWMutex
	logger        *slog.Logger
	loggerDefault sync.Once
)

// GetLogger returns the package-wide logger, defaulting to slog.Default()
// the first time it's needed.
func GetLogger() *slog.Logger {
	loggerDefault.Do(func() {
		loggerMu.Lock()
		if logger == nil {
			logger = slog.Default()
		}
		loggerMu.Unlock()
	})
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogger overrides the package-wide logger. Passing nil installs a
// handler that discards everything.
func SetLogger(l *slog.Logger) {
	loggerDefault.Do(func() {})
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		l = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}
	logger = l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

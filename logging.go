package update

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggerMu sync.RWMutex
	pkgLog   = newDefaultLogger()
)

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

// SetLogger installs the process-wide logger used for advisory messages
// that cannot be communicated through returned errors, such as warnings
// from IgnoreFailure wrappers. Must be set before any update operations
// that could run concurrently on another thread; the default is a no-op
// logger that discards everything.
func SetLogger(l *logrus.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		l = newDefaultLogger()
	}
	pkgLog = l
}

// Logger returns the currently installed process-wide logger.
func Logger() *logrus.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return pkgLog
}

package filesystem

import "sync/atomic"

// Observer records filesystem operation metrics. Implementations are provided
// by the metrics package to break the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveOperation records duration and error status for a filesystem operation.
	// volume is the resolved mount label ("photos", "cache").
	// operation is one of "stat", "read", "readdir".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	ObserveRetryAttempt(operation, volume string)
	ObserveRetrySuccess(operation, volume string)
	ObserveRetryFailure(operation, volume string)
	ObserveStaleError(operation, volume string)
}

type observerHolder struct {
	Observer
}

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver sets the package-level metrics observer. Passing nil disables
// reporting.
func SetObserver(o Observer) {
	if o == nil {
		defaultObserver.Store(nil)
		return
	}
	defaultObserver.Store(&observerHolder{o})
}

// observe returns the current observer, or nil when none is set.
func observe() Observer {
	if h := defaultObserver.Load(); h != nil {
		return h.Observer
	}
	return nil
}

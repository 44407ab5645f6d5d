package reporting

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Init configures the Sentry client. An empty DSN leaves reporting disabled.
func Init(dsn, environment, release string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be delivered.
func Flush() {
	sentry.Flush(2 * time.Second)
}

// CaptureError reports err with the given tags. It is a no-op when Sentry is not initialised.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value together with its stack.
func CapturePanic(recovered any, stack []byte, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.SetExtra("panic", recovered)
		scope.SetExtra("stack", string(stack))
		sentry.CaptureMessage("panic in request")
	})
}

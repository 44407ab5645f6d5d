package port

// AuthMetrics receives counters for authentication outcomes.
type AuthMetrics interface {
	LoginAttempt(outcome string)
	AccountLocked()
	RateLimited(scope string)
	UserRegistered(reactivated bool)
	SessionsPruned(count int)
}

// NopAuthMetrics discards all observations.
type NopAuthMetrics struct{}

func (NopAuthMetrics) LoginAttempt(string) {}
func (NopAuthMetrics) AccountLocked()      {}
func (NopAuthMetrics) RateLimited(string)  {}
func (NopAuthMetrics) UserRegistered(bool) {}
func (NopAuthMetrics) SessionsPruned(int)  {}

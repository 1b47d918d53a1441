package port

import "sync"

// Unsubscribe releases a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// OnceUnsubscribe wraps fn so that it runs at most once.
func OnceUnsubscribe(fn func()) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	var once sync.Once
	return func() { once.Do(fn) }
}

// NopUnsubscribe returns the Unsubscribe of a source that never delivers.
func NopUnsubscribe() Unsubscribe { return func() {} }

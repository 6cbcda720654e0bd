package fetchers

import "context"

// PageReport describes one page round trip.
type PageReport struct {
	Label      string
	Page       int
	StatusCode int
	Results    int
}

type pageObserverKey struct{}

// WithPageObserver returns a context whose fetches report every page to fn.
// Scoping the observer to a context keeps it per item, like httptrace.
func WithPageObserver(ctx context.Context, fn func(PageReport)) context.Context {
	return context.WithValue(ctx, pageObserverKey{}, fn)
}

func pageObserverFrom(ctx context.Context) func(PageReport) {
	if fn, ok := ctx.Value(pageObserverKey{}).(func(PageReport)); ok && fn != nil {
		return fn
	}
	return func(PageReport) {}
}

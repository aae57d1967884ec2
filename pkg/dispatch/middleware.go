package dispatch

// Middleware wraps an action (logging, metrics, history).
type Middleware func(Action) Action

// Apply applies middlewares in order; the first in the list is the outermost.
func Apply(a Action, mws ...Middleware) Action {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			a = mws[i](a)
		}
	}
	return a
}

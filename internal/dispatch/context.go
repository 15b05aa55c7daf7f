package dispatch

import "context"

type taskIDKey struct{}

// WithTaskID returns a context carrying the id of the task being dispatched.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey{}, id)
}

// TaskIDFromContext returns the task id stored by WithTaskID, or "".
func TaskIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(taskIDKey{}).(string)
	return id
}

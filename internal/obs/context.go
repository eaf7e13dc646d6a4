package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern records the matched chi pattern so metrics, spans and
// logs label by route instead of raw path.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePattern returns the recorded pattern, or fallback when none matched.
func RoutePattern(ctx context.Context, fallback string) string {
	if v, ok := ctx.Value(routePatternKey{}).(string); ok && v != "" {
		return v
	}
	return fallback
}

package common

import "context"

type ctxKey string

const operatorKey ctxKey = "auth/operator"

// WithOperator stores the authenticated operator identifier on the context.
func WithOperator(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operatorKey, id)
}

// Operator extracts the authenticated operator identifier from the context.
func Operator(ctx context.Context) (string, bool) {
	v := ctx.Value(operatorKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

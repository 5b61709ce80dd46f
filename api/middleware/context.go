package middleware

import "context"

type contextKey string

const (
	ctxSubject   contextKey = "subject"
	ctxTokenID   contextKey = "token_id"
	ctxRequestID contextKey = "request_id"
)

func SubjectFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxSubject)
}

func TokenIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxTokenID)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRequestID)
}

// WithSubject injects the authenticated subject into the context.
func WithSubject(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSubject, subject)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

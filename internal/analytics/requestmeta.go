package analytics

import "context"

// RequestMeta carries the caller details attached to emitted events.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

type requestMetaKey struct{}

// WithRequestMeta returns a copy of ctx carrying meta.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the meta stored in ctx, or the zero value.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)

	return meta
}

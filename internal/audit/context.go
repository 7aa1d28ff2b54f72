package audit

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
)

type metaKey struct{}

// RequestMeta describes the HTTP request an audited action came from.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// WithRequestMeta attaches meta to ctx.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext returns the request metadata carried by ctx. The request id
// falls back to the one assigned by chi's RequestID middleware.
func MetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(metaKey{}).(RequestMeta)
	if meta.RequestID == "" {
		meta.RequestID = middleware.GetReqID(ctx)
	}
	return meta
}

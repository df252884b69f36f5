package authcore

import "context"

type clientIPContextKey struct{}
type originContextKey struct{}

type requestOrigin struct {
	scheme string
	host   string
}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for per-IP login throttling and audit records.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRequestOrigin attaches the scheme and host of the inbound request.
// Links in verification and reset mail are built against it; without it the
// engine falls back to Config.Links.BaseURL.
func WithRequestOrigin(ctx context.Context, scheme, host string) context.Context {
	return context.WithValue(ctx, originContextKey{}, requestOrigin{scheme: scheme, host: host})
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func originFromContext(ctx context.Context) (requestOrigin, bool) {
	if ctx == nil {
		return requestOrigin{}, false
	}

	o, ok := ctx.Value(originContextKey{}).(requestOrigin)
	if !ok || o.scheme == "" || o.host == "" {
		return requestOrigin{}, false
	}
	return o, true
}

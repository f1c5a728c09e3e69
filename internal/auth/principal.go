package auth

import "context"

// Principal is the authenticated caller every core operation receives.
type Principal struct {
	ID        int64
	Role      Role
	College   string
	StudentID string
}

// Can reports whether the principal's role allows op. A nil principal can do nothing.
func (p *Principal) Can(op Operation) bool {
	if p == nil {
		return false
	}
	return Can(p.Role, op)
}

type contextKeyPrincipal string

const principalKey contextKeyPrincipal = "principal"

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal stored in ctx, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	if ctx == nil {
		return nil
	}
	if p, ok := ctx.Value(principalKey).(*Principal); ok {
		return p
	}
	return nil
}

package auth

import "context"

type credentialKey struct{}

// WithCredential stores the caller's raw Authorization header value so outbound
// calls can forward it unchanged.
func WithCredential(ctx context.Context, authorization string) context.Context {
	return context.WithValue(ctx, credentialKey{}, authorization)
}

func CredentialFromContext(ctx context.Context) string {
	v, _ := ctx.Value(credentialKey{}).(string)
	return v
}

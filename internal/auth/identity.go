package auth

import (
	"context"
	"fmt"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/quiz-engine/internal/services"
)

// Both providers satisfy services.IdentityProvider.

type tokenKey struct{}

// WithToken stores a raw access token on the context. The HTTP middleware
// puts the bearer token here; the Casdoor provider reads it back.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// CasdoorProvider resolves principals by verifying Casdoor-issued JWTs.
type CasdoorProvider struct {
	client *casdoorsdk.Client
}

type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

func NewCasdoorProvider(cfg CasdoorConfig) *CasdoorProvider {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.OrganizationName,
		cfg.ApplicationName,
	)
	return &CasdoorProvider{client: client}
}

func (p *CasdoorProvider) Principal(ctx context.Context) (string, error) {
	token, ok := tokenFrom(ctx)
	if !ok {
		return "", services.ErrUnauthenticated
	}
	claims, err := p.client.ParseJwtToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", services.ErrUnauthenticated, err)
	}
	if claims.User.Id == "" {
		return "", services.ErrUnauthenticated
	}
	return claims.User.Id, nil
}

// StaticProvider pins a fixed principal. Used in tests and single-user hosts.
type StaticProvider struct {
	UserID string
}

func (p StaticProvider) Principal(_ context.Context) (string, error) {
	if p.UserID == "" {
		return "", services.ErrUnauthenticated
	}
	return p.UserID, nil
}

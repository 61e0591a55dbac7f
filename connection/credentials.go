package connection

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/clientcredentials"
)

// CredentialResolver fetches the DSN credential a shard's connection string
// needs at dial time, rather than baking a static password into config —
// the shard map stores an endpoint and a role; the password comes from
// whatever identity provider issues that role's tokens.
type CredentialResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// OAuthCredentialResolver resolves a bearer token via the OAuth2
// client-credentials flow and hands it back as the DSN password field,
// for drivers/proxies that accept a token in place of a static password.
type OAuthCredentialResolver struct {
	cfg clientcredentials.Config
}

// NewOAuthCredentialResolver builds a resolver for the given token endpoint,
// client id/secret and scopes.
func NewOAuthCredentialResolver(tokenURL, clientID, clientSecret string, scopes ...string) *OAuthCredentialResolver {
	return &OAuthCredentialResolver{cfg: clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}}
}

// Resolve obtains (fetching or refreshing as needed) an access token.
func (r *OAuthCredentialResolver) Resolve(ctx context.Context) (string, error) {
	token, err := r.cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("connection: resolve oauth credential: %w", err)
	}
	return token.AccessToken, nil
}

// StaticCredentialResolver always resolves to the same pre-known value —
// used for local/dev shards whose password comes straight from config.
type StaticCredentialResolver string

func (s StaticCredentialResolver) Resolve(context.Context) (string, error) { return string(s), nil }

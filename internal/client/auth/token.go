// Package auth supplies bearer tokens to the chat client.
package auth

import (
	"context"
	"os"
	"strings"
)

// TokenProvider yields the current identity token. An empty token with a
// nil error means the user is anonymous.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenProvider.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Static always returns the same token.
type Static string

// Token implements TokenProvider.
func (s Static) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// Anonymous never has a token.
var Anonymous TokenProvider = Static("")

// Env reads the token from an environment variable on every call so a
// refreshed value is picked up without restarting.
type Env string

// Token implements TokenProvider.
func (e Env) Token(context.Context) (string, error) {
	return strings.TrimSpace(os.Getenv(string(e))), nil
}

// Chain returns the first non-empty token from providers. Errors are
// returned only when no provider produced a token.
func Chain(providers ...TokenProvider) TokenProvider {
	return TokenFunc(func(ctx context.Context) (string, error) {
		var firstErr error
		for _, p := range providers {
			if p == nil {
				continue
			}
			token, err := p.Token(ctx)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if token != "" {
				return token, nil
			}
		}
		return "", firstErr
	})
}

package gmetrics

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

const (
	googleTokenURL = "https://oauth2.googleapis.com/token"

	scopeAnalyticsReadonly  = "https://www.googleapis.com/auth/analytics.readonly"
	scopeWebmastersReadonly = "https://www.googleapis.com/auth/webmasters.readonly"
)

// NewTokenSource builds a service-account token source scoped for the GA4
// Data API and Search Console.
//
// privateKey accepts both real newlines and the escaped form environment
// variables tend to carry.
func NewTokenSource(ctx context.Context, clientEmail, privateKey string) (oauth2.TokenSource, error) {
	email := strings.TrimSpace(clientEmail)
	key := strings.ReplaceAll(strings.TrimSpace(privateKey), `\n`, "\n")
	if email == "" || key == "" {
		return nil, fmt.Errorf("new google token source: missing credentials")
	}

	config := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(key),
		Scopes:     []string{scopeAnalyticsReadonly, scopeWebmastersReadonly},
		TokenURL:   googleTokenURL,
	}

	return config.TokenSource(ctx), nil
}

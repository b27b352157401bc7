// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package asana integrates the hub with the Asana REST API: OAuth
// authorization, project and member fetching, and bulk project sync.
package asana

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

const (
	authURL  = "https://app.asana.com/-/oauth_authorize"
	tokenURL = "https://app.asana.com/-/oauth_token"
)

// OAuthConfig holds the app credentials for the authorization-code
// flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c OAuthConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}
}

// AuthCodeURL returns the URL to send the user to. The state value must
// be checked on callback.
func (c OAuthConfig) AuthCodeURL(state string) string {
	return c.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange redeems an authorization code for tokens.
func (c OAuthConfig) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.oauth2Config().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// TokenSaver persists a refreshed token.
type TokenSaver func(ctx context.Context, tok *oauth2.Token) error

// HTTPClient returns an authorized http.Client that refreshes the
// access token as needed. When a refresh produces a new token it is
// handed to save; a save failure is logged, never fatal, since the
// refreshed token still works for this request.
func (c OAuthConfig) HTTPClient(ctx context.Context, tok *oauth2.Token, save TokenSaver) *http.Client {
	src := c.oauth2Config().TokenSource(ctx, tok)
	return oauth2.NewClient(ctx, &persistingTokenSource{
		ctx:  ctx,
		src:  src,
		last: tok,
		save: save,
	})
}

// persistingTokenSource wraps a TokenSource and persists tokens when
// the refresh flow rotates them.
type persistingTokenSource struct {
	ctx  context.Context
	src  oauth2.TokenSource
	save TokenSaver

	mu   sync.Mutex
	last *oauth2.Token
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	rotated := p.last == nil || tok.AccessToken != p.last.AccessToken
	p.last = tok
	p.mu.Unlock()

	if rotated && p.save != nil {
		if err := p.save(p.ctx, tok); err != nil {
			slog.Warn("persisting refreshed token failed", "error", err)
		}
	}
	return tok, nil
}

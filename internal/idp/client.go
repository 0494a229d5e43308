// Package idp handles communication with the identity provider: the
// hosted-login redirect flow, authorization-code exchange, refresh-token
// rotation, and claim extraction from provider-issued tokens.
package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Config holds identity-provider settings.
type Config struct {
	Domain       string // provider tenant domain, e.g. "example.auth0.com"
	ClientID     string
	ClientSecret string
	Audience     string // API audience requested for access tokens
	RedirectURL  string // absolute callback URL of this service
}

// TokenSet is the outcome of a code exchange or refresh. RefreshToken is
// empty when the provider did not rotate it.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    time.Time
}

// Claims are the identity claims recovered from a provider token.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Client is the identity provider API client.
type Client struct {
	oauth         *oauth2.Config
	domain        string
	audience      string
	httpClient    *http.Client
	defaultExpiry time.Duration
}

// New creates an identity provider client. defaultExpiry is assumed for
// tokens the provider returns without an expiry.
func New(cfg Config, timeout, defaultExpiry time.Duration) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email", "offline_access"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  fmt.Sprintf("https://%s/authorize", cfg.Domain),
				TokenURL: fmt.Sprintf("https://%s/oauth/token", cfg.Domain),
			},
		},
		domain:        cfg.Domain,
		audience:      cfg.Audience,
		httpClient:    &http.Client{Timeout: timeout},
		defaultExpiry: defaultExpiry,
	}
}

// AuthCodeURL builds the hosted-login redirect URL. screenHint is passed
// through when non-empty ("signup" shows the signup form).
func (c *Client) AuthCodeURL(state, screenHint string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("audience", c.audience),
	}
	if screenHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("screen_hint", screenHint))
	}
	return c.oauth.AuthCodeURL(state, opts...)
}

// LogoutURL builds the provider logout URL that returns to returnTo.
func (c *Client) LogoutURL(returnTo string) string {
	q := url.Values{}
	q.Set("client_id", c.oauth.ClientID)
	q.Set("returnTo", returnTo)
	return fmt.Sprintf("https://%s/v2/logout?%s", c.domain, q.Encode())
}

// Exchange trades an authorization code for a token set.
func (c *Client) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return c.tokenSet(tok), nil
}

// Refresh obtains a new access token for the given refresh token. The
// provider rotates refresh tokens: when the returned set carries a new
// one, the caller must store it and never resend the old value. A failed
// refresh is terminal for that token; the caller clears the session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token cannot be empty")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	src := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}
	set := c.tokenSet(tok)
	if set.RefreshToken == refreshToken {
		// Not rotated; report no change so callers keep their stored value.
		set.RefreshToken = ""
	}
	return set, nil
}

func (c *Client) tokenSet(tok *oauth2.Token) *TokenSet {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = time.Now().Add(c.defaultExpiry)
	}
	set := &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiry,
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		set.IDToken = id
	}
	return set
}

// Identity resolves the user identity for a token set: first from the ID
// token's claims, then from the userinfo endpoint when the ID token is
// absent or undecodable.
func (c *Client) Identity(ctx context.Context, set *TokenSet) (id, email string, err error) {
	if set.IDToken != "" {
		if claims, ok := TokenClaims(set.IDToken); ok && claims.Subject != "" {
			return claims.Subject, claims.Email, nil
		}
	}
	return c.userInfo(ctx, set.AccessToken)
}

func (c *Client) userInfo(ctx context.Context, accessToken string) (id, email string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("https://%s/userinfo", c.domain), nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("decode userinfo: %w", err)
	}
	return info.Sub, info.Email, nil
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenClaims extracts identity claims from a provider JWT without
// verifying its signature. The token arrived over the provider's HTTPS
// channel or inside the sealed session cookie; this service never treats
// these claims as an authorization decision, only as display identity.
func TokenClaims(token string) (Claims, bool) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, false
	}
	out := Claims{Subject: claims.Subject, Email: claims.Email}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, true
}

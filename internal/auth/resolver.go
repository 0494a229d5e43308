// Package auth resolves the request-scoped authentication context:
// reading the session cookie, refreshing near-expiry tokens against the
// identity provider, and degrading to anonymous on any failure.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"alignment-feed-bff/internal/domain"
	"alignment-feed-bff/internal/idp"
	"alignment-feed-bff/internal/session"
)

// DefaultRefreshThreshold is how close to expiry a token must be before
// the resolver attempts a refresh.
const DefaultRefreshThreshold = 5 * time.Minute

// Refresher exchanges a refresh token for a new token set.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*idp.TokenSet, error)
}

// Resolution is the outcome of resolving one request. SetCookie is
// non-nil when the session changed (refreshed or cleared) and the
// response must commit the new cookie.
type Resolution struct {
	Auth      domain.AuthContext
	SetCookie *http.Cookie
}

// Resolver computes auth contexts. It never returns an error: every
// failure mode degrades to an anonymous resolution, and any session that
// can no longer produce a valid token is cleared.
type Resolver struct {
	store     *session.Store
	refresher Refresher
	threshold time.Duration

	// Collapses concurrent refreshes of the same single-use refresh
	// token across requests; within one request the RequestAuth memo
	// already guarantees a single attempt.
	group singleflight.Group

	now func() time.Time
}

// NewResolver creates a resolver. threshold <= 0 selects the default.
func NewResolver(store *session.Store, refresher Refresher, threshold time.Duration) *Resolver {
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}
	return &Resolver{
		store:     store,
		refresher: refresher,
		threshold: threshold,
		now:       time.Now,
	}
}

// Resolve reads the session from the request and returns the auth
// context, refreshing the access token first when it is within the
// threshold of expiry and a refresh token is available.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) *Resolution {
	sess := r.store.Read(req)
	if !sess.Valid() {
		return &Resolution{Auth: domain.Anonymous()}
	}

	now := r.now()

	// Hard-expired with no way to recover: clear and treat as anonymous.
	if sess.Expired(now) && sess.RefreshToken == "" {
		return &Resolution{Auth: domain.Anonymous(), SetCookie: r.store.Clear()}
	}

	if now.After(sess.ExpiresAt.Add(-r.threshold)) && sess.RefreshToken != "" {
		return r.refresh(ctx, sess)
	}

	return &Resolution{Auth: domain.Authenticated(sess)}
}

// refresh performs at most one refresh per in-flight refresh token. On
// failure the session is cleared with no retry; the user re-authenticates
// explicitly.
func (r *Resolver) refresh(ctx context.Context, sess *domain.Session) *Resolution {
	v, err, _ := r.group.Do(sess.RefreshToken, func() (any, error) {
		return r.refresher.Refresh(ctx, sess.RefreshToken)
	})
	if err != nil {
		slog.WarnContext(ctx, "token refresh failed, clearing session",
			"user_id", sess.UserID, "error", err)
		return &Resolution{Auth: domain.Anonymous(), SetCookie: r.store.Clear()}
	}

	set := v.(*idp.TokenSet)
	updated := &domain.Session{
		UserID:       sess.UserID,
		Email:        sess.Email,
		AccessToken:  set.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    set.ExpiresAt,
	}
	if set.RefreshToken != "" {
		updated.RefreshToken = set.RefreshToken
	}

	cookie, err := r.store.Write(updated)
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal refreshed session", "error", err)
		return &Resolution{Auth: domain.Anonymous(), SetCookie: r.store.Clear()}
	}

	return &Resolution{Auth: domain.Authenticated(updated), SetCookie: cookie}
}

// Package server assembles the Echo application: middleware, routes,
// and the dependencies each handler needs.
package server

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"

	"alignment-feed-bff/config"
	"alignment-feed-bff/internal/auth"
	"alignment-feed-bff/internal/cache"
	"alignment-feed-bff/internal/client"
	"alignment-feed-bff/internal/handler"
	"alignment-feed-bff/internal/idp"
	"alignment-feed-bff/internal/middleware"
	"alignment-feed-bff/internal/resilience"
	"alignment-feed-bff/internal/session"
)

// Options are the toggles main wires through from startup.
type Options struct {
	OTelEnabled bool
	ServiceName string
}

// New builds the fully wired Echo instance.
func New(cfg *config.Config, opts Options) (*echo.Echo, error) {
	store, err := session.NewStore(cfg.SessionSecret, cfg.SessionMaxAge, cfg.SecureCookies)
	if err != nil {
		return nil, err
	}

	idpClient := idp.New(idp.Config{
		Domain:       cfg.Auth0Domain,
		ClientID:     cfg.Auth0ClientID,
		ClientSecret: cfg.Auth0ClientSecret,
		Audience:     cfg.Auth0Audience,
		RedirectURL:  cfg.Auth0CallbackURL,
	}, cfg.UpstreamTimeout, cfg.DefaultTokenExpiry)

	resolver := auth.NewResolver(store, idpClient, cfg.RefreshThreshold)

	breakerCfg := resilience.DefaultConfig()
	breakerCfg.FailureThreshold = cfg.BreakerFailureThreshold
	breakerCfg.Cooldown = cfg.BreakerCooldown
	feed := client.New(cfg.FeedBaseURL, cfg.UpstreamTimeout, resilience.New(breakerCfg))

	respCache := cache.New(cfg.CacheSize, cfg.CacheTTL)

	articles := handler.NewArticleHandler(feed, respCache)
	feedback := handler.NewFeedbackHandler(feed)
	search := handler.NewSearchHandler(feed)
	tokens := handler.NewTokenHandler(feed)
	syncHandler := handler.NewSyncHandler(store, cfg.DefaultTokenExpiry)
	authFlow := handler.NewAuthFlowHandler(idpClient, store, cfg.SecureCookies)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if opts.OTelEnabled {
		e.Use(otelecho.Middleware(opts.ServiceName))
	}

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(ctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(ctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(echomw.Recover())
	e.Use(middleware.SecurityHeaders())

	authLimit := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst).Middleware()

	e.GET("/health", handler.Health)

	api := e.Group("/api", middleware.AuthContext(resolver))

	// Static article routes must register before the :id routes so
	// "recommended" and friends never bind as article IDs.
	api.GET("/articles", articles.List)
	api.GET("/articles/recommended", articles.Recommended)
	api.GET("/articles/liked", articles.Liked)
	api.GET("/articles/disliked", articles.Disliked)
	api.GET("/articles/unreviewed", articles.Unreviewed)
	api.POST("/articles/semantic-search", search.Handle)
	api.GET("/articles/:id", articles.Detail)
	api.GET("/articles/:id/similar", articles.Similar)
	api.POST("/articles/:id/feedback", feedback.Handle)

	api.GET("/tokens", tokens.List)
	api.POST("/tokens", tokens.Create)
	api.DELETE("/tokens/:id", tokens.Delete)

	api.POST("/auth/sync", syncHandler.Handle, authLimit)

	if cfg.AuthFlowConfigured() {
		flow := e.Group("/auth", authLimit)
		flow.GET("/login", authFlow.Login)
		flow.GET("/callback", authFlow.Callback)
		flow.POST("/logout", authFlow.Logout)
		flow.GET("/logout", authFlow.LogoutRedirect)
	} else {
		slog.Warn("identity provider not configured, login flow disabled")
	}

	go logCacheStats(respCache)

	return e, nil
}

// logCacheStats periodically reports anonymous-cache effectiveness.
func logCacheStats(respCache *cache.ResponseCache) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		snap := respCache.Snapshot()
		slog.Info("response cache stats",
			"size", snap.Size,
			"hits", snap.Hits,
			"misses", snap.Misses)
	}
}

package main

import (
	"net/http"
	"time"

	"hotline-platform/internal/auth"
	"hotline-platform/internal/config"
	"hotline-platform/internal/httpapi"
	"hotline-platform/internal/metrics"
	"hotline-platform/internal/reporting"
	"hotline-platform/internal/telephony"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	cfg         config.Config
	authManager *auth.Manager
	webhooks    telephony.WebhookHandler
	calls       reporting.CallLister
	reporting   *reporting.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/healthz", metrics.Healthz)
	r.GET("/metrics", metrics.Handler())

	// Provider webhooks (public, signed by Twilio).
	hooks := r.Group("/webhooks/twilio")
	hooks.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Twilio-Signature", "X-Request-Id"},
		MaxAge:       12 * time.Hour,
	}))
	// Preflight is answered by the cors middleware before any handler runs.
	hooks.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	if d.cfg.Twilio.ValidateSignatures {
		hooks.Use(telephony.RequireTwilioSignature(d.cfg.Twilio.AuthToken, d.cfg.App.PublicBaseURL))
	}
	{
		hooks.POST("/voice", d.webhooks.HandleInboundCall)
		hooks.POST("/status", d.webhooks.HandleStatusCallback)
	}

	h := httpapi.Handlers{Auth: d.authManager, Calls: d.calls, Reporting: d.reporting}

	// Token issuance without credentials exists for local and staging tooling only.
	if !d.cfg.IsProduction() {
		r.POST("/v1/auth/login", h.Login)
	}

	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.authManager))
	v1.Use(httpapi.RequireOrgMember()...)
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			org, _ := auth.OrgID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"user_id": uid, "org_id": org, "role": role})
		})
		v1.GET("/calls", h.ListCalls)
		v1.GET("/calls/summary", h.CallsSummary)
	}
}

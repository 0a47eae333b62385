package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"hotline-platform/internal/auth"
	"hotline-platform/internal/calls"
	"hotline-platform/internal/rbac"
	"hotline-platform/internal/reporting"
	"hotline-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// defaultSummaryWindow applies when a summary request omits from/to.
const defaultSummaryWindow = 7 * 24 * time.Hour

// Handlers groups the management API handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Calls     reporting.CallLister
	Reporting *reporting.Service
	Now       func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type loginRequest struct {
	UserID string `json:"user_id" binding:"required"`
	OrgID  string `json:"org_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// Login issues a JWT pair for a declared identity. It performs no credential check
// and is only registered outside production.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, org_id, role required"})
		return
	}
	if _, err := uuid.Parse(req.OrgID); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "org_id must be a UUID"})
		return
	}
	if !knownRole(req.Role) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), req.UserID, req.OrgID, req.Role)
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

func knownRole(role string) bool {
	for _, r := range rbac.OrgRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ListCalls returns the caller organization's call logs, newest first.
// Query: limit, hotline_id, from, to (RFC 3339).
func (h Handlers) ListCalls(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call logs not configured"})
		return
	}
	orgID, ok := tenant(c)
	if !ok {
		return
	}
	hotlineID, ok := queryUUID(c, "hotline_id")
	if !ok {
		return
	}

	var err error
	f := calls.Filter{OrgID: orgID, HotlineID: hotlineID}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		f.Limit = n
	}
	if f.From, err = queryTime(c, "from"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.Calls.List(c.Request.Context(), f)
	if err != nil {
		logger.FromGin(c).Error("list call logs failed", "org_id", orgID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call log lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows})
}

// CallsSummary aggregates call logs over [from, to). The window defaults to the last seven days.
func (h Handlers) CallsSummary(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	orgID, ok := tenant(c)
	if !ok {
		return
	}
	hotlineID, ok := queryUUID(c, "hotline_id")
	if !ok {
		return
	}

	to, err := queryTime(c, "to")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if to.IsZero() {
		to = h.now()
	}
	from, err := queryTime(c, "from")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if from.IsZero() {
		from = to.Add(-defaultSummaryWindow)
	}

	out, err := h.Reporting.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		OrgID:     orgID,
		Range:     reporting.TimeRange{From: from, To: to},
		HotlineID: hotlineID,
	})
	switch {
	case errors.Is(err, reporting.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	case err != nil:
		logger.FromGin(c).Error("calls summary failed", "org_id", orgID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// tenant returns the caller's organization. Tokens whose org_id is not a UUID never
// reach the database, where the column type would turn them into a 500.
func tenant(c *gin.Context) (string, bool) {
	orgID, err := auth.OrgID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id required"})
		return "", false
	}
	if _, err := uuid.Parse(orgID); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id must be a UUID"})
		return "", false
	}
	return orgID, true
}

func queryUUID(c *gin.Context, key string) (string, bool) {
	v := c.Query(key)
	if v == "" {
		return "", true
	}
	if _, err := uuid.Parse(v); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": key + " must be a UUID"})
		return "", false
	}
	return v, true
}

func queryTime(c *gin.Context, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.New(key + " must be RFC 3339")
	}
	return t, nil
}

// RequireOrgMember bundles the tenant and role checks used by every /v1 route.
func RequireOrgMember() []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireOrganization(), rbac.RequireAnyRole(rbac.OrgRoles...)}
}

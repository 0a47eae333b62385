package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxOrgID
	ctxRole
)

var (
	errNoUser = errors.New("user_id not in context")
	errNoOrg  = errors.New("org_id not in context")
	errNoRole = errors.New("role not in context")
)

func WithIdentity(ctx context.Context, userID, orgID, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxOrgID, orgID)
	return context.WithValue(ctx, ctxRole, role)
}

func UserID(ctx context.Context) (string, error) { return stringValue(ctx, ctxUserID, errNoUser) }

// OrgID returns the organization the caller acts for.
func OrgID(ctx context.Context) (string, error) { return stringValue(ctx, ctxOrgID, errNoOrg) }

func Role(ctx context.Context) (string, error) { return stringValue(ctx, ctxRole, errNoRole) }

func stringValue(ctx context.Context, key ctxKey, missing error) (string, error) {
	if s, ok := ctx.Value(key).(string); ok && s != "" {
		return s, nil
	}
	return "", missing
}

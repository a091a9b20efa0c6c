package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxBranchID contextKey = "branch_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func BranchIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxBranchID).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithBranchID injects the branch the caller is signed into.
func WithBranchID(ctx context.Context, branchID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxBranchID, branchID)
}

func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// Actor is the authenticated caller as typed ids.
type Actor struct {
	UserID   uuid.UUID
	BranchID uuid.UUID
	Role     enums.StaffRole
}

// ActorFromContext parses the identity Auth stored on the context.
func ActorFromContext(ctx context.Context) (Actor, error) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	branchID, err := uuid.Parse(BranchIDFromContext(ctx))
	if err != nil {
		return Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing branch context")
	}
	return Actor{UserID: userID, BranchID: branchID, Role: enums.StaffRole(RoleFromContext(ctx))}, nil
}

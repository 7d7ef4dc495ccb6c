package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/api/middleware"
	"github.com/hearthapp/hearthledger-backend/internal/households"
	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	"github.com/hearthapp/hearthledger-backend/pkg/enums"
	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
)

// callerUserID resolves the authenticated user from the request context.
func callerUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return id, nil
}

// requireMembership resolves the caller's member record in the household.
// Non-members get a 403 without leaking whether the household exists.
func requireMembership(ctx context.Context, svc households.Service, userID, householdID uuid.UUID) (*models.HouseholdMember, error) {
	member, err := svc.Membership(ctx, userID, householdID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this household")
	}
	return member, nil
}

// requireParent additionally demands the parent role.
func requireParent(ctx context.Context, svc households.Service, userID, householdID uuid.UUID) (*models.HouseholdMember, error) {
	member, err := requireMembership(ctx, svc, userID, householdID)
	if err != nil {
		return nil, err
	}
	if member.Role != enums.MemberRoleParent {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "parent role required")
	}
	return member, nil
}

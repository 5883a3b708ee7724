package service

import (
	"context"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AccessService resolves which buildings an actor may act on
type AccessService struct {
	directory domain.DirectoryRepository
}

// NewAccessService creates a new AccessService
func NewAccessService(directory domain.DirectoryRepository) *AccessService {
	return &AccessService{directory: directory}
}

// AccessibleBuildingIDs returns the set of buildings the actor can view and act on.
// Admins see every active building, managers the buildings of their
// organizations, residents and tenants the buildings they live in.
// Any other role gets an empty set.
func (s *AccessService) AccessibleBuildingIDs(ctx context.Context, actor domain.Actor) (domain.BuildingSet, error) {
	var (
		ids []uuid.UUID
		err error
	)

	switch {
	case actor.Role == domain.RoleAdmin:
		ids, err = s.directory.ListActiveBuildingIDs(ctx)
	case actor.Role == domain.RoleManager:
		ids, err = s.directory.ListOrganizationBuildingIDs(ctx, actor.UserID)
	case actor.Role.IsOccupant():
		ids, err = s.directory.ListResidenceBuildingIDs(ctx, actor.UserID)
	default:
		return domain.NewBuildingSet(), nil
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", actor.UserID.String()).Msg("Failed to resolve accessible buildings")
		return nil, err
	}

	return domain.NewBuildingSet(ids...), nil
}

// RequireBuildingAccess fails with ErrAccessDenied unless the building is in
// the actor's accessible set
func (s *AccessService) RequireBuildingAccess(ctx context.Context, actor domain.Actor, buildingID uuid.UUID) error {
	set, err := s.AccessibleBuildingIDs(ctx, actor)
	if err != nil {
		return err
	}
	if !set.Contains(buildingID) {
		return domain.ErrAccessDenied
	}
	return nil
}

// RequireManagerAccess additionally requires a managerial role
func (s *AccessService) RequireManagerAccess(ctx context.Context, actor domain.Actor, buildingID uuid.UUID) error {
	if !actor.IsManagerial() {
		return domain.ErrAccessDenied
	}
	return s.RequireBuildingAccess(ctx, actor, buildingID)
}

// RequireUserManagerAccess fails with ErrAccessDenied unless the actor is an
// admin or manages a building userID lives in
func (s *AccessService) RequireUserManagerAccess(ctx context.Context, actor domain.Actor, userID uuid.UUID) error {
	if !actor.IsManagerial() {
		return domain.ErrAccessDenied
	}
	if actor.Role == domain.RoleAdmin {
		return nil
	}

	managed, err := s.AccessibleBuildingIDs(ctx, actor)
	if err != nil {
		return err
	}
	homes, err := s.directory.ListResidenceBuildingIDs(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to resolve residence buildings")
		return err
	}
	for _, id := range homes {
		if managed.Contains(id) {
			return nil
		}
	}
	return domain.ErrAccessDenied
}

// HasManagerAccess is RequireManagerAccess as a boolean. Lookup failures are
// returned as errors, denials are not.
func (s *AccessService) HasManagerAccess(ctx context.Context, actor domain.Actor, buildingID uuid.UUID) (bool, error) {
	err := s.RequireManagerAccess(ctx, actor, buildingID)
	if err == domain.ErrAccessDenied {
		return false, nil
	}
	return err == nil, err
}

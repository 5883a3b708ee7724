package domain

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// Building is the subset of the building directory the reservation engine needs
type Building struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"isActive"`
}

// BuildingSet is the set of building IDs an actor may act on
type BuildingSet map[uuid.UUID]struct{}

// NewBuildingSet builds a set from a list of IDs
func NewBuildingSet(ids ...uuid.UUID) BuildingSet {
	set := make(BuildingSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether the building is in the set
func (s BuildingSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the building IDs in a stable order
func (s BuildingSet) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// DirectoryRepository reads building, organization and residence links.
// Building lifecycle is managed elsewhere; only active rows are returned.
type DirectoryRepository interface {
	GetBuilding(ctx context.Context, id uuid.UUID) (*Building, error)
	ListActiveBuildingIDs(ctx context.Context) ([]uuid.UUID, error)
	ListOrganizationBuildingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListResidenceBuildingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

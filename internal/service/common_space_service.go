package service

import (
	"context"
	"strings"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CommonSpaceService manages the common-space catalog of each building
type CommonSpaceService struct {
	spaceRepo      domain.CommonSpaceRepository
	directory      domain.DirectoryRepository
	userRepo       domain.UserRepository
	access         *AccessService
	imageService   *ImageService
	eventPublisher websocket.EventPublisher
}

// NewCommonSpaceService creates a new CommonSpaceService
func NewCommonSpaceService(
	spaceRepo domain.CommonSpaceRepository,
	directory domain.DirectoryRepository,
	userRepo domain.UserRepository,
	access *AccessService,
) *CommonSpaceService {
	return &CommonSpaceService{
		spaceRepo:      spaceRepo,
		directory:      directory,
		userRepo:       userRepo,
		access:         access,
		eventPublisher: websocket.NoOpPublisher{},
	}
}

// SetImageService sets the image service used for space photos
func (s *CommonSpaceService) SetImageService(imageSvc *ImageService) {
	s.imageService = imageSvc
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *CommonSpaceService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *CommonSpaceService) publishEvent(buildingID uuid.UUID, event websocket.Event) {
	s.eventPublisher.Publish(buildingID, event)
}

// SpaceInput holds the editable fields of a common space
type SpaceInput struct {
	Name            string
	Description     *string
	IsReservable    bool
	Capacity        *int32
	ContactPersonID *uuid.UUID
	OpeningHours    domain.OpeningHours
	BookingRules    *string
}

// CreateSpaceInput holds the input for creating a common space
type CreateSpaceInput struct {
	BuildingID uuid.UUID
	SpaceInput
}

// ListSpaces returns the active spaces of every accessible building, or of
// buildingID only when given
func (s *CommonSpaceService) ListSpaces(ctx context.Context, actor domain.Actor, buildingID *uuid.UUID) ([]*domain.CommonSpace, error) {
	accessible, err := s.access.AccessibleBuildingIDs(ctx, actor)
	if err != nil {
		return nil, err
	}

	ids := accessible.IDs()
	if buildingID != nil {
		if !accessible.Contains(*buildingID) {
			return nil, domain.ErrAccessDenied
		}
		ids = []uuid.UUID{*buildingID}
	}
	if len(ids) == 0 {
		return []*domain.CommonSpace{}, nil
	}

	return s.spaceRepo.ListByBuildings(ctx, ids)
}

// GetSpace returns one space if its building is accessible to the actor
func (s *CommonSpaceService) GetSpace(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.CommonSpace, error) {
	space, err := s.spaceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireBuildingAccess(ctx, actor, space.BuildingID); err != nil {
		return nil, err
	}
	return space, nil
}

// CreateSpace adds a space to a building. The building must be active and the
// actor must manage it.
func (s *CommonSpaceService) CreateSpace(ctx context.Context, actor domain.Actor, input CreateSpaceInput) (*domain.CommonSpace, error) {
	if _, err := s.directory.GetBuilding(ctx, input.BuildingID); err != nil {
		return nil, err
	}
	if err := s.access.RequireManagerAccess(ctx, actor, input.BuildingID); err != nil {
		return nil, err
	}

	space := &domain.CommonSpace{
		BuildingID: input.BuildingID,
		Status:     domain.SpaceStatusActive,
		CreatedBy:  &actor.UserID,
	}
	if err := s.apply(ctx, space, input.SpaceInput); err != nil {
		return nil, err
	}

	exists, err := s.spaceRepo.ExistsByName(ctx, space.BuildingID, space.Name, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateSpaceName
	}

	created, err := s.spaceRepo.Create(ctx, space)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("common_space_id", created.ID.String()).
		Str("building_id", created.BuildingID.String()).
		Str("user_id", actor.UserID.String()).
		Msg("Common space created")

	s.publishEvent(created.BuildingID, websocket.CommonSpaceCreated(created))
	return created, nil
}

// UpdateSpace replaces the editable fields of a space
func (s *CommonSpaceService) UpdateSpace(ctx context.Context, actor domain.Actor, id uuid.UUID, input SpaceInput) (*domain.CommonSpace, error) {
	space, err := s.spaceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireManagerAccess(ctx, actor, space.BuildingID); err != nil {
		return nil, err
	}
	if err := s.apply(ctx, space, input); err != nil {
		return nil, err
	}

	exists, err := s.spaceRepo.ExistsByName(ctx, space.BuildingID, space.Name, &space.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateSpaceName
	}

	updated, err := s.spaceRepo.Update(ctx, space)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("common_space_id", updated.ID.String()).
		Str("user_id", actor.UserID.String()).
		Msg("Common space updated")

	s.publishEvent(updated.BuildingID, websocket.CommonSpaceUpdated(updated))
	return updated, nil
}

// SetSpaceImage replaces the photo of a space. The previous photo variants are
// removed after the new ones are stored.
func (s *CommonSpaceService) SetSpaceImage(ctx context.Context, actor domain.Actor, id uuid.UUID, data []byte, filename string) (*domain.CommonSpace, error) {
	space, err := s.spaceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireManagerAccess(ctx, actor, space.BuildingID); err != nil {
		return nil, err
	}
	if !s.imageService.Enabled() {
		return nil, ErrImageStorageNotConfigured
	}

	photo, err := s.imageService.StorePhoto(ctx, space.BuildingID, space.ID, data, filename)
	if err != nil {
		return nil, err
	}

	if err := s.spaceRepo.UpdateImage(ctx, space.ID, &photo.Display); err != nil {
		if delErr := s.imageService.DeletePhoto(ctx, photo.Display); delErr != nil {
			log.Warn().Err(delErr).Str("common_space_id", space.ID.String()).Msg("Failed to clean up uploaded photo")
		}
		return nil, err
	}

	if space.ImageURL != nil {
		if err := s.imageService.DeletePhoto(ctx, *space.ImageURL); err != nil {
			log.Warn().Err(err).Str("common_space_id", space.ID.String()).Msg("Failed to delete previous photo")
		}
	}
	space.ImageURL = &photo.Display

	log.Info().
		Str("common_space_id", space.ID.String()).
		Str("user_id", actor.UserID.String()).
		Msg("Common space photo updated")

	s.publishEvent(space.BuildingID, websocket.CommonSpaceUpdated(space))
	return space, nil
}

// PhotoURL signs a URL for the stored photo of a space. It returns nil when
// the space has no photo or storage is disabled.
func (s *CommonSpaceService) PhotoURL(ctx context.Context, space *domain.CommonSpace) *string {
	if space.ImageURL == nil || !s.imageService.Enabled() {
		return nil
	}
	url, err := s.imageService.SignedURL(ctx, *space.ImageURL)
	if err != nil {
		log.Warn().Err(err).Str("common_space_id", space.ID.String()).Msg("Failed to sign photo URL")
		return nil
	}
	return &url
}

// apply validates input and copies it onto space
func (s *CommonSpaceService) apply(ctx context.Context, space *domain.CommonSpace, input SpaceInput) error {
	space.Name = strings.TrimSpace(input.Name)
	space.Description = trimOptional(input.Description)
	space.IsReservable = input.IsReservable
	space.Capacity = input.Capacity
	space.ContactPersonID = input.ContactPersonID
	space.OpeningHours = input.OpeningHours.Normalize()
	space.BookingRules = trimOptional(input.BookingRules)

	if err := space.Validate(); err != nil {
		return err
	}

	if space.ContactPersonID != nil {
		if _, err := s.userRepo.GetByID(ctx, *space.ContactPersonID); err != nil {
			return err
		}
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

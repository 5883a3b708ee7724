package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	ByID      map[uuid.UUID]*domain.User
	ByAuth0ID map[string]*domain.User
	mu        sync.RWMutex
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		ByID:      make(map[uuid.UUID]*domain.User),
		ByAuth0ID: make(map[string]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if user, ok := m.ByAuth0ID[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// ListByIDs returns the known users among ids
func (m *MockUserRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uuid.UUID]*domain.User, len(ids))
	for _, id := range ids {
		if user, ok := m.ByID[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Auth0ID == "" {
		user.Auth0ID = "auth0|" + user.ID.String()
	}
	m.ByID[user.ID] = user
	m.ByAuth0ID[user.Auth0ID] = user
	return user
}

// NewUser adds an active user with the given role and returns it
func (m *MockUserRepository) NewUser(role domain.Role) *domain.User {
	return m.AddUser(&domain.User{
		Email:    fmt.Sprintf("%s-%s@example.com", role, uuid.NewString()[:8]),
		Role:     role,
		IsActive: true,
	})
}

// MockDirectoryRepository is a mock implementation of domain.DirectoryRepository
type MockDirectoryRepository struct {
	Buildings           map[uuid.UUID]*domain.Building
	OrganizationLinks   map[uuid.UUID][]uuid.UUID
	ResidenceLinks      map[uuid.UUID][]uuid.UUID
	ListActiveCallCount int
	Err                 error
	mu                  sync.RWMutex
}

// NewMockDirectoryRepository creates a new MockDirectoryRepository
func NewMockDirectoryRepository() *MockDirectoryRepository {
	return &MockDirectoryRepository{
		Buildings:         make(map[uuid.UUID]*domain.Building),
		OrganizationLinks: make(map[uuid.UUID][]uuid.UUID),
		ResidenceLinks:    make(map[uuid.UUID][]uuid.UUID),
	}
}

// AddBuilding adds an active building (helper for tests)
func (m *MockDirectoryRepository) AddBuilding(name string) *domain.Building {
	m.mu.Lock()
	defer m.mu.Unlock()
	building := &domain.Building{ID: uuid.New(), Name: name, IsActive: true}
	m.Buildings[building.ID] = building
	return building
}

// LinkOrganization gives a manager access to a building through an organization
func (m *MockDirectoryRepository) LinkOrganization(userID, buildingID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrganizationLinks[userID] = append(m.OrganizationLinks[userID], buildingID)
}

// LinkResidence gives a resident access to a building through a residence
func (m *MockDirectoryRepository) LinkResidence(userID, buildingID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResidenceLinks[userID] = append(m.ResidenceLinks[userID], buildingID)
}

// GetBuilding retrieves an active building
func (m *MockDirectoryRepository) GetBuilding(ctx context.Context, id uuid.UUID) (*domain.Building, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if building, ok := m.Buildings[id]; ok && building.IsActive {
		return building, nil
	}
	return nil, domain.ErrBuildingNotFound
}

// ListActiveBuildingIDs lists all active buildings
func (m *MockDirectoryRepository) ListActiveBuildingIDs(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListActiveCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	ids := make([]uuid.UUID, 0, len(m.Buildings))
	for id, building := range m.Buildings {
		if building.IsActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ListOrganizationBuildingIDs lists buildings linked through organizations
func (m *MockDirectoryRepository) ListOrganizationBuildingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return m.activeLinks(m.OrganizationLinks, userID)
}

// ListResidenceBuildingIDs lists buildings linked through residences
func (m *MockDirectoryRepository) ListResidenceBuildingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return m.activeLinks(m.ResidenceLinks, userID)
}

func (m *MockDirectoryRepository) activeLinks(links map[uuid.UUID][]uuid.UUID, userID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var ids []uuid.UUID
	for _, id := range links[userID] {
		if building, ok := m.Buildings[id]; ok && building.IsActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// MockCommonSpaceRepository is a mock implementation of domain.CommonSpaceRepository
type MockCommonSpaceRepository struct {
	Spaces map[uuid.UUID]*domain.CommonSpace
	mu     sync.RWMutex
}

// NewMockCommonSpaceRepository creates a new MockCommonSpaceRepository
func NewMockCommonSpaceRepository() *MockCommonSpaceRepository {
	return &MockCommonSpaceRepository{
		Spaces: make(map[uuid.UUID]*domain.CommonSpace),
	}
}

// AddSpace stores a space as-is (helper for tests)
func (m *MockCommonSpaceRepository) AddSpace(space *domain.CommonSpace) *domain.CommonSpace {
	m.mu.Lock()
	defer m.mu.Unlock()
	if space.ID == uuid.Nil {
		space.ID = uuid.New()
	}
	if space.Status == "" {
		space.Status = domain.SpaceStatusActive
	}
	m.Spaces[space.ID] = space
	return space
}

// Create creates a new common space, enforcing the (building, name) uniqueness
func (m *MockCommonSpaceRepository) Create(ctx context.Context, space *domain.CommonSpace) (*domain.CommonSpace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Spaces {
		if existing.BuildingID == space.BuildingID && strings.EqualFold(existing.Name, space.Name) {
			return nil, domain.ErrDuplicateSpaceName
		}
	}
	created := *space
	created.ID = uuid.New()
	if created.Status == "" {
		created.Status = domain.SpaceStatusActive
	}
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	m.Spaces[created.ID] = &created
	return &created, nil
}

// GetByID retrieves an active common space
func (m *MockCommonSpaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CommonSpace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if space, ok := m.Spaces[id]; ok && space.IsActive() {
		copied := *space
		return &copied, nil
	}
	return nil, domain.ErrCommonSpaceNotFound
}

// ListByBuildings lists active spaces in the given buildings ordered by name
func (m *MockCommonSpaceRepository) ListByBuildings(ctx context.Context, buildingIDs []uuid.UUID) ([]*domain.CommonSpace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := domain.NewBuildingSet(buildingIDs...)
	result := make([]*domain.CommonSpace, 0)
	for _, space := range m.Spaces {
		if space.IsActive() && wanted.Contains(space.BuildingID) {
			result = append(result, space)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ExistsByName checks for a space with the same name in a building
func (m *MockCommonSpaceRepository) ExistsByName(ctx context.Context, buildingID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, space := range m.Spaces {
		if excludeID != nil && space.ID == *excludeID {
			continue
		}
		if space.BuildingID == buildingID && strings.EqualFold(space.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Update replaces an existing space
func (m *MockCommonSpaceRepository) Update(ctx context.Context, space *domain.CommonSpace) (*domain.CommonSpace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Spaces[space.ID]; !ok {
		return nil, domain.ErrCommonSpaceNotFound
	}
	updated := *space
	updated.UpdatedAt = time.Now()
	m.Spaces[space.ID] = &updated
	return &updated, nil
}

// UpdateImage sets the image path of a space
func (m *MockCommonSpaceRepository) UpdateImage(ctx context.Context, id uuid.UUID, imageURL *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	space, ok := m.Spaces[id]
	if !ok {
		return domain.ErrCommonSpaceNotFound
	}
	space.ImageURL = imageURL
	return nil
}

// MockBookingRepository is an in-memory booking ledger. When EnforceExclusion
// is set, Create rejects overlapping confirmed bookings the way the database
// exclusion constraint does.
type MockBookingRepository struct {
	Bookings         map[uuid.UUID]*domain.Booking
	EnforceExclusion bool
	CreateDelay      time.Duration
	CreateErr        error
	mu               sync.RWMutex
}

// NewMockBookingRepository creates a new MockBookingRepository
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		Bookings:         make(map[uuid.UUID]*domain.Booking),
		EnforceExclusion: true,
	}
}

// AddBooking stores a booking as-is (helper for tests)
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) *domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.Status == "" {
		booking.Status = domain.BookingStatusConfirmed
	}
	m.Bookings[booking.ID] = booking
	return booking
}

// ConfirmedForSpace returns confirmed bookings on a space (helper for tests)
func (m *MockBookingRepository) ConfirmedForSpace(spaceID uuid.UUID) []*domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.Bookings {
		if b.CommonSpaceID == spaceID && b.IsConfirmed() {
			result = append(result, b)
		}
	}
	return result
}

// GetByID retrieves a booking by ID
func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if booking, ok := m.Bookings[id]; ok {
		copied := *booking
		return &copied, nil
	}
	return nil, domain.ErrBookingNotFound
}

// ListBySpace lists bookings of a space intersecting [from, to), ordered by start
func (m *MockBookingRepository) ListBySpace(ctx context.Context, spaceID uuid.UUID, from, to *time.Time) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0)
	for _, b := range m.Bookings {
		if b.CommonSpaceID != spaceID {
			continue
		}
		if from != nil && !b.EndTime.After(*from) {
			continue
		}
		if to != nil && !b.StartTime.Before(*to) {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

// HasOverlap checks confirmed bookings with the half-open intersection test
func (m *MockBookingRepository) HasOverlap(ctx context.Context, spaceID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overlapLocked(spaceID, start, end, excludeID), nil
}

func (m *MockBookingRepository) overlapLocked(spaceID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) bool {
	for _, b := range m.Bookings {
		if b.CommonSpaceID != spaceID || !b.IsConfirmed() {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// SumConfirmedHours totals confirmed hours for a user since a cutoff
func (m *MockBookingRepository) SumConfirmedHours(ctx context.Context, userID uuid.UUID, spaceID *uuid.UUID, since time.Time) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, b := range m.Bookings {
		if b.UserID != userID || !b.IsConfirmed() || b.StartTime.Before(since) {
			continue
		}
		if spaceID != nil && b.CommonSpaceID != *spaceID {
			continue
		}
		total = total.Add(b.DurationHours())
	}
	return total, nil
}

// Create stores a new confirmed booking
func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if m.CreateDelay > 0 {
		time.Sleep(m.CreateDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.EnforceExclusion && booking.Status == domain.BookingStatusConfirmed &&
		m.overlapLocked(booking.CommonSpaceID, booking.StartTime, booking.EndTime, nil) {
		return nil, domain.ErrTimeConflict
	}
	created := *booking
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	m.Bookings[created.ID] = &created
	copied := created
	return &copied, nil
}

// Cancel moves a confirmed booking to cancelled
func (m *MockBookingRepository) Cancel(ctx context.Context, id uuid.UUID, cancelledBy uuid.UUID, at time.Time) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.Bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if !booking.IsConfirmed() {
		return nil, domain.ErrBookingAlreadyCancelled
	}
	booking.Status = domain.BookingStatusCancelled
	booking.CancelledBy = &cancelledBy
	booking.CancelledAt = &at
	booking.UpdatedAt = at
	copied := *booking
	return &copied, nil
}

// AggregateUsage groups confirmed bookings of a space per user
func (m *MockBookingRepository) AggregateUsage(ctx context.Context, spaceID uuid.UUID, since time.Time) ([]domain.UserUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byUser := make(map[uuid.UUID]*domain.UserUsage)
	for _, b := range m.Bookings {
		if b.CommonSpaceID != spaceID || !b.IsConfirmed() || b.StartTime.Before(since) {
			continue
		}
		usage, ok := byUser[b.UserID]
		if !ok {
			usage = &domain.UserUsage{UserID: b.UserID, TotalHours: decimal.Zero}
			byUser[b.UserID] = usage
		}
		usage.TotalHours = usage.TotalHours.Add(b.DurationHours())
		usage.BookingCount++
	}
	result := make([]domain.UserUsage, 0, len(byUser))
	for _, usage := range byUser {
		result = append(result, *usage)
	}
	return result, nil
}

// MockBookingTxManager runs transactional work directly against a
// MockBookingRepository. Work on the same space runs one at a time, like the
// row lock the real transaction takes. Queued errors are returned, one per
// call, before the work runs, which lets tests simulate serialization failures.
type MockBookingTxManager struct {
	Ledger    *MockBookingRepository
	FailWith  []error
	CallCount int
	mu        sync.Mutex
	rows      map[uuid.UUID]*sync.Mutex
}

// NewMockBookingTxManager creates a tx manager over the given ledger
func NewMockBookingTxManager(ledger *MockBookingRepository) *MockBookingTxManager {
	return &MockBookingTxManager{Ledger: ledger, rows: make(map[uuid.UUID]*sync.Mutex)}
}

// WithinSpaceTx runs fn against the ledger while holding the space's row lock
func (m *MockBookingTxManager) WithinSpaceTx(ctx context.Context, spaceID uuid.UUID, fn func(ctx context.Context, ledger domain.BookingRepository) error) error {
	m.mu.Lock()
	m.CallCount++
	if len(m.FailWith) > 0 {
		err := m.FailWith[0]
		m.FailWith = m.FailWith[1:]
		m.mu.Unlock()
		return err
	}
	row, ok := m.rows[spaceID]
	if !ok {
		row = &sync.Mutex{}
		m.rows[spaceID] = row
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	row.Lock()
	defer row.Unlock()
	return fn(ctx, m.Ledger)
}

// MockRestrictionRepository is a mock implementation of domain.RestrictionRepository
type MockRestrictionRepository struct {
	Restrictions map[string]*domain.Restriction
	mu           sync.RWMutex
}

// NewMockRestrictionRepository creates a new MockRestrictionRepository
func NewMockRestrictionRepository() *MockRestrictionRepository {
	return &MockRestrictionRepository{
		Restrictions: make(map[string]*domain.Restriction),
	}
}

func restrictionKey(userID, spaceID uuid.UUID) string {
	return userID.String() + ":" + spaceID.String()
}

// Get retrieves the restriction for a (user, space) pair
func (m *MockRestrictionRepository) Get(ctx context.Context, userID, spaceID uuid.UUID) (*domain.Restriction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.Restrictions[restrictionKey(userID, spaceID)]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, domain.ErrRestrictionNotFound
}

// Upsert creates or replaces the restriction for a (user, space) pair
func (m *MockRestrictionRepository) Upsert(ctx context.Context, restriction *domain.Restriction) (*domain.Restriction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := restrictionKey(restriction.UserID, restriction.CommonSpaceID)
	stored := *restriction
	now := time.Now()
	if existing, ok := m.Restrictions[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = uuid.New()
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.Restrictions[key] = &stored
	copied := stored
	return &copied, nil
}

// ListByUser lists restrictions for a user
func (m *MockRestrictionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Restriction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Restriction, 0)
	for _, r := range m.Restrictions {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	return result, nil
}

// MockTimeLimitRepository is a mock implementation of domain.TimeLimitRepository
type MockTimeLimitRepository struct {
	Limits map[uuid.UUID]*domain.TimeLimit
	mu     sync.RWMutex
}

// NewMockTimeLimitRepository creates a new MockTimeLimitRepository
func NewMockTimeLimitRepository() *MockTimeLimitRepository {
	return &MockTimeLimitRepository{
		Limits: make(map[uuid.UUID]*domain.TimeLimit),
	}
}

func sameScope(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ListForUserSpace returns rows for (user, space) and (user, null)
func (m *MockTimeLimitRepository) ListForUserSpace(ctx context.Context, userID, spaceID uuid.UUID) ([]*domain.TimeLimit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.TimeLimit, 0)
	for _, l := range m.Limits {
		if l.UserID != userID {
			continue
		}
		if l.CommonSpaceID == nil || *l.CommonSpaceID == spaceID {
			result = append(result, l)
		}
	}
	return result, nil
}

// ListByUser lists all limits of a user
func (m *MockTimeLimitRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TimeLimit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.TimeLimit, 0)
	for _, l := range m.Limits {
		if l.UserID == userID {
			result = append(result, l)
		}
	}
	domain.SortTimeLimits(result)
	return result, nil
}

// GetByID retrieves a limit by ID
func (m *MockTimeLimitRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TimeLimit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.Limits[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, domain.ErrTimeLimitNotFound
}

// Upsert creates or replaces the limit for (user, space-or-null, type)
func (m *MockTimeLimitRepository) Upsert(ctx context.Context, limit *domain.TimeLimit) (*domain.TimeLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, existing := range m.Limits {
		if existing.UserID == limit.UserID && existing.LimitType == limit.LimitType && sameScope(existing.CommonSpaceID, limit.CommonSpaceID) {
			stored := *limit
			stored.ID = id
			stored.CreatedAt = existing.CreatedAt
			stored.UpdatedAt = now
			m.Limits[id] = &stored
			copied := stored
			return &copied, nil
		}
	}
	stored := *limit
	stored.ID = uuid.New()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.Limits[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

// Delete removes a limit
func (m *MockTimeLimitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Limits[id]; !ok {
		return domain.ErrTimeLimitNotFound
	}
	delete(m.Limits, id)
	return nil
}

// MockImageStorage is an in-memory object store
type MockImageStorage struct {
	Objects     map[string][]byte
	PutErr      error
	DeleteCalls int
	mu          sync.Mutex
}

// NewMockImageStorage creates a new MockImageStorage
func NewMockImageStorage() *MockImageStorage {
	return &MockImageStorage{Objects: make(map[string][]byte)}
}

// Put stores a copy of the object
func (m *MockImageStorage) Put(ctx context.Context, objectPath string, data []byte, contentType string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = append([]byte(nil), data...)
	return nil
}

// DeleteMany removes objects in one call
func (m *MockImageStorage) DeleteMany(ctx context.Context, objectPaths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	for _, p := range objectPaths {
		delete(m.Objects, p)
	}
	return nil
}

// PresignGet returns a fake signed URL
func (m *MockImageStorage) PresignGet(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + objectPath + "?signed=1", nil
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	Events []PublishedEvent
	mu     sync.Mutex
}

// PublishedEvent is one recorded Publish call
type PublishedEvent struct {
	BuildingID uuid.UUID
	Event      websocket.Event
}

// Publish records the event
func (m *MockEventPublisher) Publish(buildingID uuid.UUID, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{BuildingID: buildingID, Event: event})
}

// Types returns the recorded event types in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Event.Type
	}
	return types
}

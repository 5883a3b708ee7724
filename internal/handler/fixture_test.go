package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/middleware"
	"github.com/dafibh/habitat/habitat-backend/internal/service"
	"github.com/dafibh/habitat/habitat-backend/internal/testutil"
	"github.com/dafibh/habitat/habitat-backend/internal/websocket"
	"github.com/labstack/echo/v4"
)

// fixtureNow is Sunday 2026-11-01 08:00 UTC, the day before monday()
var fixtureNow = time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)

// monday returns a time on Monday 2026-11-02 in UTC
func monday(hour, minute int) time.Time {
	return time.Date(2026, 11, 2, hour, minute, 0, 0, time.UTC)
}

// subjectValidator treats the bearer token as the Auth0 subject
type subjectValidator struct{}

func (subjectValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	if !strings.HasPrefix(token, "auth0|") {
		return nil, errors.New("malformed token")
	}
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: token},
	}, nil
}

// apiFixture serves the full route table over in-memory repositories
type apiFixture struct {
	e *echo.Echo

	users        *testutil.MockUserRepository
	directory    *testutil.MockDirectoryRepository
	spaces       *testutil.MockCommonSpaceRepository
	bookings     *testutil.MockBookingRepository
	restrictions *testutil.MockRestrictionRepository
	limits       *testutil.MockTimeLimitRepository
	images       *testutil.MockImageStorage
	limiter      *middleware.RateLimiter

	building *domain.Building
	space    *domain.CommonSpace
	manager  *domain.User
	resident *domain.User
	outsider *domain.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	return newAPIFixtureWithLimiter(t, middleware.NewRateLimiterWithConfig(600, 100))
}

func newAPIFixtureWithLimiter(t *testing.T, limiter *middleware.RateLimiter) *apiFixture {
	t.Helper()

	f := &apiFixture{
		users:        testutil.NewMockUserRepository(),
		directory:    testutil.NewMockDirectoryRepository(),
		spaces:       testutil.NewMockCommonSpaceRepository(),
		bookings:     testutil.NewMockBookingRepository(),
		restrictions: testutil.NewMockRestrictionRepository(),
		limits:       testutil.NewMockTimeLimitRepository(),
		images:       testutil.NewMockImageStorage(),
		limiter:      limiter,
	}

	f.building = f.directory.AddBuilding("Maple Court")
	f.manager = f.users.NewUser(domain.RoleManager)
	f.resident = f.users.NewUser(domain.RoleResident)
	f.outsider = f.users.NewUser(domain.RoleTenant)
	f.directory.LinkOrganization(f.manager.ID, f.building.ID)
	f.directory.LinkResidence(f.resident.ID, f.building.ID)

	f.space = f.spaces.AddSpace(&domain.CommonSpace{
		BuildingID:   f.building.ID,
		Name:         "Party Room",
		IsReservable: true,
		OpeningHours: domain.OpeningHours{{Day: "monday", Open: "08:00", Close: "20:00"}},
	})

	clock := func() time.Time { return fixtureNow }
	hub := websocket.NewHub()

	access := service.NewAccessService(f.directory)
	spaceSvc := service.NewCommonSpaceService(f.spaces, f.directory, f.users, access)
	spaceSvc.SetImageService(service.NewImageService(f.images))
	spaceSvc.SetEventPublisher(hub)
	restrictionSvc := service.NewRestrictionService(f.restrictions, f.spaces, f.users, access)
	limitSvc := service.NewTimeLimitService(f.limits, f.spaces, f.users, f.bookings, access)
	limitSvc.SetClock(clock)
	bookingSvc := service.NewBookingService(f.bookings, testutil.NewMockBookingTxManager(f.bookings), f.spaces, f.users, access, restrictionSvc, limitSvc, service.NewKeyedSpaceLocker())
	bookingSvc.SetClock(clock)
	bookingSvc.SetEventPublisher(hub)
	usageSvc := service.NewUsageService(f.bookings, f.spaces, access, service.DefaultStatsMonths)
	usageSvc.SetClock(clock)
	exportSvc := service.NewExportService(bookingSvc, usageSvc, f.spaces, f.users)

	f.e = echo.New()
	f.e.Validator = NewRequestValidator()
	RegisterRoutes(f.e,
		DefaultServers("8080", ""),
		middleware.NewAuthMiddlewareWithValidator(subjectValidator{}, f.users),
		f.limiter,
		NewCommonSpaceHandler(spaceSvc),
		NewBookingHandler(bookingSvc, exportSvc),
		NewRestrictionHandler(restrictionSvc),
		NewTimeLimitHandler(limitSvc),
		NewStatsHandler(usageSvc, exportSvc),
		nil,
	)

	return f
}

// do sends a request through the router authenticated as user (nil for anonymous)
func (f *apiFixture) do(method, path, body string, user *domain.User) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != nil {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+user.Auth0ID)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

// book stores a confirmed booking directly in the ledger
func (f *apiFixture) book(user *domain.User, start, end time.Time) *domain.Booking {
	return f.bookings.AddBooking(&domain.Booking{
		CommonSpaceID: f.space.ID,
		UserID:        user.ID,
		StartTime:     start,
		EndTime:       end,
		Status:        domain.BookingStatusConfirmed,
	})
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var p ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("Failed to unmarshal problem response: %v (%s)", err, rec.Body.String())
	}
	return p
}

func bookingBody(start, end time.Time) string {
	return `{"start_time":"` + start.Format(time.RFC3339) + `","end_time":"` + end.Format(time.RFC3339) + `"}`
}

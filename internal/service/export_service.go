package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	calendarProductID = "-//habitat//common-space bookings//EN"
	usageSheetName    = "Usage"
)

// ErrExportGenerateFail is returned when a file could not be rendered
var ErrExportGenerateFail = errors.New("failed to generate export file")

// ExportService renders bookings and usage reports as downloadable files
type ExportService struct {
	bookings  *BookingService
	usage     *UsageService
	spaceRepo domain.CommonSpaceRepository
	userRepo  domain.UserRepository
}

// NewExportService creates a new ExportService
func NewExportService(bookings *BookingService, usage *UsageService, spaceRepo domain.CommonSpaceRepository, userRepo domain.UserRepository) *ExportService {
	return &ExportService{
		bookings:  bookings,
		usage:     usage,
		spaceRepo: spaceRepo,
		userRepo:  userRepo,
	}
}

// BookingsCalendar renders the confirmed bookings of a space as an iCalendar feed
func (s *ExportService) BookingsCalendar(ctx context.Context, actor domain.Actor, spaceID uuid.UUID, from, to *time.Time) ([]byte, error) {
	bookings, err := s.bookings.ListBookings(ctx, actor, spaceID, from, to)
	if err != nil {
		return nil, err
	}
	space, err := s.spaceRepo.GetByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetName(space.Name)

	for _, b := range bookings {
		if !b.IsConfirmed() {
			continue
		}
		event := cal.AddEvent(b.ID.String() + "@habitat")
		event.SetDtStampTime(b.UpdatedAt.UTC())
		event.SetCreatedTime(b.CreatedAt.UTC())
		event.SetStartAt(b.StartTime.UTC())
		event.SetEndAt(b.EndTime.UTC())
		event.SetSummary(space.Name + " booking")
		event.SetStatus(ics.ObjectStatusConfirmed)
		if b.UserID == actor.UserID {
			event.SetDescription("Your booking")
		}
	}

	return []byte(cal.Serialize()), nil
}

// StatisticsWorkbook renders the usage report of a space as an .xlsx file.
// It returns the file contents and a suggested filename.
func (s *ExportService) StatisticsWorkbook(ctx context.Context, actor domain.Actor, spaceID uuid.UUID, since *time.Time) (*bytes.Buffer, string, error) {
	stats, err := s.usage.SpaceStatistics(ctx, actor, spaceID, since)
	if err != nil {
		return nil, "", err
	}
	space, err := s.spaceRepo.GetByID(ctx, spaceID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(usageSheetName)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create usage sheet")
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(usageSheetName, "A", "A", 40)
	f.SetColWidth(usageSheetName, "B", "B", 32)
	f.SetColWidth(usageSheetName, "C", "D", 14)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(usageSheetName, "A1", fmt.Sprintf("%s usage since %s", space.Name, stats.Since.Format("2006-01-02")))
	f.MergeCell(usageSheetName, "A1", "D1")
	f.SetCellStyle(usageSheetName, "A1", "A1", headerStyle)

	for i, title := range []string{"User ID", "Email", "Bookings", "Hours"} {
		f.SetCellValue(usageSheetName, cell(colName(i), 2), title)
	}
	f.SetCellStyle(usageSheetName, "A2", "D2", headerStyle)

	emails := s.userEmails(ctx, stats.PerUser)
	row := 3
	for _, u := range stats.PerUser {
		hours, _ := u.TotalHours.Float64()
		f.SetCellValue(usageSheetName, cell("A", row), u.UserID.String())
		f.SetCellValue(usageSheetName, cell("B", row), emails[u.UserID])
		f.SetCellValue(usageSheetName, cell("C", row), u.BookingCount)
		f.SetCellValue(usageSheetName, cell("D", row), hours)
		row++
	}

	totalHours, _ := stats.Totals.TotalHours.Float64()
	f.SetCellValue(usageSheetName, cell("A", row), fmt.Sprintf("Total (%d users)", stats.Totals.UniqueUsers))
	f.SetCellValue(usageSheetName, cell("C", row), stats.Totals.BookingCount)
	f.SetCellValue(usageSheetName, cell("D", row), totalHours)
	f.SetCellStyle(usageSheetName, cell("A", row), cell("D", row), headerStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		log.Error().Err(err).Str("common_space_id", space.ID.String()).Msg("Failed to write usage workbook")
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s_usage_%s.xlsx", fileSlug(space.Name), stats.Since.Format("20060102"))
	return buf, filename, nil
}

// userEmails looks up the email of every user in the report. Lookup
// failures leave the column blank rather than failing the export.
func (s *ExportService) userEmails(ctx context.Context, rows []domain.UserUsage) map[uuid.UUID]string {
	emails := make(map[uuid.UUID]string, len(rows))
	if s.userRepo == nil || len(rows) == 0 {
		return emails
	}
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Int("users", len(ids)).Msg("Failed to load user emails for export")
		return emails
	}
	for id, u := range users {
		emails[id] = u.Email
	}
	return emails
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// fileSlug keeps letters and digits and turns everything else into underscores
func fileSlug(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name))
	if slug == "" {
		return "common_space"
	}
	return strings.ToLower(slug)
}

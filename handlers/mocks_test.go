package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/Dosada05/venue-system/models"
	"github.com/Dosada05/venue-system/services"
	"github.com/Dosada05/venue-system/storage"
)

// --- Моки сервисов на testify/mock ---

type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, input services.EventInput, actorID string) (*models.Event, error) {
	args := m.Called(ctx, input, actorID)
	ev, _ := args.Get(0).(*models.Event)
	return ev, args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, id string, input services.EventInput) (*models.Event, error) {
	args := m.Called(ctx, id, input)
	ev, _ := args.Get(0).(*models.Event)
	return ev, args.Error(1)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	ev, _ := args.Get(0).(*models.Event)
	return ev, args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context, sectionID *string) ([]models.Event, error) {
	args := m.Called(ctx, sectionID)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

func (m *MockEventService) ListQuickLinks(ctx context.Context, eventID string) ([]models.QuickLink, error) {
	args := m.Called(ctx, eventID)
	links, _ := args.Get(0).([]models.QuickLink)
	return links, args.Error(1)
}

func (m *MockEventService) ReplaceQuickLinks(ctx context.Context, eventID string, links []services.QuickLinkInput) ([]models.QuickLink, error) {
	args := m.Called(ctx, eventID, links)
	out, _ := args.Get(0).([]models.QuickLink)
	return out, args.Error(1)
}

type MockSignupService struct {
	mock.Mock
}

func (m *MockSignupService) SubmitSignup(ctx context.Context, input services.SubmitSignupInput, clientID string) (*models.Signup, error) {
	args := m.Called(ctx, input, clientID)
	s, _ := args.Get(0).(*models.Signup)
	return s, args.Error(1)
}

func (m *MockSignupService) ListSignups(ctx context.Context, eventID *string) ([]models.Signup, error) {
	args := m.Called(ctx, eventID)
	s, _ := args.Get(0).([]models.Signup)
	return s, args.Error(1)
}

func (m *MockSignupService) UpdateSignup(ctx context.Context, id string, input services.UpdateSignupInput) (*models.Signup, error) {
	args := m.Called(ctx, id, input)
	s, _ := args.Get(0).(*models.Signup)
	return s, args.Error(1)
}

func (m *MockSignupService) DeleteSignup(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSignupService) ExportCSV(ctx context.Context, eventID *string, w io.Writer) error {
	return m.Called(ctx, eventID, w).Error(0)
}

type MockSectionService struct {
	mock.Mock
}

func (m *MockSectionService) ListSections(ctx context.Context) ([]models.Section, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]models.Section)
	return s, args.Error(1)
}

func (m *MockSectionService) CreateSection(ctx context.Context, input services.SectionInput) (*models.Section, error) {
	args := m.Called(ctx, input)
	s, _ := args.Get(0).(*models.Section)
	return s, args.Error(1)
}

func (m *MockSectionService) UpdateSection(ctx context.Context, id string, input services.SectionInput) (*models.Section, error) {
	args := m.Called(ctx, id, input)
	s, _ := args.Get(0).(*models.Section)
	return s, args.Error(1)
}

func (m *MockSectionService) DeleteSection(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSectionService) MoveSection(ctx context.Context, id string, direction models.MoveDirection) ([]models.Section, error) {
	args := m.Called(ctx, id, direction)
	s, _ := args.Get(0).([]models.Section)
	return s, args.Error(1)
}

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) ListSchedule(ctx context.Context, eventID *string) ([]models.ScheduleItem, error) {
	args := m.Called(ctx, eventID)
	items, _ := args.Get(0).([]models.ScheduleItem)
	return items, args.Error(1)
}

func (m *MockScheduleService) AddToSchedule(ctx context.Context, eventID string) (*models.ScheduleItem, error) {
	args := m.Called(ctx, eventID)
	item, _ := args.Get(0).(*models.ScheduleItem)
	return item, args.Error(1)
}

func (m *MockScheduleService) RemoveFromSchedule(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *MockScheduleService) MoveScheduleItem(ctx context.Context, eventID string, direction models.MoveDirection) ([]models.ScheduleItem, error) {
	args := m.Called(ctx, eventID, direction)
	items, _ := args.Get(0).([]models.ScheduleItem)
	return items, args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SignupConfirmation(ctx context.Context, event *models.Event, signup *models.Signup) error {
	return m.Called(ctx, event, signup).Error(0)
}

func (m *MockNotificationService) BulkEventEmail(ctx context.Context, eventID string, input services.BulkEmailInput) (int, error) {
	args := m.Called(ctx, eventID, input)
	return args.Int(0), args.Error(1)
}

type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) EventCalendar(ctx context.Context, eventID string) ([]byte, error) {
	args := m.Called(ctx, eventID)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type MockQRCodeService struct {
	mock.Mock
}

func (m *MockQRCodeService) SignupQRCode(ctx context.Context, eventID string, size int) ([]byte, error) {
	args := m.Called(ctx, eventID, size)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, input services.LoginInput) (*services.LoginResult, error) {
	args := m.Called(ctx, input)
	res, _ := args.Get(0).(*services.LoginResult)
	return res, args.Error(1)
}

func (m *MockAuthService) VerifyToken(token string) (*services.Session, error) {
	args := m.Called(token)
	s, _ := args.Get(0).(*services.Session)
	return s, args.Error(1)
}

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) UploadImage(ctx context.Context, filename string, reader io.Reader) (*storage.UploadResult, error) {
	data, _ := io.ReadAll(reader)
	args := m.Called(ctx, filename, data)
	res, _ := args.Get(0).(*storage.UploadResult)
	return res, args.Error(1)
}

func (m *MockUploadService) DeleteFiles(ctx context.Context, urls []string) (*services.DeleteFilesResult, error) {
	args := m.Called(ctx, urls)
	res, _ := args.Get(0).(*services.DeleteFilesResult)
	return res, args.Error(1)
}

type MockBannerService struct {
	mock.Mock
}

func (m *MockBannerService) GetBanner(ctx context.Context) (*models.MessageBanner, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).(*models.MessageBanner)
	return b, args.Error(1)
}

func (m *MockBannerService) UpdateBanner(ctx context.Context, input services.BannerInput) (*models.MessageBanner, error) {
	args := m.Called(ctx, input)
	b, _ := args.Get(0).(*models.MessageBanner)
	return b, args.Error(1)
}

type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Submit(ctx context.Context, input services.ContactInput) error {
	return m.Called(ctx, input).Error(0)
}

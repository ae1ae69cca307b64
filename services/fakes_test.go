package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/venue-system/cache"
	"github.com/Dosada05/venue-system/live"
	"github.com/Dosada05/venue-system/models"
	"github.com/Dosada05/venue-system/repositories"
	"github.com/Dosada05/venue-system/storage"
	"github.com/Dosada05/venue-system/tasks"
)

// fakeStore: in-memory база для сервисных тестов. WithinTx сериализует транзакции,
// что соответствует блокировке строки события в Postgres.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	seq      int
	clock    time.Time
	events   map[string]*models.Event
	signups  []models.Signup
	links    map[string][]models.QuickLink
	schedule []models.ScheduleItem
	sections []models.Section
	banner   *models.MessageBanner

	failCountByEvent error
	lockedLists      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		events: make(map[string]*models.Event),
		links:  make(map[string][]models.QuickLink),
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(nil)
}

// lockForList требует открытой транзакции, как SELECT ... FOR UPDATE.
func (s *fakeStore) lockForList() error {
	if s.txMu.TryLock() {
		s.txMu.Unlock()
		return fmt.Errorf("locking read outside of a transaction")
	}
	s.lockedLists++
	return nil
}

func (s *fakeStore) addEvent(e models.Event) *models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = s.nextID("ev")
	}
	if e.ParticipantsPerSignup == 0 {
		e.ParticipantsPerSignup = 1
	}
	if e.GalleryImages == nil {
		e.GalleryImages = []string{}
	}
	e.CreatedAt = s.tick()
	e.UpdatedAt = e.CreatedAt
	s.events[e.ID] = &e
	return &e
}

type fakeEventRepo struct{ *fakeStore }

func (r fakeEventRepo) Create(_ context.Context, _ repositories.SQLExecutor, e *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.SectionID != nil && !r.hasSection(*e.SectionID) {
		return repositories.ErrEventSectionInvalid
	}
	e.ID = r.nextID("ev")
	e.CreatedAt = r.tick()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	r.events[e.ID] = &cp
	return nil
}

func (s *fakeStore) hasSection(id string) bool {
	for _, sec := range s.sections {
		if sec.ID == id {
			return true
		}
	}
	return false
}

func (r fakeEventRepo) GetByID(_ context.Context, id string) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (r fakeEventRepo) GetForUpdate(ctx context.Context, _ repositories.SQLExecutor, id string) (*models.Event, error) {
	return r.GetByID(ctx, id)
}

func (r fakeEventRepo) List(_ context.Context, sectionID *string) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, e := range r.events {
		if sectionID != nil && (e.SectionID == nil || *e.SectionID != *sectionID) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r fakeEventRepo) Update(_ context.Context, _ repositories.SQLExecutor, e *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.events[e.ID]
	if !ok {
		return repositories.ErrEventNotFound
	}
	if e.SectionID != nil && !r.hasSection(*e.SectionID) {
		return repositories.ErrEventSectionInvalid
	}
	e.CreatedBy = old.CreatedBy
	e.CreatedAt = old.CreatedAt
	e.UpdatedAt = r.tick()
	cp := *e
	r.events[e.ID] = &cp
	return nil
}

func (r fakeEventRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repositories.ErrEventNotFound
	}
	delete(r.events, id)
	delete(r.links, id)
	kept := r.signups[:0]
	for _, su := range r.signups {
		if su.EventID != id {
			kept = append(kept, su)
		}
	}
	r.signups = kept
	items := r.schedule[:0]
	for _, it := range r.schedule {
		if it.EventID != id {
			items = append(items, it)
		}
	}
	r.schedule = items
	return nil
}

type fakeSignupRepo struct{ *fakeStore }

func (r fakeSignupRepo) Create(_ context.Context, _ repositories.SQLExecutor, su *models.Signup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[su.EventID]; !ok {
		return repositories.ErrSignupEventInvalid
	}
	su.ID = r.nextID("su")
	if su.PartySize == 0 {
		su.PartySize = 1 + models.NamedCount(su.AdditionalParticipants)
	}
	su.UpdatedAt = su.CreatedAt
	r.signups = append(r.signups, *su)
	return nil
}

func (r fakeSignupRepo) GetByID(_ context.Context, id string) (*models.Signup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, su := range r.signups {
		if su.ID == id {
			cp := su
			return &cp, nil
		}
	}
	return nil, repositories.ErrSignupNotFound
}

func (r fakeSignupRepo) List(_ context.Context, eventID *string) ([]models.Signup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Signup
	for _, su := range r.signups {
		if eventID == nil || su.EventID == *eventID {
			out = append(out, su)
		}
	}
	return out, nil
}

func (r fakeSignupRepo) CountByEvent(_ context.Context, _ repositories.SQLExecutor, eventID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCountByEvent != nil {
		return 0, r.failCountByEvent
	}
	n := 0
	for _, su := range r.signups {
		if su.EventID == eventID {
			n += su.PartySize
		}
	}
	return n, nil
}

func (r fakeSignupRepo) CountsByEvent(ctx context.Context, ids []string) (map[string]int, error) {
	out := make(map[string]int, len(ids))
	for _, id := range ids {
		n, err := r.CountByEvent(ctx, nil, id)
		if err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, nil
}

func (r fakeSignupRepo) UpdateStatusNotes(_ context.Context, id string, status models.SignupStatus, notes *string) (*models.Signup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.signups {
		if r.signups[i].ID == id {
			r.signups[i].Status = status
			r.signups[i].Notes = notes
			cp := r.signups[i]
			return &cp, nil
		}
	}
	return nil, repositories.ErrSignupNotFound
}

func (r fakeSignupRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.signups {
		if r.signups[i].ID == id {
			r.signups = append(r.signups[:i], r.signups[i+1:]...)
			return nil
		}
	}
	return repositories.ErrSignupNotFound
}

type fakeLinkRepo struct{ *fakeStore }

func (r fakeLinkRepo) ListByEvent(_ context.Context, eventID string) ([]models.QuickLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.QuickLink{}, r.links[eventID]...)
	return out, nil
}

func (r fakeLinkRepo) ReplaceForEvent(_ context.Context, _ repositories.SQLExecutor, eventID string, links []models.QuickLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]models.QuickLink, len(links))
	for i, l := range links {
		l.ID = r.nextID("ql")
		l.EventID = eventID
		links[i] = l
		stored[i] = l
	}
	r.links[eventID] = stored
	return nil
}

type fakeScheduleRepo struct{ *fakeStore }

func (r fakeScheduleRepo) sorted() []models.ScheduleItem {
	out := append([]models.ScheduleItem{}, r.schedule...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r fakeScheduleRepo) List(_ context.Context, eventID *string) ([]models.ScheduleItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ScheduleItem
	for _, it := range r.sorted() {
		if eventID != nil && it.EventID != *eventID {
			continue
		}
		if e, ok := r.events[it.EventID]; ok {
			cp := *e
			it.Event = &cp
		}
		out = append(out, it)
	}
	return out, nil
}

func (r fakeScheduleRepo) ListForUpdate(_ context.Context, _ repositories.SQLExecutor) ([]models.ScheduleItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.lockForList(); err != nil {
		return nil, err
	}
	return r.sorted(), nil
}

func (r fakeScheduleRepo) GetByEvent(_ context.Context, _ repositories.SQLExecutor, eventID string) (*models.ScheduleItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.schedule {
		if it.EventID == eventID {
			cp := it
			return &cp, nil
		}
	}
	return nil, repositories.ErrScheduleItemNotFound
}

func (r fakeScheduleRepo) NextOrder(_ context.Context, _ repositories.SQLExecutor) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 0
	for _, it := range r.schedule {
		if it.Order+1 > next {
			next = it.Order + 1
		}
	}
	return next, nil
}

func (r fakeScheduleRepo) Create(_ context.Context, _ repositories.SQLExecutor, item *models.ScheduleItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[item.EventID]; !ok {
		return repositories.ErrScheduleEventInvalid
	}
	for _, it := range r.schedule {
		if it.EventID == item.EventID {
			return repositories.ErrScheduleItemExists
		}
	}
	item.ID = r.nextID("si")
	item.CreatedAt = r.tick()
	item.UpdatedAt = item.CreatedAt
	r.schedule = append(r.schedule, *item)
	return nil
}

func (r fakeScheduleRepo) DeleteByEvent(_ context.Context, _ repositories.SQLExecutor, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.schedule {
		if it.EventID == eventID {
			r.schedule = append(r.schedule[:i], r.schedule[i+1:]...)
			return nil
		}
	}
	return repositories.ErrScheduleItemNotFound
}

func (r fakeScheduleRepo) SwapOrder(_ context.Context, _ repositories.SQLExecutor, a, b *models.ScheduleItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.schedule {
		switch r.schedule[i].ID {
		case a.ID:
			r.schedule[i].Order = b.Order
		case b.ID:
			r.schedule[i].Order = a.Order
		}
	}
	return nil
}

type fakeSectionRepo struct{ *fakeStore }

func (r fakeSectionRepo) Create(_ context.Context, sec *models.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sec.ID = r.nextID("sec")
	sec.CreatedAt = r.tick()
	sec.UpdatedAt = sec.CreatedAt
	r.sections = append(r.sections, *sec)
	return nil
}

func (r fakeSectionRepo) GetByID(_ context.Context, id string) (*models.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sec := range r.sections {
		if sec.ID == id {
			cp := sec
			return &cp, nil
		}
	}
	return nil, repositories.ErrSectionNotFound
}

func (r fakeSectionRepo) ListForUpdate(_ context.Context, _ repositories.SQLExecutor) ([]models.Section, error) {
	r.mu.Lock()
	if err := r.lockForList(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.mu.Unlock()
	return r.List(context.Background())
}

func (r fakeSectionRepo) List(_ context.Context) ([]models.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.Section{}, r.sections...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r fakeSectionRepo) Update(_ context.Context, sec *models.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sections {
		if r.sections[i].ID == sec.ID {
			sec.CreatedAt = r.sections[i].CreatedAt
			r.sections[i] = *sec
			return nil
		}
	}
	return repositories.ErrSectionNotFound
}

func (r fakeSectionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sections {
		if r.sections[i].ID == id {
			r.sections = append(r.sections[:i], r.sections[i+1:]...)
			for _, e := range r.events {
				if e.SectionID != nil && *e.SectionID == id {
					e.SectionID = nil
				}
			}
			return nil
		}
	}
	return repositories.ErrSectionNotFound
}

func (r fakeSectionRepo) SwapOrder(_ context.Context, _ repositories.SQLExecutor, a, b *models.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sections {
		switch r.sections[i].ID {
		case a.ID:
			r.sections[i].Order = b.Order
		case b.ID:
			r.sections[i].Order = a.Order
		}
	}
	return nil
}

type fakeBannerRepo struct{ *fakeStore }

func (r fakeBannerRepo) GetOrCreateDefault(_ context.Context) (*models.MessageBanner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.banner == nil {
		b := models.DefaultBanner()
		b.UpdatedAt = r.tick()
		r.banner = &b
	}
	cp := *r.banner
	return &cp, nil
}

func (r fakeBannerRepo) Upsert(_ context.Context, b *models.MessageBanner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.UpdatedAt = r.tick()
	cp := *b
	r.banner = &cp
	return nil
}

// recordingMailer запоминает отправленные письма; failFor заставляет падать доставку на адрес.
type recordingMailer struct {
	mu      sync.Mutex
	sent    []Message
	failFor map[string]error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, to := range msg.To {
		if err, ok := m.failFor[strings.ToLower(to)]; ok {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message{}, m.sent...)
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []live.Message
}

func (p *recordingPublisher) BroadcastToRoom(_ string, message interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := message.(live.Message); ok {
		p.messages = append(p.messages, m)
	}
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.Type
	}
	return out
}

type recordingCache struct {
	cache.Noop
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) InvalidateTags(_ context.Context, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, tags...)
	return nil
}

func (c *recordingCache) tags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.invalidated...)
}

// fakeUploader хранит объекты в памяти и считает удаления по ключу.
type fakeUploader struct {
	mu        sync.Mutex
	base      string
	objects   map[string][]byte
	deletes   map[string]int
	deleteErr map[string]error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{
		base:      "https://media.example.com",
		objects:   make(map[string][]byte),
		deletes:   make(map[string]int),
		deleteErr: make(map[string]error),
	}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deletes[key]++
	return u.deleteErr[key]
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return u.base + "/" + key
}

func (u *fakeUploader) KeyFromURL(rawURL string) string {
	return storage.KeyFromURL(u.base, rawURL)
}

func (u *fakeUploader) deleteCount(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.deletes[key]
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv собирает все сервисы поверх одного fakeStore.
type testEnv struct {
	store     *fakeStore
	mailer    *recordingMailer
	publisher *recordingPublisher
	cache     *recordingCache
	uploader  *fakeUploader
	fx        SideEffects

	events   EventService
	signups  SignupService
	schedule ScheduleService
	sections SectionService
	banner   BannerService
	notifier NotificationService
	contact  ContactService
	calendar CalendarService
	qrcodes  QRCodeService
	uploads  UploadService
}

const testAdminEmail = "admin@jax.test"

func newTestEnv(limiter RateLimiter) *testEnv {
	if limiter == nil {
		limiter = allowAll{}
	}
	logger := discardLogger()
	store := newFakeStore()
	env := &testEnv{
		store:     store,
		mailer:    &recordingMailer{},
		publisher: &recordingPublisher{},
		cache:     &recordingCache{},
		uploader:  newFakeUploader(),
	}
	env.fx = SideEffects{
		Tasks:  tasks.Inline{Logger: logger},
		Cache:  env.cache,
		Live:   env.publisher,
		Logger: logger,
	}

	events := fakeEventRepo{store}
	signups := fakeSignupRepo{store}
	links := fakeLinkRepo{store}
	sched := fakeScheduleRepo{store}

	env.notifier = NewNotificationService(env.mailer, events, signups, testAdminEmail)
	env.events = NewEventService(store, events, signups, links, sched, env.uploader, env.fx)
	env.signups = NewSignupService(store, events, signups, limiter, env.notifier, env.fx)
	env.schedule = NewScheduleService(store, events, sched, env.fx)
	env.sections = NewSectionService(store, fakeSectionRepo{store}, env.fx)
	env.banner = NewBannerService(fakeBannerRepo{store}, env.fx)
	env.contact = NewContactService(env.mailer, testAdminEmail)
	env.calendar = NewCalendarService(events, CalendarConfig{
		Name:            "JAX Darts Bar Event",
		DefaultLocation: "JAX Darts Bar",
		PublicBaseURL:   "https://jax.example.com/",
	})
	env.qrcodes = NewQRCodeService(events, "https://jax.example.com", nil)
	env.uploads = NewUploadService(env.uploader, logger)
	return env
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

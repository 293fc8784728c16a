package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/campus-events/server/internal/api/middleware"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/registrations"
	"github.com/campus-events/server/internal/domain/users"
	"github.com/golang-jwt/jwt/v5"
)

const testEnv = "test"

func authedRequest(r *http.Request, userID int64, role, name, email string) *http.Request {
	claims := &auth.Claims{
		Role:  role,
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: strconv.FormatInt(userID, 10),
		},
	}
	return r.WithContext(middleware.ContextWithClaims(r.Context(), claims))
}

type mockUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]*users.User
	byID    map[int64]*users.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byEmail: make(map[string]*users.User),
		byID:    make(map[int64]*users.User),
	}
}

func (m *mockUserRepo) Create(_ context.Context, params users.CreateParams) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[params.Email]; exists {
		return nil, users.ErrEmailTaken
	}
	m.nextID++
	user := &users.User{
		ID:           m.nextID,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    time.Now(),
	}
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

type mockEventRepo struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]*events.Event
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[int64]*events.Event)}
}

func (m *mockEventRepo) put(event events.Event) *events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.ID == 0 {
		m.nextID++
		event.ID = m.nextID
	} else if event.ID > m.nextID {
		m.nextID = event.ID
	}
	stored := event
	m.events[stored.ID] = &stored
	return &stored
}

func (m *mockEventRepo) List(_ context.Context, filters events.Filters, pagination events.Pagination) (events.ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := events.ListResult{Page: pagination.Page, Limit: pagination.Limit}
	for _, event := range m.events {
		if filters.Status != "" && event.Status != filters.Status {
			continue
		}
		result.Events = append(result.Events, *event)
	}
	result.Total = len(result.Events)
	return result, nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id int64) (*events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (m *mockEventRepo) Create(_ context.Context, params events.CreateParams) (*events.Event, error) {
	return m.put(events.Event{
		Title:           params.Title,
		Description:     params.Description,
		Category:        params.Category,
		Location:        params.Location,
		EventDate:       params.EventDate,
		EventTime:       params.EventTime,
		ImageURL:        params.ImageURL,
		MaxParticipants: params.MaxParticipants,
		Status:          params.Status,
		CreatedBy:       params.CreatedBy,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}), nil
}

func (m *mockEventRepo) Update(_ context.Context, id int64, params events.UpdateParams) (*events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	if params.Title != nil {
		event.Title = *params.Title
	}
	if params.Description != nil {
		event.Description = *params.Description
	}
	if params.EventDate != nil {
		event.EventDate = *params.EventDate
	}
	if params.MaxParticipants != nil {
		event.MaxParticipants = *params.MaxParticipants
	}
	if params.Status != nil {
		event.Status = *params.Status
	}
	event.UpdatedAt = time.Now()
	copied := *event
	return &copied, nil
}

func (m *mockEventRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return events.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *mockEventRepo) MarkPast(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for _, event := range m.events {
		if event.Status == events.StatusUpcoming && event.EventDate.Before(cutoff) {
			event.Status = events.StatusPast
			changed++
		}
	}
	return changed, nil
}

type mockRegistrationRepo struct {
	mu            sync.Mutex
	txMu          sync.Mutex
	nextID        int64
	events        *mockEventRepo
	registrations map[int64]*registrations.Registration
}

func newMockRegistrationRepo(eventRepo *mockEventRepo) *mockRegistrationRepo {
	return &mockRegistrationRepo{
		events:        eventRepo,
		registrations: make(map[int64]*registrations.Registration),
	}
}

func (m *mockRegistrationRepo) WithTx(ctx context.Context, fn func(context.Context, registrations.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *mockRegistrationRepo) GetEventForUpdate(ctx context.Context, eventID int64) (*events.Event, error) {
	return m.events.GetByID(ctx, eventID)
}

func (m *mockRegistrationRepo) Find(_ context.Context, userID, eventID int64) (*registrations.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, reg := range m.registrations {
		if reg.UserID == userID && reg.EventID == eventID {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, registrations.ErrNotRegistered
}

func (m *mockRegistrationRepo) Create(_ context.Context, params registrations.CreateParams) (*registrations.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	reg := &registrations.Registration{
		ID:               m.nextID,
		UserID:           params.UserID,
		EventID:          params.EventID,
		ConfirmationCode: params.ConfirmationCode,
		RegisteredAt:     time.Now(),
	}
	m.registrations[reg.ID] = reg
	copied := *reg
	return &copied, nil
}

func (m *mockRegistrationRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.registrations[id]; !ok {
		return registrations.ErrNotRegistered
	}
	delete(m.registrations, id)
	return nil
}

func (m *mockRegistrationRepo) IncrementEventCount(_ context.Context, eventID int64) error {
	m.events.mu.Lock()
	defer m.events.mu.Unlock()
	event, ok := m.events.events[eventID]
	if !ok {
		return events.ErrNotFound
	}
	event.RegisteredCount++
	return nil
}

func (m *mockRegistrationRepo) DecrementEventCount(_ context.Context, eventID int64) (bool, error) {
	m.events.mu.Lock()
	defer m.events.mu.Unlock()
	event, ok := m.events.events[eventID]
	if !ok {
		return false, events.ErrNotFound
	}
	if event.RegisteredCount == 0 {
		return true, nil
	}
	event.RegisteredCount--
	return false, nil
}

func (m *mockRegistrationRepo) ListByUser(ctx context.Context, userID int64) ([]registrations.UserRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []registrations.UserRegistration
	for _, reg := range m.registrations {
		if reg.UserID != userID {
			continue
		}
		event, err := m.events.GetByID(ctx, reg.EventID)
		if err != nil {
			return nil, err
		}
		out = append(out, registrations.UserRegistration{Registration: *reg, Event: *event})
	}
	return out, nil
}

func (m *mockRegistrationRepo) ListByEvent(_ context.Context, eventID int64) ([]registrations.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []registrations.Attendee
	for _, reg := range m.registrations {
		if reg.EventID != eventID {
			continue
		}
		out = append(out, registrations.Attendee{
			RegistrationID:   reg.ID,
			UserID:           reg.UserID,
			ConfirmationCode: reg.ConfirmationCode,
			RegisteredAt:     reg.RegisteredAt,
		})
	}
	return out, nil
}

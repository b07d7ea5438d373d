package service

import (
	"context"
	"sort"
	"time"

	"github.com/newit5s/tablebook/internal/domain"
	"github.com/newit5s/tablebook/internal/repository"
)

// In-memory fakes for the repository interfaces. They mimic the SQL
// ordering and filtering that the services rely on.

type mockBookingRepo struct {
	bookings []domain.Booking
	nextID   int64
	err      error
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{nextID: 1}
}

func (m *mockBookingRepo) add(b domain.Booking) *domain.Booking {
	if b.ID == 0 {
		b.ID = m.nextID
	}
	if b.ID >= m.nextID {
		m.nextID = b.ID + 1
	}
	m.bookings = append(m.bookings, b)
	return &m.bookings[len(m.bookings)-1]
}

func (m *mockBookingRepo) find(id int64) *domain.Booking {
	for i := range m.bookings {
		if m.bookings[i].ID == id {
			return &m.bookings[i]
		}
	}
	return nil
}

func (m *mockBookingRepo) Create(_ context.Context, req *domain.CreateBookingRequest, date time.Time, checkinTime, checkoutTime, token string, tokenExpires time.Time) (*domain.Booking, error) {
	if m.err != nil {
		return nil, m.err
	}
	now := time.Now()
	return m.add(domain.Booking{
		LocationID:          req.LocationID,
		Status:              domain.BookingPending,
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		CustomerEmail:       req.CustomerEmail,
		GuestCount:          req.GuestCount,
		BookingDate:         date,
		CheckinTime:         checkinTime,
		CheckoutTime:        checkoutTime,
		ConfirmationToken:   &token,
		ConfirmationExpires: &tokenExpires,
		Source:              req.Source,
		Language:            req.Language,
		Notes:               req.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}), nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if m.err != nil {
		return nil, m.err
	}
	b := m.find(id)
	if b == nil {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookingRepo) GetByToken(_ context.Context, token string) (*domain.Booking, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.bookings {
		b := &m.bookings[i]
		if b.ConfirmationToken != nil && *b.ConfirmationToken == token {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockBookingRepo) List(_ context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Booking
	for _, b := range m.bookings {
		if filter.LocationID != 0 && b.LocationID != filter.LocationID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *mockBookingRepo) activeOn(locationID int64, date time.Time, excludeID int64) []domain.Booking {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.LocationID != locationID || b.ID == excludeID {
			continue
		}
		if !b.BookingDate.Equal(date) {
			continue
		}
		if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (m *mockBookingRepo) ListActiveForDate(_ context.Context, locationID int64, date time.Time, excludeID int64) ([]domain.Booking, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.activeOn(locationID, date, excludeID), nil
}

func (m *mockBookingRepo) ListActiveForTable(_ context.Context, locationID int64, date time.Time, tableNumber int, excludeID int64) ([]domain.Booking, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Booking
	for _, b := range m.activeOn(locationID, date, excludeID) {
		if b.TableNumber != nil && *b.TableNumber == tableNumber {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) Confirm(_ context.Context, id int64, tableNumber int, at time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	b := m.find(id)
	if b == nil || b.Status != domain.BookingPending {
		return false, nil
	}
	b.Status = domain.BookingConfirmed
	b.TableNumber = &tableNumber
	b.ConfirmedAt = &at
	b.UpdatedAt = at
	return true, nil
}

func (m *mockBookingRepo) ClearConfirmationToken(_ context.Context, id int64, via string) error {
	if m.err != nil {
		return m.err
	}
	if b := m.find(id); b != nil {
		b.ConfirmationToken = nil
		b.ConfirmationExpires = nil
		b.ConfirmedVia = via
	}
	return nil
}

func (m *mockBookingRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	b := m.find(id)
	if b == nil {
		return false, nil
	}
	b.Status = status
	return true, nil
}

func (m *mockBookingRepo) SetActualCheckin(_ context.Context, id int64, at time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	b := m.find(id)
	if b == nil {
		return false, nil
	}
	b.ActualCheckin = &at
	return true, nil
}

func (m *mockBookingRepo) SetActualCheckout(_ context.Context, id int64, at, cleanupCompletedAt time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	b := m.find(id)
	if b == nil {
		return false, nil
	}
	b.ActualCheckout = &at
	b.CleanupCompletedAt = &cleanupCompletedAt
	return true, nil
}

func (m *mockBookingRepo) Stats(_ context.Context, locationID int64) (*domain.LocationStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	stats := &domain.LocationStats{}
	for _, b := range m.bookings {
		if locationID != 0 && b.LocationID != locationID {
			continue
		}
		stats.Total++
		switch b.Status {
		case domain.BookingPending:
			stats.Pending++
		case domain.BookingConfirmed:
			stats.Confirmed++
		case domain.BookingCompleted:
			stats.Completed++
		case domain.BookingCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

type mockTableRepo struct {
	tables []domain.Table
	err    error
}

func (m *mockTableRepo) find(id int64) *domain.Table {
	for i := range m.tables {
		if m.tables[i].ID == id {
			return &m.tables[i]
		}
	}
	return nil
}

func (m *mockTableRepo) bookable(locationID int64, minCapacity int) []domain.Table {
	var out []domain.Table
	for _, t := range m.tables {
		if t.LocationID == locationID && t.IsAvailable && t.Capacity >= minCapacity {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity < out[j].Capacity
		}
		return out[i].TableNumber < out[j].TableNumber
	})
	return out
}

func (m *mockTableRepo) ListBookable(_ context.Context, locationID int64, minCapacity int) ([]domain.Table, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bookable(locationID, minCapacity), nil
}

func (m *mockTableRepo) ListByLocation(_ context.Context, locationID int64) ([]domain.Table, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Table
	for _, t := range m.tables {
		if t.LocationID == locationID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	return out, nil
}

func (m *mockTableRepo) CountBookable(_ context.Context, locationID int64) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.bookable(locationID, 0)), nil
}

func (m *mockTableRepo) TotalCapacity(_ context.Context, locationID int64) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	total := 0
	for _, t := range m.bookable(locationID, 0) {
		total += t.Capacity
	}
	return total, nil
}

func (m *mockTableRepo) GetByID(_ context.Context, id int64) (*domain.Table, error) {
	if m.err != nil {
		return nil, m.err
	}
	t := m.find(id)
	if t == nil {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (m *mockTableRepo) GetByNumber(_ context.Context, locationID int64, tableNumber int) (*domain.Table, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.tables {
		if m.tables[i].LocationID == locationID && m.tables[i].TableNumber == tableNumber {
			copied := m.tables[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockTableRepo) UpdateStatus(_ context.Context, id int64, status domain.TableStatus, lastBookingID *int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	t := m.find(id)
	if t == nil {
		return false, nil
	}
	now := time.Now()
	t.CurrentStatus = status
	t.StatusUpdatedAt = &now
	t.LastBookingID = lastBookingID
	return true, nil
}

type mockLocationRepo struct {
	settings map[int64]*domain.LocationSettings
	err      error
}

func (m *mockLocationRepo) GetSettings(_ context.Context, locationID int64) (*domain.LocationSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.settings[locationID], nil
}

type mockScheduler struct {
	scheduled map[string]time.Time
	cancelled []string
}

func newMockScheduler() *mockScheduler {
	return &mockScheduler{scheduled: make(map[string]time.Time)}
}

func (m *mockScheduler) Schedule(_ context.Context, taskID string, at time.Time) error {
	m.scheduled[taskID] = at
	return nil
}

func (m *mockScheduler) Cancel(_ context.Context, taskID string) error {
	delete(m.scheduled, taskID)
	m.cancelled = append(m.cancelled, taskID)
	return nil
}

type publishedEvent struct {
	subject string
	payload interface{}
}

type mockBus struct {
	published []publishedEvent
}

func (m *mockBus) Publish(_ context.Context, subject string, data interface{}) error {
	m.published = append(m.published, publishedEvent{subject: subject, payload: data})
	return nil
}

func (m *mockBus) Close() error { return nil }

func (m *mockBus) subjects() []string {
	out := make([]string, 0, len(m.published))
	for _, e := range m.published {
		out = append(out, e.subject)
	}
	return out
}

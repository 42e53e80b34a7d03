package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/models"
)

// SessionStore keeps in-progress checkout sessions until they expire
type SessionStore interface {
	Save(ctx context.Context, session *models.CheckoutSession, ttl time.Duration) error
	// Get returns models.ErrNotFound for unknown or expired sessions
	Get(ctx context.Context, id string) (*models.CheckoutSession, error)
	Delete(ctx context.Context, id string) error
}

// CheckoutSessionService walks a user through seat selection, passenger details
// and payment. Seats are not held by a session; the coordinator decides at
// completion time.
type CheckoutSessionService struct {
	sessions    SessionStore
	coordinator *BookingCoordinator
	inventory   *SeatInventory
	ttl         time.Duration
	logger      *logrus.Logger
}

// NewCheckoutSessionService creates a new CheckoutSessionService
func NewCheckoutSessionService(
	sessions SessionStore,
	coordinator *BookingCoordinator,
	inventory *SeatInventory,
	ttl time.Duration,
	logger *logrus.Logger,
) *CheckoutSessionService {
	return &CheckoutSessionService{
		sessions:    sessions,
		coordinator: coordinator,
		inventory:   inventory,
		ttl:         ttl,
		logger:      logger,
	}
}

// Start opens a session for a seat selection that currently looks available
func (s *CheckoutSessionService) Start(ctx context.Context, user string, req *models.StartCheckoutRequest) (*models.CheckoutSession, error) {
	if strings.TrimSpace(user) == "" {
		return nil, models.NewValidationError("user", "identity is required")
	}
	if len(req.Seats) == 0 {
		return nil, models.NewValidationError("selected_seats", "must contain at least one seat")
	}

	seatMap, err := s.inventory.SeatMap(ctx, req.TripID, req.Date)
	if err != nil {
		return nil, err
	}

	seats := make([]string, 0, len(req.Seats))
	seen := make(map[string]bool, len(req.Seats))
	for _, raw := range req.Seats {
		label := strings.ToUpper(strings.TrimSpace(raw))
		if !models.IsValidSeatLabel(label, seatMap.Capacity) {
			return nil, models.NewValidationError("selected_seats", fmt.Sprintf("seat %q does not exist on this bus", raw))
		}
		if seen[label] {
			return nil, models.NewValidationError("selected_seats", fmt.Sprintf("seat %s selected more than once", label))
		}
		seen[label] = true
		seats = append(seats, label)
	}
	models.SortSeatLabels(seats)

	var taken []string
	for _, label := range seatMap.Occupied {
		if seen[label] {
			taken = append(taken, label)
		}
	}
	if len(taken) > 0 {
		return nil, &models.ConflictError{TripID: req.TripID, Date: req.Date, Seats: taken}
	}

	now := time.Now().UTC()
	session := &models.CheckoutSession{
		ID:             uuid.New().String(),
		UserIdentity:   user,
		TripID:         req.TripID,
		Date:           req.Date,
		Seats:          seats,
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
		TotalAmount:    seatMap.Price * float64(len(seats)),
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}

	if err := s.sessions.Save(ctx, session, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save checkout session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"trip_id":    session.TripID,
		"date":       session.Date,
		"seats":      session.Seats,
	}).Info("Checkout session started")

	return session, nil
}

// Get returns the caller's session; another user's session is reported as not found
func (s *CheckoutSessionService) Get(ctx context.Context, id, user string) (*models.CheckoutSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserIdentity != user {
		return nil, fmt.Errorf("checkout session %s: %w", id, models.ErrNotFound)
	}
	return session, nil
}

// SetPassenger attaches passenger details to the session
func (s *CheckoutSessionService) SetPassenger(ctx context.Context, id, user string, passenger *models.PassengerInfo) (*models.CheckoutSession, error) {
	session, err := s.Get(ctx, id, user)
	if err != nil {
		return nil, err
	}

	session.Passenger = passenger
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil, fmt.Errorf("checkout session %s: %w", id, models.ErrNotFound)
	}
	if err := s.sessions.Save(ctx, session, ttl); err != nil {
		return nil, fmt.Errorf("failed to save checkout session: %w", err)
	}
	return session, nil
}

// Complete runs the checkout with the session's selection and deletes the session on success
func (s *CheckoutSessionService) Complete(ctx context.Context, id, user string, payment *models.PaymentInfo) (*models.BookingRecord, error) {
	session, err := s.Get(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if session.Passenger == nil {
		return nil, models.NewValidationError("passenger", "details are required before payment")
	}

	record, err := s.coordinator.Checkout(ctx, &models.CheckoutRequest{
		TripID:         session.TripID,
		Date:           session.Date,
		Seats:          session.Seats,
		PickupLocation: session.PickupLocation,
		DropLocation:   session.DropLocation,
		Passenger:      *session.Passenger,
		Payment:        *payment,
		UserIdentity:   session.UserIdentity,
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		s.logger.WithField("session_id", id).WithError(err).Warn("Failed to delete completed checkout session")
	}
	return record, nil
}

// ============================================================================
// IN-MEMORY SESSION STORE
// ============================================================================

type memorySession struct {
	session   models.CheckoutSession
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory. Used when Redis is not configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

// NewMemorySessionStore creates an empty MemorySessionStore
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Save(ctx context.Context, session *models.CheckoutSession, ttl time.Duration) error {
	if session == nil || session.ID == "" {
		return errors.New("session id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = memorySession{session: *session, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (*models.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("checkout session %s: %w", id, models.ErrNotFound)
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.sessions, id)
		return nil, fmt.Errorf("checkout session %s: %w", id, models.ErrNotFound)
	}
	session := entry.session
	return &session, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// PurgeExpired drops expired sessions and returns how many were removed
func (m *MemorySessionStore) PurgeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/smarttransit/seat-reservation/internal/database"
	"github.com/smarttransit/seat-reservation/internal/models"
	"github.com/stretchr/testify/require"
)

type recordedNotification struct {
	to      string
	subject string
	fields  map[string]string
}

// recordingNotifier captures notifications and optionally fails them
type recordingNotifier struct {
	mu   sync.Mutex
	sent []recordedNotification
	err  error
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Send(ctx context.Context, to, subject string, fields map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recordedNotification{to: to, subject: subject, fields: fields})
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type testEnv struct {
	store       database.Store
	logger      *logrus.Logger
	hook        *logtest.Hook
	notifier    *recordingNotifier
	catalog     *TripCatalog
	inventory   *SeatInventory
	ledger      *BookingLedger
	coordinator *BookingCoordinator
	aggregator  *RevenueAggregator
}

func setupServicesTest(t *testing.T) *testEnv {
	t.Helper()
	store, err := database.NewFileStore(filepath.Join(t.TempDir(), "buses.json"))
	require.NoError(t, err)
	return newTestEnv(store)
}

func newTestEnv(store database.Store) *testEnv {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	notifier := &recordingNotifier{}
	inventory := NewSeatInventory(store, logger)
	ledger := NewBookingLedger(store, logger)

	return &testEnv{
		store:       store,
		logger:      logger,
		hook:        hook,
		notifier:    notifier,
		catalog:     NewTripCatalog(store, logger),
		inventory:   inventory,
		ledger:      ledger,
		coordinator: NewBookingCoordinator(store, inventory, ledger, notifier, time.Second, logger),
		aggregator:  NewRevenueAggregator(store, logger),
	}
}

func (e *testEnv) createTrip(t *testing.T, name, price, capacity string) *models.Trip {
	t.Helper()
	trip, err := e.catalog.Create(context.Background(), &models.TripDraft{
		Name:        name,
		Source:      "Colombo",
		Destination: "Kandy",
		Departure:   "2024-05-01 08:00",
		Arrival:     "2024-05-01 11:30",
		Price:       json.Number(price),
		Capacity:    json.Number(capacity),
	})
	require.NoError(t, err)
	return trip
}

func checkoutRequest(tripID int64, date string, seats ...string) *models.CheckoutRequest {
	return &models.CheckoutRequest{
		TripID: tripID,
		Date:   date,
		Seats:  seats,
		Passenger: models.PassengerInfo{
			Name:  "Alice Perera",
			Phone: "077 123 4567",
			Email: "alice@example.com",
			Age:   30,
		},
		Payment:      models.PaymentInfo{TransactionID: "TXN-" + date + "-" + seats[0]},
		UserIdentity: "alice",
	}
}

// failingCommitStore runs the callback but discards its writes and reports a failed commit
type failingCommitStore struct {
	database.Store
}

var errDiscard = errors.New("discard")

func (s *failingCommitStore) Update(ctx context.Context, fn func(tx database.Tx) error) error {
	err := s.Store.Update(ctx, func(tx database.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errDiscard
	})
	if errors.Is(err, errDiscard) {
		return &models.StoreError{Op: "commit transaction", Err: errors.New("disk full")}
	}
	return err
}

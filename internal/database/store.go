package database

import (
	"context"

	"github.com/smarttransit/seat-reservation/internal/models"
)

// Store persists trips together with their date-scoped occupancy and booking ledger.
// Update is the only write path; it is a critical section with respect to every
// other Update on the same store.
type Store interface {
	// View runs fn against a consistent read snapshot. Mutating Tx methods fail.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update runs fn as one atomic mutation. If fn returns an error nothing is
	// persisted; if the durable write fails the error wraps models.ErrStoreFailure.
	Update(ctx context.Context, fn func(tx Tx) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Tx exposes trip, occupancy and ledger operations scoped to one View or Update
type Tx interface {
	// Trips
	ListTrips() ([]models.Trip, error)
	GetTrip(id int64) (*models.Trip, error)
	InsertTrip(trip *models.Trip) error
	DeleteTrip(id int64) (bool, error)

	// Date-scoped occupancy
	OccupiedSeats(tripID int64, date string) ([]string, error)
	OccupancyByDate(tripID int64) (map[string][]string, error)
	AddOccupied(tripID int64, date string, labels []string) error
	RemoveOccupied(tripID int64, date, label string) (bool, error)
	ReplaceOccupied(tripID int64, date string, labels []string) error

	// Booking ledger
	PutSeatBooking(tripID int64, date, label string, record *models.BookingRecord) error
	GetSeatBooking(tripID int64, date, label string) (*models.BookingRecord, error)
	SeatBookings(tripID int64, date string) (map[string]models.BookingRecord, error)
	LedgerDates(tripID int64) ([]string, error)
	DeleteSeatBooking(tripID int64, date, label string) (bool, error)
	BookingsForUser(userIdentity string) ([]models.BookingRecord, error)
}

package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/database"
	"github.com/smarttransit/seat-reservation/internal/models"
)

// BookingLedger stores the booking record behind every sold seat
type BookingLedger struct {
	store  database.Store
	logger *logrus.Logger
}

// NewBookingLedger creates a new BookingLedger
func NewBookingLedger(store database.Store, logger *logrus.Logger) *BookingLedger {
	return &BookingLedger{store: store, logger: logger}
}

// Record stores (or overwrites) the record for one seat
func (l *BookingLedger) Record(tx database.Tx, tripID int64, date, label string, record *models.BookingRecord) error {
	if err := tx.PutSeatBooking(tripID, date, label, record); err != nil {
		return fmt.Errorf("failed to record seat %s: %w", label, err)
	}
	return nil
}

// Lookup returns the record for one seat or models.ErrNotFound
func (l *BookingLedger) Lookup(ctx context.Context, tripID int64, date, label string) (*models.BookingRecord, error) {
	var record *models.BookingRecord
	err := l.store.View(ctx, func(tx database.Tx) error {
		var err error
		record, err = tx.GetSeatBooking(tripID, date, label)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ForDate returns seat label -> record for one trip and date
func (l *BookingLedger) ForDate(ctx context.Context, tripID int64, date string) (map[string]models.BookingRecord, error) {
	var bookings map[string]models.BookingRecord
	err := l.store.View(ctx, func(tx database.Tx) error {
		if _, err := tx.GetTrip(tripID); err != nil {
			return err
		}
		var err error
		bookings, err = tx.SeatBookings(tripID, date)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ForUser returns the user's distinct bookings across all trips, newest first
func (l *BookingLedger) ForUser(ctx context.Context, userIdentity string) ([]models.BookingRecord, error) {
	records := []models.BookingRecord{}
	err := l.store.View(ctx, func(tx database.Tx) error {
		found, err := tx.BookingsForUser(userIdentity)
		if err != nil {
			return err
		}
		records = append(records, models.UniqueBookings(found)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get booking history: %w", err)
	}
	return records, nil
}

// Erase removes the record for one seat; erasing a missing record is a no-op
func (l *BookingLedger) Erase(tx database.Tx, tripID int64, date, label string) error {
	erased, err := tx.DeleteSeatBooking(tripID, date, label)
	if err != nil {
		return fmt.Errorf("failed to erase seat %s: %w", label, err)
	}
	if !erased {
		l.logger.WithFields(logrus.Fields{
			"trip_id": tripID,
			"date":    date,
			"seat":    label,
		}).Debug("No ledger entry to erase")
	}
	return nil
}

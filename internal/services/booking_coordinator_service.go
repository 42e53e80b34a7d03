package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/database"
	"github.com/smarttransit/seat-reservation/internal/models"
	"github.com/smarttransit/seat-reservation/pkg/notify"
	"github.com/smarttransit/seat-reservation/pkg/validator"
)

// BookingCoordinator is the only writer of occupancy and the booking ledger.
// Every checkout and cancellation runs as one store Update so the two
// structures never disagree.
type BookingCoordinator struct {
	store         database.Store
	inventory     *SeatInventory
	ledger        *BookingLedger
	notifier      notify.Notifier
	notifyTimeout time.Duration
	phones        *validator.PhoneValidator
	logger        *logrus.Logger
}

// NewBookingCoordinator creates a new BookingCoordinator
func NewBookingCoordinator(
	store database.Store,
	inventory *SeatInventory,
	ledger *BookingLedger,
	notifier notify.Notifier,
	notifyTimeout time.Duration,
	logger *logrus.Logger,
) *BookingCoordinator {
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &BookingCoordinator{
		store:         store,
		inventory:     inventory,
		ledger:        ledger,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		phones:        validator.NewPhoneValidator(),
		logger:        logger,
	}
}

// ============================================================================
// CHECKOUT
// ============================================================================

// Checkout sells the requested seats as one booking.
// Returns a ValidationError for bad input, models.ErrNotFound for an unknown trip,
// a ConflictError when any seat is already sold and a StoreError when the write
// could not be persisted. Nothing is written unless the whole checkout succeeds.
func (c *BookingCoordinator) Checkout(ctx context.Context, req *models.CheckoutRequest) (*models.BookingRecord, error) {
	seats, err := c.validateCheckout(req)
	if err != nil {
		return nil, err
	}

	var (
		trip   *models.Trip
		record *models.BookingRecord
	)
	err = c.store.Update(ctx, func(tx database.Tx) error {
		var err error
		trip, err = tx.GetTrip(req.TripID)
		if err != nil {
			return err
		}

		for _, label := range seats {
			if !models.IsValidSeatLabel(label, trip.Capacity) {
				return models.NewValidationError("selected_seats", fmt.Sprintf("seat %s does not exist on this bus", label))
			}
		}

		if err := c.inventory.Reserve(tx, trip.ID, req.Date, seats); err != nil {
			return err
		}

		record = c.buildRecord(trip, req, seats)
		for _, label := range seats {
			if err := c.ledger.Record(tx, trip.ID, req.Date, label, record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			c.logger.WithFields(logrus.Fields{
				"trip_id": req.TripID,
				"date":    req.Date,
				"seats":   seats,
			}).WithError(err).Info("Checkout rejected: seats already booked")
		}
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"booking_id":     record.BookingID,
		"trip_id":        record.TripID,
		"date":           record.TripDate,
		"seats":          []string(record.Seats),
		"amount":         record.Amount,
		"transaction_id": record.TransactionID,
		"user":           record.UserIdentity,
	}).Info("Booking confirmed")

	c.notifyBooking(ctx, trip, record)

	return record, nil
}

// validateCheckout checks caller input and returns the normalized seat labels
func (c *BookingCoordinator) validateCheckout(req *models.CheckoutRequest) ([]string, error) {
	if req == nil {
		return nil, models.NewValidationError("", "checkout request is required")
	}
	if strings.TrimSpace(req.UserIdentity) == "" {
		return nil, models.NewValidationError("user", "identity is required")
	}
	if req.TripID <= 0 {
		return nil, models.NewValidationError("trip_id", "is required")
	}
	if _, err := models.ParseTravelDate(req.Date); err != nil {
		return nil, err
	}
	if len(req.Seats) == 0 {
		return nil, models.NewValidationError("selected_seats", "must contain at least one seat")
	}

	seats := make([]string, 0, len(req.Seats))
	seen := make(map[string]bool, len(req.Seats))
	for _, raw := range req.Seats {
		label := strings.ToUpper(strings.TrimSpace(raw))
		if models.SeatIndex(label) < 0 {
			return nil, models.NewValidationError("selected_seats", fmt.Sprintf("invalid seat label %q", raw))
		}
		if seen[label] {
			return nil, models.NewValidationError("selected_seats", fmt.Sprintf("seat %s selected more than once", label))
		}
		seen[label] = true
		seats = append(seats, label)
	}
	models.SortSeatLabels(seats)

	p := req.Passenger
	if strings.TrimSpace(p.Name) == "" {
		return nil, models.NewValidationError("name", "is required")
	}
	if _, err := c.phones.Validate(p.Phone); err != nil {
		return nil, models.NewValidationError("phone_number", err.Error())
	}
	if !validator.IsValidEmail(p.Email) {
		return nil, models.NewValidationError("email", "must be a valid email address")
	}
	if p.Age != 0 && (p.Age < 1 || p.Age > 120) {
		return nil, models.NewValidationError("age", "must be between 1 and 120")
	}
	if strings.TrimSpace(req.Payment.TransactionID) == "" {
		return nil, models.NewValidationError("transaction_id", "is required")
	}

	return seats, nil
}

func (c *BookingCoordinator) buildRecord(trip *models.Trip, req *models.CheckoutRequest, seats []string) *models.BookingRecord {
	phone, _ := c.phones.Validate(req.Passenger.Phone)
	return &models.BookingRecord{
		BookingID:            uuid.New().String(),
		TripID:               trip.ID,
		TripDate:             req.Date,
		UserIdentity:         strings.TrimSpace(req.UserIdentity),
		PassengerName:        strings.TrimSpace(req.Passenger.Name),
		PassengerPhone:       phone,
		PassengerEmail:       strings.TrimSpace(req.Passenger.Email),
		PassengerAge:         req.Passenger.Age,
		PassengerGender:      strings.TrimSpace(req.Passenger.Gender),
		Seats:                models.SeatList(seats),
		Amount:               trip.Price * float64(len(seats)),
		TransactionID:        strings.TrimSpace(req.Payment.TransactionID),
		PaymentScreenshotRef: req.Payment.PaymentScreenshotRef,
		PickupLocation:       req.PickupLocation,
		DropLocation:         req.DropLocation,
		CreatedAt:            time.Now().UTC(),
	}
}

// notifyBooking sends the confirmation. Failures are logged and never undo the booking.
func (c *BookingCoordinator) notifyBooking(ctx context.Context, trip *models.Trip, record *models.BookingRecord) {
	if c.notifier == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.notifyTimeout)
	defer cancel()

	subject := fmt.Sprintf("Booking Confirmation - %s", trip.Name)
	if err := c.notifier.Send(notifyCtx, record.PassengerEmail, subject, BookingSummary(trip, record)); err != nil {
		c.logger.WithFields(logrus.Fields{
			"booking_id": record.BookingID,
			"notifier":   c.notifier.Name(),
		}).WithError(err).Warn("Failed to send booking notification")
	}
}

// BookingSummary flattens a booking into the fields sent to the passenger
func BookingSummary(trip *models.Trip, record *models.BookingRecord) map[string]string {
	fields := map[string]string{
		"booking_id":     record.BookingID,
		"trip":           trip.Name,
		"route":          fmt.Sprintf("%s -> %s", trip.Source, trip.Destination),
		"departure":      trip.Departure,
		"arrival":        trip.Arrival,
		"travel_date":    record.TripDate,
		"seats":          strings.Join(record.Seats, ", "),
		"passenger_name": record.PassengerName,
		"phone_number":   record.PassengerPhone,
		"amount":         fmt.Sprintf("%.2f", record.Amount),
		"transaction_id": record.TransactionID,
	}
	if record.PickupLocation != nil {
		fields["pickup_location"] = *record.PickupLocation
	}
	if record.DropLocation != nil {
		fields["drop_location"] = *record.DropLocation
	}
	return fields
}

// ============================================================================
// CANCELLATION
// ============================================================================

// CancelSeat removes one seat from the ledger and then from occupancy in the
// same atomic write. Unknown trips and free seats are no-ops.
func (c *BookingCoordinator) CancelSeat(ctx context.Context, tripID int64, date, label string) error {
	if _, err := models.ParseTravelDate(date); err != nil {
		return err
	}
	label = strings.ToUpper(strings.TrimSpace(label))
	if models.SeatIndex(label) < 0 {
		return models.NewValidationError("seat", fmt.Sprintf("invalid seat label %q", label))
	}

	fields := logrus.Fields{"trip_id": tripID, "date": date, "seat": label}

	err := c.store.Update(ctx, func(tx database.Tx) error {
		if _, err := tx.GetTrip(tripID); err != nil {
			return err
		}
		if err := c.ledger.Erase(tx, tripID, date, label); err != nil {
			return err
		}
		return c.inventory.Release(tx, tripID, date, label)
	})
	if errors.Is(err, models.ErrNotFound) {
		c.logger.WithFields(fields).Info("Cancel requested for unknown trip")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cancel seat: %w", err)
	}

	c.logger.WithFields(fields).Info("Seat cancelled")
	return nil
}

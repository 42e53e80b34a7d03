package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/smarttransit/seat-reservation/internal/models"
)

// writerLockKey is the advisory lock every mutation takes, making Update a
// single logical writer across all service instances sharing the database
const writerLockKey int64 = 0x5eA7

// uniqueViolation is the PostgreSQL error code for a duplicate key
const uniqueViolation = "23505"

const bookingColumns = `
	b.booking_id, b.trip_id, to_char(b.trip_date, 'YYYY-MM-DD') AS trip_date,
	b.user_identity, b.passenger_name, b.passenger_phone, b.passenger_email,
	b.passenger_age, b.passenger_gender, b.seats, b.amount, b.transaction_id,
	b.payment_screenshot_ref, b.pickup_location, b.drop_location, b.created_at`

// PostgresStore implements Store on PostgreSQL tables
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the reservation tables if they do not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// View runs fn inside a read-only transaction
func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return &models.StoreError{Op: "begin read transaction", Err: err}
	}
	defer tx.Rollback()

	return fn(&pgTx{ctx: ctx, tx: tx, readOnly: true})
}

// Update runs fn inside a transaction that holds the writer lock
func (s *PostgresStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &models.StoreError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, writerLockKey); err != nil {
		return &models.StoreError{Op: "acquire writer lock", Err: err}
	}

	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &models.StoreError{Op: "commit transaction", Err: err}
	}
	return nil
}

// Ping verifies the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type pgTx struct {
	ctx      context.Context
	tx       *sqlx.Tx
	readOnly bool
}

func (t *pgTx) write() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *pgTx) ListTrips() ([]models.Trip, error) {
	query := `
		SELECT id, name, source, destination, departure, arrival, price, capacity
		FROM trips
		ORDER BY id
	`

	trips := []models.Trip{}
	if err := t.tx.SelectContext(t.ctx, &trips, query); err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

func (t *pgTx) GetTrip(id int64) (*models.Trip, error) {
	query := `
		SELECT id, name, source, destination, departure, arrival, price, capacity
		FROM trips
		WHERE id = $1
	`

	var trip models.Trip
	if err := t.tx.GetContext(t.ctx, &trip, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trip %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}

func (t *pgTx) InsertTrip(trip *models.Trip) error {
	if err := t.write(); err != nil {
		return err
	}

	query := `
		INSERT INTO trips (id, name, source, destination, departure, arrival, price, capacity)
		SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3, $4, $5, $6, $7 FROM trips
		RETURNING id
	`

	err := t.tx.QueryRowxContext(t.ctx, query,
		trip.Name, trip.Source, trip.Destination,
		trip.Departure, trip.Arrival, trip.Price, trip.Capacity,
	).Scan(&trip.ID)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteTrip(id int64) (bool, error) {
	if err := t.write(); err != nil {
		return false, err
	}

	result, err := t.tx.ExecContext(t.ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete trip: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (t *pgTx) OccupiedSeats(tripID int64, date string) ([]string, error) {
	query := `
		SELECT seat_label
		FROM seat_occupancy
		WHERE trip_id = $1 AND trip_date = $2
		ORDER BY seat_label
	`

	seats := []string{}
	if err := t.tx.SelectContext(t.ctx, &seats, query, tripID, date); err != nil {
		return nil, fmt.Errorf("failed to get occupied seats: %w", err)
	}
	models.SortSeatLabels(seats)
	return seats, nil
}

func (t *pgTx) OccupancyByDate(tripID int64) (map[string][]string, error) {
	query := `
		SELECT to_char(trip_date, 'YYYY-MM-DD') AS trip_date, seat_label
		FROM seat_occupancy
		WHERE trip_id = $1
		ORDER BY trip_date, seat_label
	`

	var rows []struct {
		TripDate  string `db:"trip_date"`
		SeatLabel string `db:"seat_label"`
	}
	if err := t.tx.SelectContext(t.ctx, &rows, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to get occupancy: %w", err)
	}

	out := make(map[string][]string)
	for _, r := range rows {
		out[r.TripDate] = append(out[r.TripDate], r.SeatLabel)
	}
	for _, seats := range out {
		models.SortSeatLabels(seats)
	}
	return out, nil
}

func (t *pgTx) AddOccupied(tripID int64, date string, labels []string) error {
	if err := t.write(); err != nil {
		return err
	}

	query := `INSERT INTO seat_occupancy (trip_id, trip_date, seat_label) VALUES ($1, $2, $3)`
	for _, label := range labels {
		if _, err := t.tx.ExecContext(t.ctx, query, tripID, date, label); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
				return &models.ConflictError{TripID: tripID, Date: date, Seats: []string{label}}
			}
			return fmt.Errorf("failed to occupy seat %s: %w", label, err)
		}
	}
	return nil
}

func (t *pgTx) RemoveOccupied(tripID int64, date, label string) (bool, error) {
	if err := t.write(); err != nil {
		return false, err
	}

	result, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM seat_occupancy WHERE trip_id = $1 AND trip_date = $2 AND seat_label = $3`,
		tripID, date, label)
	if err != nil {
		return false, fmt.Errorf("failed to release seat: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (t *pgTx) ReplaceOccupied(tripID int64, date string, labels []string) error {
	if err := t.write(); err != nil {
		return err
	}

	if _, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM seat_occupancy WHERE trip_id = $1 AND trip_date = $2`, tripID, date); err != nil {
		return fmt.Errorf("failed to clear occupancy: %w", err)
	}
	return t.AddOccupied(tripID, date, labels)
}

func (t *pgTx) PutSeatBooking(tripID int64, date, label string, record *models.BookingRecord) error {
	if err := t.write(); err != nil {
		return err
	}

	insertBooking := `
		INSERT INTO bookings (
			booking_id, trip_id, trip_date, user_identity,
			passenger_name, passenger_phone, passenger_email, passenger_age, passenger_gender,
			seats, amount, transaction_id, payment_screenshot_ref,
			pickup_location, drop_location, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
		ON CONFLICT (booking_id) DO NOTHING
	`
	_, err := t.tx.ExecContext(t.ctx, insertBooking,
		record.BookingID, tripID, date, record.UserIdentity,
		record.PassengerName, record.PassengerPhone, record.PassengerEmail,
		record.PassengerAge, record.PassengerGender,
		record.Seats, record.Amount, record.TransactionID, record.PaymentScreenshotRef,
		record.PickupLocation, record.DropLocation, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	insertSeat := `
		INSERT INTO booking_seats (trip_id, trip_date, seat_label, booking_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (trip_id, trip_date, seat_label) DO UPDATE SET booking_id = EXCLUDED.booking_id
	`
	if _, err := t.tx.ExecContext(t.ctx, insertSeat, tripID, date, label, record.BookingID); err != nil {
		return fmt.Errorf("failed to record seat %s: %w", label, err)
	}
	return nil
}

func (t *pgTx) GetSeatBooking(tripID int64, date, label string) (*models.BookingRecord, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM booking_seats bs
		JOIN bookings b ON b.booking_id = bs.booking_id
		WHERE bs.trip_id = $1 AND bs.trip_date = $2 AND bs.seat_label = $3
	`

	var record models.BookingRecord
	if err := t.tx.GetContext(t.ctx, &record, query, tripID, date, label); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("seat %s on %s: %w", label, date, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get seat booking: %w", err)
	}
	return &record, nil
}

func (t *pgTx) SeatBookings(tripID int64, date string) (map[string]models.BookingRecord, error) {
	query := `
		SELECT bs.seat_label, ` + bookingColumns + `
		FROM booking_seats bs
		JOIN bookings b ON b.booking_id = bs.booking_id
		WHERE bs.trip_id = $1 AND bs.trip_date = $2
	`

	var rows []struct {
		SeatLabel string `db:"seat_label"`
		models.BookingRecord
	}
	if err := t.tx.SelectContext(t.ctx, &rows, query, tripID, date); err != nil {
		return nil, fmt.Errorf("failed to get seat bookings: %w", err)
	}

	out := make(map[string]models.BookingRecord, len(rows))
	for _, r := range rows {
		out[r.SeatLabel] = r.BookingRecord
	}
	return out, nil
}

func (t *pgTx) LedgerDates(tripID int64) ([]string, error) {
	query := `
		SELECT DISTINCT to_char(trip_date, 'YYYY-MM-DD') AS trip_date
		FROM booking_seats
		WHERE trip_id = $1
		ORDER BY trip_date
	`

	dates := []string{}
	if err := t.tx.SelectContext(t.ctx, &dates, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to get ledger dates: %w", err)
	}
	return dates, nil
}

func (t *pgTx) DeleteSeatBooking(tripID int64, date, label string) (bool, error) {
	if err := t.write(); err != nil {
		return false, err
	}

	var bookingID string
	err := t.tx.QueryRowxContext(t.ctx, `
		DELETE FROM booking_seats
		WHERE trip_id = $1 AND trip_date = $2 AND seat_label = $3
		RETURNING booking_id
	`, tripID, date, label).Scan(&bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to erase seat booking: %w", err)
	}

	// Drop the booking itself once none of its seats remain
	_, err = t.tx.ExecContext(t.ctx, `
		DELETE FROM bookings
		WHERE booking_id = $1
		  AND NOT EXISTS (SELECT 1 FROM booking_seats WHERE booking_id = $1)
	`, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to prune booking: %w", err)
	}
	return true, nil
}

func (t *pgTx) BookingsForUser(userIdentity string) ([]models.BookingRecord, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.user_identity = $1
		  AND EXISTS (SELECT 1 FROM booking_seats bs WHERE bs.booking_id = b.booking_id)
		ORDER BY b.created_at DESC
	`

	records := []models.BookingRecord{}
	if err := t.tx.SelectContext(t.ctx, &records, query, userIdentity); err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return records, nil
}

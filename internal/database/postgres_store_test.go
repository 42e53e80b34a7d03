package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/smarttransit/seat-reservation/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewPostgresStore(sqlx.NewDb(mockDB, "sqlmock")), mock
}

var bookingRowColumns = []string{
	"booking_id", "trip_id", "trip_date", "user_identity",
	"passenger_name", "passenger_phone", "passenger_email", "passenger_age", "passenger_gender",
	"seats", "amount", "transaction_id", "payment_screenshot_ref",
	"pickup_location", "drop_location", "created_at",
}

func expectWriterLock(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(writerLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestPostgresStoreMigrate(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	t.Run("Success", func(t *testing.T) {
		for range schemaStatements {
			mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
		}

		require.NoError(t, store.Migrate(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS trips`).WillReturnError(fmt.Errorf("permission denied"))

		err := store.Migrate(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to apply schema")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStoreInsertTrip(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	t.Run("Success", func(t *testing.T) {
		trip := sampleTrip("Morning")

		expectWriterLock(mock)
		mock.ExpectQuery(`INSERT INTO trips`).
			WithArgs(trip.Name, trip.Source, trip.Destination, trip.Departure, trip.Arrival, trip.Price, trip.Capacity).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
		mock.ExpectCommit()

		err := store.Update(context.Background(), func(tx Tx) error {
			return tx.InsertTrip(trip)
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), trip.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Callback Error Rolls Back", func(t *testing.T) {
		boom := errors.New("boom")

		expectWriterLock(mock)
		mock.ExpectRollback()

		err := store.Update(context.Background(), func(tx Tx) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Commit Failure", func(t *testing.T) {
		trip := sampleTrip("Noon")

		expectWriterLock(mock)
		mock.ExpectQuery(`INSERT INTO trips`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))
		mock.ExpectCommit().WillReturnError(fmt.Errorf("connection reset"))

		err := store.Update(context.Background(), func(tx Tx) error {
			return tx.InsertTrip(trip)
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrStoreFailure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Lock Failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnError(fmt.Errorf("lock timeout"))
		mock.ExpectRollback()

		err := store.Update(context.Background(), func(tx Tx) error {
			t.Fatal("callback must not run without the writer lock")
			return nil
		})
		assert.ErrorIs(t, err, models.ErrStoreFailure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStoreGetTrip(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	columns := []string{"id", "name", "source", "destination", "departure", "arrival", "price", "capacity"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, name, source, destination`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(1), "Morning", "Colombo", "Kandy", "2025-01-10 08:00", "2025-01-10 11:30", 100.0, 8))
		mock.ExpectRollback()

		var trip *models.Trip
		err := store.View(context.Background(), func(tx Tx) error {
			var err error
			trip, err = tx.GetTrip(1)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, "Morning", trip.Name)
		assert.Equal(t, 8, trip.Capacity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, name, source, destination`).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(columns))
		mock.ExpectRollback()

		err := store.View(context.Background(), func(tx Tx) error {
			_, err := tx.GetTrip(9)
			return err
		})
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Writes Rejected In View", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.View(context.Background(), func(tx Tx) error {
			return tx.AddOccupied(1, "2025-01-10", []string{"1A"})
		})
		assert.ErrorIs(t, err, errReadOnly)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStoreOccupancy(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	t.Run("Seat Order", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT seat_label\s+FROM seat_occupancy`).
			WithArgs(int64(1), "2025-01-10").
			WillReturnRows(sqlmock.NewRows([]string{"seat_label"}).AddRow("10A").AddRow("1B").AddRow("2A"))
		mock.ExpectRollback()

		var seats []string
		err := store.View(context.Background(), func(tx Tx) error {
			var err error
			seats, err = tx.OccupiedSeats(1, "2025-01-10")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"1B", "2A", "10A"}, seats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unique Violation Is A Conflict", func(t *testing.T) {
		expectWriterLock(mock)
		mock.ExpectExec(`INSERT INTO seat_occupancy`).
			WithArgs(int64(1), "2025-01-10", "1A").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO seat_occupancy`).
			WithArgs(int64(1), "2025-01-10", "1B").
			WillReturnError(&pq.Error{Code: uniqueViolation})
		mock.ExpectRollback()

		err := store.Update(context.Background(), func(tx Tx) error {
			return tx.AddOccupied(1, "2025-01-10", []string{"1A", "1B"})
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrConflict)

		var conflict *models.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []string{"1B"}, conflict.Seats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStoreSeatBookings(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Keyed By Seat", func(t *testing.T) {
		columns := append([]string{"seat_label"}, bookingRowColumns...)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM booking_seats bs`).
			WithArgs(int64(1), "2025-01-10").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("1A", "b1", int64(1), "2025-01-10", "alice", "Alice", "0771234567", "alice@example.com", 30, "F",
					[]byte(`{"1A","1B"}`), 200.0, "tx-1", nil, "Fort", nil, created).
				AddRow("1B", "b1", int64(1), "2025-01-10", "alice", "Alice", "0771234567", "alice@example.com", 30, "F",
					[]byte(`{"1A","1B"}`), 200.0, "tx-1", nil, "Fort", nil, created))
		mock.ExpectRollback()

		var bookings map[string]models.BookingRecord
		err := store.View(context.Background(), func(tx Tx) error {
			var err error
			bookings, err = tx.SeatBookings(1, "2025-01-10")
			return err
		})
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		assert.Equal(t, "b1", bookings["1A"].BookingID)
		assert.Equal(t, models.SeatList{"1A", "1B"}, bookings["1B"].Seats)
		assert.Equal(t, 200.0, bookings["1A"].Amount)
		require.NotNil(t, bookings["1A"].PickupLocation)
		assert.Equal(t, "Fort", *bookings["1A"].PickupLocation)
		assert.Nil(t, bookings["1A"].DropLocation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Put Writes Booking And Seat Index", func(t *testing.T) {
		record := &models.BookingRecord{
			BookingID: "b2", TripID: 1, TripDate: "2025-01-10", UserIdentity: "bob",
			Seats: models.SeatList{"2A"}, Amount: 100, TransactionID: "tx-2", CreatedAt: created,
		}

		expectWriterLock(mock)
		mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO booking_seats`).
			WithArgs(int64(1), "2025-01-10", "2A", "b2").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.Update(context.Background(), func(tx Tx) error {
			return tx.PutSeatBooking(1, "2025-01-10", "2A", record)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delete Prunes Empty Booking", func(t *testing.T) {
		expectWriterLock(mock)
		mock.ExpectQuery(`DELETE FROM booking_seats`).
			WithArgs(int64(1), "2025-01-10", "2A").
			WillReturnRows(sqlmock.NewRows([]string{"booking_id"}).AddRow("b2"))
		mock.ExpectExec(`DELETE FROM bookings`).
			WithArgs("b2").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		var removed bool
		err := store.Update(context.Background(), func(tx Tx) error {
			var err error
			removed, err = tx.DeleteSeatBooking(1, "2025-01-10", "2A")
			return err
		})
		require.NoError(t, err)
		assert.True(t, removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delete Missing Seat", func(t *testing.T) {
		expectWriterLock(mock)
		mock.ExpectQuery(`DELETE FROM booking_seats`).
			WillReturnRows(sqlmock.NewRows([]string{"booking_id"}))
		mock.ExpectCommit()

		var removed bool
		err := store.Update(context.Background(), func(tx Tx) error {
			var err error
			removed, err = tx.DeleteSeatBooking(1, "2025-01-10", "3C")
			return err
		})
		require.NoError(t, err)
		assert.False(t, removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

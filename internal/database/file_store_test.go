package database

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smarttransit/seat-reservation/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "data", "buses.json"))
	require.NoError(t, err)
	return store
}

func sampleTrip(name string) *models.Trip {
	return &models.Trip{
		Name:        name,
		Source:      "Colombo",
		Destination: "Kandy",
		Departure:   "2025-01-10 08:00",
		Arrival:     "2025-01-10 11:30",
		Price:       100,
		Capacity:    8,
	}
}

func insertTrips(t *testing.T, store Store, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(names))
	err := store.Update(context.Background(), func(tx Tx) error {
		for _, name := range names {
			trip := sampleTrip(name)
			if err := tx.InsertTrip(trip); err != nil {
				return err
			}
			ids = append(ids, trip.ID)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store := newTestFileStore(t)

	err := store.View(context.Background(), func(tx Tx) error {
		trips, err := tx.ListTrips()
		require.NoError(t, err)
		assert.Empty(t, trips)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestFileStoreInsertTripIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("Sequential", func(t *testing.T) {
		store := newTestFileStore(t)
		ids := insertTrips(t, store, "Morning", "Noon", "Night")
		assert.Equal(t, []int64{1, 2, 3}, ids)
	})

	t.Run("Max plus one after deleting a middle trip", func(t *testing.T) {
		store := newTestFileStore(t)
		insertTrips(t, store, "Morning", "Noon", "Night")

		err := store.Update(ctx, func(tx Tx) error {
			deleted, err := tx.DeleteTrip(2)
			assert.True(t, deleted)
			return err
		})
		require.NoError(t, err)

		ids := insertTrips(t, store, "Late")
		assert.Equal(t, []int64{4}, ids)
	})

	t.Run("Reuses id after deleting the last trip", func(t *testing.T) {
		store := newTestFileStore(t)
		insertTrips(t, store, "Morning", "Noon")

		err := store.Update(ctx, func(tx Tx) error {
			_, err := tx.DeleteTrip(2)
			return err
		})
		require.NoError(t, err)

		ids := insertTrips(t, store, "Late")
		assert.Equal(t, []int64{2}, ids)
	})
}

func TestFileStoreUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)
	insertTrips(t, store, "Morning")

	boom := errors.New("boom")
	err := store.Update(ctx, func(tx Tx) error {
		require.NoError(t, tx.AddOccupied(1, "2025-01-10", []string{"1A"}))
		require.NoError(t, tx.PutSeatBooking(1, "2025-01-10", "1A", &models.BookingRecord{BookingID: "b1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = store.View(ctx, func(tx Tx) error {
		seats, err := tx.OccupiedSeats(1, "2025-01-10")
		require.NoError(t, err)
		assert.Empty(t, seats)

		_, err = tx.GetSeatBooking(1, "2025-01-10", "1A")
		assert.ErrorIs(t, err, models.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestFileStoreViewIsReadOnly(t *testing.T) {
	store := newTestFileStore(t)
	insertTrips(t, store, "Morning")

	err := store.View(context.Background(), func(tx Tx) error {
		return tx.AddOccupied(1, "2025-01-10", []string{"1A"})
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestFileStoreDocumentLayout(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)
	insertTrips(t, store, "Morning")

	err := store.Update(ctx, func(tx Tx) error {
		if err := tx.AddOccupied(1, "2025-01-10", []string{"1A", "1B"}); err != nil {
			return err
		}
		record := &models.BookingRecord{BookingID: "b1", TripID: 1, TripDate: "2025-01-10", Seats: models.SeatList{"1A", "1B"}}
		if err := tx.PutSeatBooking(1, "2025-01-10", "1A", record); err != nil {
			return err
		}
		return tx.PutSeatBooking(1, "2025-01-10", "1B", record)
	})
	require.NoError(t, err)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var docs []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 1)

	for _, key := range []string{"id", "name", "source", "destination", "departure", "arrival", "price", "available_seats", "date_bookings", "detailed_bookings"} {
		assert.Contains(t, docs[0], key)
	}

	var occupancy map[string][]string
	require.NoError(t, json.Unmarshal(docs[0]["date_bookings"], &occupancy))
	assert.Equal(t, []string{"1A", "1B"}, occupancy["2025-01-10"])

	// A second store on the same path sees the committed state
	reopened, err := NewFileStore(store.Path())
	require.NoError(t, err)
	err = reopened.View(ctx, func(tx Tx) error {
		bookings, err := tx.SeatBookings(1, "2025-01-10")
		require.NoError(t, err)
		assert.Len(t, bookings, 2)
		return nil
	})
	require.NoError(t, err)
}

func TestFileStoreRemovalPrunesEmptyDates(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)
	insertTrips(t, store, "Morning")

	err := store.Update(ctx, func(tx Tx) error {
		require.NoError(t, tx.AddOccupied(1, "2025-01-10", []string{"1A"}))
		return tx.PutSeatBooking(1, "2025-01-10", "1A", &models.BookingRecord{BookingID: "b1"})
	})
	require.NoError(t, err)

	err = store.Update(ctx, func(tx Tx) error {
		removed, err := tx.DeleteSeatBooking(1, "2025-01-10", "1A")
		require.NoError(t, err)
		assert.True(t, removed)

		released, err := tx.RemoveOccupied(1, "2025-01-10", "1A")
		require.NoError(t, err)
		assert.True(t, released)

		// Second removal is a no-op
		released, err = tx.RemoveOccupied(1, "2025-01-10", "1A")
		require.NoError(t, err)
		assert.False(t, released)
		return nil
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx Tx) error {
		occupancy, err := tx.OccupancyByDate(1)
		require.NoError(t, err)
		assert.Empty(t, occupancy)

		dates, err := tx.LedgerDates(1)
		require.NoError(t, err)
		assert.Empty(t, dates)
		return nil
	})
	require.NoError(t, err)
}

func TestFileStoreUnknownTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	err := store.Update(ctx, func(tx Tx) error {
		_, err := tx.GetTrip(42)
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = tx.OccupiedSeats(42, "2025-01-10")
		assert.ErrorIs(t, err, models.ErrNotFound)

		err = tx.AddOccupied(42, "2025-01-10", []string{"1A"})
		assert.ErrorIs(t, err, models.ErrNotFound)

		removed, err := tx.RemoveOccupied(42, "2025-01-10", "1A")
		assert.NoError(t, err)
		assert.False(t, removed)

		erased, err := tx.DeleteSeatBooking(42, "2025-01-10", "1A")
		assert.NoError(t, err)
		assert.False(t, erased)

		deleted, err := tx.DeleteTrip(42)
		assert.NoError(t, err)
		assert.False(t, deleted)
		return nil
	})
	require.NoError(t, err)
}

func TestFileStoreBookingsForUser(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)
	insertTrips(t, store, "Morning")

	older := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	err := store.Update(ctx, func(tx Tx) error {
		first := &models.BookingRecord{BookingID: "b1", UserIdentity: "alice", Seats: models.SeatList{"1A", "1B"}, CreatedAt: older}
		second := &models.BookingRecord{BookingID: "b2", UserIdentity: "alice", Seats: models.SeatList{"2A"}, CreatedAt: newer}
		other := &models.BookingRecord{BookingID: "b3", UserIdentity: "bob", Seats: models.SeatList{"2B"}, CreatedAt: newer}

		require.NoError(t, tx.PutSeatBooking(1, "2025-01-10", "1A", first))
		require.NoError(t, tx.PutSeatBooking(1, "2025-01-10", "1B", first))
		require.NoError(t, tx.PutSeatBooking(1, "2025-01-11", "2A", second))
		return tx.PutSeatBooking(1, "2025-01-11", "2B", other)
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx Tx) error {
		records, err := tx.BookingsForUser("alice")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "b2", records[0].BookingID)
		assert.Equal(t, "b1", records[1].BookingID)

		none, err := tx.BookingsForUser("carol")
		require.NoError(t, err)
		assert.Empty(t, none)
		return nil
	})
	require.NoError(t, err)
}

func TestFileStoreWriteFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "nested", "buses.json"))
	require.NoError(t, err)

	// Remove the directory so the temp file cannot be created
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "nested")))

	err = store.Update(context.Background(), func(tx Tx) error {
		return tx.InsertTrip(sampleTrip("Morning"))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStoreFailure)
}

func TestFileStoreCorruptFile(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	err := store.View(context.Background(), func(tx Tx) error { return nil })
	assert.ErrorIs(t, err, models.ErrStoreFailure)
}

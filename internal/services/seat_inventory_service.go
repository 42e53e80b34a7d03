package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/database"
	"github.com/smarttransit/seat-reservation/internal/models"
)

// SeatInventory answers which seats are taken on a trip for a travel date and
// applies reservations inside a store transaction
type SeatInventory struct {
	store  database.Store
	logger *logrus.Logger
}

// NewSeatInventory creates a new SeatInventory
func NewSeatInventory(store database.Store, logger *logrus.Logger) *SeatInventory {
	return &SeatInventory{store: store, logger: logger}
}

// OccupiedSeats returns the labels sold for the date, empty when none
func (s *SeatInventory) OccupiedSeats(ctx context.Context, tripID int64, date string) ([]string, error) {
	seatMap, err := s.SeatMap(ctx, tripID, date)
	if err != nil {
		return nil, err
	}
	return seatMap.Occupied, nil
}

// AvailableSeats returns the trip's seat labels minus the occupied ones, in seat order
func (s *SeatInventory) AvailableSeats(ctx context.Context, tripID int64, date string) ([]string, error) {
	seatMap, err := s.SeatMap(ctx, tripID, date)
	if err != nil {
		return nil, err
	}
	return seatMap.Available, nil
}

// SeatMap returns both views of a trip on a date from one snapshot
func (s *SeatInventory) SeatMap(ctx context.Context, tripID int64, date string) (*models.TripSeatMap, error) {
	if _, err := models.ParseTravelDate(date); err != nil {
		return nil, err
	}

	var seatMap *models.TripSeatMap
	err := s.store.View(ctx, func(tx database.Tx) error {
		trip, err := tx.GetTrip(tripID)
		if err != nil {
			return err
		}
		occupied, err := tx.OccupiedSeats(tripID, date)
		if err != nil {
			return err
		}

		occupied = distinctLabels(occupied)
		models.SortSeatLabels(occupied)
		seatMap = &models.TripSeatMap{
			TripID:    trip.ID,
			Date:      date,
			Capacity:  trip.Capacity,
			Price:     trip.Price,
			Occupied:  occupied,
			Available: availableLabels(trip.Capacity, occupied),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seatMap, nil
}

// Reserve marks every label as occupied, or none of them. A ConflictError
// lists all requested labels that were already taken.
func (s *SeatInventory) Reserve(tx database.Tx, tripID int64, date string, labels []string) error {
	occupied, err := tx.OccupiedSeats(tripID, date)
	if err != nil {
		return err
	}

	taken := make(map[string]bool, len(occupied))
	for _, label := range occupied {
		taken[label] = true
	}

	var conflicts []string
	for _, label := range labels {
		if taken[label] {
			conflicts = append(conflicts, label)
		}
	}
	if len(conflicts) > 0 {
		models.SortSeatLabels(conflicts)
		return &models.ConflictError{TripID: tripID, Date: date, Seats: conflicts}
	}

	if err := tx.AddOccupied(tripID, date, labels); err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	return nil
}

// Release frees one seat; releasing a free seat is a no-op
func (s *SeatInventory) Release(tx database.Tx, tripID int64, date, label string) error {
	released, err := tx.RemoveOccupied(tripID, date, label)
	if err != nil {
		return fmt.Errorf("failed to release seat: %w", err)
	}
	if !released {
		s.logger.WithFields(logrus.Fields{
			"trip_id": tripID,
			"date":    date,
			"seat":    label,
		}).Debug("Seat was not occupied")
	}
	return nil
}

// availableLabels derives the seat labels for capacity and drops the occupied ones
func availableLabels(capacity int, occupied []string) []string {
	taken := make(map[string]bool, len(occupied))
	for _, label := range occupied {
		taken[label] = true
	}

	available := []string{}
	for _, label := range models.SeatLabels(capacity) {
		if !taken[label] {
			available = append(available, label)
		}
	}
	return available
}

func distinctLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}

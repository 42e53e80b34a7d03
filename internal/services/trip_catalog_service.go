package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/database"
	"github.com/smarttransit/seat-reservation/internal/models"
)

// TripCatalog manages scheduled trips
type TripCatalog struct {
	store  database.Store
	logger *logrus.Logger
}

// NewTripCatalog creates a new TripCatalog
func NewTripCatalog(store database.Store, logger *logrus.Logger) *TripCatalog {
	return &TripCatalog{store: store, logger: logger}
}

// Create validates the draft and stores it under id = max(existing ids) + 1
func (c *TripCatalog) Create(ctx context.Context, draft *models.TripDraft) (*models.Trip, error) {
	trip, err := draft.Validate()
	if err != nil {
		return nil, err
	}

	err = c.store.Update(ctx, func(tx database.Tx) error {
		return tx.InsertTrip(trip)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"trip_id":     trip.ID,
		"name":        trip.Name,
		"source":      trip.Source,
		"destination": trip.Destination,
		"capacity":    trip.Capacity,
	}).Info("Trip created")

	return trip, nil
}

// List returns every trip in insertion (id) order
func (c *TripCatalog) List(ctx context.Context) ([]models.Trip, error) {
	var trips []models.Trip
	err := c.store.View(ctx, func(tx database.Tx) error {
		var err error
		trips, err = tx.ListTrips()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// Find returns the trip or models.ErrNotFound
func (c *TripCatalog) Find(ctx context.Context, id int64) (*models.Trip, error) {
	var trip *models.Trip
	err := c.store.View(ctx, func(tx database.Tx) error {
		var err error
		trip, err = tx.GetTrip(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// Delete removes the trip together with its occupancy and booking ledger.
// Deleting an unknown trip is a no-op.
func (c *TripCatalog) Delete(ctx context.Context, id int64) error {
	var deleted bool
	err := c.store.Update(ctx, func(tx database.Tx) error {
		var err error
		deleted, err = tx.DeleteTrip(id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}

	if deleted {
		c.logger.WithField("trip_id", id).Info("Trip deleted")
	} else {
		c.logger.WithField("trip_id", id).Debug("Delete requested for unknown trip")
	}
	return nil
}

// Search returns trips whose source and destination match case-insensitively
func (c *TripCatalog) Search(ctx context.Context, source, destination string) ([]models.Trip, error) {
	trips, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return matchRoute(trips, source, destination), nil
}

// SearchAvailability is Search plus duration and the number of free seats on date
func (c *TripCatalog) SearchAvailability(ctx context.Context, source, destination, date string) ([]models.TripSearchResult, error) {
	if _, err := models.ParseTravelDate(date); err != nil {
		return nil, err
	}

	results := []models.TripSearchResult{}
	err := c.store.View(ctx, func(tx database.Tx) error {
		trips, err := tx.ListTrips()
		if err != nil {
			return err
		}

		for _, trip := range matchRoute(trips, source, destination) {
			occupied, err := tx.OccupiedSeats(trip.ID, date)
			if err != nil && !errors.Is(err, models.ErrNotFound) {
				return err
			}
			results = append(results, models.TripSearchResult{
				Trip:           trip,
				DurationHours:  trip.DurationHours(),
				Date:           date,
				AvailableCount: len(availableLabels(trip.Capacity, occupied)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search trips: %w", err)
	}
	return results, nil
}

func matchRoute(trips []models.Trip, source, destination string) []models.Trip {
	source = strings.TrimSpace(source)
	destination = strings.TrimSpace(destination)

	matches := []models.Trip{}
	for _, trip := range trips {
		if strings.EqualFold(strings.TrimSpace(trip.Source), source) &&
			strings.EqualFold(strings.TrimSpace(trip.Destination), destination) {
			matches = append(matches, trip)
		}
	}
	return matches
}

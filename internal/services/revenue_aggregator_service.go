package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/database"
	"github.com/smarttransit/seat-reservation/internal/models"
)

// RevenueAggregator projects occupancy and revenue out of the booking ledger
type RevenueAggregator struct {
	store  database.Store
	logger *logrus.Logger
}

// NewRevenueAggregator creates a new RevenueAggregator
func NewRevenueAggregator(store database.Store, logger *logrus.Logger) *RevenueAggregator {
	return &RevenueAggregator{store: store, logger: logger}
}

// PerTripTotals returns seats sold and revenue over all dates for every trip
func (a *RevenueAggregator) PerTripTotals(ctx context.Context) ([]models.TripTotals, error) {
	totals := []models.TripTotals{}
	err := a.store.View(ctx, func(tx database.Tx) error {
		trips, err := tx.ListTrips()
		if err != nil {
			return err
		}

		for _, trip := range trips {
			details, err := dateDetails(tx, trip.ID)
			if err != nil {
				return err
			}

			row := models.TripTotals{TripID: trip.ID, TripName: trip.Name}
			for _, d := range details {
				row.TotalSeatsBooked += len(d.BookedSeats)
				row.TotalRevenue += d.Revenue
			}
			totals = append(totals, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}

	a.logger.WithField("trips", len(totals)).Debug("Revenue totals computed")
	return totals, nil
}

// PerDateDetail returns the booked seats, revenue and bookings of one trip on one date.
// An unknown or deleted trip yields models.ErrNotFound.
func (a *RevenueAggregator) PerDateDetail(ctx context.Context, tripID int64, date string) (*models.DateDetail, error) {
	if _, err := models.ParseTravelDate(date); err != nil {
		return nil, err
	}

	var detail *models.DateDetail
	err := a.store.View(ctx, func(tx database.Tx) error {
		if _, err := tx.GetTrip(tripID); err != nil {
			return err
		}
		var err error
		detail, err = dateDetail(tx, tripID, date)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// TripDates returns a DateDetail for every date the trip has bookings on, oldest first
func (a *RevenueAggregator) TripDates(ctx context.Context, tripID int64) ([]models.DateDetail, error) {
	var details []models.DateDetail
	err := a.store.View(ctx, func(tx database.Tx) error {
		if _, err := tx.GetTrip(tripID); err != nil {
			return err
		}
		var err error
		details, err = dateDetails(tx, tripID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

func dateDetails(tx database.Tx, tripID int64) ([]models.DateDetail, error) {
	dates, err := tripDates(tx, tripID)
	if err != nil {
		return nil, err
	}

	details := make([]models.DateDetail, 0, len(dates))
	for _, date := range dates {
		detail, err := dateDetail(tx, tripID, date)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

func dateDetail(tx database.Tx, tripID int64, date string) (*models.DateDetail, error) {
	occupied, err := tx.OccupiedSeats(tripID, date)
	if err != nil {
		return nil, err
	}
	bookings, err := tx.SeatBookings(tripID, date)
	if err != nil {
		return nil, err
	}

	occupied = distinctLabels(occupied)
	models.SortSeatLabels(occupied)

	return &models.DateDetail{
		TripID:      tripID,
		Date:        date,
		BookedSeats: occupied,
		Revenue:     revenueOf(bookings),
		Bookings:    distinctBookings(bookings),
	}, nil
}

// revenueOf sums booking amounts counting each transaction id once
func revenueOf(bookings map[string]models.BookingRecord) float64 {
	seen := make(map[string]bool, len(bookings))
	var revenue float64
	for _, record := range bookings {
		if seen[record.TransactionID] {
			continue
		}
		seen[record.TransactionID] = true
		revenue += record.Amount
	}
	return revenue
}

// distinctBookings collapses per-seat entries into one record per booking, oldest first
func distinctBookings(bookings map[string]models.BookingRecord) []models.BookingRecord {
	labels := make([]string, 0, len(bookings))
	for label := range bookings {
		labels = append(labels, label)
	}
	models.SortSeatLabels(labels)

	records := make([]models.BookingRecord, 0, len(labels))
	for _, label := range labels {
		records = append(records, bookings[label])
	}
	records = models.UniqueBookings(records)

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records
}

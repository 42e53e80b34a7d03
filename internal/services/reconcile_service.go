package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/database"
	"github.com/smarttransit/seat-reservation/internal/models"
)

// ReconcileService detects and repairs drift between seat occupancy and the
// booking ledger, e.g. data written before the ledger existed or edited by hand
type ReconcileService struct {
	store          database.Store
	releaseOrphans bool
	logger         *logrus.Logger
}

// NewReconcileService creates a new ReconcileService.
// When releaseOrphans is false occupied seats without a ledger entry are only reported.
func NewReconcileService(store database.Store, releaseOrphans bool, logger *logrus.Logger) *ReconcileService {
	return &ReconcileService{store: store, releaseOrphans: releaseOrphans, logger: logger}
}

// Run scans every trip and date in one write transaction.
// Duplicate occupancy entries are collapsed, ledger entries missing from
// occupancy are re-occupied (the sale happened) and orphaned occupancy is
// released only when configured to.
func (s *ReconcileService) Run(ctx context.Context) (*models.ReconcileReport, error) {
	report := &models.ReconcileReport{Issues: []models.ReconcileIssue{}}

	err := s.store.Update(ctx, func(tx database.Tx) error {
		// Reset in case the store retries the callback
		*report = models.ReconcileReport{Issues: []models.ReconcileIssue{}}

		trips, err := tx.ListTrips()
		if err != nil {
			return err
		}

		for _, trip := range trips {
			report.TripsScanned++

			dates, err := tripDates(tx, trip.ID)
			if err != nil {
				return err
			}
			for _, date := range dates {
				report.DatesScanned++
				issues, err := s.reconcileDate(tx, trip.ID, date)
				if err != nil {
					return err
				}
				report.Issues = append(report.Issues, issues...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile ledger: %w", err)
	}

	entry := s.logger.WithFields(logrus.Fields{
		"trips_scanned": report.TripsScanned,
		"dates_scanned": report.DatesScanned,
		"issues":        len(report.Issues),
	})
	if len(report.Issues) > 0 {
		entry.Warn("Ledger reconciliation found drift")
	} else {
		entry.Info("Ledger reconciliation clean")
	}

	return report, nil
}

func (s *ReconcileService) reconcileDate(tx database.Tx, tripID int64, date string) ([]models.ReconcileIssue, error) {
	occupied, err := tx.OccupiedSeats(tripID, date)
	if err != nil {
		return nil, err
	}
	bookings, err := tx.SeatBookings(tripID, date)
	if err != nil {
		return nil, err
	}

	var issues []models.ReconcileIssue
	changed := false

	seats := make(map[string]bool, len(occupied))
	for _, label := range occupied {
		if seats[label] {
			issues = append(issues, models.ReconcileIssue{
				TripID: tripID, Date: date, Seat: label, Kind: models.IssueDuplicateOccupancy, Fixed: true,
			})
			changed = true
			continue
		}
		seats[label] = true
	}

	for _, label := range sortedKeys(bookings) {
		if seats[label] {
			continue
		}
		issues = append(issues, models.ReconcileIssue{
			TripID: tripID, Date: date, Seat: label, Kind: models.IssueMissingOccupancy, Fixed: true,
		})
		seats[label] = true
		changed = true
	}

	for _, label := range distinctLabels(occupied) {
		if _, ok := bookings[label]; ok {
			continue
		}
		issues = append(issues, models.ReconcileIssue{
			TripID: tripID, Date: date, Seat: label, Kind: models.IssueOrphanOccupancy, Fixed: s.releaseOrphans,
		})
		if s.releaseOrphans {
			delete(seats, label)
			changed = true
		}
	}

	if !changed {
		return issues, nil
	}

	repaired := make([]string, 0, len(seats))
	for label := range seats {
		repaired = append(repaired, label)
	}
	models.SortSeatLabels(repaired)

	if err := tx.ReplaceOccupied(tripID, date, repaired); err != nil {
		return nil, err
	}
	return issues, nil
}

// tripDates is the union of occupancy and ledger dates for a trip, sorted
func tripDates(tx database.Tx, tripID int64) ([]string, error) {
	occupancy, err := tx.OccupancyByDate(tripID)
	if err != nil {
		return nil, err
	}
	ledgerDates, err := tx.LedgerDates(tripID)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(occupancy)+len(ledgerDates))
	for date := range occupancy {
		set[date] = true
	}
	for _, date := range ledgerDates {
		set[date] = true
	}

	dates := make([]string, 0, len(set))
	for date := range set {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

func sortedKeys(bookings map[string]models.BookingRecord) []string {
	labels := make([]string, 0, len(bookings))
	for label := range bookings {
		labels = append(labels, label)
	}
	models.SortSeatLabels(labels)
	return labels
}

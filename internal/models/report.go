package models

// TripTotals is the all-dates revenue and occupancy of one trip
type TripTotals struct {
	TripID           int64   `json:"trip_id"`
	TripName         string  `json:"trip_name"`
	TotalSeatsBooked int     `json:"total_seats_booked"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// DateDetail is the revenue and occupancy of one trip on one date
type DateDetail struct {
	TripID      int64           `json:"trip_id"`
	Date        string          `json:"date"`
	BookedSeats []string        `json:"booked_seats"`
	Revenue     float64         `json:"revenue"`
	Bookings    []BookingRecord `json:"bookings"`
}

// ReconcileIssue describes one drift between occupancy and the ledger
type ReconcileIssue struct {
	TripID int64  `json:"trip_id"`
	Date   string `json:"date"`
	Seat   string `json:"seat"`
	Kind   string `json:"kind"`
	Fixed  bool   `json:"fixed"`
}

// Reconcile issue kinds
const (
	IssueDuplicateOccupancy = "duplicate_occupancy"
	IssueMissingOccupancy   = "ledger_without_occupancy"
	IssueOrphanOccupancy    = "occupancy_without_ledger"
)

// ReconcileReport summarises one reconciliation pass
type ReconcileReport struct {
	TripsScanned int              `json:"trips_scanned"`
	DatesScanned int              `json:"dates_scanned"`
	Issues       []ReconcileIssue `json:"issues"`
}

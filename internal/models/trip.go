package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ScheduleLayout is the layout used for trip departure and arrival times
const ScheduleLayout = "2006-01-02 15:04"

// DateLayout is the layout of a travel date (ISO calendar date)
const DateLayout = "2006-01-02"

// Trip is one scheduled bus run with a fixed route, schedule, price and capacity.
// A trip recurs across dates; occupancy is tracked per travel date.
type Trip struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Source      string  `json:"source" db:"source"`
	Destination string  `json:"destination" db:"destination"`
	Departure   string  `json:"departure" db:"departure"`
	Arrival     string  `json:"arrival" db:"arrival"`
	Price       float64 `json:"price" db:"price"`
	Capacity    int     `json:"available_seats" db:"capacity"`
}

// DurationHours returns the whole hours between departure and arrival, or 0 if unparseable
func (t *Trip) DurationHours() int {
	dep, err := time.Parse(ScheduleLayout, t.Departure)
	if err != nil {
		return 0
	}
	arr, err := time.Parse(ScheduleLayout, t.Arrival)
	if err != nil || arr.Before(dep) {
		return 0
	}
	return int(arr.Sub(dep).Hours())
}

// TripDraft is the admin input for creating a trip.
// Price and capacity accept JSON numbers or numeric strings.
type TripDraft struct {
	Name        string      `json:"name" form:"name"`
	Source      string      `json:"source" form:"source"`
	Destination string      `json:"destination" form:"destination"`
	Departure   string      `json:"departure" form:"departure"`
	Arrival     string      `json:"arrival" form:"arrival"`
	Price       json.Number `json:"price" form:"price"`
	Capacity    json.Number `json:"available_seats" form:"available_seats"`
}

// Validate checks the draft and returns the parsed trip (without an ID)
func (d *TripDraft) Validate() (*Trip, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", d.Name},
		{"source", d.Source},
		{"destination", d.Destination},
		{"departure", d.Departure},
		{"arrival", d.Arrival},
		{"price", d.Price.String()},
		{"available_seats", d.Capacity.String()},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, NewValidationError(r.field, "is required")
		}
		if strings.ContainsFunc(r.value, unicode.IsControl) {
			return nil, NewValidationError(r.field, "must not contain control characters")
		}
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(d.Price.String()), 64)
	if err != nil || price <= 0 {
		return nil, NewValidationError("price", "must be a positive number")
	}

	capacity, err := strconv.Atoi(strings.TrimSpace(d.Capacity.String()))
	if err != nil || capacity <= 0 {
		return nil, NewValidationError("available_seats", "must be a positive integer")
	}

	departure, err := time.Parse(ScheduleLayout, strings.TrimSpace(d.Departure))
	if err != nil {
		return nil, NewValidationError("departure", "must use the format YYYY-MM-DD HH:MM")
	}
	arrival, err := time.Parse(ScheduleLayout, strings.TrimSpace(d.Arrival))
	if err != nil {
		return nil, NewValidationError("arrival", "must use the format YYYY-MM-DD HH:MM")
	}
	if arrival.Before(departure) {
		return nil, NewValidationError("arrival", "must not be before departure")
	}

	return &Trip{
		Name:        strings.TrimSpace(d.Name),
		Source:      strings.TrimSpace(d.Source),
		Destination: strings.TrimSpace(d.Destination),
		Departure:   departure.Format(ScheduleLayout),
		Arrival:     arrival.Format(ScheduleLayout),
		Price:       price,
		Capacity:    capacity,
	}, nil
}

// TripSearchResult is a search hit with derived availability for a travel date
type TripSearchResult struct {
	Trip
	DurationHours  int    `json:"duration_hours"`
	Date           string `json:"date,omitempty"`
	AvailableCount int    `json:"available_count"`
}

// TripSeatMap is the seat picture of one trip on one date
type TripSeatMap struct {
	TripID    int64    `json:"trip_id"`
	Date      string   `json:"date"`
	Capacity  int      `json:"capacity"`
	Price     float64  `json:"price"`
	Occupied  []string `json:"occupied"`
	Available []string `json:"available"`
}

// ParseTravelDate validates an ISO calendar date
func ParseTravelDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, NewValidationError("date", "must use the format YYYY-MM-DD")
	}
	return t, nil
}

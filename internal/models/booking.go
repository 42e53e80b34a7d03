package models

import (
	"time"
)

// BookingRecord is the durable record of one checkout, possibly covering several seats
type BookingRecord struct {
	BookingID            string    `json:"booking_id" db:"booking_id"`
	TripID               int64     `json:"trip_id" db:"trip_id"`
	TripDate             string    `json:"trip_date" db:"trip_date"`
	UserIdentity         string    `json:"user_identity" db:"user_identity"`
	PassengerName        string    `json:"passenger_name" db:"passenger_name"`
	PassengerPhone       string    `json:"passenger_phone" db:"passenger_phone"`
	PassengerEmail       string    `json:"passenger_email" db:"passenger_email"`
	PassengerAge         int       `json:"passenger_age,omitempty" db:"passenger_age"`
	PassengerGender      string    `json:"passenger_gender,omitempty" db:"passenger_gender"`
	Seats                SeatList  `json:"seats" db:"seats"`
	Amount               float64   `json:"amount" db:"amount"`
	TransactionID        string    `json:"transaction_id" db:"transaction_id"`
	PaymentScreenshotRef *string   `json:"payment_screenshot,omitempty" db:"payment_screenshot_ref"`
	PickupLocation       *string   `json:"pickup_location,omitempty" db:"pickup_location"`
	DropLocation         *string   `json:"drop_location,omitempty" db:"drop_location"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// PassengerInfo is the passenger detail step of checkout
type PassengerInfo struct {
	Name   string `json:"name" form:"name" binding:"required"`
	Phone  string `json:"phone_number" form:"phone_number" binding:"required,phone"`
	Email  string `json:"email" form:"email" binding:"required,email"`
	Age    int    `json:"age,omitempty" form:"age" binding:"omitempty,min=1,max=120"`
	Gender string `json:"gender,omitempty" form:"gender"`
}

// PaymentInfo is the payment step of checkout. The transaction ID is opaque.
type PaymentInfo struct {
	TransactionID        string  `json:"transaction_id" form:"transaction_id" binding:"required"`
	PaymentScreenshotRef *string `json:"payment_screenshot,omitempty" form:"payment_screenshot"`
}

// CheckoutRequest carries everything the coordinator needs to sell seats
type CheckoutRequest struct {
	TripID         int64         `json:"trip_id" binding:"required"`
	Date           string        `json:"date" binding:"required,isodate"`
	Seats          []string      `json:"selected_seats" binding:"required,min=1"`
	PickupLocation *string       `json:"pickup_location,omitempty"`
	DropLocation   *string       `json:"drop_location,omitempty"`
	Passenger      PassengerInfo `json:"passenger" binding:"required"`
	Payment        PaymentInfo   `json:"payment" binding:"required"`
	UserIdentity   string        `json:"-"`
}

// UniqueBookings collapses per-seat copies into distinct records keyed by booking ID,
// keeping first-seen order
func UniqueBookings(records []BookingRecord) []BookingRecord {
	seen := make(map[string]bool, len(records))
	out := make([]BookingRecord, 0, len(records))
	for _, r := range records {
		if seen[r.BookingID] {
			continue
		}
		seen[r.BookingID] = true
		out = append(out, r)
	}
	return out
}

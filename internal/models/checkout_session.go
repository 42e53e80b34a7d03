package models

import "time"

// CheckoutSession is an in-progress checkout: seats chosen, passenger details
// optionally attached, waiting for payment
type CheckoutSession struct {
	ID             string         `json:"id"`
	UserIdentity   string         `json:"user_identity"`
	TripID         int64          `json:"trip_id"`
	Date           string         `json:"date"`
	Seats          []string       `json:"selected_seats"`
	PickupLocation *string        `json:"pickup_location,omitempty"`
	DropLocation   *string        `json:"drop_location,omitempty"`
	TotalAmount    float64        `json:"total_amount"`
	Passenger      *PassengerInfo `json:"passenger,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
}

// StartCheckoutRequest opens a checkout session for a seat selection
type StartCheckoutRequest struct {
	TripID         int64    `json:"trip_id" binding:"required"`
	Date           string   `json:"date" binding:"required,isodate"`
	Seats          []string `json:"selected_seats" binding:"required,min=1"`
	PickupLocation *string  `json:"pickup_location,omitempty"`
	DropLocation   *string  `json:"drop_location,omitempty"`
}

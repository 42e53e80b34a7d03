package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/middleware"
	"github.com/smarttransit/seat-reservation/internal/models"
	"github.com/smarttransit/seat-reservation/internal/services"
)

// BookingHandler handles checkout, checkout session and booking history endpoints
type BookingHandler struct {
	coordinator *services.BookingCoordinator
	ledger      *services.BookingLedger
	sessions    *services.CheckoutSessionService
	logger      *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	coordinator *services.BookingCoordinator,
	ledger *services.BookingLedger,
	sessions *services.CheckoutSessionService,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		coordinator: coordinator,
		ledger:      ledger,
		sessions:    sessions,
		logger:      logger,
	}
}

// currentUser returns the authenticated user or writes a 401
func currentUser(c *gin.Context) (string, bool) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists || userCtx.UserID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
			Code:    "MISSING_USER_CONTEXT",
		})
		return "", false
	}
	return userCtx.UserID, true
}

// ===========================================================================
// DIRECT CHECKOUT
// ===========================================================================

// Checkout sells seats in one request
// POST /api/v1/bookings
func (h *BookingHandler) Checkout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.UserIdentity = user

	record, err := h.coordinator.Checkout(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking confirmed",
		"booking": record,
	})
}

// MyBookings lists the caller's bookings, newest first
// GET /api/v1/bookings
func (h *BookingHandler) MyBookings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	bookings, err := h.ledger.ForUser(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// ===========================================================================
// CHECKOUT SESSIONS
// ===========================================================================

// StartSession opens a checkout session for a seat selection
// POST /api/v1/checkout/sessions
func (h *BookingHandler) StartSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.sessions.Start(c.Request.Context(), user, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns one of the caller's open sessions
// GET /api/v1/checkout/sessions/:sessionId
func (h *BookingHandler) GetSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	session, err := h.sessions.Get(c.Request.Context(), c.Param("sessionId"), user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// SetPassenger stores passenger details on a session
// PUT /api/v1/checkout/sessions/:sessionId/passenger
func (h *BookingHandler) SetPassenger(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var passenger models.PassengerInfo
	if err := c.ShouldBindJSON(&passenger); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.sessions.SetPassenger(c.Request.Context(), c.Param("sessionId"), user, &passenger)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CompleteSession submits payment and confirms the booking
// POST /api/v1/checkout/sessions/:sessionId/complete
func (h *BookingHandler) CompleteSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var payment models.PaymentInfo
	if err := c.ShouldBindJSON(&payment); err != nil {
		respondBindError(c, err)
		return
	}

	record, err := h.sessions.Complete(c.Request.Context(), c.Param("sessionId"), user, &payment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking confirmed",
		"booking": record,
	})
}

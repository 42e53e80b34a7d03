package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/models"
	"github.com/smarttransit/seat-reservation/internal/services"
)

// TripHandler handles trip catalog and seat map endpoints
type TripHandler struct {
	catalog   *services.TripCatalog
	inventory *services.SeatInventory
	logger    *logrus.Logger
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(catalog *services.TripCatalog, inventory *services.SeatInventory, logger *logrus.Logger) *TripHandler {
	return &TripHandler{
		catalog:   catalog,
		inventory: inventory,
		logger:    logger,
	}
}

// ===========================================================================
// PUBLIC ENDPOINTS
// ===========================================================================

// ListTrips returns every trip in creation order
// GET /api/v1/trips
func (h *TripHandler) ListTrips(c *gin.Context) {
	trips, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if trips == nil {
		trips = []models.Trip{}
	}

	c.JSON(http.StatusOK, gin.H{
		"trips": trips,
		"count": len(trips),
	})
}

// SearchTrips finds trips by route. With a date each result carries its free seat count.
// GET /api/v1/trips/search?source=&destination=&date=
func (h *TripHandler) SearchTrips(c *gin.Context) {
	source := strings.TrimSpace(c.Query("source"))
	destination := strings.TrimSpace(c.Query("destination"))
	if source == "" || destination == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "source and destination are required",
			Code:    "MISSING_ROUTE",
		})
		return
	}

	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		trips, err := h.catalog.Search(c.Request.Context(), source, destination)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		results := make([]models.TripSearchResult, 0, len(trips))
		for _, trip := range trips {
			results = append(results, models.TripSearchResult{
				Trip:           trip,
				DurationHours:  trip.DurationHours(),
				AvailableCount: trip.Capacity,
			})
		}
		c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
		return
	}

	results, err := h.catalog.SearchAvailability(c.Request.Context(), source, destination, date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// GetTrip returns one trip
// GET /api/v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	trip, err := h.catalog.Find(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// GetSeatMap returns occupied and available seats for a travel date
// GET /api/v1/trips/:id/seats?date=YYYY-MM-DD
func (h *TripHandler) GetSeatMap(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	seatMap, err := h.inventory.SeatMap(c.Request.Context(), tripID, c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, seatMap)
}

// ===========================================================================
// ADMIN ENDPOINTS
// ===========================================================================

// CreateTrip adds a trip to the catalog
// POST /api/v1/admin/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var draft models.TripDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondBindError(c, err)
		return
	}

	trip, err := h.catalog.Create(c.Request.Context(), &draft)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// DeleteTrip removes a trip together with its occupancy and bookings
// DELETE /api/v1/admin/trips/:id
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), tripID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Trip deleted",
		"trip_id": tripID,
	})
}

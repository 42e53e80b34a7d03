package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/services"
	"github.com/smarttransit/seat-reservation/pkg/report"
)

// AdminHandler handles booking inspection, cancellation, revenue and maintenance endpoints
type AdminHandler struct {
	catalog     *services.TripCatalog
	coordinator *services.BookingCoordinator
	aggregator  *services.RevenueAggregator
	reconciler  *services.ReconcileService
	cron        *services.CronService
	logger      *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler. cron may be nil when scheduling is disabled.
func NewAdminHandler(
	catalog *services.TripCatalog,
	coordinator *services.BookingCoordinator,
	aggregator *services.RevenueAggregator,
	reconciler *services.ReconcileService,
	cron *services.CronService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		catalog:     catalog,
		coordinator: coordinator,
		aggregator:  aggregator,
		reconciler:  reconciler,
		cron:        cron,
		logger:      logger,
	}
}

// ===========================================================================
// BOOKINGS
// ===========================================================================

// TripBookings lists every booked date of a trip
// GET /api/v1/admin/trips/:id/bookings
func (h *AdminHandler) TripBookings(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	dates, err := h.aggregator.TripDates(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trip_id": tripID,
		"dates":   dates,
	})
}

// DateBookings returns seats, revenue and bookings of a trip on one date
// GET /api/v1/admin/trips/:id/bookings/:date
func (h *AdminHandler) DateBookings(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	detail, err := h.aggregator.PerDateDetail(c.Request.Context(), tripID, c.Param("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// CancelSeat retracts one sold seat
// DELETE /api/v1/admin/trips/:id/bookings/:date/seats/:seat
func (h *AdminHandler) CancelSeat(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	date, seat := c.Param("date"), c.Param("seat")
	if err := h.coordinator.CancelSeat(c.Request.Context(), tripID, date, seat); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Seat cancelled",
		"trip_id": tripID,
		"date":    date,
		"seat":    seat,
	})
}

// ===========================================================================
// REVENUE
// ===========================================================================

// Revenue returns all-dates totals per trip
// GET /api/v1/admin/revenue
func (h *AdminHandler) Revenue(c *gin.Context) {
	totals, err := h.aggregator.PerTripTotals(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var revenue float64
	for _, t := range totals {
		revenue += t.TotalRevenue
	}

	c.JSON(http.StatusOK, gin.H{
		"trips":         totals,
		"total_revenue": revenue,
	})
}

// RevenueReport downloads the revenue totals as a PDF
// GET /api/v1/admin/revenue/report.pdf
func (h *AdminHandler) RevenueReport(c *gin.Context) {
	totals, err := h.aggregator.PerTripTotals(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data, err := report.RevenueSummaryPDF(totals, time.Now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sendPDF(c, "revenue-summary.pdf", data)
}

// TripReport downloads the per-date bookings of one trip as a PDF
// GET /api/v1/admin/trips/:id/report.pdf
func (h *AdminHandler) TripReport(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	trip, err := h.catalog.Find(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	dates, err := h.aggregator.TripDates(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data, err := report.TripDatesPDF(trip, dates, time.Now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sendPDF(c, fmt.Sprintf("trip-%d-bookings.pdf", tripID), data)
}

func sendPDF(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// ===========================================================================
// MAINTENANCE
// ===========================================================================

// Reconcile runs a ledger/occupancy reconciliation pass now
// POST /api/v1/admin/reconcile
func (h *AdminHandler) Reconcile(c *gin.Context) {
	result, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// JobStatus reports scheduled jobs
// GET /api/v1/admin/jobs
func (h *AdminHandler) JobStatus(c *gin.Context) {
	if h.cron == nil {
		c.JSON(http.StatusOK, gin.H{"running": false, "job_count": 0, "jobs": []interface{}{}})
		return
	}
	c.JSON(http.StatusOK, h.cron.GetJobStatus())
}

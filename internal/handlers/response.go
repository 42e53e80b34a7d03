package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	playground "github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-reservation/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// respondError maps service errors onto HTTP statuses.
// Validation → 400, not found → 404, seat conflict → 409, store failure → 503.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	_ = c.Error(err)

	var validationErr *models.ValidationError
	var conflictErr *models.ConflictError

	switch {
	case errors.As(err, &validationErr):
		code := "INVALID_REQUEST"
		if validationErr.Field != "" {
			code = "INVALID_" + strings.ToUpper(validationErr.Field)
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Error(),
			Code:    code,
			Details: gin.H{"field": validationErr.Field},
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "seats_unavailable",
			Message: conflictErr.Error(),
			Code:    "SEATS_ALREADY_BOOKED",
			Details: gin.H{"trip_id": conflictErr.TripID, "date": conflictErr.Date, "seats": conflictErr.Seats},
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
			Code:    "NOT_FOUND",
		})
	case errors.Is(err, models.ErrStoreFailure):
		logger.WithError(err).Error("Store failure while handling request")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "storage_unavailable",
			Message: "The booking store is temporarily unavailable. Please try again.",
			Code:    "STORE_FAILURE",
		})
	default:
		logger.WithError(err).Error("Unhandled error while handling request")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
			Code:    "INTERNAL_ERROR",
		})
	}
}

// respondBindError reports a request body that failed to bind or validate
func respondBindError(c *gin.Context, err error) {
	var fieldErrs playground.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Request validation failed",
			Code:    "INVALID_REQUEST",
			Details: fields,
		})
		return
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
		Code:    "INVALID_REQUEST_BODY",
	})
}

// parseTripID reads the :id path parameter, writing a 400 when it is not a positive integer
func parseTripID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Trip ID must be a positive integer",
			Code:    "INVALID_TRIP_ID",
		})
		return 0, false
	}
	return id, true
}

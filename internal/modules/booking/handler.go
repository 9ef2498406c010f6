package booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"rentaldesk/internal/domain"
	"rentaldesk/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/rentals/:id/items", h.AssignEquipment)
	rg.DELETE("/rental-items/:id", h.UnassignEquipment)
	rg.GET("/equipment/:id/availability", h.CheckAvailability)
}

func (h *Handler) AssignEquipment(c *gin.Context) {
	rentalID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid rental ID")
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	spec := domain.AssignmentSpec{
		RentalID:           rentalID,
		EquipmentID:        req.EquipmentID,
		DiscountPercentage: req.DiscountPercentage,
	}
	if req.RateType != "" {
		rt, err := domain.ParseRateType(req.RateType)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		spec.RateType = rt
	}
	if req.StartDate != "" || req.EndDate != "" {
		start, end, err := parseRange(req.StartDate, req.EndDate)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Dates must be YYYY-MM-DD")
			return
		}
		spec.Start, spec.End = start, end
	}

	item, err := h.service.Assign(c.Request.Context(), spec)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"item": item})
}

func (h *Handler) UnassignEquipment(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid rental item ID")
		return
	}

	if err := h.service.Unassign(c.Request.Context(), itemID); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"removed": itemID})
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	equipmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid equipment ID")
		return
	}

	start, end, err := parseRange(c.Query("start"), c.Query("end"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start and end must be YYYY-MM-DD")
		return
	}

	var excludeRentalID int64
	if raw := c.Query("exclude_rental"); raw != "" {
		excludeRentalID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "exclude_rental must be an ID")
			return
		}
	}

	available, err := h.service.CheckAvailability(c.Request.Context(), equipmentID, start, end, excludeRentalID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, AvailabilityResponse{
		EquipmentID: equipmentID,
		StartDate:   start.Format(domain.DateFormat),
		EndDate:     end.Format(domain.DateFormat),
		Available:   available,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		response.ErrorWithDetails(c, http.StatusConflict, "BOOKING_CONFLICT",
			"Equipment is not available for the selected dates", gin.H{
				"equipment_id":   conflict.EquipmentID,
				"rental_id":      conflict.RentalID,
				"conflict_start": conflict.Start.Format(domain.DateFormat),
				"conflict_end":   conflict.End.Format(domain.DateFormat),
			})
	case errors.Is(err, ErrInvalidRange):
		response.Error(c, http.StatusBadRequest, "INVALID_RANGE", "Start date must be before end date")
	case errors.Is(err, ErrInvalidState):
		response.Error(c, http.StatusBadRequest, "INVALID_STATE", "Rental state does not allow this operation")
	case errors.Is(err, ErrEquipmentNotFound), errors.Is(err, ErrRentalNotFound), errors.Is(err, ErrItemNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Booking operation failed")
	}
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(domain.DateFormat, startStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation(domain.DateFormat, endStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

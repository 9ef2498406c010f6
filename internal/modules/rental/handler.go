package rental

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"rentaldesk/internal/domain"
	"rentaldesk/internal/modules/booking"
	"rentaldesk/internal/pkg/response"
	"rentaldesk/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/rentals", h.CreateRental)
	rg.GET("/rentals", h.ListRentals)
	rg.GET("/rentals/:id", h.GetRental)
	rg.POST("/rentals/:id/transition", h.TransitionStatus)
	rg.DELETE("/rentals/:id", h.DeleteRental)
}

func (h *Handler) CreateRental(c *gin.Context) {
	var req CreateRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	start, err := time.ParseInLocation(domain.DateFormat, req.StartDate, time.UTC)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.ParseInLocation(domain.DateFormat, req.EndDate, time.UTC)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "end_date must be YYYY-MM-DD")
		return
	}

	specs := make([]domain.AssignmentSpec, 0, len(req.Items))
	for _, item := range req.Items {
		spec := domain.AssignmentSpec{
			EquipmentID:        item.EquipmentID,
			DiscountPercentage: item.DiscountPercentage,
		}
		if item.RateType != "" {
			rt, err := domain.ParseRateType(item.RateType)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
				return
			}
			spec.RateType = rt
		}
		specs = append(specs, spec)
	}

	rental, err := h.service.Create(c.Request.Context(), req.CustomerID, start, end, req.Notes, specs)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"rental": rental})
}

func (h *Handler) GetRental(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid rental ID")
		return
	}

	rental, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"rental": rental})
}

func (h *Handler) ListRentals(c *gin.Context) {
	var f repository.RentalFilter
	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "customer_id must be an ID")
			return
		}
		f.CustomerID = id
	}
	if raw := c.Query("status"); raw != "" {
		if _, err := domain.ParseRentalStatus(raw); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		f.Status = raw
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	rentals, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"rentals": rentals})
}

func (h *Handler) TransitionStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid rental ID")
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	target, err := domain.ParseRentalStatus(req.TargetStatus)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	actorID := c.GetInt64("user_id")
	rental, err := h.service.Transition(c.Request.Context(), id, target, actorID)
	if err != nil {
		h.writeTransitionError(c, err, id)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"rental": rental})
}

func (h *Handler) DeleteRental(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid rental ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) writeTransitionError(c *gin.Context, err error, rentalID int64) {
	if errors.Is(err, ErrInvalidTransition) {
		rental, getErr := h.service.GetByID(c.Request.Context(), rentalID)
		details := gin.H{}
		if getErr == nil {
			details["current_status"] = rental.Status
			details["allowed_targets"] = domain.AllowedTargets(rental.Status)
		}
		response.ErrorWithDetails(c, http.StatusConflict, "INVALID_TRANSITION",
			"Status transition is not allowed", details)
		return
	}
	h.writeError(c, err)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		response.ErrorWithDetails(c, http.StatusConflict, "BOOKING_CONFLICT",
			"Assigned equipment is no longer available for the rental dates", gin.H{
				"equipment_id":   conflict.EquipmentID,
				"rental_id":      conflict.RentalID,
				"conflict_start": conflict.Start.Format(domain.DateFormat),
				"conflict_end":   conflict.End.Format(domain.DateFormat),
			})
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid rental dates")
	case errors.Is(err, booking.ErrInvalidRange):
		response.Error(c, http.StatusBadRequest, "INVALID_RANGE", "Start date must be before end date")
	case errors.Is(err, ErrRentalNotFound), errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, booking.ErrEquipmentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Rental operation failed")
	}
}

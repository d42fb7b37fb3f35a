package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"maremio_backend/internal/reservations/service"
	"maremio_backend/internal/reservations/transport"
	"maremio_backend/platform/httpkit"
	"maremio_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// Handler handles HTTP requests for tables and reservations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new reservations handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListTables retrieves the room plan.
// GET /api/v1/tables?active=true
func (h *Handler) ListTables(c *gin.Context) {
	var req transport.ListTablesRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.ListTables(c.Request.Context(), req.ActiveOnly)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateTable adds a table.
// POST /api/v1/tables
func (h *Handler) CreateTable(c *gin.Context) {
	var req transport.CreateTableRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.CreateTable(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateTable edits a table.
// PUT /api/v1/tables/:id
func (h *Handler) UpdateTable(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateTableRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.UpdateTable(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteTable removes a table.
// DELETE /api/v1/tables/:id
func (h *Handler) DeleteTable(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteTable(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// List retrieves reservations.
// GET /api/v1/reservations?from=2024-12-01&to=2024-12-31&status=pending
func (h *Handler) List(c *gin.Context) {
	var req transport.ListReservationsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get retrieves a reservation.
// GET /api/v1/reservations/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create stores a booking taken by the staff.
// POST /api/v1/reservations
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateReservationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Update edits a reservation.
// PUT /api/v1/reservations/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateReservationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ChangeStatus moves a reservation along its lifecycle.
// PATCH /api/v1/reservations/:id/status
func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.StatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.ChangeStatus(c.Request.Context(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AssignTable seats a reservation on a table.
// PUT /api/v1/reservations/:id/table
func (h *Handler) AssignTable(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.AssignTableRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.AssignTable(c.Request.Context(), id, req.TableID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a reservation.
// DELETE /api/v1/reservations/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// BookingSlots lists the dates and times the booking page offers.
// GET /api/v1/public/reservations/slots
func (h *Handler) BookingSlots(c *gin.Context) {
	httpkit.OK(c, h.svc.BookingSlots())
}

// Book stores a booking from the public page.
// POST /api/v1/public/reservations
func (h *Handler) Book(c *gin.Context) {
	var req transport.PublicBookingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Book(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

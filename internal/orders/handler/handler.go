package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"maremio_backend/internal/orders/service"
	"maremio_backend/internal/orders/transport"
	"maremio_backend/platform/httpkit"
	"maremio_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid order id"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new orders handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves orders.
// GET /api/v1/orders?date=2024-12-24&date=2024-12-31
func (h *Handler) List(c *gin.Context) {
	var req transport.ListOrdersRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// NextNumber previews the next order number for a delivery date.
// GET /api/v1/orders/next-number?date=2024-12-24
func (h *Handler) NextNumber(c *gin.Context) {
	var req transport.NextNumberRequest
	if !h.bindQuery(c, &req) {
		return
	}
	number, err := h.svc.NextOrderNumber(c.Request.Context(), req.Date)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NextNumberResponse{OrderNumber: number})
}

// Get retrieves an order.
// GET /api/v1/orders/:id
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

// Create creates an order from the back-office form.
// POST /api/v1/orders
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Create(c.Request.Context(), service.CreateInput{CreateOrderRequest: req})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Update edits an order.
// PUT /api/v1/orders/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes an order.
// DELETE /api/v1/orders/:id
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

// Stats returns product, category and daily aggregates.
// GET /api/v1/orders/stats?from=2024-12-01&to=2024-12-31
func (h *Handler) Stats(c *gin.Context) {
	var req transport.StatsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.Stats(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Export downloads the orders workbook.
// GET /api/v1/orders/export?date=2024-12-24
func (h *Handler) Export(c *gin.Context) {
	var req transport.ExportRequest
	if !h.bindQuery(c, &req) {
		return
	}
	data, err := h.svc.ExportOrders(c.Request.Context(), req.Dates)
	if httpkit.HandleError(c, err) {
		return
	}
	sendWorkbook(c, "tutti-ordini", req.Dates, data)
}

// ExportPortions downloads the porzionatore workbook.
// GET /api/v1/orders/export/portions?date=2024-12-24
func (h *Handler) ExportPortions(c *gin.Context) {
	var req transport.ExportRequest
	if !h.bindQuery(c, &req) {
		return
	}
	data, err := h.svc.ExportPortions(c.Request.Context(), req.Dates)
	if httpkit.HandleError(c, err) {
		return
	}
	sendWorkbook(c, "porzionatore", req.Dates, data)
}

func sendWorkbook(c *gin.Context, base string, dates []string, data []byte) {
	filename := base
	if len(dates) > 0 {
		filename += "-" + strings.Join(dates, "_")
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
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

package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"maremio_backend/internal/public/service"
	"maremio_backend/internal/public/transport"
	"maremio_backend/platform/httpkit"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgQRUnavailable    = "public order page not configured"

	defaultQRSize = 256
	orderPagePath = "/ordina"
)

// Handler serves the customer-facing order page API.
type Handler struct {
	svc     *service.Service
	val     *validator.Validator
	baseURL string
	log     *logger.Logger
}

func New(svc *service.Service, val *validator.Validator, baseURL string, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Menu lists the products that can be ordered.
// GET /api/v1/public/menu
func (h *Handler) Menu(c *gin.Context) {
	sections, err := h.svc.Menu(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, sections)
}

// Slots returns the bookable dates and times.
// GET /api/v1/public/slots
func (h *Handler) Slots(c *gin.Context) {
	httpkit.OK(c, h.svc.Slots())
}

// PlaceOrder creates an order from the public form.
// POST /api/v1/public/orders
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req transport.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.PlaceOrder(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// QRCode renders a PNG linking to the public order page, for the shop window.
// GET /api/v1/public/qr.png?size=
func (h *Handler) QRCode(c *gin.Context) {
	if h.baseURL == "" {
		httpkit.Error(c, http.StatusServiceUnavailable, msgQRUnavailable, nil)
		return
	}

	var req transport.QRRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	size := req.Size
	if size == 0 {
		size = defaultQRSize
	}

	png, err := qrcode.Encode(h.baseURL+orderPagePath, qrcode.Medium, size)
	if err != nil {
		h.log.WithContext(c.Request.Context()).Error("qr encode failed", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"maremio_backend/internal/adapters/storage"
	"maremio_backend/internal/drafts"
	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/drafts/transport"
	"maremio_backend/internal/extraction"
	apphttp "maremio_backend/internal/http"
	"maremio_backend/platform/httpkit"
	"maremio_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid draft id"
	msgInvalidItemID    = "invalid item id"
	msgSessionClosed    = "sessione bozza chiusa"
	msgCancelled        = "creazione ordine annullata"
	msgNoImages         = "nessuna immagine caricata"
	msgTooManyImages    = "troppe immagini"
	msgImageType        = "formato immagine non supportato"
	msgImageTooLarge    = "immagine troppo grande"
	msgInvalidResult    = "risultato di analisi non valido"

	maxImages         = 10
	maxImageBytes     = 10 << 20
	defaultCandidates = 5
)

// Handler handles HTTP requests for draft review sessions.
type Handler struct {
	registry *drafts.Registry
	val      *validator.Validator
}

// New creates a new drafts handler.
func New(registry *drafts.Registry, val *validator.Validator) *Handler {
	return &Handler{registry: registry, val: val}
}

// Name returns the module identifier.
func (h *Handler) Name() string {
	return "drafts"
}

// RegisterRoutes mounts draft review routes on the back-office group.
func (h *Handler) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/drafts")
	group.POST("", h.Open)
	group.GET("/:id", h.Get)
	group.DELETE("/:id", h.Close)
	group.POST("/:id/import/whatsapp", h.ImportWhatsApp)
	group.POST("/:id/import/photo", h.ImportPhoto)
	group.PATCH("/:id/draft", h.UpdateDraft)
	group.DELETE("/:id/draft", h.ClearDraft)
	group.POST("/:id/items", h.AddItem)
	group.PATCH("/:id/items/:itemId", h.UpdateItem)
	group.DELETE("/:id/items/:itemId", h.RemoveItem)
	group.POST("/:id/items/:itemId/toggle", h.ToggleItem)
	group.POST("/:id/items/:itemId/rematch", h.RematchItem)
	group.GET("/:id/items/:itemId/candidates", h.Candidates)
	group.POST("/:id/validate", h.Validate)
	group.POST("/:id/order", h.CreateOrder)
}

// Open starts a review session.
// POST /api/v1/drafts
func (h *Handler) Open(c *gin.Context) {
	var req transport.OpenSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
			return
		}
	}

	session := h.registry.Open()
	if !req.Manual {
		httpkit.JSON(c, http.StatusCreated, toSessionResponse(session.Snapshot()))
		return
	}

	snap, err := session.StartManual(c.Request.Context())
	if err != nil {
		h.registry.Discard(session.ID())
		handleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, toSessionResponse(snap))
}

// Get returns the session state.
// GET /api/v1/drafts/:id
func (h *Handler) Get(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	httpkit.OK(c, toSessionResponse(session.Snapshot()))
}

// Close ends a session, cancelling any submission in flight.
// DELETE /api/v1/drafts/:id
func (h *Handler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	h.registry.Discard(id)
	c.Status(http.StatusNoContent)
}

// ImportWhatsApp builds a draft from a conversation.
// POST /api/v1/drafts/:id/import/whatsapp
func (h *Handler) ImportWhatsApp(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.ImportWhatsAppRequest
	if !h.bind(c, &req) {
		return
	}

	var (
		snap drafts.Snapshot
		err  error
	)
	if req.HasResult() {
		result, decodeErr := extraction.DecodeWhatsAppResult(string(req.Result))
		if decodeErr != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidResult, decodeErr.Error())
			return
		}
		snap, err = session.ImportFromWhatsApp(c.Request.Context(), result, req.ConversationID.String(), req.PhoneNumber)
	} else {
		snap, err = session.ImportConversation(c.Request.Context(), req.ConversationID)
	}
	if err != nil {
		handleError(c, err)
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// ImportPhoto builds a draft from uploaded photos or a supplied analysis.
// POST /api/v1/drafts/:id/import/photo
func (h *Handler) ImportPhoto(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req transport.ImportPhotoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
			return
		}
		result, err := extraction.DecodePhotoResult(string(req.Result))
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidResult, err.Error())
			return
		}
		snap, err := session.ImportFromPhoto(c.Request.Context(), result)
		if err != nil {
			handleError(c, err)
			return
		}
		httpkit.OK(c, toSessionResponse(snap))
		return
	}

	images, ok := readImages(c)
	if !ok {
		return
	}
	snap, err := session.ImportPhotos(c.Request.Context(), images)
	if err != nil {
		handleError(c, err)
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

func readImages(c *gin.Context) ([]ports.Image, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return nil, false
	}
	var files []*multipart.FileHeader
	files = append(files, form.File["images[]"]...)
	files = append(files, form.File["images"]...)
	if len(files) == 0 {
		httpkit.Error(c, http.StatusBadRequest, msgNoImages, nil)
		return nil, false
	}
	if len(files) > maxImages {
		httpkit.Error(c, http.StatusBadRequest, msgTooManyImages, nil)
		return nil, false
	}

	images := make([]ports.Image, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxImageBytes {
			httpkit.Error(c, http.StatusRequestEntityTooLarge, msgImageTooLarge, fh.Filename)
			return nil, false
		}
		data, err := readFile(fh)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
			return nil, false
		}
		mimeType := http.DetectContentType(data)
		if !storage.IsImageContentType(mimeType) || storage.ValidateContentType(mimeType) != nil {
			httpkit.Error(c, http.StatusUnsupportedMediaType, msgImageType, fh.Filename)
			return nil, false
		}
		images = append(images, ports.Image{Filename: fh.Filename, MIMEType: mimeType, Data: data})
	}
	return images, true
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(io.LimitReader(f, maxImageBytes))
}

// UpdateDraft merges customer, delivery and notes fields.
// PATCH /api/v1/drafts/:id/draft
func (h *Handler) UpdateDraft(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.UpdateDraftRequest
	if !h.bind(c, &req) {
		return
	}

	patch := drafts.DraftPatch{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		DeliveryDate:    req.DeliveryDate,
		DeliveryTime:    req.DeliveryTime,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
	}
	if req.DeliveryType != nil {
		t := extraction.DeliveryType(*req.DeliveryType)
		patch.DeliveryType = &t
	}

	snap, err := session.UpdateDraft(c.Request.Context(), patch)
	if err != nil {
		handleError(c, err)
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// ClearDraft discards the draft and closes the review dialog.
// DELETE /api/v1/drafts/:id/draft
func (h *Handler) ClearDraft(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	httpkit.OK(c, toSessionResponse(session.ClearDraft()))
}

// AddItem appends a catalog product.
// POST /api/v1/drafts/:id/items
func (h *Handler) AddItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.AddItemRequest
	if !h.bind(c, &req) {
		return
	}
	snap, err := session.AddItem(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, toSessionResponse(snap))
}

// UpdateItem edits one draft item.
// PATCH /api/v1/drafts/:id/items/:itemId
func (h *Handler) UpdateItem(c *gin.Context) {
	session, itemID, ok := h.sessionItem(c)
	if !ok {
		return
	}
	var req transport.UpdateItemRequest
	if !h.bind(c, &req) {
		return
	}
	snap, err := session.UpdateItem(itemID, drafts.ItemPatch{
		ExtractedName: req.ExtractedName,
		Quantity:      req.Quantity,
		Selected:      req.Selected,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// RemoveItem drops one draft item.
// DELETE /api/v1/drafts/:id/items/:itemId
func (h *Handler) RemoveItem(c *gin.Context) {
	session, itemID, ok := h.sessionItem(c)
	if !ok {
		return
	}
	snap, err := session.RemoveItem(itemID)
	if err != nil {
		handleError(c, err)
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// ToggleItem flips the selection of one item.
// POST /api/v1/drafts/:id/items/:itemId/toggle
func (h *Handler) ToggleItem(c *gin.Context) {
	session, itemID, ok := h.sessionItem(c)
	if !ok {
		return
	}
	snap, err := session.ToggleItemSelection(itemID)
	if err != nil {
		handleError(c, err)
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// RematchItem attaches another catalog product to an item.
// POST /api/v1/drafts/:id/items/:itemId/rematch
func (h *Handler) RematchItem(c *gin.Context) {
	session, itemID, ok := h.sessionItem(c)
	if !ok {
		return
	}
	var req transport.RematchItemRequest
	if !h.bind(c, &req) {
		return
	}
	snap, err := session.RematchItem(c.Request.Context(), itemID, req.ProductID)
	if err != nil {
		handleError(c, err)
		return
	}
	httpkit.OK(c, toSessionResponse(snap))
}

// Candidates lists the closest products for an item.
// GET /api/v1/drafts/:id/items/:itemId/candidates
func (h *Handler) Candidates(c *gin.Context) {
	session, itemID, ok := h.sessionItem(c)
	if !ok {
		return
	}
	var req transport.CandidatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultCandidates
	}

	matches, err := session.Candidates(c.Request.Context(), itemID, req.Limit)
	if err != nil {
		handleError(c, err)
		return
	}
	resp := make([]transport.CandidateResponse, 0, len(matches))
	for _, m := range matches {
		if m.Product == nil {
			continue
		}
		resp = append(resp, transport.CandidateResponse{Product: *m.Product, Confidence: m.Confidence, Score: m.Score})
	}
	httpkit.OK(c, resp)
}

// Validate reports errors and warnings without submitting.
// POST /api/v1/drafts/:id/validate
func (h *Handler) Validate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	result, err := session.Validate()
	if err != nil {
		handleError(c, err)
		return
	}
	httpkit.OK(c, result)
}

// CreateOrder submits the draft. Validation and sink failures come back as
// notices with status 200 and the draft kept.
// POST /api/v1/drafts/:id/order
func (h *Handler) CreateOrder(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	outcome, err := session.CreateOrder(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	resp := transport.CreateOrderResponse{
		Created: outcome.Created,
		Notices: make([]transport.NoticeResponse, 0, len(outcome.Notices)),
		Session: toSessionResponse(session.Snapshot()),
	}
	for _, n := range outcome.Notices {
		resp.Notices = append(resp.Notices, transport.NoticeResponse{Level: string(n.Level), Message: n.Message})
	}
	if outcome.Order != nil {
		resp.Order = &transport.CreatedOrderResponse{
			ID:          outcome.Order.ID,
			OrderNumber: outcome.Order.OrderNumber,
			TotalAmount: outcome.Order.TotalAmount,
		}
	}

	status := http.StatusOK
	if outcome.Created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, resp)
}

func (h *Handler) session(c *gin.Context) (*drafts.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return nil, false
	}
	session, err := h.registry.Get(id)
	if httpkit.HandleError(c, err) {
		return nil, false
	}
	return session, true
}

func (h *Handler) sessionItem(c *gin.Context) (*drafts.Session, uuid.UUID, bool) {
	session, ok := h.session(c)
	if !ok {
		return nil, uuid.Nil, false
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidItemID, nil)
		return nil, uuid.Nil, false
	}
	return session, itemID, true
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
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

// handleError maps session lifecycle errors before the generic apperr mapping.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, drafts.ErrSessionClosed):
		httpkit.Error(c, http.StatusGone, msgSessionClosed, nil)
	case errors.Is(err, drafts.ErrSubmissionCancelled):
		httpkit.Error(c, http.StatusConflict, msgCancelled, nil)
	default:
		httpkit.HandleError(c, err)
	}
}

func toSessionResponse(snap drafts.Snapshot) transport.SessionResponse {
	return transport.SessionResponse{
		ID:         snap.ID,
		Draft:      snap.Draft,
		DialogOpen: snap.DialogOpen,
		Creating:   snap.Creating,
		Total:      snap.Total,
		Validation: snap.Validation,
		Products:   snap.Products,
	}
}

// Compile-time check that Handler implements http.Module
var _ apphttp.Module = (*Handler)(nil)

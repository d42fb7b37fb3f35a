package handler

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"maremio_backend/internal/adapters/storage"
	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/public/transport"
	"maremio_backend/platform/httpkit"
)

const (
	msgInvalidImage = "immagine non valida"

	maxChatImageBytes = 8 << 20
)

var (
	errNotDataURL = errors.New("image must be a base64 data URL")
	errNotImage   = errors.New("data URL is not an image")
)

// Assistant answers a customer message about the menu, optionally reading a
// photo of the paper menu.
// POST /api/v1/public/assistant
func (h *Handler) Assistant(c *gin.Context) {
	var req transport.AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var image *ports.Image
	if req.Image != "" {
		img, err := decodeDataURL(req.Image)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidImage, err.Error())
			return
		}
		image = &img
	}

	result, err := h.svc.Chat(c.Request.Context(), req, image)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// decodeDataURL reads "data:image/jpeg;base64,...".
func decodeDataURL(value string) (ports.Image, error) {
	rest, ok := strings.CutPrefix(value, "data:")
	if !ok {
		return ports.Image{}, errNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return ports.Image{}, errNotDataURL
	}
	mimeType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return ports.Image{}, errNotDataURL
	}
	if !storage.IsImageContentType(mimeType) {
		return ports.Image{}, errNotImage
	}
	if err := storage.ValidateContentType(mimeType); err != nil {
		return ports.Image{}, err
	}
	if err := storage.ValidateFileSize(int64(base64.StdEncoding.DecodedLen(len(payload))), maxChatImageBytes); err != nil {
		return ports.Image{}, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ports.Image{}, err
	}
	return ports.Image{Filename: "chat" + extensionFor(mimeType), MIMEType: mimeType, Data: data}, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

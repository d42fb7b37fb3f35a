package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"maremio_backend/internal/whatsapp/transport"
)

const (
	mediaImage    = "image"
	mediaAudio    = "audio"
	mediaDocument = "document"
)

// MessageContent renders an inbound message as inbox text. Media messages
// get a placeholder; their payload is not downloaded.
func MessageContent(msg transport.WebhookMessage) (string, *string) {
	media := func(kind string) *string { return &kind }

	switch msg.Type {
	case "text":
		if msg.Text != nil {
			return msg.Text.Body, nil
		}
		return "", nil
	case "image":
		if msg.Image != nil && strings.TrimSpace(msg.Image.Caption) != "" {
			return msg.Image.Caption, media(mediaImage)
		}
		return "[Immagine]", media(mediaImage)
	case "audio", "voice":
		return "[Audio]", media(mediaAudio)
	case "document":
		if msg.Document != nil && msg.Document.Filename != "" {
			return msg.Document.Filename, media(mediaDocument)
		}
		return "[Documento]", media(mediaDocument)
	case "location":
		if msg.Location != nil {
			return fmt.Sprintf("[Posizione: %v, %v]", msg.Location.Latitude, msg.Location.Longitude), nil
		}
		return "[Posizione]", nil
	default:
		return "", nil
	}
}

// parseTimestamp reads Meta's unix-seconds timestamp, falling back to now.
func parseTimestamp(raw string, now time.Time) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return now
	}
	return time.Unix(secs, 0).UTC()
}

package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/extraction"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
)

const (
	itemsBlockOpen  = "[ITEMS_JSON]"
	itemsBlockClose = "[/ITEMS_JSON]"

	maxChatHistory = 20

	msgEmptyChat     = "scrivi un messaggio o allega una foto"
	msgChatFallback  = "Mi dispiace, non ho capito. Puoi riprovare?"
	defaultPhotoText = "Analizza questa foto del menù"
)

// ChatTurn is a previous message of the customer chat. Role is "user" or
// "assistant".
type ChatTurn struct {
	Role    string
	Content string
}

// ChatRequest is one customer message, optionally with a menu photo.
type ChatRequest struct {
	Message string
	History []ChatTurn
	Image   *ports.Image
}

// ChatReply is the assistant answer with the dishes it recognised, already
// matched against the catalog.
type ChatReply struct {
	Reply string
	Items []extraction.DraftItem
}

// ChatAssistant answers customers of the public page about the menu and
// turns their requests or menu photos into order lines.
type ChatAssistant struct {
	agent   *textAgent
	catalog ports.CatalogProvider
	log     *logger.Logger
}

// NewChatAssistant builds the customer chat agent over llm.
func NewChatAssistant(llm model.LLM, catalog ports.CatalogProvider, restaurantName string, log *logger.Logger) (*ChatAssistant, error) {
	a, err := newTextAgent(llm, "MenuChat", "public-menu-chat",
		"Answers customers about the menu and collects their order.", fmt.Sprintf(chatInstruction, restaurantName))
	if err != nil {
		return nil, err
	}
	return &ChatAssistant{agent: a, catalog: catalog, log: log}, nil
}

// Chat sends the message with the live menu and the recent history. A
// trailing items block is removed from the visible reply and matched
// against the available products.
func (a *ChatAssistant) Chat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" && req.Image == nil {
		return ChatReply{}, apperr.Validation(msgEmptyChat)
	}
	if message == "" {
		message = defaultPhotoText
	}

	products, err := a.catalog.AvailableProducts(ctx)
	if err != nil {
		return ChatReply{}, err
	}

	parts := []*genai.Part{textPart(buildChatPrompt(products, req.History, message))}
	if req.Image != nil {
		parts = append(parts, imagePart(*req.Image))
	}

	reply, err := a.agent.run(ctx, "chat-"+uuid.NewString(), parts...)
	if err != nil {
		return ChatReply{}, err
	}

	visible, block, found := splitItemsBlock(reply)
	items := []extraction.DraftItem{}
	if found {
		decoded, err := extraction.DecodePhotoResult(block)
		if err != nil {
			a.log.Warn("chat items block not decodable", "error", err)
		} else {
			items = extraction.MatchProducts(decoded.Items, products)
		}
	}
	if visible == "" {
		visible = msgChatFallback
	}
	return ChatReply{Reply: visible, Items: items}, nil
}

// splitItemsBlock cuts the first [ITEMS_JSON]...[/ITEMS_JSON] block out of
// reply. An unterminated block runs to the end of the reply.
func splitItemsBlock(reply string) (visible, block string, found bool) {
	start := strings.Index(reply, itemsBlockOpen)
	if start < 0 {
		return strings.TrimSpace(reply), "", false
	}
	rest := reply[start+len(itemsBlockOpen):]
	end := strings.Index(rest, itemsBlockClose)
	if end < 0 {
		return strings.TrimSpace(reply[:start]), rest, true
	}
	visible = reply[:start] + rest[end+len(itemsBlockClose):]
	return strings.TrimSpace(visible), rest[:end], true
}

func buildChatPrompt(products []extraction.Product, history []ChatTurn, message string) string {
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}

	var b strings.Builder
	b.WriteString("MENÙ DISPONIBILE:\n")
	if len(products) == 0 {
		b.WriteString("Menu non disponibile\n")
	} else {
		for _, p := range products {
			unit := p.Unit
			if unit == "" {
				unit = "porzione"
			}
			fmt.Fprintf(&b, "- %s: €%.2f/%s\n", p.Name, p.Price, unit)
		}
	}

	if len(history) > 0 {
		b.WriteString("\nCONVERSAZIONE PRECEDENTE:\n")
		for _, turn := range history {
			content := strings.TrimSpace(turn.Content)
			if content == "" {
				continue
			}
			if turn.Role == "assistant" {
				b.WriteString("[Assistente]: ")
			} else {
				b.WriteString("[Cliente]: ")
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nMESSAGGIO DEL CLIENTE:\n")
	b.WriteString(message)
	return b.String()
}

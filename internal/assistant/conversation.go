package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/model"

	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/extraction"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
)

const msgEmptyConversation = "la conversazione non contiene messaggi"

// ConversationSource loads a stored conversation.
type ConversationSource interface {
	ConversationTranscript(ctx context.Context, conversationID uuid.UUID) (Transcript, error)
}

// ConversationAssistant extracts orders from WhatsApp conversations and
// drafts summaries and replies for the operator.
type ConversationAssistant struct {
	source    ConversationSource
	catalog   ports.CatalogProvider
	extractor *textAgent
	summary   *textAgent
	replier   *textAgent
	log       *logger.Logger
}

// NewConversationAssistant builds the three conversation agents over llm.
func NewConversationAssistant(llm model.LLM, source ConversationSource, catalog ports.CatalogProvider, restaurantName string, log *logger.Logger) (*ConversationAssistant, error) {
	extractor, err := newTextAgent(llm, "OrderExtractor", "whatsapp-order-extractor",
		"Extracts structured orders from WhatsApp conversations.", extractorInstruction)
	if err != nil {
		return nil, err
	}
	summary, err := newTextAgent(llm, "ConversationSummarizer", "whatsapp-summarizer",
		"Summarizes customer conversations.", summarizerInstruction)
	if err != nil {
		return nil, err
	}
	replier, err := newTextAgent(llm, "ReplySuggester", "whatsapp-reply-suggester",
		"Suggests replies to customers.", fmt.Sprintf(replierInstruction, restaurantName))
	if err != nil {
		return nil, err
	}

	return &ConversationAssistant{
		source:    source,
		catalog:   catalog,
		extractor: extractor,
		summary:   summary,
		replier:   replier,
		log:       log,
	}, nil
}

func (a *ConversationAssistant) transcript(ctx context.Context, conversationID uuid.UUID) (Transcript, error) {
	t, err := a.source.ConversationTranscript(ctx, conversationID)
	if err != nil {
		return Transcript{}, err
	}
	if strings.TrimSpace(t.render()) == "" {
		return Transcript{}, apperr.Validation(msgEmptyConversation)
	}
	return t, nil
}

// ExtractOrder reads an order out of a conversation. A reply that is not
// valid JSON yields an empty result rather than an error so the operator can
// still fill the draft by hand.
func (a *ConversationAssistant) ExtractOrder(ctx context.Context, conversationID uuid.UUID) (ports.ParsedConversation, error) {
	t, err := a.transcript(ctx, conversationID)
	if err != nil {
		return ports.ParsedConversation{}, err
	}
	products, err := a.catalog.AvailableProducts(ctx)
	if err != nil {
		return ports.ParsedConversation{}, err
	}

	reply, err := a.extractor.run(ctx, "conversation-"+conversationID.String(), textPart(buildExtractPrompt(t, products)))
	if err != nil {
		return ports.ParsedConversation{}, err
	}

	result, err := extraction.DecodeWhatsAppResult(reply)
	if err != nil {
		a.log.Warn("order extraction reply not decodable", "conversationId", conversationID, "error", err)
	}
	result.RawText = t.render()
	return ports.ParsedConversation{Result: result, PhoneNumber: t.PhoneNumber}, nil
}

// Summarize returns a short bullet summary of a conversation.
func (a *ConversationAssistant) Summarize(ctx context.Context, conversationID uuid.UUID) (string, error) {
	t, err := a.transcript(ctx, conversationID)
	if err != nil {
		return "", err
	}
	return a.summary.run(ctx, "conversation-"+conversationID.String(), textPart(buildSummaryPrompt(t)))
}

// SuggestReply drafts an answer to the customer's last message.
func (a *ConversationAssistant) SuggestReply(ctx context.Context, conversationID uuid.UUID) (string, error) {
	t, err := a.transcript(ctx, conversationID)
	if err != nil {
		return "", err
	}
	return a.replier.run(ctx, "conversation-"+conversationID.String(), textPart(buildReplyPrompt(t)))
}

var _ ports.ConversationParser = (*ConversationAssistant)(nil)

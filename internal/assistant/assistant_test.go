package assistant

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/extraction"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
)

// scriptedLLM answers every request through reply and records prompts.
type scriptedLLM struct {
	mu      sync.Mutex
	prompts []string
	images  int
	reply   func(prompt string) (string, error)
}

func (m *scriptedLLM) Name() string { return "scripted" }

func (m *scriptedLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	var prompt strings.Builder
	images := 0
	for _, content := range req.Contents {
		for _, part := range content.Parts {
			prompt.WriteString(part.Text)
			if part.InlineData != nil {
				images++
			}
		}
	}

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt.String())
	m.images += images
	m.mu.Unlock()

	return func(yield func(*model.LLMResponse, error) bool) {
		text, err := m.reply(prompt.String())
		if err != nil {
			yield(nil, err)
			return
		}
		yield(&model.LLMResponse{Content: genai.NewContentFromText(text, genai.RoleModel)}, nil)
	}
}

type staticSource struct {
	transcript Transcript
}

func (s staticSource) ConversationTranscript(context.Context, uuid.UUID) (Transcript, error) {
	return s.transcript, nil
}

type staticCatalog []extraction.Product

func (c staticCatalog) AvailableProducts(context.Context) ([]extraction.Product, error) {
	return c, nil
}

var menu = staticCatalog{
	{ID: uuid.New(), Name: "Lasagna di mare", Price: 18.5, Unit: "porzione", Category: "primi", Available: true},
	{ID: uuid.New(), Name: "Tiramisù", Price: 6.5, Unit: "porzione", Category: "dolci", Available: true},
}

func chat() Transcript {
	return Transcript{
		PhoneNumber:  "393331234567",
		CustomerName: "Mario Rossi",
		Lines: []TranscriptLine{
			{Inbound: true, Content: "Buongiorno, vorrei 2 lasagne per la vigilia"},
			{Inbound: false, Content: "Certo, a che ora passa?"},
			{Inbound: true, Content: "Alle 12, grazie"},
		},
	}
}

func TestExtractOrderDecodesReply(t *testing.T) {
	llm := &scriptedLLM{reply: func(string) (string, error) {
		return "```json\n{\"customer\":{\"name\":\"Mario Rossi\"},\"items\":[{\"name\":\"Lasagna di mare\",\"quantity\":\"2\"}],\"delivery_date\":\"2024-12-24\",\"delivery_time\":\"12:00\",\"delivery_type\":\"ritiro\"}\n```", nil
	}}
	a, err := NewConversationAssistant(llm, staticSource{chat()}, menu, "Mare Mio", logger.Discard())
	if err != nil {
		t.Fatalf("new assistant: %v", err)
	}

	parsed, err := a.ExtractOrder(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if parsed.PhoneNumber != "393331234567" {
		t.Fatalf("unexpected phone %q", parsed.PhoneNumber)
	}
	r := parsed.Result
	if r.CustomerName != "Mario Rossi" || len(r.Items) != 1 || r.Items[0].Quantity != 2 || r.DeliveryTime != "12:00" {
		t.Fatalf("unexpected result %+v", r)
	}
	if !strings.Contains(r.RawText, "[Cliente]: Alle 12, grazie") {
		t.Fatalf("expected raw transcript kept, got %q", r.RawText)
	}

	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "- Lasagna di mare (primi): €18.50") || !strings.Contains(prompt, "[Noi]: Certo") {
		t.Fatalf("prompt misses menu or transcript:\n%s", prompt)
	}
}

func TestExtractOrderToleratesProse(t *testing.T) {
	llm := &scriptedLLM{reply: func(string) (string, error) { return "Non riesco a leggere l'ordine.", nil }}
	a, _ := NewConversationAssistant(llm, staticSource{chat()}, menu, "Mare Mio", logger.Discard())

	parsed, err := a.ExtractOrder(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(parsed.Result.Items) != 0 {
		t.Fatalf("expected empty result, got %+v", parsed.Result)
	}
}

func TestEmptyConversationRejected(t *testing.T) {
	llm := &scriptedLLM{reply: func(string) (string, error) { return "", nil }}
	a, _ := NewConversationAssistant(llm, staticSource{Transcript{PhoneNumber: "39333"}}, menu, "Mare Mio", logger.Discard())

	if _, err := a.Summarize(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(llm.prompts) != 0 {
		t.Fatalf("model must not be called")
	}
}

func TestSuggestReplyUsesCustomerName(t *testing.T) {
	llm := &scriptedLLM{reply: func(string) (string, error) { return "  Perfetto Mario, a domani!  ", nil }}
	a, _ := NewConversationAssistant(llm, staticSource{chat()}, menu, "Mare Mio", logger.Discard())

	reply, err := a.SuggestReply(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if reply != "Perfetto Mario, a domani!" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if !strings.Contains(llm.prompts[0], "Mario Rossi") {
		t.Fatalf("expected customer name in prompt")
	}
}

type memoryArchive struct {
	mu   sync.Mutex
	keys []string
}

func (a *memoryArchive) UploadFile(_ context.Context, bucket, folder, fileName, _ string, _ io.Reader, _ int64) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := bucket + "/" + folder + "/" + fileName
	a.keys = append(a.keys, key)
	return key, nil
}

func TestAnalyzePhotosMergesAcrossImages(t *testing.T) {
	llm := &scriptedLLM{reply: func(string) (string, error) {
		return `{"items":[{"product":"Tiramisù","quantity":2,"confidence":"high"},{"product":"lasagna di mare","quantity":1}]}`, nil
	}}
	p, err := NewPhotoAnalyzer(llm, logger.Discard())
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	archive := &memoryArchive{}
	p.SetArchive(archive, "menu-photos")

	images := []ports.Image{
		{Filename: "a.jpg", MIMEType: "image/jpeg", Data: []byte("not-a-real-jpeg")},
		{Filename: "b.jpg", MIMEType: "image/jpeg", Data: []byte("still-not-a-jpeg")},
	}
	result, err := p.AnalyzePhotos(context.Background(), images, menu)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(result.Items) != 2 || result.Items[0].Quantity != 4 || result.Items[1].Quantity != 2 {
		t.Fatalf("expected merged quantities, got %+v", result.Items)
	}
	if llm.images != 2 {
		t.Fatalf("expected one image per call, got %d", llm.images)
	}
	if !strings.Contains(llm.prompts[0], "- Tiramisù (porzione)") {
		t.Fatalf("prompt misses product list:\n%s", llm.prompts[0])
	}
	if len(archive.keys) != 2 || !strings.HasPrefix(archive.keys[0], "menu-photos/menu-photos/") {
		t.Fatalf("expected both photos archived, got %v", archive.keys)
	}
}

func TestAnalyzePhotosFailsOnModelError(t *testing.T) {
	llm := &scriptedLLM{reply: func(string) (string, error) { return "", errors.New("gateway down") }}
	p, _ := NewPhotoAnalyzer(llm, logger.Discard())

	if _, err := p.AnalyzePhotos(context.Background(), []ports.Image{{Filename: "a.jpg", Data: []byte("x")}}, menu); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := p.AnalyzePhotos(context.Background(), nil, menu); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for no images, got %v", err)
	}
}

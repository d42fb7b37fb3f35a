package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"maremio_backend/internal/assistant"
	catalogtransport "maremio_backend/internal/catalog/transport"
	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/extraction"
	"maremio_backend/internal/public/service"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"
)

type emptyCatalog struct{}

func (emptyCatalog) AvailableProducts(context.Context) ([]extraction.Product, error) {
	return nil, nil
}

func (emptyCatalog) Menu(context.Context) ([]catalogtransport.MenuSection, error) {
	return []catalogtransport.MenuSection{}, nil
}

type noopSink struct{}

func (noopSink) NextOrderNumber(context.Context, string) (string, error) { return "1-1", nil }

func (noopSink) CreateOrder(context.Context, ports.OrderPayload) (ports.CreatedOrder, error) {
	return ports.CreatedOrder{}, nil
}

func newEngine(baseURL string) *gin.Engine {
	return newEngineWith(baseURL, nil)
}

func newEngineWith(baseURL string, a service.Assistant) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("development")
	svc := service.New(emptyCatalog{}, emptyCatalog{}, noopSink{}, log)
	if a != nil {
		svc.SetAssistant(a)
	}
	h := New(svc, validator.New(), baseURL, log)

	r := gin.New()
	r.GET("/menu", h.Menu)
	r.GET("/slots", h.Slots)
	r.POST("/orders", h.PlaceOrder)
	r.GET("/qr.png", h.QRCode)
	r.POST("/assistant", h.Assistant)
	return r
}

func TestSlotsOK(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine("").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slots", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "11:00") {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}
}

func TestPlaceOrderRejectsMissingFields(t *testing.T) {
	body := bytes.NewBufferString(`{"customerName":"Maria","deliveryType":"consegna","items":[]}`)
	w := httptest.NewRecorder()
	newEngine("").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", body))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPlaceOrderRejectsBadJSON(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine("").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestQRCodeRendersPNG(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine("https://maremio.example/").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/qr.png?size=200", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected png signature")
	}
}

func TestQRCodeWithoutBaseURL(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine("").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/qr.png", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestQRCodeRejectsOversize(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine("https://maremio.example").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/qr.png?size=5000", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

type echoAssistant struct {
	last assistant.ChatRequest
}

func (a *echoAssistant) Chat(_ context.Context, req assistant.ChatRequest) (assistant.ChatReply, error) {
	a.last = req
	return assistant.ChatReply{Reply: "Certo!", Items: []extraction.DraftItem{{ExtractedName: "polpo", Quantity: 2}}}, nil
}

func postAssistant(engine *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/assistant", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	return w
}

func TestAssistantUnavailableWithoutAI(t *testing.T) {
	w := postAssistant(newEngine(""), `{"message":"ciao"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestAssistantPassesPhoto(t *testing.T) {
	a := &echoAssistant{}
	image := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))
	w := postAssistant(newEngineWith("", a), `{"message":"<b>2 polpi</b>","image":"`+image+`","history":[{"role":"user","content":"ciao"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if a.last.Image == nil || a.last.Image.MIMEType != "image/png" || string(a.last.Image.Data) != "\x89PNG fake" {
		t.Fatalf("image not decoded: %+v", a.last.Image)
	}
	if a.last.Message != "2 polpi" || len(a.last.History) != 1 {
		t.Fatalf("unexpected request %+v", a.last)
	}
	if !strings.Contains(w.Body.String(), `"response":"Certo!"`) || !strings.Contains(w.Body.String(), `"matched":false`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestAssistantRejectsBadImages(t *testing.T) {
	engine := newEngineWith("", &echoAssistant{})
	for _, image := range []string{
		"https://example.com/menu.jpg",
		"data:application/json;base64,e30=",
		"data:image/png;base64,@@@",
		"data:image/png,raw",
	} {
		if w := postAssistant(engine, `{"message":"ciao","image":"`+image+`"}`); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", image, w.Code)
		}
	}
	if w := postAssistant(engine, `{"message":"ciao","history":[{"role":"system","content":"x"}]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", w.Code)
	}
}

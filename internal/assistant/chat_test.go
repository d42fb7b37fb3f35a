package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"maremio_backend/internal/drafts/ports"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
)

func TestChatStripsItemsBlockAndMatches(t *testing.T) {
	llm := &scriptedLLM{reply: func(string) (string, error) {
		return "Ottima scelta! Per voi 2 lasagne e un tiramisù.\n" +
			`[ITEMS_JSON]{"items":[{"name":"Lasagna di mare","quantity":2},{"name":"panettone","quantity":"1"}]}[/ITEMS_JSON]`, nil
	}}
	a, err := NewChatAssistant(llm, menu, "Mare Mio", logger.Discard())
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}

	reply, err := a.Chat(context.Background(), ChatRequest{
		Message: "Siamo in 2, cosa ci consigli?",
		History: []ChatTurn{{Role: "assistant", Content: "Ciao! Come posso aiutarti?"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if strings.Contains(reply.Reply, "ITEMS_JSON") || !strings.HasPrefix(reply.Reply, "Ottima scelta!") {
		t.Fatalf("items block not stripped: %q", reply.Reply)
	}
	if len(reply.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", reply.Items)
	}
	if reply.Items[0].MatchedProduct == nil || reply.Items[0].MatchedProduct.Name != "Lasagna di mare" || reply.Items[0].Quantity != 2 {
		t.Fatalf("unexpected first item %+v", reply.Items[0])
	}
	if reply.Items[1].MatchedProduct != nil || reply.Items[1].Quantity != 1 {
		t.Fatalf("expected unmatched panettone, got %+v", reply.Items[1])
	}

	prompt := llm.prompts[0]
	for _, want := range []string{"- Tiramisù: €6.50/porzione", "[Assistente]: Ciao!", "Siamo in 2"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt misses %q:\n%s", want, prompt)
		}
	}
}

func TestChatWithPhotoOnly(t *testing.T) {
	llm := &scriptedLLM{reply: func(string) (string, error) { return "Non vedo piatti segnati.", nil }}
	a, _ := NewChatAssistant(llm, menu, "Mare Mio", logger.Discard())

	reply, err := a.Chat(context.Background(), ChatRequest{Image: &ports.Image{Filename: "menu.jpg", MIMEType: "image/jpeg", Data: []byte("x")}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if llm.images != 1 || !strings.Contains(llm.prompts[0], defaultPhotoText) {
		t.Fatalf("expected image with default text, images=%d prompt=%q", llm.images, llm.prompts[0])
	}
	if reply.Items == nil || len(reply.Items) != 0 {
		t.Fatalf("expected empty items, got %+v", reply.Items)
	}
}

func TestChatKeepsReplyWhenItemsBlockBroken(t *testing.T) {
	llm := &scriptedLLM{reply: func(string) (string, error) { return "Ecco fatto [ITEMS_JSON]non json", nil }}
	a, _ := NewChatAssistant(llm, menu, "Mare Mio", logger.Discard())

	reply, err := a.Chat(context.Background(), ChatRequest{Message: "2 tiramisù"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply.Reply != "Ecco fatto" || len(reply.Items) != 0 {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestChatFallbackAndErrors(t *testing.T) {
	llm := &scriptedLLM{reply: func(string) (string, error) {
		return `[ITEMS_JSON]{"items":[]}[/ITEMS_JSON]`, nil
	}}
	a, _ := NewChatAssistant(llm, menu, "Mare Mio", logger.Discard())

	reply, err := a.Chat(context.Background(), ChatRequest{Message: "ciao"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply.Reply != msgChatFallback {
		t.Fatalf("expected fallback reply, got %q", reply.Reply)
	}

	if _, err := a.Chat(context.Background(), ChatRequest{Message: "  "}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	failing := &scriptedLLM{reply: func(string) (string, error) { return "", errors.New("gateway down") }}
	b, _ := NewChatAssistant(failing, menu, "Mare Mio", logger.Discard())
	if _, err := b.Chat(context.Background(), ChatRequest{Message: "ciao"}); err == nil {
		t.Fatalf("expected model error")
	}
}

func TestSplitItemsBlock(t *testing.T) {
	visible, block, found := splitItemsBlock("Prima [ITEMS_JSON]{\"items\":[]}[/ITEMS_JSON] dopo")
	if !found || block != `{"items":[]}` || visible != "Prima  dopo" {
		t.Fatalf("unexpected split %q %q %v", visible, block, found)
	}
	if visible, _, found := splitItemsBlock(" solo testo "); found || visible != "solo testo" {
		t.Fatalf("unexpected split without block: %q %v", visible, found)
	}
}

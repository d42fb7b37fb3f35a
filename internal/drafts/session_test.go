package drafts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/extraction"
	"maremio_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeCatalog struct {
	products []extraction.Product
	calls    int
	err      error
}

func (f *fakeCatalog) AvailableProducts(ctx context.Context) ([]extraction.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type fakeSink struct {
	mu       sync.Mutex
	payloads []ports.OrderPayload
	dates    []string
	err      error
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeSink) NextOrderNumber(ctx context.Context, date string) (string, error) {
	f.mu.Lock()
	f.dates = append(f.dates, date)
	f.mu.Unlock()
	return "24-101", nil
}

func (f *fakeSink) CreateOrder(ctx context.Context, payload ports.OrderPayload) (ports.CreatedOrder, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ports.CreatedOrder{}, ctx.Err()
		}
	}
	if f.err != nil {
		return ports.CreatedOrder{}, f.err
	}
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	return ports.CreatedOrder{ID: uuid.New(), OrderNumber: payload.OrderNumber, TotalAmount: payload.TotalAmount}, nil
}

type fakeCustomers struct{ id uuid.UUID }

func (f fakeCustomers) FindIDByPhone(ctx context.Context, phone string) (*uuid.UUID, error) {
	id := f.id
	return &id, nil
}

type phoneBook map[string]uuid.UUID

func (p phoneBook) FindIDByPhone(ctx context.Context, phone string) (*uuid.UUID, error) {
	id, ok := p[phone]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

var (
	orata    = extraction.Product{ID: uuid.New(), Name: "Orata al forno", Price: 18, Available: true}
	insalata = extraction.Product{ID: uuid.New(), Name: "Insalata di mare", Price: 12.5, Available: true}
)

func newTestSession(sink *fakeSink) (*Session, *fakeCatalog) {
	catalog := &fakeCatalog{products: []extraction.Product{orata, insalata}}
	return NewSession(Deps{Catalog: catalog, Sink: sink}), catalog
}

func whatsappResult() extraction.WhatsAppParseResult {
	return extraction.WhatsAppParseResult{
		CustomerName: "Mario Rossi",
		Items: []extraction.AIExtractedItem{
			{Name: "orata al forno", Quantity: 2},
			{Name: "insalata di mare", Quantity: 1},
			{Name: "panettone", Quantity: 1},
		},
		DeliveryDate: "2024-12-24",
		DeliveryTime: "12:30",
		DeliveryType: "consegna a domicilio",
	}
}

func TestImportFromWhatsAppMatchesAndOpensDialog(t *testing.T) {
	s, catalog := newTestSession(&fakeSink{})

	snap, err := s.ImportFromWhatsApp(context.Background(), whatsappResult(), "conv-1", "+393331234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.DialogOpen || snap.Draft == nil {
		t.Fatalf("expected open dialog with draft")
	}
	if len(snap.Draft.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(snap.Draft.Items))
	}
	if snap.Draft.Customer.Phone != "+393331234567" {
		t.Fatalf("expected conversation phone fallback, got %q", snap.Draft.Customer.Phone)
	}
	if snap.Draft.Delivery.Type != extraction.DeliveryShipping {
		t.Fatalf("expected consegna, got %q", snap.Draft.Delivery.Type)
	}
	if snap.Total != 48.5 {
		t.Fatalf("expected total 48.5, got %v", snap.Total)
	}

	if _, err := s.ImportFromPhoto(context.Background(), extraction.PhotoAnalysisResult{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if catalog.calls != 1 {
		t.Fatalf("expected catalog fetched once, got %d", catalog.calls)
	}
}

func TestImportLinksKnownCustomer(t *testing.T) {
	known := uuid.New()
	s := NewSession(Deps{
		Catalog:   &fakeCatalog{products: []extraction.Product{orata}},
		Sink:      &fakeSink{},
		Customers: fakeCustomers{id: known},
	})

	snap, err := s.ImportFromWhatsApp(context.Background(), whatsappResult(), "conv-1", "3331234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Draft.Customer.MatchedCustomerID == nil || *snap.Draft.Customer.MatchedCustomerID != known {
		t.Fatalf("expected matched customer %s", known)
	}
}

func TestUpdateDraftPhoneRelinksCustomer(t *testing.T) {
	mario, anna := uuid.New(), uuid.New()
	s := NewSession(Deps{
		Catalog:   &fakeCatalog{products: []extraction.Product{orata}},
		Sink:      &fakeSink{},
		Customers: phoneBook{"3331234567": mario, "3479876543": anna},
	})
	ctx := context.Background()

	if _, err := s.ImportFromWhatsApp(ctx, whatsappResult(), "conv-1", "3331234567"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := "3479876543"
	snap, err := s.UpdateDraft(ctx, DraftPatch{CustomerPhone: &other})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := snap.Draft.Customer.MatchedCustomerID; got == nil || *got != anna {
		t.Fatalf("expected link to %s, got %v", anna, got)
	}

	unknown := "3200000000"
	snap, err = s.UpdateDraft(ctx, DraftPatch{CustomerPhone: &unknown})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Draft.Customer.MatchedCustomerID != nil {
		t.Fatalf("expected stale link cleared, got %v", *snap.Draft.Customer.MatchedCustomerID)
	}

	// Payload sent to the order sink must not carry the old customer.
	payload := BuildOrderPayload(*snap.Draft, "24-001")
	if payload.MatchedCustomerID != nil {
		t.Fatalf("expected payload without customer link")
	}

	name := "Mario"
	snap, err = s.UpdateDraft(ctx, DraftPatch{CustomerName: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Draft.Customer.MatchedCustomerID != nil {
		t.Fatalf("expected link untouched by name patch")
	}
}

func TestImportCatalogFailure(t *testing.T) {
	boom := errors.New("db down")
	s := NewSession(Deps{Catalog: &fakeCatalog{err: boom}, Sink: &fakeSink{}})
	if _, err := s.ImportFromWhatsApp(context.Background(), whatsappResult(), "c", ""); !errors.Is(err, boom) {
		t.Fatalf("expected catalog error, got %v", err)
	}
	if s.Snapshot().Draft != nil {
		t.Fatalf("expected no draft after failed import")
	}
}

func TestImportNilItemsYieldsEmptyDraftItems(t *testing.T) {
	s, _ := newTestSession(&fakeSink{})
	snap, err := s.ImportFromWhatsApp(context.Background(), extraction.WhatsAppParseResult{}, "c", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Draft.Items == nil || len(snap.Draft.Items) != 0 {
		t.Fatalf("expected empty items, got %v", snap.Draft.Items)
	}
}

func TestToggleRefusesUnmatchedItem(t *testing.T) {
	s, _ := newTestSession(&fakeSink{})
	snap, _ := s.ImportFromWhatsApp(context.Background(), whatsappResult(), "c", "")
	unmatched := snap.Draft.Items[2]
	if unmatched.MatchedProduct != nil {
		t.Fatalf("expected third item unmatched")
	}

	snap, err := s.ToggleItemSelection(unmatched.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Draft.Items[2].Selected {
		t.Fatalf("expected unmatched item to stay unselected")
	}

	selected := true
	snap, _ = s.UpdateItem(unmatched.ID, ItemPatch{Selected: &selected})
	if snap.Draft.Items[2].Selected {
		t.Fatalf("expected update to refuse selection")
	}

	snap, _ = s.ToggleItemSelection(snap.Draft.Items[0].ID)
	if snap.Draft.Items[0].Selected {
		t.Fatalf("expected matched item to toggle off")
	}
}

func TestUpdateItemAndRemove(t *testing.T) {
	s, _ := newTestSession(&fakeSink{})
	snap, _ := s.ImportFromWhatsApp(context.Background(), whatsappResult(), "c", "")
	first := snap.Draft.Items[0].ID

	zero := 0
	if _, err := s.UpdateItem(first, ItemPatch{Quantity: &zero}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	three := 3
	snap, err := s.UpdateItem(first, ItemPatch{Quantity: &three})
	if err != nil || snap.Draft.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %v (err %v)", snap.Draft.Items[0].Quantity, err)
	}

	snap, err = s.RemoveItem(first)
	if err != nil || len(snap.Draft.Items) != 2 {
		t.Fatalf("expected 2 items after removal, got %d (err %v)", len(snap.Draft.Items), err)
	}
	if _, err := s.RemoveItem(first); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second removal, got %v", err)
	}
}

func TestRematchAndAddItem(t *testing.T) {
	s, _ := newTestSession(&fakeSink{})
	snap, _ := s.ImportFromWhatsApp(context.Background(), whatsappResult(), "c", "")
	unmatched := snap.Draft.Items[2].ID

	snap, err := s.RematchItem(context.Background(), unmatched, insalata.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	item := snap.Draft.Items[2]
	if item.MatchedProduct == nil || item.MatchedProduct.ID != insalata.ID || !item.Selected || item.Confidence != extraction.ConfidenceHigh {
		t.Fatalf("unexpected rematched item %+v", item)
	}

	if _, err := s.RematchItem(context.Background(), unmatched, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}

	snap, err = s.AddItem(context.Background(), orata.ID, 1)
	if err != nil || len(snap.Draft.Items) != 4 || !snap.Draft.Items[3].Selected {
		t.Fatalf("expected added selected item, got %+v (err %v)", snap.Draft.Items, err)
	}
}

func TestUpdateDraftMergesFields(t *testing.T) {
	s, _ := newTestSession(&fakeSink{})
	if _, err := s.UpdateDraft(context.Background(), DraftPatch{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found without draft, got %v", err)
	}

	if _, err := s.StartManual(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name := "Anna"
	typ := extraction.DeliveryShipping
	addr := "Via Roma 1"
	snap, err := s.UpdateDraft(context.Background(), DraftPatch{CustomerName: &name, DeliveryType: &typ, DeliveryAddress: &addr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Draft.Customer.Name != "Anna" || snap.Draft.Delivery.Type != extraction.DeliveryShipping || snap.Draft.Delivery.Address != addr {
		t.Fatalf("unexpected draft %+v", snap.Draft)
	}
	if snap.Draft.Source != extraction.SourceManual {
		t.Fatalf("expected manual source, got %q", snap.Draft.Source)
	}
}

func TestCreateOrderInvalidDoesNotCallSink(t *testing.T) {
	sink := &fakeSink{}
	s, _ := newTestSession(sink)
	if _, err := s.StartManual(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, err := s.CreateOrder(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Created {
		t.Fatalf("expected no order")
	}
	if len(outcome.Notices) != 4 {
		t.Fatalf("expected 4 error notices, got %v", outcome.Notices)
	}
	for _, n := range outcome.Notices {
		if n.Level != NoticeError {
			t.Fatalf("expected error notices only, got %+v", n)
		}
	}
	if len(sink.dates) != 0 || len(sink.payloads) != 0 {
		t.Fatalf("expected sink untouched")
	}
	if s.Snapshot().Draft == nil {
		t.Fatalf("expected draft kept")
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	sink := &fakeSink{}
	s, _ := newTestSession(sink)
	if _, err := s.ImportFromWhatsApp(context.Background(), whatsappResult(), "c", "3331234567"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, err := s.CreateOrder(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Created || outcome.Order == nil {
		t.Fatalf("expected created order")
	}

	if len(sink.dates) != 1 || sink.dates[0] != "2024-12-24" {
		t.Fatalf("expected order number keyed by delivery date, got %v", sink.dates)
	}
	payload := sink.payloads[0]
	if payload.DeliveryType != "delivery" {
		t.Fatalf("expected delivery, got %q", payload.DeliveryType)
	}
	if payload.OrderNumber != "24-101" || payload.TotalAmount != 48.5 || len(payload.Items) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Items[0].ProductID != orata.ID || payload.Items[0].Price != 18 || payload.Items[0].Quantity != 2 {
		t.Fatalf("unexpected first line %+v", payload.Items[0])
	}

	last := outcome.Notices[len(outcome.Notices)-1]
	if last.Level != NoticeSuccess || last.Message != "Ordine creato con successo!" {
		t.Fatalf("expected success notice, got %+v", last)
	}
	if outcome.Notices[0].Level != NoticeWarning || outcome.Notices[0].Message != "1 prodotti non riconosciuti" {
		t.Fatalf("expected unmatched warning first, got %+v", outcome.Notices[0])
	}

	snap := s.Snapshot()
	if snap.Draft != nil || snap.DialogOpen || snap.Creating {
		t.Fatalf("expected cleared state, got %+v", snap)
	}
}

func TestCreateOrderSinkFailureKeepsDraft(t *testing.T) {
	sink := &fakeSink{err: errors.New("insert failed")}
	s, _ := newTestSession(sink)
	before, _ := s.ImportFromWhatsApp(context.Background(), whatsappResult(), "c", "333")

	outcome, err := s.CreateOrder(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Created {
		t.Fatalf("expected failure")
	}
	last := outcome.Notices[len(outcome.Notices)-1]
	if last.Level != NoticeError || last.Message != "Errore nella creazione dell'ordine" {
		t.Fatalf("expected generic failure notice, got %+v", last)
	}

	after := s.Snapshot()
	if after.Draft == nil || !after.DialogOpen || after.Creating {
		t.Fatalf("expected draft kept and dialog open, got %+v", after)
	}
	if len(after.Draft.Items) != len(before.Draft.Items) || after.Total != before.Total {
		t.Fatalf("expected draft unchanged")
	}
}

func TestCreateOrderNotReentrant(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{}), started: make(chan struct{})}
	s, _ := newTestSession(sink)
	_, _ = s.ImportFromWhatsApp(context.Background(), whatsappResult(), "c", "333")

	done := make(chan CreateOutcome)
	go func() {
		outcome, _ := s.CreateOrder(context.Background())
		done <- outcome
	}()
	<-sink.started

	if _, err := s.CreateOrder(context.Background()); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on double submit, got %v", err)
	}
	if _, err := s.UpdateDraft(context.Background(), DraftPatch{}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected edits rejected while submitting, got %v", err)
	}

	close(sink.block)
	if outcome := <-done; !outcome.Created {
		t.Fatalf("expected first submission to succeed")
	}
}

func TestCloseCancelsInFlightSubmission(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{}), started: make(chan struct{})}
	s, _ := newTestSession(sink)
	_, _ = s.ImportFromWhatsApp(context.Background(), whatsappResult(), "c", "333")

	errCh := make(chan error)
	go func() {
		_, err := s.CreateOrder(context.Background())
		errCh <- err
	}()
	<-sink.started
	s.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrSessionClosed) {
			t.Fatalf("expected ErrSessionClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("submission was not cancelled")
	}
	if len(sink.payloads) != 0 {
		t.Fatalf("expected no persisted payload")
	}
	if _, err := s.StartManual(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected closed session to reject work, got %v", err)
	}
}

func TestClearDraftSuppressesLateResult(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{}), started: make(chan struct{})}
	s, _ := newTestSession(sink)
	_, _ = s.ImportFromWhatsApp(context.Background(), whatsappResult(), "c", "333")

	errCh := make(chan error)
	go func() {
		_, err := s.CreateOrder(context.Background())
		errCh <- err
	}()
	<-sink.started

	snap := s.ClearDraft()
	if snap.Draft != nil || snap.DialogOpen || snap.Creating {
		t.Fatalf("expected cleared state, got %+v", snap)
	}
	if err := <-errCh; !errors.Is(err, ErrSubmissionCancelled) {
		t.Fatalf("expected ErrSubmissionCancelled, got %v", err)
	}
	if s.Snapshot().Creating {
		t.Fatalf("expected creating flag reset")
	}
}

func TestBuildOrderPayloadDefaults(t *testing.T) {
	draft := extraction.NewEmptyDraft()
	draft.Delivery.Date = "2024-12-31"
	p := BuildOrderPayload(draft, "31-100")
	if p.CustomerName != "Cliente" {
		t.Fatalf("expected fallback customer name, got %q", p.CustomerName)
	}
	if p.DeliveryType != "pickup" {
		t.Fatalf("expected pickup, got %q", p.DeliveryType)
	}
	if p.Items == nil || len(p.Items) != 0 || p.TotalAmount != 0 {
		t.Fatalf("expected empty lines, got %+v", p)
	}
}

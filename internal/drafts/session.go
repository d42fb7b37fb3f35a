// Package drafts owns the lifecycle of order drafts under review: importing
// AI extractions, operator edits and final submission to the order sink.
package drafts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/extraction"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	msgOrderCreated   = "Ordine creato con successo!"
	msgOrderFailed    = "Errore nella creazione dell'ordine"
	msgNoDraft        = "nessuna bozza attiva"
	msgSubmitting     = "creazione ordine già in corso"
	msgItemNotFound   = "prodotto della bozza non trovato"
	msgProductMissing = "prodotto non trovato nel catalogo"
	msgQuantity       = "la quantità deve essere almeno 1"
	msgUnavailable    = "funzione AI non configurata"

	defaultCustomerName = "Cliente"
)

var (
	// ErrSessionClosed is returned when the session was closed while an
	// operation was in flight, or afterwards.
	ErrSessionClosed = errors.New("drafts: session closed")
	// ErrSubmissionCancelled is returned when the draft was discarded while
	// its order was being submitted.
	ErrSubmissionCancelled = errors.New("drafts: submission cancelled")
)

// NoticeLevel grades a message for the operator.
type NoticeLevel string

const (
	NoticeError   NoticeLevel = "error"
	NoticeWarning NoticeLevel = "warning"
	NoticeSuccess NoticeLevel = "success"
)

// Notice is a user-facing message produced by an operation.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// CreateOutcome reports the result of a submission attempt.
type CreateOutcome struct {
	Created bool
	Order   *ports.CreatedOrder
	Notices []Notice
}

// DraftPatch holds optional updates to draft-level fields.
type DraftPatch struct {
	CustomerName    *string
	CustomerPhone   *string
	CustomerEmail   *string
	DeliveryDate    *string
	DeliveryTime    *string
	DeliveryType    *extraction.DeliveryType
	DeliveryAddress *string
	Notes           *string
}

// ItemPatch holds optional updates to one draft item.
type ItemPatch struct {
	ExtractedName *string
	Quantity      *int
	Selected      *bool
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	ID         uuid.UUID
	Draft      *extraction.OrderDraft
	DialogOpen bool
	Creating   bool
	Total      float64
	Validation *extraction.ValidationResult
	Products   int
}

// Deps are the collaborators a session talks to. Customers, Parser and
// Photos are optional.
type Deps struct {
	Catalog   ports.CatalogProvider
	Sink      ports.OrderSink
	Customers ports.CustomerLookup
	Parser    ports.ConversationParser
	Photos    ports.PhotoAnalyzer
	Log       *logger.Logger
}

// Session holds at most one draft. It is safe for concurrent use; calls to
// collaborators happen outside the lock.
type Session struct {
	id   uuid.UUID
	deps Deps
	log  *logger.Logger
	now  func() time.Time

	mu           sync.Mutex
	draft        *extraction.OrderDraft
	dialogOpen   bool
	creating     bool
	closed       bool
	products     []extraction.Product
	cancelSubmit context.CancelFunc
	generation   uint64
	lastUsed     time.Time
}

// NewSession creates an empty session.
func NewSession(deps Deps) *Session {
	log := deps.Log
	if log == nil {
		log = logger.Discard()
	}
	s := &Session{
		id:   uuid.New(),
		deps: deps,
		now:  time.Now,
	}
	s.log = log.WithSession(s.id.String())
	s.lastUsed = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// ensureCatalog fetches the catalog the first time it is needed. An empty
// catalog is not memoized so a later import retries the fetch.
func (s *Session) ensureCatalog(ctx context.Context) ([]extraction.Product, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if len(s.products) > 0 {
		products := s.products
		s.mu.Unlock()
		return products, nil
	}
	s.mu.Unlock()

	products, err := s.deps.Catalog.AvailableProducts(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.products) == 0 {
		s.products = products
	}
	return s.products, nil
}

// ImportFromWhatsApp replaces the draft with one built from a conversation parse.
func (s *Session) ImportFromWhatsApp(ctx context.Context, result extraction.WhatsAppParseResult, conversationID, phoneNumber string) (Snapshot, error) {
	products, err := s.ensureCatalog(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	draft := extraction.NormalizeWhatsAppResult(result, conversationID, phoneNumber)
	draft.Items = extraction.MatchProducts(result.Items, products)
	s.linkCustomer(ctx, &draft)

	return s.replaceDraft(draft, "imported_whatsapp")
}

// ImportFromPhoto replaces the draft with one built from a photo analysis.
func (s *Session) ImportFromPhoto(ctx context.Context, result extraction.PhotoAnalysisResult) (Snapshot, error) {
	products, err := s.ensureCatalog(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	draft := extraction.NormalizePhotoResult(result)
	draft.Items = extraction.MatchProducts(result.Items, products)

	return s.replaceDraft(draft, "imported_photo")
}

// ImportConversation runs the AI parser over a stored conversation and imports it.
func (s *Session) ImportConversation(ctx context.Context, conversationID uuid.UUID) (Snapshot, error) {
	if s.deps.Parser == nil {
		return Snapshot{}, apperr.Unavailable(msgUnavailable)
	}
	parsed, err := s.deps.Parser.ExtractOrder(ctx, conversationID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.ImportFromWhatsApp(ctx, parsed.Result, conversationID.String(), parsed.PhoneNumber)
}

// ImportPhotos runs the photo analyzer and imports its result.
func (s *Session) ImportPhotos(ctx context.Context, images []ports.Image) (Snapshot, error) {
	if s.deps.Photos == nil {
		return Snapshot{}, apperr.Unavailable(msgUnavailable)
	}
	products, err := s.ensureCatalog(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	result, err := s.deps.Photos.AnalyzePhotos(ctx, images, products)
	if err != nil {
		return Snapshot{}, err
	}
	return s.ImportFromPhoto(ctx, result)
}

// StartManual opens an empty draft for manual entry.
func (s *Session) StartManual(ctx context.Context) (Snapshot, error) {
	if _, err := s.ensureCatalog(ctx); err != nil {
		return Snapshot{}, err
	}
	return s.replaceDraft(extraction.NewEmptyDraft(), "started_manual")
}

func (s *Session) linkCustomer(ctx context.Context, draft *extraction.OrderDraft) {
	draft.Customer.MatchedCustomerID = s.lookupCustomer(ctx, draft.Customer.Phone)
}

// lookupCustomer returns the saved customer owning phone, or nil when the
// phone is blank, unknown or the lookup fails.
func (s *Session) lookupCustomer(ctx context.Context, phone string) *uuid.UUID {
	if s.deps.Customers == nil || strings.TrimSpace(phone) == "" {
		return nil
	}
	id, err := s.deps.Customers.FindIDByPhone(ctx, phone)
	if err != nil {
		s.log.Warn("customer lookup failed", "error", err)
		return nil
	}
	return id
}

func (s *Session) replaceDraft(draft extraction.OrderDraft, event string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writableLocked(); err != nil {
		return Snapshot{}, err
	}

	s.draft = &draft
	s.dialogOpen = true
	s.lastUsed = s.now()
	s.log.DraftEvent(event, s.id.String(), "source", string(draft.Source), "items", len(draft.Items))
	return s.snapshotLocked(), nil
}

// writableLocked rejects changes while closed or while a submission is in flight.
func (s *Session) writableLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.creating {
		return apperr.Conflict(msgSubmitting)
	}
	return nil
}

// mutate runs fn against the current draft under the lock.
func (s *Session) mutate(fn func(d *extraction.OrderDraft) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writableLocked(); err != nil {
		return Snapshot{}, err
	}
	if s.draft == nil {
		return Snapshot{}, apperr.NotFound(msgNoDraft)
	}
	if err := fn(s.draft); err != nil {
		return Snapshot{}, err
	}
	s.lastUsed = s.now()
	return s.snapshotLocked(), nil
}

// UpdateDraft merges draft-level fields. A patched phone drops the previous
// customer link and re-resolves it against the saved customers.
func (s *Session) UpdateDraft(ctx context.Context, patch DraftPatch) (Snapshot, error) {
	var relinked *uuid.UUID
	if patch.CustomerPhone != nil {
		relinked = s.lookupCustomer(ctx, *patch.CustomerPhone)
	}
	return s.mutate(func(d *extraction.OrderDraft) error {
		applyString(&d.Customer.Name, patch.CustomerName)
		if patch.CustomerPhone != nil && *patch.CustomerPhone != d.Customer.Phone {
			d.Customer.Phone = *patch.CustomerPhone
			d.Customer.MatchedCustomerID = relinked
		}
		applyString(&d.Customer.Email, patch.CustomerEmail)
		applyString(&d.Delivery.Date, patch.DeliveryDate)
		applyString(&d.Delivery.Time, patch.DeliveryTime)
		applyString(&d.Delivery.Address, patch.DeliveryAddress)
		applyString(&d.Notes, patch.Notes)
		if patch.DeliveryType != nil {
			d.Delivery.Type = *patch.DeliveryType
		}
		return nil
	})
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func findItem(d *extraction.OrderDraft, itemID uuid.UUID) (*extraction.DraftItem, error) {
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			return &d.Items[i], nil
		}
	}
	return nil, apperr.NotFound(msgItemNotFound)
}

// UpdateItem merges item fields. Selecting an unmatched item is refused
// silently; the item stays unselected.
func (s *Session) UpdateItem(itemID uuid.UUID, patch ItemPatch) (Snapshot, error) {
	if patch.Quantity != nil && *patch.Quantity < 1 {
		return Snapshot{}, apperr.Validation(msgQuantity)
	}
	return s.mutate(func(d *extraction.OrderDraft) error {
		item, err := findItem(d, itemID)
		if err != nil {
			return err
		}
		applyString(&item.ExtractedName, patch.ExtractedName)
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		if patch.Selected != nil {
			item.SetSelected(*patch.Selected)
		}
		return nil
	})
}

// RemoveItem drops an item from the draft.
func (s *Session) RemoveItem(itemID uuid.UUID) (Snapshot, error) {
	return s.mutate(func(d *extraction.OrderDraft) error {
		for i := range d.Items {
			if d.Items[i].ID == itemID {
				d.Items = append(d.Items[:i], d.Items[i+1:]...)
				return nil
			}
		}
		return apperr.NotFound(msgItemNotFound)
	})
}

// ToggleItemSelection flips selection, refusing to select unmatched items.
func (s *Session) ToggleItemSelection(itemID uuid.UUID) (Snapshot, error) {
	return s.mutate(func(d *extraction.OrderDraft) error {
		item, err := findItem(d, itemID)
		if err != nil {
			return err
		}
		item.SetSelected(!item.Selected)
		return nil
	})
}

// RematchItem attaches an operator-chosen catalog product to an item.
func (s *Session) RematchItem(ctx context.Context, itemID, productID uuid.UUID) (Snapshot, error) {
	product, err := s.lookupProduct(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.mutate(func(d *extraction.OrderDraft) error {
		item, err := findItem(d, itemID)
		if err != nil {
			return err
		}
		*item = extraction.RematchItem(*item, product)
		return nil
	})
}

// AddItem appends a catalog product chosen by the operator.
func (s *Session) AddItem(ctx context.Context, productID uuid.UUID, quantity int) (Snapshot, error) {
	if quantity < 1 {
		return Snapshot{}, apperr.Validation(msgQuantity)
	}
	product, err := s.lookupProduct(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.mutate(func(d *extraction.OrderDraft) error {
		item := extraction.RematchItem(extraction.DraftItem{
			ID:            uuid.New(),
			ExtractedName: product.Name,
			Quantity:      quantity,
		}, product)
		d.Items = append(d.Items, item)
		return nil
	})
}

// Candidates lists the closest catalog products for an item's extracted name.
func (s *Session) Candidates(ctx context.Context, itemID uuid.UUID, limit int) ([]extraction.Match, error) {
	products, err := s.ensureCatalog(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.draft == nil {
		s.mu.Unlock()
		return nil, apperr.NotFound(msgNoDraft)
	}
	item, err := findItem(s.draft, itemID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	name := item.ExtractedName
	s.mu.Unlock()

	return extraction.Candidates(name, products, limit), nil
}

func (s *Session) lookupProduct(ctx context.Context, productID uuid.UUID) (extraction.Product, error) {
	products, err := s.ensureCatalog(ctx)
	if err != nil {
		return extraction.Product{}, err
	}
	for _, p := range products {
		if p.ID == productID {
			return p, nil
		}
	}
	return extraction.Product{}, apperr.NotFound(msgProductMissing)
}

// Validate runs the draft validator without submitting.
func (s *Session) Validate() (extraction.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return extraction.ValidationResult{}, apperr.NotFound(msgNoDraft)
	}
	return extraction.ValidateDraft(*s.draft), nil
}

// CreateOrder validates the draft and submits it to the order sink. Invalid
// drafts and sink failures are reported through notices with the draft kept;
// only success clears it. The call is not re-entrant.
func (s *Session) CreateOrder(ctx context.Context) (CreateOutcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return CreateOutcome{}, ErrSessionClosed
	}
	if s.draft == nil {
		s.mu.Unlock()
		return CreateOutcome{}, apperr.NotFound(msgNoDraft)
	}
	if s.creating {
		s.mu.Unlock()
		return CreateOutcome{}, apperr.Conflict(msgSubmitting)
	}

	draft := s.draft.Clone()
	validation := extraction.ValidateDraft(draft)
	if !validation.IsValid {
		s.mu.Unlock()
		notices := make([]Notice, 0, len(validation.Errors))
		for _, msg := range validation.Errors {
			notices = append(notices, Notice{Level: NoticeError, Message: msg})
		}
		return CreateOutcome{Notices: notices}, nil
	}

	submitCtx, cancel := context.WithCancel(ctx)
	s.creating = true
	s.generation++
	generation := s.generation
	s.cancelSubmit = cancel
	s.mu.Unlock()
	defer cancel()

	notices := make([]Notice, 0, len(validation.Warnings)+1)
	for _, msg := range validation.Warnings {
		notices = append(notices, Notice{Level: NoticeWarning, Message: msg})
	}

	created, submitErr := s.submit(submitCtx, draft)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return CreateOutcome{}, ErrSessionClosed
	}
	if generation != s.generation {
		return CreateOutcome{}, ErrSubmissionCancelled
	}
	s.creating = false
	s.cancelSubmit = nil
	s.lastUsed = s.now()

	if submitErr != nil {
		s.log.Error("order submission failed", "error", submitErr)
		notices = append(notices, Notice{Level: NoticeError, Message: msgOrderFailed})
		return CreateOutcome{Notices: notices}, nil
	}

	s.draft = nil
	s.dialogOpen = false
	s.log.DraftEvent("order_created", s.id.String(), "order_number", created.OrderNumber, "order_id", created.ID.String())
	notices = append(notices, Notice{Level: NoticeSuccess, Message: msgOrderCreated})
	return CreateOutcome{Created: true, Order: &created, Notices: notices}, nil
}

func (s *Session) submit(ctx context.Context, draft extraction.OrderDraft) (ports.CreatedOrder, error) {
	orderNumber, err := s.deps.Sink.NextOrderNumber(ctx, draft.Delivery.Date)
	if err != nil {
		return ports.CreatedOrder{}, err
	}
	return s.deps.Sink.CreateOrder(ctx, BuildOrderPayload(draft, orderNumber))
}

// BuildOrderPayload maps a validated draft to the order sink's payload.
func BuildOrderPayload(draft extraction.OrderDraft, orderNumber string) ports.OrderPayload {
	selected := extraction.SelectedItems(draft)
	lines := make([]ports.OrderLine, 0, len(selected))
	for _, item := range selected {
		lines = append(lines, ports.OrderLine{
			ID:        uuid.New(),
			ProductID: item.MatchedProduct.ID,
			Name:      item.MatchedProduct.Name,
			Quantity:  item.Quantity,
			Price:     item.MatchedProduct.Price,
		})
	}

	deliveryType := "pickup"
	if draft.Delivery.Type == extraction.DeliveryShipping {
		deliveryType = "delivery"
	}

	customerName := draft.Customer.Name
	if customerName == "" {
		customerName = defaultCustomerName
	}

	return ports.OrderPayload{
		CustomerName:      customerName,
		CustomerPhone:     draft.Customer.Phone,
		CustomerEmail:     draft.Customer.Email,
		MatchedCustomerID: draft.Customer.MatchedCustomerID,
		OrderNumber:       orderNumber,
		DeliveryDate:      draft.Delivery.Date,
		DeliveryTime:      draft.Delivery.Time,
		DeliveryType:      deliveryType,
		DeliveryAddress:   draft.Delivery.Address,
		Notes:             draft.Notes,
		Source:            string(draft.Source),
		Items:             lines,
		TotalAmount:       extraction.CalculateTotal(draft),
	}
}

// ClearDraft discards the draft and closes the dialog. An in-flight
// submission is cancelled and its result ignored.
func (s *Session) ClearDraft() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortSubmitLocked()
	s.draft = nil
	s.dialogOpen = false
	s.lastUsed = s.now()
	return s.snapshotLocked()
}

// Close ends the session. Later calls fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.abortSubmitLocked()
	s.closed = true
	s.draft = nil
	s.dialogOpen = false
	s.log.DraftEvent("session_closed", s.id.String())
}

func (s *Session) abortSubmitLocked() {
	if !s.creating {
		return
	}
	if s.cancelSubmit != nil {
		s.cancelSubmit()
		s.cancelSubmit = nil
	}
	s.generation++
	s.creating = false
	s.log.DraftEvent("submission_cancelled", s.id.String())
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		DialogOpen: s.dialogOpen,
		Creating:   s.creating,
		Products:   len(s.products),
	}
	if s.draft != nil {
		d := s.draft.Clone()
		v := extraction.ValidateDraft(d)
		snap.Draft = &d
		snap.Total = extraction.CalculateTotal(d)
		snap.Validation = &v
	}
	return snap
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = s.now()
	s.mu.Unlock()
}

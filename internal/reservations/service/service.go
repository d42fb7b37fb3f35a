package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"maremio_backend/internal/events"
	"maremio_backend/internal/reservations/repository"
	"maremio_backend/internal/reservations/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/phone"
	"maremio_backend/platform/sanitize"
)

const (
	sourceManual    = "manual"
	defaultLocation = "Interno"

	msgInvalidPhone     = "Numero di telefono non valido"
	msgTransition       = "cambio di stato non consentito"
	msgTableInactive    = "il tavolo non è attivo"
	msgTableTooSmall    = "il tavolo non ha abbastanza coperti"
	msgTableTaken       = "il tavolo è già prenotato a quell'ora"
	msgReservationClose = "la prenotazione è chiusa"
	msgInvalidRange     = "intervallo di date non valido"
)

// occasionKeys maps the labels of the booking page to stored keys.
var occasionKeys = map[string]string{
	"compleanno":   "birthday",
	"anniversario": "anniversary",
	"proposta":     "proposal",
	"altro":        "other",
}

// Service provides business logic for tables and reservations.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new reservations service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log, now: time.Now}
}

// ListTables returns the room plan, optionally only active tables.
func (s *Service) ListTables(ctx context.Context, activeOnly bool) ([]transport.TableResponse, error) {
	tables, err := s.repo.ListTables(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	resp := make([]transport.TableResponse, 0, len(tables))
	for _, t := range tables {
		resp = append(resp, toTableResponse(t))
	}
	return resp, nil
}

// CreateTable adds a table at the end of the room plan.
func (s *Service) CreateTable(ctx context.Context, req transport.CreateTableRequest) (transport.TableResponse, error) {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = defaultLocation
	}
	table, err := s.repo.CreateTable(ctx, repository.CreateTableParams{
		Name:     strings.TrimSpace(req.Name),
		Capacity: req.Capacity,
		Location: location,
	})
	if err != nil {
		return transport.TableResponse{}, err
	}
	s.log.Info("table created", "tableId", table.ID, "name", table.Name)
	return toTableResponse(table), nil
}

// UpdateTable edits a table, including toggling it active.
func (s *Service) UpdateTable(ctx context.Context, id uuid.UUID, req transport.UpdateTableRequest) (transport.TableResponse, error) {
	table, err := s.repo.UpdateTable(ctx, repository.UpdateTableParams{
		ID:        id,
		Name:      trimmed(req.Name),
		Capacity:  req.Capacity,
		Location:  trimmed(req.Location),
		IsActive:  req.IsActive,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return transport.TableResponse{}, err
	}
	return toTableResponse(table), nil
}

// DeleteTable removes a table.
func (s *Service) DeleteTable(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTable(ctx, id)
}

// List returns reservations in a date range, optionally by status.
func (s *Service) List(ctx context.Context, req transport.ListReservationsRequest) ([]transport.ReservationResponse, error) {
	if req.From != "" && req.To != "" && req.From > req.To {
		return nil, apperr.Validation(msgInvalidRange)
	}
	items, err := s.repo.ListReservations(ctx, repository.ListReservationsParams{From: req.From, To: req.To, Status: req.Status})
	if err != nil {
		return nil, err
	}
	resp := make([]transport.ReservationResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toReservationResponse(item))
	}
	return resp, nil
}

// GetByID retrieves a reservation.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.ReservationResponse, error) {
	res, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return transport.ReservationResponse{}, err
	}
	return toReservationResponse(res), nil
}

// Create stores a booking taken by the staff. It is confirmed right away
// and may be seated on a table immediately.
func (s *Service) Create(ctx context.Context, req transport.CreateReservationRequest) (transport.ReservationResponse, error) {
	if !phone.IsValid(req.CustomerPhone) {
		return transport.ReservationResponse{}, apperr.Validation(msgInvalidPhone)
	}
	if req.TableID != nil {
		if err := s.checkTable(ctx, *req.TableID, req.Date, req.Time, req.PartySize, uuid.Nil); err != nil {
			return transport.ReservationResponse{}, err
		}
	}

	res, err := s.insert(ctx, repository.CreateReservationParams{
		CustomerName:  sanitize.Line(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerEmail: optional(req.CustomerEmail),
		Date:          req.Date,
		Time:          req.Time,
		PartySize:     req.PartySize,
		TableID:       req.TableID,
		OccasionType:  occasionKey(req.OccasionType),
		NeedsCake:     req.NeedsCake,
		CakeMessage:   optional(sanitize.Line(req.CakeMessage)),
		Notes:         optional(sanitize.Text(req.Notes)),
		Status:        StatusConfirmed,
		Source:        sourceManual,
	})
	if err != nil {
		return transport.ReservationResponse{}, err
	}
	return toReservationResponse(res), nil
}

// Update edits a reservation. Moving an open, seated-on-a-table booking to
// another slot or size re-checks the table.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateReservationRequest) (transport.ReservationResponse, error) {
	if req.CustomerPhone != nil && !phone.IsValid(*req.CustomerPhone) {
		return transport.ReservationResponse{}, apperr.Validation(msgInvalidPhone)
	}

	current, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return transport.ReservationResponse{}, err
	}
	if current.TableID != nil && IsOpen(current.Status) && (req.Date != nil || req.Time != nil || req.PartySize != nil) {
		date, slot, size := current.Date, current.Time, current.PartySize
		if req.Date != nil {
			date = *req.Date
		}
		if req.Time != nil {
			slot = *req.Time
		}
		if req.PartySize != nil {
			size = *req.PartySize
		}
		if err := s.checkTable(ctx, *current.TableID, date, slot, size, id); err != nil {
			return transport.ReservationResponse{}, err
		}
	}

	params := repository.UpdateReservationParams{
		ID:            id,
		CustomerPhone: trimmed(req.CustomerPhone),
		CustomerEmail: trimmed(req.CustomerEmail),
		Date:          req.Date,
		Time:          req.Time,
		PartySize:     req.PartySize,
		NeedsCake:     req.NeedsCake,
	}
	if req.CustomerName != nil {
		name := sanitize.Line(*req.CustomerName)
		params.CustomerName = &name
	}
	if req.OccasionType != nil {
		params.OccasionType = occasionKey(*req.OccasionType)
	}
	if req.CakeMessage != nil {
		msg := sanitize.Line(*req.CakeMessage)
		params.CakeMessage = &msg
	}
	if req.Notes != nil {
		notes := sanitize.Text(*req.Notes)
		params.Notes = &notes
	}

	res, err := s.repo.UpdateReservation(ctx, params)
	if err != nil {
		return transport.ReservationResponse{}, err
	}
	return toReservationResponse(res), nil
}

// ChangeStatus moves a reservation along its lifecycle. Setting the current
// status again is a no-op.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (transport.ReservationResponse, error) {
	current, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return transport.ReservationResponse{}, err
	}
	if current.Status == status {
		return toReservationResponse(current), nil
	}
	if !CanTransition(current.Status, status) {
		return transport.ReservationResponse{}, apperr.Conflict(msgTransition).WithDetails(map[string]string{"from": current.Status, "to": status})
	}

	res, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return transport.ReservationResponse{}, err
	}
	s.log.Info("reservation status changed", "reservationNumber", res.ReservationNumber, "from", current.Status, "to", status)
	return toReservationResponse(res), nil
}

// AssignTable seats an open reservation on a table, or clears the table
// when tableID is nil.
func (s *Service) AssignTable(ctx context.Context, id uuid.UUID, tableID *uuid.UUID) (transport.ReservationResponse, error) {
	current, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return transport.ReservationResponse{}, err
	}
	if tableID != nil {
		if !IsOpen(current.Status) {
			return transport.ReservationResponse{}, apperr.Conflict(msgReservationClose)
		}
		if err := s.checkTable(ctx, *tableID, current.Date, current.Time, current.PartySize, id); err != nil {
			return transport.ReservationResponse{}, err
		}
	}

	res, err := s.repo.AssignTable(ctx, id, tableID)
	if err != nil {
		return transport.ReservationResponse{}, err
	}
	return toReservationResponse(res), nil
}

// Delete removes a reservation.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteReservation(ctx, id)
}

// checkTable verifies the table is active, seats the party and is free in
// that slot.
func (s *Service) checkTable(ctx context.Context, tableID uuid.UUID, date, slot string, partySize int, exclude uuid.UUID) error {
	table, err := s.repo.GetTable(ctx, tableID)
	if err != nil {
		return err
	}
	if !table.IsActive {
		return apperr.Validation(msgTableInactive)
	}
	if table.Capacity < partySize {
		return apperr.Validation(msgTableTooSmall).WithDetails(map[string]int{"capacity": table.Capacity, "partySize": partySize})
	}
	booked, err := s.repo.TableBooked(ctx, tableID, date, slot, exclude)
	if err != nil {
		return err
	}
	if booked {
		return apperr.Conflict(msgTableTaken)
	}
	return nil
}

func occasionKey(value string) *string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	if key, ok := occasionKeys[value]; ok {
		value = key
	}
	return &value
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}

func toTableResponse(t repository.Table) transport.TableResponse {
	return transport.TableResponse{
		ID:        t.ID,
		Name:      t.Name,
		Capacity:  t.Capacity,
		Location:  t.Location,
		IsActive:  t.IsActive,
		SortOrder: t.SortOrder,
		CreatedAt: t.CreatedAt,
	}
}

func toReservationResponse(r repository.Reservation) transport.ReservationResponse {
	return transport.ReservationResponse{
		ID:                r.ID,
		ReservationNumber: r.ReservationNumber,
		CustomerName:      r.CustomerName,
		CustomerPhone:     r.CustomerPhone,
		CustomerEmail:     r.CustomerEmail,
		Date:              r.Date,
		Time:              r.Time,
		PartySize:         r.PartySize,
		TableID:           r.TableID,
		OccasionType:      r.OccasionType,
		NeedsCake:         r.NeedsCake,
		CakeMessage:       r.CakeMessage,
		Notes:             r.Notes,
		Status:            r.Status,
		Source:            r.Source,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

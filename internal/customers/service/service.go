package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"maremio_backend/internal/customers/repository"
	"maremio_backend/internal/customers/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/phone"
)

const msgInvalidPhone = "Numero di telefono non valido"

// Service provides business logic for the customer directory.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new customers service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// FindIDByPhone returns the ID of the customer owning phone, or nil when the
// phone is unusable or unknown.
func (s *Service) FindIDByPhone(ctx context.Context, rawPhone string) (*uuid.UUID, error) {
	if !phone.IsValid(rawPhone) {
		return nil, nil
	}
	customer, err := s.repo.GetByPhone(ctx, phone.Normalize(rawPhone))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer.ID, nil
}

// FindOrCreate links an order to the directory. Orders without a usable
// phone stay anonymous and nil is returned.
func (s *Service) FindOrCreate(ctx context.Context, name, rawPhone, email string) (*uuid.UUID, error) {
	if !phone.IsValid(rawPhone) {
		return nil, nil
	}

	var emailPtr *string
	if e := strings.TrimSpace(email); e != "" {
		emailPtr = &e
	}

	customer, created, err := s.repo.FindOrCreate(ctx, repository.FindOrCreateParams{
		Name:  strings.TrimSpace(name),
		Phone: phone.Normalize(rawPhone),
		Email: emailPtr,
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("customer created", "id", customer.ID)
	}
	return &customer.ID, nil
}

// GetByID retrieves a customer.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.CustomerResponse, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return toResponse(customer), nil
}

// Lookup finds a customer by any formatting of their phone number.
func (s *Service) Lookup(ctx context.Context, rawPhone string) (transport.CustomerResponse, error) {
	if !phone.IsValid(rawPhone) {
		return transport.CustomerResponse{}, apperr.Validation(msgInvalidPhone)
	}
	customer, err := s.repo.GetByPhone(ctx, phone.Normalize(rawPhone))
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return toResponse(customer), nil
}

// List searches the directory.
func (s *Service) List(ctx context.Context, req transport.ListCustomersRequest) (transport.CustomerListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	search := strings.TrimSpace(req.Search)
	if strings.IndexFunc(search, unicode.IsLetter) < 0 {
		if digits := phone.Normalize(search); len(digits) >= 3 {
			search = digits
		}
	}

	items, total, err := s.repo.List(ctx, repository.ListCustomersParams{
		Search: search,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return transport.CustomerListResponse{}, err
	}

	resp := transport.CustomerListResponse{Items: make([]transport.CustomerResponse, 0, len(items)), Total: total, Page: page, PageSize: pageSize}
	for _, item := range items {
		resp.Items = append(resp.Items, toResponse(item))
	}
	return resp, nil
}

// Update edits a customer. A new phone is normalized before storage.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCustomerRequest) (transport.CustomerResponse, error) {
	params := repository.UpdateCustomerParams{ID: id, Name: req.Name, Email: req.Email}
	if req.Phone != nil {
		if !phone.IsValid(*req.Phone) {
			return transport.CustomerResponse{}, apperr.Validation(msgInvalidPhone)
		}
		normalized := phone.Normalize(*req.Phone)
		params.Phone = &normalized
	}

	customer, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return toResponse(customer), nil
}

func toResponse(c repository.Customer) transport.CustomerResponse {
	return transport.CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}

package service

import (
	"context"
	"testing"

	"maremio_backend/internal/customers/repository"
	"maremio_backend/internal/customers/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	byPhone map[string]repository.Customer
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byPhone: make(map[string]repository.Customer)}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Customer, error) {
	for _, c := range f.byPhone {
		if c.ID == id {
			return c, nil
		}
	}
	return repository.Customer{}, apperr.NotFound("customer not found")
}

func (f *fakeRepo) GetByPhone(_ context.Context, phone string) (repository.Customer, error) {
	c, ok := f.byPhone[phone]
	if !ok {
		return repository.Customer{}, apperr.NotFound("customer not found")
	}
	return c, nil
}

func (f *fakeRepo) FindOrCreate(_ context.Context, p repository.FindOrCreateParams) (repository.Customer, bool, error) {
	if c, ok := f.byPhone[p.Phone]; ok {
		if c.Email == nil {
			c.Email = p.Email
			f.byPhone[p.Phone] = c
		}
		return c, false, nil
	}
	c := repository.Customer{ID: uuid.New(), Name: p.Name, Phone: p.Phone, Email: p.Email}
	f.byPhone[p.Phone] = c
	return c, true, nil
}

func (f *fakeRepo) Update(_ context.Context, p repository.UpdateCustomerParams) (repository.Customer, error) {
	for phone, c := range f.byPhone {
		if c.ID != p.ID {
			continue
		}
		if p.Phone != nil {
			delete(f.byPhone, phone)
			c.Phone = *p.Phone
		}
		if p.Name != nil {
			c.Name = *p.Name
		}
		f.byPhone[c.Phone] = c
		return c, nil
	}
	return repository.Customer{}, apperr.NotFound("customer not found")
}

func (f *fakeRepo) List(_ context.Context, _ repository.ListCustomersParams) ([]repository.Customer, int, error) {
	return nil, 0, nil
}

func TestFindOrCreateLinksRepeatCustomers(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Discard())
	ctx := context.Background()

	first, err := svc.FindOrCreate(ctx, "Mario Rossi", "+39 333 123 4567", "")
	if err != nil || first == nil {
		t.Fatalf("expected customer id, got %v (%v)", first, err)
	}
	second, err := svc.FindOrCreate(ctx, "Mario", "333-123-4567", "mario@example.com")
	if err != nil || second == nil {
		t.Fatalf("expected customer id, got %v (%v)", second, err)
	}
	if *first != *second {
		t.Fatalf("expected the same customer for both spellings of the number")
	}

	stored := repo.byPhone["3331234567"]
	if stored.Email == nil || *stored.Email != "mario@example.com" {
		t.Fatalf("expected email filled on repeat order, got %v", stored.Email)
	}
}

func TestFindOrCreateSkipsInvalidPhone(t *testing.T) {
	svc := New(newFakeRepo(), logger.Discard())
	id, err := svc.FindOrCreate(context.Background(), "Anna", "12345", "")
	if err != nil || id != nil {
		t.Fatalf("expected anonymous order, got %v (%v)", id, err)
	}
}

func TestFindIDByPhone(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Discard())
	ctx := context.Background()

	if id, err := svc.FindIDByPhone(ctx, "3331234567"); err != nil || id != nil {
		t.Fatalf("expected unknown phone to yield nil, got %v (%v)", id, err)
	}

	created, _ := svc.FindOrCreate(ctx, "Luca", "0039 333 1234567", "")
	id, err := svc.FindIDByPhone(ctx, "+393331234567")
	if err != nil || id == nil || *id != *created {
		t.Fatalf("expected lookup to find %v, got %v (%v)", created, id, err)
	}
}

func TestUpdateRejectsInvalidPhone(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Discard())
	ctx := context.Background()
	id, _ := svc.FindOrCreate(ctx, "Luca", "3331234567", "")

	bad := "12"
	if _, err := svc.Update(ctx, *id, transport.UpdateCustomerRequest{Phone: &bad}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	good := "+39 340 000 1111"
	updated, err := svc.Update(ctx, *id, transport.UpdateCustomerRequest{Phone: &good})
	if err != nil || updated.Phone != "3400001111" {
		t.Fatalf("expected normalized phone, got %q (%v)", updated.Phone, err)
	}
}

package repository

import (
	"context"

	"github.com/google/uuid"
)

// Table is a dining table of the room plan.
type Table struct {
	ID        uuid.UUID
	Name      string
	Capacity  int
	Location  string
	IsActive  bool
	SortOrder int
	CreatedAt string
}

// Reservation is a table booking. TableID stays nil until the staff seats
// the party somewhere.
type Reservation struct {
	ID                uuid.UUID
	ReservationNumber string
	CustomerName      string
	CustomerPhone     string
	CustomerEmail     *string
	Date              string
	Time              string
	PartySize         int
	TableID           *uuid.UUID
	OccasionType      *string
	NeedsCake         bool
	CakeMessage       *string
	Notes             *string
	Status            string
	Source            string
	CreatedAt         string
	UpdatedAt         string
}

type CreateTableParams struct {
	Name     string
	Capacity int
	Location string
}

// UpdateTableParams applies non-nil fields.
type UpdateTableParams struct {
	ID        uuid.UUID
	Name      *string
	Capacity  *int
	Location  *string
	IsActive  *bool
	SortOrder *int
}

type CreateReservationParams struct {
	ReservationNumber string
	CustomerName      string
	CustomerPhone     string
	CustomerEmail     *string
	Date              string
	Time              string
	PartySize         int
	TableID           *uuid.UUID
	OccasionType      *string
	NeedsCake         bool
	CakeMessage       *string
	Notes             *string
	Status            string
	Source            string
}

// UpdateReservationParams applies non-nil fields.
type UpdateReservationParams struct {
	ID            uuid.UUID
	CustomerName  *string
	CustomerPhone *string
	CustomerEmail *string
	Date          *string
	Time          *string
	PartySize     *int
	OccasionType  *string
	NeedsCake     *bool
	CakeMessage   *string
	Notes         *string
}

// ListReservationsParams bounds the reservation date inclusively.
type ListReservationsParams struct {
	From   string
	To     string
	Status string
}

// Repository defines the reservations data access contract.
type Repository interface {
	ListTables(ctx context.Context, activeOnly bool) ([]Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (Table, error)
	CreateTable(ctx context.Context, params CreateTableParams) (Table, error)
	UpdateTable(ctx context.Context, params UpdateTableParams) (Table, error)
	DeleteTable(ctx context.Context, id uuid.UUID) error

	CreateReservation(ctx context.Context, params CreateReservationParams) (Reservation, error)
	UpdateReservation(ctx context.Context, params UpdateReservationParams) (Reservation, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (Reservation, error)
	AssignTable(ctx context.Context, id uuid.UUID, tableID *uuid.UUID) (Reservation, error)
	DeleteReservation(ctx context.Context, id uuid.UUID) error
	GetReservation(ctx context.Context, id uuid.UUID) (Reservation, error)
	ListReservations(ctx context.Context, params ListReservationsParams) ([]Reservation, error)
	ReservationNumbersForDate(ctx context.Context, date string) ([]string, error)
	// TableBooked reports whether another open reservation holds tableID
	// for the same date and time.
	TableBooked(ctx context.Context, tableID uuid.UUID, date, time string, exclude uuid.UUID) (bool, error)
}

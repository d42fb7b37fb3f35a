package transport

import "github.com/google/uuid"

type CreateTableRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=50"`
	Capacity int    `json:"capacity" validate:"required,min=1,max=30"`
	Location string `json:"location,omitempty" validate:"max=50"`
}

type UpdateTableRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Capacity  *int    `json:"capacity,omitempty" validate:"omitempty,min=1,max=30"`
	Location  *string `json:"location,omitempty" validate:"omitempty,max=50"`
	IsActive  *bool   `json:"isActive,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty" validate:"omitempty,min=0"`
}

type TableResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Location  string    `json:"location"`
	IsActive  bool      `json:"isActive"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt string    `json:"createdAt"`
}

type ListTablesRequest struct {
	ActiveOnly bool `form:"active"`
}

// CreateReservationRequest is a booking taken by the staff, by phone or at
// the counter.
type CreateReservationRequest struct {
	CustomerName  string     `json:"customerName" validate:"required,min=2,max=200"`
	CustomerPhone string     `json:"customerPhone" validate:"required,max=30"`
	CustomerEmail string     `json:"customerEmail,omitempty" validate:"omitempty,email,max=254"`
	Date          string     `json:"date" validate:"required,isodate"`
	Time          string     `json:"time" validate:"required,hhmm"`
	PartySize     int        `json:"partySize" validate:"required,min=1,max=50"`
	TableID       *uuid.UUID `json:"tableId,omitempty"`
	OccasionType  string     `json:"occasionType,omitempty" validate:"omitempty,oneof=birthday anniversary proposal business other compleanno anniversario proposta altro"`
	NeedsCake     bool       `json:"needsCake,omitempty"`
	CakeMessage   string     `json:"cakeMessage,omitempty" validate:"max=200"`
	Notes         string     `json:"notes,omitempty" validate:"max=1000"`
}

type UpdateReservationRequest struct {
	CustomerName  *string `json:"customerName,omitempty" validate:"omitempty,min=2,max=200"`
	CustomerPhone *string `json:"customerPhone,omitempty" validate:"omitempty,max=30"`
	CustomerEmail *string `json:"customerEmail,omitempty" validate:"omitempty,email,max=254"`
	Date          *string `json:"date,omitempty" validate:"omitempty,isodate"`
	Time          *string `json:"time,omitempty" validate:"omitempty,hhmm"`
	PartySize     *int    `json:"partySize,omitempty" validate:"omitempty,min=1,max=50"`
	OccasionType  *string `json:"occasionType,omitempty" validate:"omitempty,oneof=birthday anniversary proposal business other compleanno anniversario proposta altro"`
	NeedsCake     *bool   `json:"needsCake,omitempty"`
	CakeMessage   *string `json:"cakeMessage,omitempty" validate:"omitempty,max=200"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed seated completed cancelled no_show"`
}

// AssignTableRequest seats a reservation; a null tableId clears it.
type AssignTableRequest struct {
	TableID *uuid.UUID `json:"tableId"`
}

type ListReservationsRequest struct {
	From   string `form:"from" validate:"omitempty,isodate"`
	To     string `form:"to" validate:"omitempty,isodate"`
	Status string `form:"status" validate:"omitempty,oneof=pending confirmed seated completed cancelled no_show"`
}

type ReservationResponse struct {
	ID                uuid.UUID  `json:"id"`
	ReservationNumber string     `json:"reservationNumber"`
	CustomerName      string     `json:"customerName"`
	CustomerPhone     string     `json:"customerPhone"`
	CustomerEmail     *string    `json:"customerEmail,omitempty"`
	Date              string     `json:"date"`
	Time              string     `json:"time"`
	PartySize         int        `json:"partySize"`
	TableID           *uuid.UUID `json:"tableId,omitempty"`
	OccasionType      *string    `json:"occasionType,omitempty"`
	NeedsCake         bool       `json:"needsCake"`
	CakeMessage       *string    `json:"cakeMessage,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	Status            string     `json:"status"`
	Source            string     `json:"source"`
	CreatedAt         string     `json:"createdAt"`
	UpdatedAt         string     `json:"updatedAt"`
}

// PublicBookingRequest is the form of the public booking page.
type PublicBookingRequest struct {
	CustomerName  string `json:"customerName" validate:"required,min=2,max=200"`
	CustomerPhone string `json:"customerPhone" validate:"required,max=30"`
	CustomerEmail string `json:"customerEmail,omitempty" validate:"omitempty,email,max=254"`
	Date          string `json:"date" validate:"required,isodate"`
	Time          string `json:"time" validate:"required,hhmm"`
	PartySize     int    `json:"partySize" validate:"required,min=1,max=8"`
	OccasionType  string `json:"occasionType,omitempty" validate:"omitempty,oneof=birthday anniversary proposal business other compleanno anniversario proposta altro"`
	NeedsCake     bool   `json:"needsCake,omitempty"`
	CakeMessage   string `json:"cakeMessage,omitempty" validate:"max=200"`
	Notes         string `json:"notes,omitempty" validate:"max=1000"`
}

// BookingResponse confirms a public booking. ConfirmationCall is set for
// large groups the restaurant calls back.
type BookingResponse struct {
	ReservationNumber string `json:"reservationNumber"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	PartySize         int    `json:"partySize"`
	Status            string `json:"status"`
	ConfirmationCall  bool   `json:"confirmationCall"`
}

type BookingSlotsResponse struct {
	MinDate      string   `json:"minDate"`
	MaxDate      string   `json:"maxDate"`
	Lunch        []string `json:"lunch"`
	Dinner       []string `json:"dinner"`
	MaxPartySize int      `json:"maxPartySize"`
}

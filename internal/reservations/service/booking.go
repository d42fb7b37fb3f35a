package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"maremio_backend/internal/events"
	"maremio_backend/internal/reservations/repository"
	"maremio_backend/internal/reservations/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/phone"
	"maremio_backend/platform/sanitize"
)

const (
	sourcePublic = "public"

	bookingWindowDays   = 30
	maxPublicPartySize  = 8
	confirmationCallMin = 6
	slotStep            = 30 * time.Minute
	numberAttempts      = 3

	msgDateOutOfWindow = "la data deve essere entro i prossimi 30 giorni"
	msgSlotUnavailable = "orario non disponibile"
)

type serviceWindow struct {
	first string
	last  string
}

var (
	lunchService  = serviceWindow{first: "12:00", last: "14:30"}
	dinnerService = serviceWindow{first: "19:00", last: "22:00"}
)

// slots returns every start time of the window in half hour steps.
func (w serviceWindow) slots() []string {
	first, _ := time.Parse("15:04", w.first)
	last, _ := time.Parse("15:04", w.last)
	out := make([]string, 0)
	for t := first; !t.After(last); t = t.Add(slotStep) {
		out = append(out, t.Format("15:04"))
	}
	return out
}

func isBookingSlot(value string) bool {
	for _, window := range []serviceWindow{lunchService, dinnerService} {
		for _, slot := range window.slots() {
			if slot == value {
				return true
			}
		}
	}
	return false
}

// bookingWindow returns the first and last date the public page accepts.
func bookingWindow(now time.Time) (string, string) {
	return now.Format(time.DateOnly), now.AddDate(0, 0, bookingWindowDays).Format(time.DateOnly)
}

// NextReservationNumber returns "P<day>-<seq>" for a yyyy-mm-dd date given
// the numbers already used on that date. Sequences start at 1.
func NextReservationNumber(date string, existing []string) string {
	day := date
	if parts := strings.Split(date, "-"); len(parts) >= 3 {
		day = parts[2]
	}

	maxSeq := 0
	for _, number := range existing {
		idx := strings.LastIndex(number, "-")
		if idx < 0 {
			continue
		}
		if seq, err := strconv.Atoi(number[idx+1:]); err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}
	return "P" + day + "-" + strconv.Itoa(maxSeq+1)
}

// BookingSlots describes what the public booking page may offer today.
func (s *Service) BookingSlots() transport.BookingSlotsResponse {
	minDate, maxDate := bookingWindow(s.now())
	return transport.BookingSlotsResponse{
		MinDate:      minDate,
		MaxDate:      maxDate,
		Lunch:        lunchService.slots(),
		Dinner:       dinnerService.slots(),
		MaxPartySize: maxPublicPartySize,
	}
}

// Book stores a booking from the public page. It stays pending until the
// staff confirms it; large groups are told they will be called back.
func (s *Service) Book(ctx context.Context, req transport.PublicBookingRequest) (transport.BookingResponse, error) {
	minDate, maxDate := bookingWindow(s.now())
	if req.Date < minDate || req.Date > maxDate {
		return transport.BookingResponse{}, apperr.Validation(msgDateOutOfWindow).WithDetails(map[string]string{"minDate": minDate, "maxDate": maxDate})
	}
	if !isBookingSlot(req.Time) {
		return transport.BookingResponse{}, apperr.Validation(msgSlotUnavailable)
	}
	if !phone.IsValid(req.CustomerPhone) {
		return transport.BookingResponse{}, apperr.Validation(msgInvalidPhone)
	}

	res, err := s.insert(ctx, repository.CreateReservationParams{
		CustomerName:  sanitize.Line(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerEmail: optional(req.CustomerEmail),
		Date:          req.Date,
		Time:          req.Time,
		PartySize:     req.PartySize,
		OccasionType:  occasionKey(req.OccasionType),
		NeedsCake:     req.NeedsCake,
		CakeMessage:   optional(sanitize.Line(req.CakeMessage)),
		Notes:         optional(sanitize.Text(req.Notes)),
		Status:        StatusPending,
		Source:        sourcePublic,
	})
	if err != nil {
		return transport.BookingResponse{}, err
	}

	return transport.BookingResponse{
		ReservationNumber: res.ReservationNumber,
		Date:              res.Date,
		Time:              res.Time,
		PartySize:         res.PartySize,
		Status:            res.Status,
		ConfirmationCall:  res.PartySize >= confirmationCallMin,
	}, nil
}

// insert numbers and stores a reservation, retrying when a concurrent
// booking took the same number.
func (s *Service) insert(ctx context.Context, params repository.CreateReservationParams) (repository.Reservation, error) {
	var lastErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		existing, err := s.repo.ReservationNumbersForDate(ctx, params.Date)
		if err != nil {
			return repository.Reservation{}, err
		}
		params.ReservationNumber = NextReservationNumber(params.Date, existing)

		res, err := s.repo.CreateReservation(ctx, params)
		if err == nil {
			s.log.Info("reservation created", "reservationNumber", res.ReservationNumber, "source", res.Source, "partySize", res.PartySize)
			if s.bus != nil {
				s.bus.Publish(ctx, events.ReservationCreated{
					BaseEvent:         events.NewBaseEvent(),
					ReservationID:     res.ID,
					ReservationNumber: res.ReservationNumber,
					Source:            res.Source,
					CustomerName:      res.CustomerName,
					Date:              res.Date,
					Time:              res.Time,
					PartySize:         res.PartySize,
				})
			}
			return res, nil
		}
		if !apperr.Is(err, apperr.KindConflict) {
			return repository.Reservation{}, err
		}
		lastErr = err
	}
	return repository.Reservation{}, fmt.Errorf("assign reservation number: %w", lastErr)
}

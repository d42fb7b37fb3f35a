package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maremio_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	tableNotFoundMessage       = "table not found"
	reservationNotFoundMessage = "reservation not found"
	tableNameTakenMessage      = "esiste già un tavolo con questo nome"
	numberTakenMessage         = "numero di prenotazione già usato"

	uniqueViolation = "23505"
	dateLayout      = "2006-01-02"
)

// Repo implements the reservations repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new reservations repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const tableColumns = `id, name, capacity, location, is_active, sort_order, created_at`

func scanTable(row pgx.Row) (Table, error) {
	var table Table
	var createdAt time.Time
	if err := row.Scan(&table.ID, &table.Name, &table.Capacity, &table.Location, &table.IsActive, &table.SortOrder, &createdAt); err != nil {
		return Table{}, err
	}
	table.CreatedAt = createdAt.Format(time.RFC3339)
	return table, nil
}

// ListTables returns tables in room order.
func (r *Repo) ListTables(ctx context.Context, activeOnly bool) ([]Table, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tableColumns+`
		FROM restaurant_tables
		WHERE is_active OR NOT $1
		ORDER BY sort_order, name`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]Table, 0)
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, table)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate tables: %w", rows.Err())
	}
	return tables, nil
}

// GetTable retrieves a table by ID.
func (r *Repo) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	table, err := scanTable(r.pool.QueryRow(ctx, `SELECT `+tableColumns+` FROM restaurant_tables WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Table{}, apperr.NotFound(tableNotFoundMessage)
		}
		return Table{}, fmt.Errorf("get table: %w", err)
	}
	return table, nil
}

// CreateTable appends a table at the end of the room order.
func (r *Repo) CreateTable(ctx context.Context, params CreateTableParams) (Table, error) {
	query := `
		INSERT INTO restaurant_tables (name, capacity, location, sort_order)
		VALUES ($1, $2, $3, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM restaurant_tables))
		RETURNING ` + tableColumns

	table, err := scanTable(r.pool.QueryRow(ctx, query, params.Name, params.Capacity, params.Location))
	if err != nil {
		if isUniqueViolation(err) {
			return Table{}, apperr.Conflict(tableNameTakenMessage)
		}
		return Table{}, fmt.Errorf("create table: %w", err)
	}
	return table, nil
}

// UpdateTable applies the non-nil fields of params.
func (r *Repo) UpdateTable(ctx context.Context, params UpdateTableParams) (Table, error) {
	query := `
		UPDATE restaurant_tables
		SET
			name = COALESCE($2, name),
			capacity = COALESCE($3, capacity),
			location = COALESCE($4, location),
			is_active = COALESCE($5, is_active),
			sort_order = COALESCE($6, sort_order),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + tableColumns

	table, err := scanTable(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Capacity, params.Location, params.IsActive, params.SortOrder))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Table{}, apperr.NotFound(tableNotFoundMessage)
		}
		if isUniqueViolation(err) {
			return Table{}, apperr.Conflict(tableNameTakenMessage)
		}
		return Table{}, fmt.Errorf("update table: %w", err)
	}
	return table, nil
}

// DeleteTable removes a table. Reservations on it lose their assignment.
func (r *Repo) DeleteTable(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM restaurant_tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(tableNotFoundMessage)
	}
	return nil
}

const reservationColumns = `id, reservation_number, customer_name, customer_phone, customer_email,
	reservation_date, reservation_time, party_size, table_id, occasion_type, needs_cake, cake_message,
	notes, status, source, created_at, updated_at`

func scanReservation(row pgx.Row) (Reservation, error) {
	var res Reservation
	var date, createdAt, updatedAt time.Time
	if err := row.Scan(
		&res.ID, &res.ReservationNumber, &res.CustomerName, &res.CustomerPhone, &res.CustomerEmail,
		&date, &res.Time, &res.PartySize, &res.TableID, &res.OccasionType, &res.NeedsCake, &res.CakeMessage,
		&res.Notes, &res.Status, &res.Source, &createdAt, &updatedAt,
	); err != nil {
		return Reservation{}, err
	}
	res.Date = date.Format(dateLayout)
	res.CreatedAt = createdAt.Format(time.RFC3339)
	res.UpdatedAt = updatedAt.Format(time.RFC3339)
	return res, nil
}

// CreateReservation inserts a booking. A reused number is a Conflict so the
// caller can pick the next one.
func (r *Repo) CreateReservation(ctx context.Context, params CreateReservationParams) (Reservation, error) {
	query := `
		INSERT INTO reservations (
			reservation_number, customer_name, customer_phone, customer_email,
			reservation_date, reservation_time, party_size, table_id, occasion_type,
			needs_cake, cake_message, notes, status, source
		)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + reservationColumns

	res, err := scanReservation(r.pool.QueryRow(ctx, query,
		params.ReservationNumber, params.CustomerName, params.CustomerPhone, params.CustomerEmail,
		params.Date, params.Time, params.PartySize, params.TableID, params.OccasionType,
		params.NeedsCake, params.CakeMessage, params.Notes, params.Status, params.Source,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Reservation{}, apperr.Conflict(numberTakenMessage)
		}
		return Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return res, nil
}

// UpdateReservation applies the non-nil fields of params.
func (r *Repo) UpdateReservation(ctx context.Context, params UpdateReservationParams) (Reservation, error) {
	query := `
		UPDATE reservations
		SET
			customer_name = COALESCE($2, customer_name),
			customer_phone = COALESCE($3, customer_phone),
			customer_email = COALESCE($4, customer_email),
			reservation_date = COALESCE($5::date, reservation_date),
			reservation_time = COALESCE($6, reservation_time),
			party_size = COALESCE($7, party_size),
			occasion_type = COALESCE($8, occasion_type),
			needs_cake = COALESCE($9, needs_cake),
			cake_message = COALESCE($10, cake_message),
			notes = COALESCE($11, notes),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + reservationColumns

	return r.updateOne(ctx, "update reservation", query,
		params.ID, params.CustomerName, params.CustomerPhone, params.CustomerEmail, params.Date, params.Time,
		params.PartySize, params.OccasionType, params.NeedsCake, params.CakeMessage, params.Notes)
}

// SetStatus stores a new lifecycle state.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status string) (Reservation, error) {
	return r.updateOne(ctx, "set reservation status",
		`UPDATE reservations SET status = $2, updated_at = now() WHERE id = $1 RETURNING `+reservationColumns,
		id, status)
}

// AssignTable links the reservation to tableID, or clears the link when nil.
func (r *Repo) AssignTable(ctx context.Context, id uuid.UUID, tableID *uuid.UUID) (Reservation, error) {
	return r.updateOne(ctx, "assign table",
		`UPDATE reservations SET table_id = $2, updated_at = now() WHERE id = $1 RETURNING `+reservationColumns,
		id, tableID)
}

func (r *Repo) updateOne(ctx context.Context, op, query string, args ...any) (Reservation, error) {
	res, err := scanReservation(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reservation{}, apperr.NotFound(reservationNotFoundMessage)
		}
		return Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// DeleteReservation removes a booking.
func (r *Repo) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(reservationNotFoundMessage)
	}
	return nil
}

// GetReservation retrieves a booking by ID.
func (r *Repo) GetReservation(ctx context.Context, id uuid.UUID) (Reservation, error) {
	res, err := scanReservation(r.pool.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reservation{}, apperr.NotFound(reservationNotFoundMessage)
		}
		return Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// ListReservations returns bookings ordered by date and time.
func (r *Repo) ListReservations(ctx context.Context, params ListReservationsParams) ([]Reservation, error) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if params.From != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("reservation_date >= $%d::date", argIdx))
		args = append(args, params.From)
		argIdx++
	}
	if params.To != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("reservation_date <= $%d::date", argIdx))
		args = append(args, params.To)
		argIdx++
	}
	if params.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE `+strings.Join(whereClauses, " AND ")+`
		ORDER BY reservation_date, reservation_time, reservation_number`, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	items := make([]Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		items = append(items, res)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservations: %w", rows.Err())
	}
	return items, nil
}

// ReservationNumbersForDate returns every number used on a date.
func (r *Repo) ReservationNumbersForDate(ctx context.Context, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT reservation_number FROM reservations WHERE reservation_date = $1::date`, date)
	if err != nil {
		return nil, fmt.Errorf("list reservation numbers: %w", err)
	}
	defer rows.Close()

	numbers := make([]string, 0)
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, fmt.Errorf("scan reservation number: %w", err)
		}
		numbers = append(numbers, number)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservation numbers: %w", rows.Err())
	}
	return numbers, nil
}

// TableBooked counts pending, confirmed and seated bookings only.
func (r *Repo) TableBooked(ctx context.Context, tableID uuid.UUID, date, slot string, exclude uuid.UUID) (bool, error) {
	var booked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE table_id = $1
				AND reservation_date = $2::date
				AND reservation_time = $3
				AND id <> $4
				AND status IN ('pending', 'confirmed', 'seated')
		)`, tableID, date, slot, exclude).Scan(&booked)
	if err != nil {
		return false, fmt.Errorf("check table booking: %w", err)
	}
	return booked, nil
}

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
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	orderNotFoundMessage = "order not found"
	dateLayout           = "2006-01-02"
)

// Repo implements the orders repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new orders repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const orderColumns = `id, order_number, customer_id, customer_name, customer_phone, customer_email,
	delivery_date, delivery_time, delivery_type, delivery_address, notes, status, source,
	total_amount::float8, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var order Order
	var deliveryDate, createdAt, updatedAt time.Time
	if err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerID, &order.CustomerName, &order.CustomerPhone, &order.CustomerEmail,
		&deliveryDate, &order.DeliveryTime, &order.DeliveryType, &order.DeliveryAddress, &order.Notes, &order.Status, &order.Source,
		&order.TotalAmount, &createdAt, &updatedAt,
	); err != nil {
		return Order{}, err
	}
	order.DeliveryDate = deliveryDate.Format(dateLayout)
	order.CreatedAt = createdAt.Format(time.RFC3339)
	order.UpdatedAt = updatedAt.Format(time.RFC3339)
	order.Items = []OrderItem{}
	return order, nil
}

// Create inserts an order and its lines in one transaction.
func (r *Repo) Create(ctx context.Context, params CreateOrderParams) (Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, fmt.Errorf("begin create order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO orders (
			order_number, customer_id, customer_name, customer_phone, customer_email,
			delivery_date, delivery_time, delivery_type, delivery_address, notes, source, total_amount
		)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	var id uuid.UUID
	if err := tx.QueryRow(ctx, query,
		params.OrderNumber, params.CustomerID, params.CustomerName, params.CustomerPhone, params.CustomerEmail,
		params.DeliveryDate, params.DeliveryTime, params.DeliveryType, params.DeliveryAddress, params.Notes,
		params.Source, params.TotalAmount,
	).Scan(&id); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	if err := insertItems(ctx, tx, id, params.Items); err != nil {
		return Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit create order: %w", err)
	}

	return r.GetByID(ctx, id)
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []ItemParams) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.UnitPrice*float64(item.Quantity),
		)
	}
	results := tx.SendBatch(ctx, batch)
	for range items {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// Update applies params in one transaction, replacing lines when given.
func (r *Repo) Update(ctx context.Context, params UpdateOrderParams) (Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, fmt.Errorf("begin update order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE orders
		SET
			order_number = COALESCE($2, order_number),
			customer_name = COALESCE($3, customer_name),
			customer_phone = COALESCE($4, customer_phone),
			customer_email = COALESCE($5, customer_email),
			delivery_date = COALESCE($6::date, delivery_date),
			delivery_time = COALESCE($7, delivery_time),
			delivery_type = COALESCE($8, delivery_type),
			delivery_address = COALESCE($9, delivery_address),
			notes = COALESCE($10, notes),
			status = COALESCE($11, status),
			total_amount = COALESCE($12, total_amount),
			updated_at = now()
		WHERE id = $1`

	result, err := tx.Exec(ctx, query,
		params.ID, params.OrderNumber, params.CustomerName, params.CustomerPhone, params.CustomerEmail,
		params.DeliveryDate, params.DeliveryTime, params.DeliveryType, params.DeliveryAddress, params.Notes,
		params.Status, params.TotalAmount,
	)
	if err != nil {
		return Order{}, fmt.Errorf("update order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Order{}, apperr.NotFound(orderNotFoundMessage)
	}

	if params.Items != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, params.ID); err != nil {
			return Order{}, fmt.Errorf("clear order items: %w", err)
		}
		if err := insertItems(ctx, tx, params.ID, params.Items); err != nil {
			return Order{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit update order: %w", err)
	}
	return r.GetByID(ctx, params.ID)
}

// Delete removes an order; its lines cascade.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMessage)
	}
	return nil
}

// GetByID retrieves an order with its lines.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return Order{}, fmt.Errorf("get order by id: %w", err)
	}

	orders := []Order{order}
	if err := r.attachItems(ctx, orders); err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

// List returns orders ordered by delivery slot, with their lines.
func (r *Repo) List(ctx context.Context, params ListOrdersParams) ([]Order, int, error) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if len(params.DeliveryDates) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("delivery_date = ANY($%d::date[])", argIdx))
		args = append(args, params.DeliveryDates)
		argIdx++
	}

	if params.DeliveryFrom != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("delivery_date >= $%d::date", argIdx))
		args = append(args, params.DeliveryFrom)
		argIdx++
	}

	if params.DeliveryTo != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("delivery_date <= $%d::date", argIdx))
		args = append(args, params.DeliveryTo)
		argIdx++
	}

	if len(params.ExcludeStatuses) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("NOT (status = ANY($%d::text[]))", argIdx))
		args = append(args, params.ExcludeStatuses)
		argIdx++
	}

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(customer_name ILIKE $%d OR customer_phone ILIKE $%d OR order_number ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE %s
		ORDER BY delivery_date, delivery_time, order_number
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", rows.Err())
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// attachItems loads lines for every order in one query. Category and unit
// come from the linked product, falling back to a product with the same name.
func (r *Repo) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT oi.order_id, oi.id, oi.product_id, oi.product_name, oi.quantity,
			oi.unit_price::float8, oi.total_price::float8,
			COALESCE(p.category, 'altro'), COALESCE(p.unit, 'porzione')
		FROM order_items oi
		LEFT JOIN LATERAL (
			SELECT category, unit
			FROM products
			WHERE id = oi.product_id OR name = oi.product_name
			ORDER BY (id = oi.product_id) DESC NULLS LAST
			LIMIT 1
		) p ON true
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.created_at, oi.product_name`, ids)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var item OrderItem
		if err := rows.Scan(
			&orderID, &item.ID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.UnitPrice, &item.TotalPrice, &item.Category, &item.Unit,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if rows.Err() != nil {
		return fmt.Errorf("iterate order items: %w", rows.Err())
	}
	return nil
}

// OrderNumbersForDate returns every order number used on a delivery date.
func (r *Repo) OrderNumbersForDate(ctx context.Context, deliveryDate string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT order_number FROM orders WHERE delivery_date = $1::date`, deliveryDate)
	if err != nil {
		return nil, fmt.Errorf("list order numbers: %w", err)
	}
	defer rows.Close()

	numbers := make([]string, 0)
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, fmt.Errorf("scan order number: %w", err)
		}
		numbers = append(numbers, number)
	}
	return numbers, rows.Err()
}

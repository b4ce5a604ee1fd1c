package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-service/internal/domain"
)

// --- OrderStorer Implementation ---

const orderColumns = `id, order_number, user_id, items, subtotal, tax_amount, shipping_amount, discount_amount, total, status, payment_status, payment_method, shipping_address, billing_address, shipping_method, tracking_number, carrier, notes, customer_note, refund_amount, refund_reason, cancelled_at, cancelled_reason, delivered_at, estimated_delivery, created_at, updated_at`

func scanOrder(row rowScanner, withUser bool) (*domain.Order, error) {
	var o domain.Order
	var items, shippingAddr, billingAddr []byte
	dest := []interface{}{
		&o.ID, &o.OrderNumber, &o.UserID, &items,
		&o.Subtotal, &o.TaxAmount, &o.ShippingAmount, &o.DiscountAmount, &o.Total,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&shippingAddr, &billingAddr,
		&o.ShippingMethod, &o.TrackingNumber, &o.Carrier, &o.Notes, &o.CustomerNote,
		&o.RefundAmount, &o.RefundReason,
		&o.CancelledAt, &o.CancelledReason, &o.DeliveredAt, &o.EstimatedDelivery,
		&o.CreatedAt, &o.UpdatedAt,
	}
	if withUser {
		dest = append(dest, &o.UserName, &o.UserEmail)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(items, &o.Items); err != nil {
		return nil, fmt.Errorf("store: invalid items payload for order %d: %w", o.ID, err)
	}
	if err := unmarshalJSONB(shippingAddr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("store: invalid shipping address payload for order %d: %w", o.ID, err)
	}
	if err := unmarshalJSONB(billingAddr, &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("store: invalid billing address payload for order %d: %w", o.ID, err)
	}
	return &o, nil
}

func (s *PostgresStore) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	// Count-then-format numbering, same scheme the storefront has always
	// used. The count and the insert are separate statements, so two
	// concurrent saves can read the same count; within one millisecond the
	// resulting numbers collide and the second insert fails on the unique
	// index. There is no retry.
	if order.OrderNumber == "" {
		var count int64
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders;`).Scan(&count); err != nil {
			return nil, fmt.Errorf("store: CreateOrder failed to count orders: %w", err)
		}
		order.OrderNumber = domain.FormatOrderNumber(time.Now(), count+1)
	}

	// Totals are always recomputed from the items at save time; whatever the
	// caller put in subtotal/total is overwritten.
	order.ComputeTotals()

	items, err := jsonbOrEmptyArray(order.Items)
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to encode items: %w", err)
	}
	shippingAddr, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to encode shipping address: %w", err)
	}
	billingAddr, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to encode billing address: %w", err)
	}

	query := `
		INSERT INTO orders (order_number, user_id, items, subtotal, tax_amount, shipping_amount, discount_amount, total, status, payment_status, payment_method, shipping_address, billing_address, shipping_method, customer_note, estimated_delivery)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + orderColumns + `;
	`
	row := s.db.QueryRowContext(ctx, query,
		order.OrderNumber, order.UserID, items,
		order.Subtotal, order.TaxAmount, order.ShippingAmount, order.DiscountAmount, order.Total,
		order.Status, order.PaymentStatus, order.PaymentMethod,
		shippingAddr, billingAddr,
		order.ShippingMethod, order.CustomerNote, order.EstimatedDelivery,
	)
	created, err := scanOrder(row, false)
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return nil, ErrOrderNumberExists
		}
		return nil, fmt.Errorf("store: CreateOrder failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT ` + prefixColumns(orderColumns, "o") + `, COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id = $1;
	`
	order, err := scanOrder(s.db.QueryRowContext(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: GetOrderByID failed to scan row: %w", err)
	}
	return order, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, params ListOrdersParams) ([]domain.Order, int, error) {
	var queryArgs []interface{}
	var whereClauses []string
	argID := 1

	if params.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("o.status = $%d", argID))
		queryArgs = append(queryArgs, *params.Status)
		argID++
	}

	whereCondition := ""
	if len(whereClauses) > 0 {
		whereCondition = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM orders o" + whereCondition
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, queryArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListOrders failed to count orders: %w", err)
	}
	if totalCount == 0 {
		return []domain.Order{}, 0, nil
	}

	dataQuery := fmt.Sprintf(`
		SELECT `+prefixColumns(orderColumns, "o")+`, COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		%s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		whereCondition, argID, argID+1)
	finalQueryArgs := append(queryArgs, params.Limit, params.Offset)

	rows, err := s.db.QueryContext(ctx, dataQuery, finalQueryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListOrders failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, params.Limit)
	for rows.Next() {
		o, err := scanOrder(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("store: ListOrders failed to scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListOrders iteration error: %w", err)
	}
	return orders, totalCount, nil
}

func (s *PostgresStore) UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	// Recomputed on every save. Saving the same order twice in a row yields
	// identical totals; item prices stay whatever was snapshotted into the
	// items at the time they were stored.
	order.ComputeTotals()

	items, err := jsonbOrEmptyArray(order.Items)
	if err != nil {
		return nil, fmt.Errorf("store: UpdateOrder failed to encode items: %w", err)
	}

	query := `
		UPDATE orders
		SET items = $1, subtotal = $2, tax_amount = $3, shipping_amount = $4, discount_amount = $5, total = $6, status = $7, payment_status = $8, tracking_number = $9, carrier = $10, notes = $11, refund_amount = $12, refund_reason = $13, cancelled_at = $14, cancelled_reason = $15, delivered_at = $16, updated_at = CURRENT_TIMESTAMP
		WHERE id = $17
		RETURNING ` + orderColumns + `;
	`
	row := s.db.QueryRowContext(ctx, query,
		items, order.Subtotal, order.TaxAmount, order.ShippingAmount, order.DiscountAmount, order.Total,
		order.Status, order.PaymentStatus, order.TrackingNumber, order.Carrier, order.Notes,
		order.RefundAmount, order.RefundReason,
		order.CancelledAt, order.CancelledReason, order.DeliveredAt,
		order.ID,
	)
	updated, err := scanOrder(row, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: UpdateOrder failed to scan row: %w", err)
	}
	return updated, nil
}

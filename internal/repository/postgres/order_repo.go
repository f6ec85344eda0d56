package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kainan-backend/internal/domain"
	"kainan-backend/pkg/utils"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type orderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) domain.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.order_number, o.user_id, o.status, o.payment_method, o.payment_status,
	o.subtotal, o.delivery_fee, o.tax, o.discount, o.total_amount,
	o.fulfillment_type, o.delivery_address, o.pickup_location, o.proof_of_delivery_url,
	o.estimated_delivery_time, o.actual_delivery_time, o.created_at, o.updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var deliveryAddr, pickupLoc []byte

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.Subtotal, &o.DeliveryFee, &o.Tax, &o.Discount, &o.TotalAmount,
		&o.FulfillmentType, &deliveryAddr, &pickupLoc, &o.ProofOfDeliveryURL,
		&o.EstimatedDeliveryTime, &o.ActualDeliveryTime, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(deliveryAddr) > 0 {
		_ = json.Unmarshal(deliveryAddr, &o.DeliveryAddress)
	}
	if len(pickupLoc) > 0 {
		_ = json.Unmarshal(pickupLoc, &o.PickupLocation)
	}
	return &o, nil
}

func (r *orderRepository) loadItems(ctx context.Context, db DBTX, orderIDs []string) (map[string][]domain.OrderItem, error) {
	if len(orderIDs) == 0 {
		return map[string][]domain.OrderItem{}, nil
	}

	rows, err := db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price, customization, note
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]domain.OrderItem)
	for rows.Next() {
		var item domain.OrderItem
		var customization []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice, &customization, &item.Note); err != nil {
			return nil, err
		}
		if len(customization) > 0 {
			var c domain.Customization
			if err := json.Unmarshal(customization, &c); err == nil {
				item.Customization = &c
			}
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	return items, rows.Err()
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	db := dbFromContext(ctx, r.db)

	var deliveryAddr, pickupLoc []byte
	if order.DeliveryAddress != nil {
		deliveryAddr, _ = json.Marshal(order.DeliveryAddress)
	}
	if order.PickupLocation != nil {
		pickupLoc, _ = json.Marshal(order.PickupLocation)
	}

	_, err := db.Exec(ctx, `
		INSERT INTO orders (id, order_number, user_id, status, payment_method, payment_status,
			subtotal, delivery_fee, tax, discount, total_amount,
			fulfillment_type, delivery_address, pickup_location, estimated_delivery_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		order.ID, order.OrderNumber, order.UserID, order.Status, order.PaymentMethod, order.PaymentStatus,
		order.Subtotal, order.DeliveryFee, order.Tax, order.Discount, order.TotalAmount,
		order.FulfillmentType, deliveryAddr, pickupLoc, order.EstimatedDeliveryTime,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = utils.GenerateUUID()
		}
		item.OrderID = order.ID

		var customization []byte
		if item.Customization != nil {
			customization, _ = json.Marshal(item.Customization)
		}
		_, err := db.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, total_price, customization, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, item.OrderID, item.ProductID, item.ProductName,
			item.Quantity, item.UnitPrice, item.TotalPrice, customization, item.Note,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	db := dbFromContext(ctx, r.db)

	row := db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, db, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (r *orderRepository) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	db := dbFromContext(ctx, r.db)

	base := psql.Select(orderColumns).From("orders o")
	count := psql.Select("COUNT(*)").From("orders o")

	apply := func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(filter.Statuses) > 0 {
			b = b.Where(sq.Eq{"o.status": filter.Statuses})
		}
		if filter.PaymentStatus != "" {
			b = b.Where(sq.Eq{"o.payment_status": filter.PaymentStatus})
		}
		if filter.UserID != "" {
			b = b.Where(sq.Eq{"o.user_id": filter.UserID})
		}
		if filter.RiderID != "" {
			b = b.Where(`o.id IN (SELECT order_id FROM delivery_assignments WHERE rider_id = ? AND active)`, filter.RiderID)
		}
		if filter.Search != "" {
			b = b.Where(`o.order_number ILIKE ?`, "%"+filter.Search+"%")
		}
		return b
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	query, args, err := apply(base).
		OrderBy("o.created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := r.loadItems(ctx, db, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	countQuery, countArgs, err := apply(count).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context, userID string) (map[string]int64, error) {
	db := dbFromContext(ctx, r.db)

	b := psql.Select("status", "COUNT(*)").From("orders").GroupBy("status")
	if userID != "" {
		b = b.Where(sq.Eq{"user_id": userID})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	db := dbFromContext(ctx, r.db)
	tag, err := db.Exec(ctx, `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	db := dbFromContext(ctx, r.db)
	tag, err := db.Exec(ctx, `UPDATE orders SET payment_status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) SetProofOfDelivery(ctx context.Context, id, url string) error {
	db := dbFromContext(ctx, r.db)
	tag, err := db.Exec(ctx, `UPDATE orders SET proof_of_delivery_url = $1, updated_at = now() WHERE id = $2`, url, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) SetActualDeliveryTime(ctx context.Context, id string, t time.Time) error {
	db := dbFromContext(ctx, r.db)
	tag, err := db.Exec(ctx, `UPDATE orders SET actual_delivery_time = $1, updated_at = now() WHERE id = $2`, t, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) GetAvailable(ctx context.Context) ([]domain.Order, error) {
	db := dbFromContext(ctx, r.db)

	rows, err := db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.status = $1
		  AND o.fulfillment_type = $2
		  AND NOT EXISTS (
			SELECT 1 FROM delivery_assignments a WHERE a.order_id = o.id AND a.active
		  )
		ORDER BY o.created_at`,
		domain.OrderStatusReadyForPickup, domain.FulfillmentDelivery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *orderRepository) CreateHistory(ctx context.Context, h *domain.OrderHistory) error {
	db := dbFromContext(ctx, r.db)
	if h.ID == "" {
		h.ID = utils.GenerateUUID()
	}
	_, err := db.Exec(ctx, `
		INSERT INTO order_history (id, order_id, previous_status, new_status, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		h.ID, h.OrderID, h.PreviousStatus, h.NewStatus, h.Reason, h.CreatedBy)
	return err
}

func (r *orderRepository) GetHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	db := dbFromContext(ctx, r.db)
	rows, err := db.Query(ctx, `
		SELECT id, order_id, previous_status, new_status, reason, created_by, created_at
		FROM order_history
		WHERE order_id = $1
		ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.OrderHistory
	for rows.Next() {
		var h domain.OrderHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.PreviousStatus, &h.NewStatus, &h.Reason, &h.CreatedBy, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

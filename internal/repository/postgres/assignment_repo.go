package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"kainan-backend/internal/domain"
	"kainan-backend/pkg/utils"
)

type assignmentRepository struct {
	db *pgxpool.Pool
}

func NewAssignmentRepository(db *pgxpool.Pool) domain.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, a *domain.DeliveryAssignment) error {
	db := dbFromContext(ctx, r.db)
	if a.ID == "" {
		a.ID = utils.GenerateUUID()
	}
	a.Active = true
	if a.Status == "" {
		a.Status = domain.AssignmentStatusAssigned
	}

	// The partial unique index on (order_id) WHERE active turns a double
	// claim into a constraint violation instead of a second assignment.
	_, err := db.Exec(ctx, `
		INSERT INTO delivery_assignments (id, order_id, rider_id, status, active)
		VALUES ($1, $2, $3, $4, true)`,
		a.ID, a.OrderID, a.RiderID, a.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyAssigned
		}
		return err
	}
	return nil
}

func (r *assignmentRepository) GetActiveByOrderID(ctx context.Context, orderID string) (*domain.DeliveryAssignment, error) {
	db := dbFromContext(ctx, r.db)
	var a domain.DeliveryAssignment
	err := db.QueryRow(ctx, `
		SELECT id, order_id, rider_id, status, active, assigned_at, picked_up_at
		FROM delivery_assignments
		WHERE order_id = $1 AND active`, orderID).
		Scan(&a.ID, &a.OrderID, &a.RiderID, &a.Status, &a.Active, &a.AssignedAt, &a.PickedUpAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) GetActiveByRiderID(ctx context.Context, riderID string) ([]domain.DeliveryAssignment, error) {
	db := dbFromContext(ctx, r.db)
	rows, err := db.Query(ctx, `
		SELECT id, order_id, rider_id, status, active, assigned_at, picked_up_at
		FROM delivery_assignments
		WHERE rider_id = $1 AND active
		ORDER BY assigned_at DESC`, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []domain.DeliveryAssignment
	for rows.Next() {
		var a domain.DeliveryAssignment
		if err := rows.Scan(&a.ID, &a.OrderID, &a.RiderID, &a.Status, &a.Active, &a.AssignedAt, &a.PickedUpAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *assignmentRepository) UpdateStatus(ctx context.Context, id, status string, pickedUpAt *time.Time) error {
	db := dbFromContext(ctx, r.db)
	tag, err := db.Exec(ctx, `
		UPDATE delivery_assignments
		SET status = $1, picked_up_at = COALESCE($2, picked_up_at)
		WHERE id = $3`, status, pickedUpAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/errand-service/internal/domain"
)

type serviceRequestRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRequestRepository returns a Postgres-backed implementation.
func NewServiceRequestRepository(pool *pgxpool.Pool) ServiceRequestRepository {
	return &serviceRequestRepository{pool: pool}
}

func (r *serviceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	tasks, err := encodeTasks(req.Tasks)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO customer_requests (customer_id, details, tasks, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, query,
		req.CustomerID,
		req.Details,
		tasks,
		string(req.Status),
	).Scan(&req.ID, &req.CreatedAt); err != nil {
		return fmt.Errorf("insert customer request: %w", err)
	}
	return nil
}

func (r *serviceRequestRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.ServiceRequest, error) {
	const query = `
        SELECT id, customer_id, details, tasks, created_at, status
        FROM customer_requests WHERE customer_id=$1 ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("query customer requests: %w", err)
	}
	defer rows.Close()

	result := []domain.ServiceRequest{}
	for rows.Next() {
		var (
			req    domain.ServiceRequest
			raw    []byte
			status string
		)
		if err := rows.Scan(
			&req.ID,
			&req.CustomerID,
			&req.Details,
			&raw,
			&req.CreatedAt,
			&status,
		); err != nil {
			return nil, fmt.Errorf("scan customer request: %w", err)
		}
		if req.Tasks, err = decodeTasks(raw); err != nil {
			return nil, err
		}
		req.Status = domain.RequestStatus(status)
		result = append(result, req)
	}
	return result, rows.Err()
}

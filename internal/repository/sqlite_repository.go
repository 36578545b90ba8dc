package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/spec-kit/errand-service/internal/domain"
)

// SQLiteUserRepository implements UserRepository on database/sql with the
// modernc SQLite driver.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a SQLite-backed UserRepository.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

func (r *SQLiteUserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, phone_number, hashed_password, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.FirstName, user.LastName, user.Email, user.PhoneNumber, user.PasswordHash, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	return nil
}

func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, email, phone_number, hashed_password, created_at
		 FROM users WHERE email = ?`, email).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.PhoneNumber, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// SQLiteServiceRequestRepository implements ServiceRequestRepository on SQLite.
type SQLiteServiceRequestRepository struct {
	db *sql.DB
}

// NewSQLiteServiceRequestRepository creates a SQLite-backed ServiceRequestRepository.
func NewSQLiteServiceRequestRepository(db *sql.DB) *SQLiteServiceRequestRepository {
	return &SQLiteServiceRequestRepository{db: db}
}

func (r *SQLiteServiceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	tasks, err := encodeTasks(req.Tasks)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO customer_requests (customer_id, details, tasks, created_at, status)
		 VALUES (?, ?, ?, ?, ?)`,
		req.CustomerID, req.Details, string(tasks), now, string(req.Status),
	)
	if err != nil {
		return fmt.Errorf("insert customer request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	req.ID = id
	req.CreatedAt = now
	return nil
}

func (r *SQLiteServiceRequestRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.ServiceRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, details, tasks, created_at, status
		 FROM customer_requests WHERE customer_id = ? ORDER BY id ASC`, customerID)
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
		if err := rows.Scan(&req.ID, &req.CustomerID, &req.Details, &raw, &req.CreatedAt, &status); err != nil {
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

func isUniqueConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		// primary result code when extended codes are off
		if code&0xff != sqlite3.SQLITE_CONSTRAINT {
			return false
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

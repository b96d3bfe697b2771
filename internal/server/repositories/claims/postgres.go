package claims

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/dbx"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `id, lecturer_id, lecturer_name, date, hours_worked, hourly_rate, notes, status, created_at, verified_at, approved_at`

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts claim as Pending and fills in its id and creation time.
func (r *PostgresRepository) Create(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	claim.Status = models.ClaimPending

	query :=
		`INSERT INTO claims (id, lecturer_id, lecturer_name, date, hours_worked, hourly_rate, notes, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		claim.ID, claim.LecturerID, claim.LecturerName, claim.Date, claim.HoursWorked, claim.HourlyRate,
		claim.Notes, int(claim.Status)).Scan(&claim.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return claim, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Claim, error) {
	query := `SELECT ` + selectColumns + ` FROM claims WHERE id = $1`

	claim, err := scanClaim(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return claim, nil
}

// ListByLecturer returns the lecturer's claims, newest first.
func (r *PostgresRepository) ListByLecturer(ctx context.Context, lecturerID string) ([]*models.Claim, error) {
	query := `SELECT ` + selectColumns + ` FROM claims WHERE lecturer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, lecturerID)
}

// ListByStatus returns every claim in status, oldest first, which is the
// order reviewers work through them.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status models.ClaimStatus) ([]*models.Claim, error) {
	query := `SELECT ` + selectColumns + ` FROM claims WHERE status = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, int(status))
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*models.Claim, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// UpdateStatus stores claim.Status and the review timestamps, provided the
// row is still in status from. Otherwise common.ErrorNotFound is returned.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, claim *models.Claim, from models.ClaimStatus) error {
	query :=
		`UPDATE claims SET status = $1, verified_at = $2, approved_at = $3
		 WHERE id = $4 AND status = $5`

	res, err := r.db.ExecContext(ctx, query,
		int(claim.Status), nullTime(claim.VerifiedAt), nullTime(claim.ApprovedAt), claim.ID, int(from))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Delete removes the claim; its documents go with it (ON DELETE CASCADE).
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM claims WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(s scanner) (*models.Claim, error) {
	var (
		c          models.Claim
		status     int
		verifiedAt sql.NullTime
		approvedAt sql.NullTime
	)

	if err := s.Scan(&c.ID, &c.LecturerID, &c.LecturerName, &c.Date, &c.HoursWorked, &c.HourlyRate,
		&c.Notes, &status, &c.CreatedAt, &verifiedAt, &approvedAt); err != nil {
		return nil, err
	}

	c.Status = models.ClaimStatus(status)
	if verifiedAt.Valid {
		c.VerifiedAt = &verifiedAt.Time
	}
	if approvedAt.Valid {
		c.ApprovedAt = &approvedAt.Time
	}
	return &c, nil
}

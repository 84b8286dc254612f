// FilePath: internal/repository/postgres/postgres.facility.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/bartech/facilityhub/internal/database"
	"github.com/bartech/facilityhub/internal/errors"
	"github.com/bartech/facilityhub/internal/models"
)

type FacilityRepo struct {
	PostgresBaseRepo
}

func NewFacilityRepository(db database.DB) *FacilityRepo {
	repo := &PostgresBaseRepo{db: db}
	return &FacilityRepo{PostgresBaseRepo: *repo}
}

func (r *FacilityRepo) Create(ctx context.Context, facility *models.Facility) error {
	now := time.Now().UTC()
	facility.CreatedAt = now
	facility.UpdatedAt = now

	query := `
		INSERT INTO facilities (
			id, name, location, is_active, created_at, updated_at
		) VALUES (
			:id, :name, :location, :is_active, :created_at, :updated_at
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, facility)
	if err != nil {
		return errors.NewDatabaseError("failed to create facility", err)
	}
	return nil
}

func (r *FacilityRepo) Get(ctx context.Context, id string) (*models.Facility, error) {
	facility := &models.Facility{}
	query := `SELECT * FROM facilities WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, facility, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("facility not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get facility", err)
	}
	return facility, nil
}

func (r *FacilityRepo) Update(ctx context.Context, facility *models.Facility) error {
	facility.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE facilities SET
			name = :name,
			location = :location,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, facility)
	if err != nil {
		return errors.NewDatabaseError("failed to update facility", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("facility not found", nil)
	}

	return nil
}

func (r *FacilityRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM facilities WHERE id = $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete facility", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("facility not found", nil)
	}

	return nil
}

func (r *FacilityRepo) List(ctx context.Context, offset, limit int) ([]*models.Facility, error) {
	facilities := []*models.Facility{}
	query := `SELECT * FROM facilities ORDER BY name ASC LIMIT $1 OFFSET $2`

	err := r.db.GetDB().SelectContext(ctx, &facilities, query, limit, offset)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list facilities", err)
	}

	return facilities, nil
}

func (r *FacilityRepo) ListActive(ctx context.Context) ([]*models.Facility, error) {
	facilities := []*models.Facility{}
	query := `SELECT * FROM facilities WHERE is_active = TRUE ORDER BY id ASC`

	err := r.db.GetDB().SelectContext(ctx, &facilities, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list active facilities", err)
	}

	return facilities, nil
}

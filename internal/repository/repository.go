// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bartech/facilityhub/internal/database"
	"github.com/bartech/facilityhub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate indicates that a resource already exists
	ErrDuplicate = errors.New("resource already exists")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// FacilityRepository defines the interface for facility registry operations
type FacilityRepository interface {
	database.Repository
	Create(ctx context.Context, facility *models.Facility) error
	Get(ctx context.Context, id string) (*models.Facility, error)
	Update(ctx context.Context, facility *models.Facility) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.Facility, error)
	ListActive(ctx context.Context) ([]*models.Facility, error)
}

// ReadingRepository defines the interface for the reading store. Append is
// the only write path; readings are immutable once written and only the
// retention collaborator ever deletes them.
type ReadingRepository interface {
	database.Repository
	Append(ctx context.Context, reading *models.Reading) error
	LatestFor(ctx context.Context, facilityID string) (*models.Reading, error)
	LatestForAll(ctx context.Context, facilityIDs []string) ([]*models.Reading, error)
	History(ctx context.Context, filters models.HistoryFilters) (int64, []*models.Reading, error)
	Statistics(ctx context.Context, facilityID string, since time.Time) (*models.ReadingStatistics, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

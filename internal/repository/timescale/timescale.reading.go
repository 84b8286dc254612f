// FilePath: internal/repository/timescale/timescale.reading.go
package timescale

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bartech/facilityhub/internal/database"
	"github.com/bartech/facilityhub/internal/errors"
	"github.com/bartech/facilityhub/internal/models"
	"github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"
)

const readingColumns = `id, facility_id, temperature, humidity, gas_status, status_lamp1, status_lamp2, status_viewer, status_writing_table, status_op_lamp, observed_at`

const readingColumnsR = `r.id, r.facility_id, r.temperature, r.humidity, r.gas_status, r.status_lamp1, r.status_lamp2, r.status_viewer, r.status_writing_table, r.status_op_lamp, r.observed_at`

type ReadingRepo struct {
	TimescaleBaseRepo
}

func NewReadingRepository(db database.DB) (*ReadingRepo, error) {
	repo := &ReadingRepo{TimescaleBaseRepo: TimescaleBaseRepo{db: db}}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ReadingRepo) initializeSchema() error {
	// Hypertable for readings plus the materialized latest pointer per
	// facility. The latest table is only ever written inside the same
	// transaction as the reading insert, so it cannot drift.
	queries := []string{
		`CREATE TABLE IF NOT EXISTS monitoring_readings (
			id BIGSERIAL,
			facility_id TEXT NOT NULL,
			temperature DOUBLE PRECISION,
			humidity DOUBLE PRECISION,
			gas_status TEXT NOT NULL DEFAULT 'Low',
			status_lamp1 TEXT NOT NULL DEFAULT 'OFF',
			status_lamp2 TEXT NOT NULL DEFAULT 'OFF',
			status_viewer TEXT NOT NULL DEFAULT 'OFF',
			status_writing_table TEXT NOT NULL DEFAULT 'OFF',
			status_op_lamp TEXT NOT NULL DEFAULT 'OFF',
			observed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (id, observed_at)
		)`,
		`SELECT create_hypertable('monitoring_readings', 'observed_at',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS facility_latest_readings (
			facility_id TEXT PRIMARY KEY,
			reading_id BIGINT NOT NULL,
			observed_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_monitoring_readings_facility_observed
		 ON monitoring_readings(facility_id, observed_at DESC, id DESC)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	return nil
}

// Append records a reading and advances the facility's latest pointer in one
// transaction. ObservedAt is assigned here; the id comes from the insert
// sequence and breaks ties between equal timestamps.
func (r *ReadingRepo) Append(ctx context.Context, reading *models.Reading) error {
	reading.ObservedAt = time.Now().UTC()

	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO monitoring_readings (
			facility_id, temperature, humidity, gas_status,
			status_lamp1, status_lamp2, status_viewer, status_writing_table,
			status_op_lamp, observed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	err = tx.QueryRowxContext(ctx, insertQuery,
		reading.FacilityID, reading.Temperature, reading.Humidity, reading.GasStatus,
		reading.StatusLamp1, reading.StatusLamp2, reading.StatusViewer, reading.StatusWritingTable,
		reading.StatusOpLamp, reading.ObservedAt,
	).Scan(&reading.ID)
	if err != nil {
		return errors.NewDatabaseError("failed to insert reading", err)
	}

	upsertQuery := `
		INSERT INTO facility_latest_readings (facility_id, reading_id, observed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (facility_id) DO UPDATE
		SET reading_id = EXCLUDED.reading_id, observed_at = EXCLUDED.observed_at
		WHERE EXCLUDED.observed_at > facility_latest_readings.observed_at
		   OR (EXCLUDED.observed_at = facility_latest_readings.observed_at
		       AND EXCLUDED.reading_id > facility_latest_readings.reading_id)`

	_, err = tx.ExecContext(ctx, upsertQuery, reading.FacilityID, reading.ID, reading.ObservedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to update latest reading", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit reading", err)
	}
	return nil
}

func (r *ReadingRepo) LatestFor(ctx context.Context, facilityID string) (*models.Reading, error) {
	reading := &models.Reading{}
	query := fmt.Sprintf(`
		SELECT %s
		FROM facility_latest_readings l
		JOIN monitoring_readings r
		  ON r.id = l.reading_id AND r.observed_at = l.observed_at
		WHERE l.facility_id = $1`, readingColumnsR)

	err := r.db.GetDB().GetContext(ctx, reading, query, facilityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("no readings for facility", err)
		}
		return nil, errors.NewDatabaseError("failed to get latest reading", err)
	}
	return reading, nil
}

// LatestForAll returns the latest reading per facility, one row each, ordered
// by facility id. A nil or empty id list means all reporting facilities.
func (r *ReadingRepo) LatestForAll(ctx context.Context, facilityIDs []string) ([]*models.Reading, error) {
	readings := []*models.Reading{}
	query := fmt.Sprintf(`
		SELECT %s
		FROM facility_latest_readings l
		JOIN monitoring_readings r
		  ON r.id = l.reading_id AND r.observed_at = l.observed_at`,
		readingColumnsR)

	var err error
	if len(facilityIDs) > 0 {
		query += `
		WHERE l.facility_id = ANY($1)
		ORDER BY l.facility_id ASC`
		err = r.db.GetDB().SelectContext(ctx, &readings, query, pq.Array(facilityIDs))
	} else {
		query += `
		ORDER BY l.facility_id ASC`
		err = r.db.GetDB().SelectContext(ctx, &readings, query)
	}
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get latest readings", err)
	}
	return readings, nil
}

// History pages through readings, newest first unless asc is requested.
// Not authoritative for current status; LatestFor is.
func (r *ReadingRepo) History(ctx context.Context, filters models.HistoryFilters) (int64, []*models.Reading, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if filters.FacilityID != "" {
		args = append(args, filters.FacilityID)
		where = append(where, fmt.Sprintf("facility_id = $%d", len(args)))
	}
	if !filters.Start.IsZero() {
		args = append(args, filters.Start)
		where = append(where, fmt.Sprintf("observed_at >= $%d", len(args)))
	}
	if !filters.End.IsZero() {
		args = append(args, filters.End)
		where = append(where, fmt.Sprintf("observed_at <= $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM monitoring_readings WHERE %s`, whereClause)
	if err := r.db.GetDB().GetContext(ctx, &total, countQuery, args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to count readings", err)
	}

	direction := "DESC"
	if filters.Order == "asc" {
		direction = "ASC"
	}

	args = append(args, filters.Limit, filters.Offset())
	pageQuery := fmt.Sprintf(`
		SELECT %s
		FROM monitoring_readings
		WHERE %s
		ORDER BY observed_at %s, id %s
		LIMIT $%d OFFSET $%d`,
		readingColumns, whereClause, direction, direction, len(args)-1, len(args))

	readings := []*models.Reading{}
	if err := r.db.GetDB().SelectContext(ctx, &readings, pageQuery, args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to get reading history", err)
	}
	return total, readings, nil
}

// Statistics aggregates readings since the given time, optionally scoped to
// one facility.
func (r *ReadingRepo) Statistics(ctx context.Context, facilityID string, since time.Time) (*models.ReadingStatistics, error) {
	stats := &models.ReadingStatistics{}
	query := `
		SELECT
			COUNT(*) as total_records,
			AVG(temperature) as avg_temperature,
			MIN(temperature) as min_temperature,
			MAX(temperature) as max_temperature,
			AVG(humidity) as avg_humidity,
			MIN(humidity) as min_humidity,
			MAX(humidity) as max_humidity,
			COUNT(*) FILTER (WHERE gas_status = 'High') as high_gas_alerts,
			COUNT(*) FILTER (WHERE gas_status = 'Medium') as medium_gas_alerts
		FROM monitoring_readings
		WHERE observed_at >= $1`

	var err error
	if facilityID != "" {
		query += ` AND facility_id = $2`
		err = r.db.GetDB().GetContext(ctx, stats, query, since, facilityID)
	} else {
		err = r.db.GetDB().GetContext(ctx, stats, query, since)
	}
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get reading statistics", err)
	}
	return stats, nil
}

// DeleteBefore removes readings older than the cutoff along with latest
// pointers that would otherwise dangle. Only the retention service calls this.
func (r *ReadingRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM monitoring_readings WHERE observed_at < $1`, before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete old readings", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM facility_latest_readings WHERE observed_at < $1`, before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to prune latest pointers", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewDatabaseError("failed to commit deletion", err)
	}

	nuts.L.Infof("[TimescaleDB] Deleted %d readings observed before %v", rows, before)
	return rows, nil
}

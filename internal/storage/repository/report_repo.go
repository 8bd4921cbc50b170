package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mtgtools/metagame/internal/storage/models"
)

// ReportRepository handles database operations for finalized reports.
type ReportRepository interface {
	// Save stores a report and fills in its assigned ID.
	Save(ctx context.Context, report *models.Report) error

	// Latest retrieves the most recently stored report.
	Latest(ctx context.Context) (*models.Report, error)

	// GetByID retrieves a report by its ID.
	GetByID(ctx context.Context, id int64) (*models.Report, error)

	// List retrieves the most recent reports without payloads, newest
	// first.
	List(ctx context.Context, limit int) ([]*models.Report, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a report repository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Save(ctx context.Context, report *models.Report) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO reports (period, sorted_by, payload) VALUES (?, ?, ?)
	`, report.Period, report.SortedBy, report.Payload)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get report id: %w", err)
	}
	report.ID = id
	return nil
}

func (r *reportRepository) Latest(ctx context.Context) (*models.Report, error) {
	return r.get(ctx, `
		SELECT id, period, sorted_by, payload, created_at
		FROM reports ORDER BY id DESC LIMIT 1
	`)
}

func (r *reportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	return r.get(ctx, `
		SELECT id, period, sorted_by, payload, created_at
		FROM reports WHERE id = ?
	`, id)
}

func (r *reportRepository) get(ctx context.Context, query string, args ...any) (*models.Report, error) {
	report := &models.Report{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&report.ID, &report.Period, &report.SortedBy, &report.Payload, &report.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

func (r *reportRepository) List(ctx context.Context, limit int) ([]*models.Report, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, period, sorted_by, created_at
		FROM reports ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []*models.Report
	for rows.Next() {
		report := &models.Report{}
		if err := rows.Scan(&report.ID, &report.Period, &report.SortedBy, &report.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

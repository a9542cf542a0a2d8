package repositories

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-system/internal/domain"
	"property-system/internal/entities"
)

type ReportRepositoryInterface interface {
	GetReport(ctx context.Context, filter entities.ReportFilter) ([]entities.ReportItem, uint64, error)
}

type ReportRepository struct {
	storage *pgxpool.Pool
}

func NewReportRepository(storage *pgxpool.Pool) ReportRepositoryInterface {
	return &ReportRepository{storage: storage}
}

func applyReportFilter(builder sq.SelectBuilder, filter entities.ReportFilter) sq.SelectBuilder {
	if filter.DateFrom != nil {
		builder = builder.Where(sq.GtOrEq{"t.created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		builder = builder.Where(sq.LtOrEq{"t.created_at": *filter.DateTo})
	}
	if len(filter.Statuses) > 0 {
		values := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			values = append(values, st.String())
		}
		builder = builder.Where(sq.Eq{"t.status": values})
	}
	if filter.Department != "" {
		builder = builder.Where(sq.Eq{"pr.department": filter.Department})
	}
	return builder
}

// GetReport une tickets con propiedades, usuarios, proveedores y la última
// calificación. Las horas de resolución se calculan en SQL.
func (r *ReportRepository) GetReport(ctx context.Context, filter entities.ReportFilter) ([]entities.ReportItem, uint64, error) {
	countBuilder := sq.Select("COUNT(*)").
		From("tickets t").
		Join("properties pr ON pr.id = t.property_id").
		PlaceholderFormat(sq.Dollar)
	countBuilder = applyReportFilter(countBuilder, filter)

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	builder := sq.Select(
		"t.id", "t.title", "t.category", "t.priority", "t.status",
		"pr.address", "pr.municipality", "pr.department",
		"u.name AS reporter_name",
		"p.name AS provider_name",
		"t.auto_approved",
		"a.rating",
		"t.created_at", "t.completed_at",
		"EXTRACT(EPOCH FROM (t.completed_at - t.created_at)) / 3600.0 AS resolution_hours",
	).
		From("tickets t").
		Join("properties pr ON pr.id = t.property_id").
		Join("users u ON u.id = t.reporter_id").
		LeftJoin("providers p ON p.id = t.provider_id").
		LeftJoin("ticket_approvals a ON a.ticket_id = t.id AND a.action = 'approved'").
		OrderBy("t.created_at DESC").
		PlaceholderFormat(sq.Dollar)
	builder = applyReportFilter(builder, filter)

	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit).Offset(filter.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []entities.ReportItem
	for rows.Next() {
		var item entities.ReportItem
		var rawStatus string
		err := rows.Scan(
			&item.TicketID, &item.Title, &item.Category, &item.Priority, &rawStatus,
			&item.PropertyAddress, &item.Municipality, &item.Department,
			&item.ReporterName, &item.ProviderName,
			&item.AutoApproved, &item.Rating,
			&item.CreatedAt, &item.CompletedAt, &item.ResolutionHours,
		)
		if err != nil {
			return nil, 0, err
		}
		item.Status, _ = domain.ParseStatus(rawStatus)
		items = append(items, item)
	}
	return items, total, rows.Err()
}

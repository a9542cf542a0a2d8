package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-system/internal/dto"
	"property-system/internal/entities"
	infradb "property-system/internal/infrastructure/db"
	apperrors "property-system/pkg/errors"
	"property-system/pkg/types"
)

type PropertyRepositoryInterface interface {
	FindProperty(ctx context.Context, id uint64) (*entities.Property, error)
	GetProperties(ctx context.Context, filter types.Filter) ([]entities.Property, uint64, error)
	CreateProperty(ctx context.Context, p *entities.Property) (uint64, error)
	UpdateProperty(ctx context.Context, id uint64, data dto.UpdatePropertyDTO) error
}

type PropertyRepository struct {
	storage *pgxpool.Pool
}

func NewPropertyRepository(storage *pgxpool.Pool) PropertyRepositoryInterface {
	return &PropertyRepository{storage: storage}
}

const propertyColumns = `
	p.id, p.address, p.type, p.owner_id, p.tenant_id, p.tenant_email,
	p.department, p.municipality, p.contract_from, p.contract_to,
	p.created_at, p.updated_at`

func scanProperty(row pgx.Row) (*entities.Property, error) {
	var p entities.Property
	err := row.Scan(
		&p.ID, &p.Address, &p.Type, &p.OwnerID, &p.TenantID, &p.TenantEmail,
		&p.Department, &p.Municipality, &p.ContractFrom, &p.ContractTo,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error escaneando la propiedad: %w", err)
	}
	return &p, nil
}

func (r *PropertyRepository) FindProperty(ctx context.Context, id uint64) (*entities.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties p WHERE p.id = $1`
	return scanProperty(r.storage.QueryRow(ctx, query, id))
}

func (r *PropertyRepository) GetProperties(ctx context.Context, filter types.Filter) ([]entities.Property, uint64, error) {
	allowed := map[string]string{
		"owner_id":     "p.owner_id",
		"tenant_id":    "p.tenant_id",
		"department":   "p.department",
		"municipality": "p.municipality",
		"type":         "p.type",
	}

	var total uint64
	countBuilder := sq.Select("COUNT(*)").From("properties p").PlaceholderFormat(sq.Dollar)
	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countSQL, countArgs, err := infradb.ApplyListParams(countBuilder, countFilter, allowed).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error construyendo el conteo de propiedades: %w", err)
	}
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error contando propiedades: %w", err)
	}

	builder := sq.Select(
		"p.id", "p.address", "p.type", "p.owner_id", "p.tenant_id", "p.tenant_email",
		"p.department", "p.municipality", "p.contract_from", "p.contract_to",
		"p.created_at", "p.updated_at",
	).From("properties p").OrderBy("p.created_at DESC").PlaceholderFormat(sq.Dollar)
	builder = infradb.ApplyListParams(builder, filter, allowed)

	querySQL, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error construyendo el listado de propiedades: %w", err)
	}

	rows, err := r.storage.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error consultando propiedades: %w", err)
	}
	defer rows.Close()

	properties := make([]entities.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		properties = append(properties, *p)
	}
	return properties, total, rows.Err()
}

func (r *PropertyRepository) CreateProperty(ctx context.Context, p *entities.Property) (uint64, error) {
	query := `
		INSERT INTO properties (address, type, owner_id, tenant_id, tenant_email,
			department, municipality, contract_from, contract_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id`

	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		p.Address, p.Type, p.OwnerID, p.TenantID, p.TenantEmail,
		p.Department, p.Municipality, p.ContractFrom, p.ContractTo,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("error insertando la propiedad: %w", err)
	}
	return newID, nil
}

func (r *PropertyRepository) UpdateProperty(ctx context.Context, id uint64, data dto.UpdatePropertyDTO) error {
	builder := sq.Update("properties").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)

	if data.Address != nil {
		builder = builder.Set("address", *data.Address)
	}
	if data.Type != nil {
		builder = builder.Set("type", *data.Type)
	}
	if data.TenantID != nil {
		builder = builder.Set("tenant_id", *data.TenantID)
	}
	if data.TenantEmail != nil {
		builder = builder.Set("tenant_email", *data.TenantEmail)
	}
	if data.Department != nil {
		builder = builder.Set("department", *data.Department)
	}
	if data.Municipality != nil {
		builder = builder.Set("municipality", *data.Municipality)
	}
	if data.ContractFrom != nil {
		builder = builder.Set("contract_from", *data.ContractFrom)
	}
	if data.ContractTo != nil {
		builder = builder.Set("contract_to", *data.ContractTo)
	}

	querySQL, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("error construyendo la edición de la propiedad: %w", err)
	}

	tag, err := r.storage.Exec(ctx, querySQL, args...)
	if err != nil {
		return fmt.Errorf("error editando la propiedad: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

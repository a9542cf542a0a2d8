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

type ProviderRepositoryInterface interface {
	FindProvider(ctx context.Context, id uint64) (*entities.Provider, error)
	FindProviderByUserID(ctx context.Context, userID uint64) (*entities.Provider, error)
	GetProviders(ctx context.Context, filter types.Filter) ([]entities.Provider, uint64, error)
	FindActiveBySpecialtyAndLocation(ctx context.Context, specialty, department, municipality string) ([]entities.Provider, error)
	CreateProvider(ctx context.Context, p *entities.Provider) (uint64, error)
	UpdateProvider(ctx context.Context, id uint64, data dto.UpdateProviderDTO) error
	DeactivateProvider(ctx context.Context, id uint64) error
}

type ProviderRepository struct {
	storage *pgxpool.Pool
}

func NewProviderRepository(storage *pgxpool.Pool) ProviderRepositoryInterface {
	return &ProviderRepository{storage: storage}
}

const providerColumns = `
	pr.id, pr.user_id, pr.name, pr.phone, pr.specialty, pr.department,
	pr.municipality, pr.active, pr.created_at, pr.updated_at`

func scanProvider(row pgx.Row) (*entities.Provider, error) {
	var p entities.Provider
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Phone, &p.Specialty, &p.Department,
		&p.Municipality, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error escaneando el proveedor: %w", err)
	}
	return &p, nil
}

func (r *ProviderRepository) FindProvider(ctx context.Context, id uint64) (*entities.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers pr WHERE pr.id = $1`
	return scanProvider(r.storage.QueryRow(ctx, query, id))
}

func (r *ProviderRepository) FindProviderByUserID(ctx context.Context, userID uint64) (*entities.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers pr WHERE pr.user_id = $1`
	return scanProvider(r.storage.QueryRow(ctx, query, userID))
}

func (r *ProviderRepository) GetProviders(ctx context.Context, filter types.Filter) ([]entities.Provider, uint64, error) {
	allowed := map[string]string{
		"specialty":    "pr.specialty",
		"department":   "pr.department",
		"municipality": "pr.municipality",
		"active":       "pr.active",
	}

	var total uint64
	countBuilder := sq.Select("COUNT(*)").From("providers pr").PlaceholderFormat(sq.Dollar)
	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countSQL, countArgs, err := infradb.ApplyListParams(countBuilder, countFilter, allowed).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error construyendo el conteo de proveedores: %w", err)
	}
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error contando proveedores: %w", err)
	}

	builder := sq.Select(
		"pr.id", "pr.user_id", "pr.name", "pr.phone", "pr.specialty", "pr.department",
		"pr.municipality", "pr.active", "pr.created_at", "pr.updated_at",
	).From("providers pr").OrderBy("pr.name ASC").PlaceholderFormat(sq.Dollar)
	builder = infradb.ApplyListParams(builder, filter, allowed)

	querySQL, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error construyendo el listado de proveedores: %w", err)
	}

	rows, err := r.storage.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error consultando proveedores: %w", err)
	}
	defer rows.Close()

	providers := make([]entities.Provider, 0)
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, 0, err
		}
		providers = append(providers, *p)
	}
	return providers, total, rows.Err()
}

// FindActiveBySpecialtyAndLocation es la búsqueda interna del emparejamiento:
// primero especialidad + departamento + municipio; el servicio decide si
// relaja el municipio.
func (r *ProviderRepository) FindActiveBySpecialtyAndLocation(ctx context.Context, specialty, department, municipality string) ([]entities.Provider, error) {
	builder := sq.Select(
		"pr.id", "pr.user_id", "pr.name", "pr.phone", "pr.specialty", "pr.department",
		"pr.municipality", "pr.active", "pr.created_at", "pr.updated_at",
	).From("providers pr").
		Where(sq.Eq{"pr.active": true}).
		Where(sq.Eq{"pr.specialty": specialty}).
		Where(sq.Eq{"pr.department": department}).
		OrderBy("pr.created_at ASC").
		PlaceholderFormat(sq.Dollar)

	if municipality != "" {
		builder = builder.Where(sq.Eq{"pr.municipality": municipality})
	}

	querySQL, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error construyendo la búsqueda de proveedores: %w", err)
	}

	rows, err := r.storage.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("error buscando proveedores activos: %w", err)
	}
	defer rows.Close()

	providers := make([]entities.Provider, 0)
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, *p)
	}
	return providers, rows.Err()
}

func (r *ProviderRepository) CreateProvider(ctx context.Context, p *entities.Provider) (uint64, error) {
	query := `
		INSERT INTO providers (user_id, name, phone, specialty, department,
			municipality, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
		RETURNING id`

	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		p.UserID, p.Name, p.Phone, p.Specialty, p.Department, p.Municipality,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("error insertando el proveedor: %w", err)
	}
	return newID, nil
}

func (r *ProviderRepository) UpdateProvider(ctx context.Context, id uint64, data dto.UpdateProviderDTO) error {
	builder := sq.Update("providers").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)

	if data.Name != nil {
		builder = builder.Set("name", *data.Name)
	}
	if data.Phone != nil {
		builder = builder.Set("phone", *data.Phone)
	}
	if data.Specialty != nil {
		builder = builder.Set("specialty", *data.Specialty)
	}
	if data.Department != nil {
		builder = builder.Set("department", *data.Department)
	}
	if data.Municipality != nil {
		builder = builder.Set("municipality", *data.Municipality)
	}
	if data.Active != nil {
		builder = builder.Set("active", *data.Active)
	}

	querySQL, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("error construyendo la edición del proveedor: %w", err)
	}

	tag, err := r.storage.Exec(ctx, querySQL, args...)
	if err != nil {
		return fmt.Errorf("error editando el proveedor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeactivateProvider es el soft-delete: el proveedor deja de ser elegible
// para emparejamiento pero sus tickets históricos lo siguen referenciando.
func (r *ProviderRepository) DeactivateProvider(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx,
		`UPDATE providers SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error desactivando el proveedor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

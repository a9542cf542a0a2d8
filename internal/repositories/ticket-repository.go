package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-system/internal/domain"
	"property-system/internal/dto"
	"property-system/internal/entities"
	infradb "property-system/internal/infrastructure/db"
	apperrors "property-system/pkg/errors"
	"property-system/pkg/types"
)

// StatusUpdate describe los efectos colaterales que acompañan a una
// transición de estado y deben escribirse en el mismo UPDATE condicional.
type StatusUpdate struct {
	SetProviderID   *uint64
	ClearProvider   bool
	SetCompletedAt  bool
	SetAutoApproved bool
	AppendMedia     []string
}

type TicketRepositoryInterface interface {
	FindTicket(ctx context.Context, id uint64) (*entities.Ticket, error)
	FindTicketInTx(ctx context.Context, q Querier, id uint64) (*entities.Ticket, error)
	GetTickets(ctx context.Context, filter types.Filter) ([]entities.Ticket, uint64, error)
	CreateTicket(ctx context.Context, t *entities.Ticket) (uint64, error)
	UpdateFields(ctx context.Context, id uint64, data dto.UpdateTicketDTO) error
	SaveSuggestions(ctx context.Context, id uint64, suggestions []entities.ProviderSuggestion) error

	// TransitionStatus es el compare-and-swap del ciclo de vida: el UPDATE
	// solo aplica si el estado actual está en expectedFrom. Devuelve false si
	// ninguna fila cumplió la condición (el llamador decide NotFound vs
	// Conflict releyendo la fila).
	TransitionStatus(ctx context.Context, q Querier, id uint64, expectedFrom []domain.Status, to domain.Status, upd StatusUpdate) (bool, error)

	ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]entities.Ticket, error)
}

type TicketRepository struct {
	storage *pgxpool.Pool
}

func NewTicketRepository(storage *pgxpool.Pool) TicketRepositoryInterface {
	return &TicketRepository{storage: storage}
}

const ticketColumns = `
	t.id, t.property_id, t.category, t.title, t.description, t.priority,
	t.status, t.reporter_id, t.provider_id, t.media, t.suggestions,
	t.auto_approved, t.completed_at, t.created_at, t.updated_at`

func scanTicket(row pgx.Row) (*entities.Ticket, error) {
	var t entities.Ticket
	var rawStatus, rawPriority string
	var suggestions []byte

	err := row.Scan(
		&t.ID, &t.PropertyID, &t.Category, &t.Title, &t.Description, &rawPriority,
		&rawStatus, &t.ReporterID, &t.ProviderID, &t.Media, &suggestions,
		&t.AutoApproved, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error escaneando el ticket: %w", err)
	}

	// Normalización del sinónimo heredado "En proceso" en la frontera de datos.
	status, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	t.Status = status
	t.Priority = domain.Priority(rawPriority)

	if len(suggestions) > 0 {
		if err := json.Unmarshal(suggestions, &t.Suggestions); err != nil {
			return nil, fmt.Errorf("error decodificando sugerencias del ticket: %w", err)
		}
	}
	return &t, nil
}

func (r *TicketRepository) FindTicket(ctx context.Context, id uint64) (*entities.Ticket, error) {
	return r.FindTicketInTx(ctx, r.storage, id)
}

func (r *TicketRepository) FindTicketInTx(ctx context.Context, q Querier, id uint64) (*entities.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id = $1`
	return scanTicket(q.QueryRow(ctx, query, id))
}

func (r *TicketRepository) GetTickets(ctx context.Context, filter types.Filter) ([]entities.Ticket, uint64, error) {
	allowed := map[string]string{
		"status":      "t.status",
		"priority":    "t.priority",
		"category":    "t.category",
		"property_id": "t.property_id",
		"provider_id": "t.provider_id",
		"reporter_id": "t.reporter_id",
		"created_at":  "t.created_at",
	}

	countBuilder := sq.Select("COUNT(*)").From("tickets t").PlaceholderFormat(sq.Dollar)
	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = infradb.ApplyListParams(countBuilder, countFilter, allowed)

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error construyendo el conteo de tickets: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error contando tickets: %w", err)
	}

	builder := sq.Select(
		"t.id", "t.property_id", "t.category", "t.title", "t.description", "t.priority",
		"t.status", "t.reporter_id", "t.provider_id", "t.media", "t.suggestions",
		"t.auto_approved", "t.completed_at", "t.created_at", "t.updated_at",
	).From("tickets t").PlaceholderFormat(sq.Dollar)

	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("t.created_at DESC")
	}
	builder = infradb.ApplyListParams(builder, filter, allowed)

	querySQL, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error construyendo el listado de tickets: %w", err)
	}

	rows, err := r.storage.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error consultando tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]entities.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, total, rows.Err()
}

func (r *TicketRepository) CreateTicket(ctx context.Context, t *entities.Ticket) (uint64, error) {
	suggestions, err := json.Marshal(t.Suggestions)
	if err != nil {
		return 0, fmt.Errorf("error serializando sugerencias: %w", err)
	}
	if t.Media == nil {
		t.Media = []string{}
	}

	query := `
		INSERT INTO tickets (property_id, category, title, description, priority, status,
			reporter_id, media, suggestions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id`

	var newID uint64
	err = r.storage.QueryRow(ctx, query,
		t.PropertyID, t.Category, t.Title, t.Description, string(t.Priority),
		string(t.Status), t.ReporterID, t.Media, suggestions,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("error insertando el ticket: %w", err)
	}
	return newID, nil
}

// UpdateFields edita campos ajenos al estado. El estado no se toca aquí: toda
// mutación de estado pasa por TransitionStatus.
func (r *TicketRepository) UpdateFields(ctx context.Context, id uint64, data dto.UpdateTicketDTO) error {
	builder := sq.Update("tickets").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)

	if data.Title != nil {
		builder = builder.Set("title", *data.Title)
	}
	if data.Description != nil {
		builder = builder.Set("description", *data.Description)
	}
	if data.Category != nil {
		builder = builder.Set("category", *data.Category)
	}
	if data.Priority != nil {
		builder = builder.Set("priority", *data.Priority)
	}
	if len(data.AddMedia) > 0 {
		builder = builder.Set("media", sq.Expr("media || ?", data.AddMedia))
	}

	querySQL, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("error construyendo la edición del ticket: %w", err)
	}

	tag, err := r.storage.Exec(ctx, querySQL, args...)
	if err != nil {
		return fmt.Errorf("error editando el ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TicketRepository) SaveSuggestions(ctx context.Context, id uint64, suggestions []entities.ProviderSuggestion) error {
	raw, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("error serializando sugerencias: %w", err)
	}
	_, err = r.storage.Exec(ctx,
		`UPDATE tickets SET suggestions = $1, updated_at = NOW() WHERE id = $2`, raw, id)
	if err != nil {
		return fmt.Errorf("error guardando sugerencias: %w", err)
	}
	return nil
}

func (r *TicketRepository) TransitionStatus(
	ctx context.Context,
	q Querier,
	id uint64,
	expectedFrom []domain.Status,
	to domain.Status,
	upd StatusUpdate,
) (bool, error) {
	// El sinónimo heredado cuenta como "En progreso" también en el WHERE.
	fromValues := make([]string, 0, len(expectedFrom)+1)
	for _, s := range expectedFrom {
		fromValues = append(fromValues, string(s))
		if s == domain.StatusEnProgreso {
			fromValues = append(fromValues, "En proceso")
		}
	}

	builder := sq.Update("tickets").
		Set("status", string(to)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": fromValues}).
		PlaceholderFormat(sq.Dollar)

	if upd.SetProviderID != nil {
		builder = builder.Set("provider_id", *upd.SetProviderID)
	}
	if upd.ClearProvider {
		builder = builder.Set("provider_id", nil)
	}
	if upd.SetCompletedAt {
		builder = builder.Set("completed_at", sq.Expr("NOW()"))
	}
	if upd.SetAutoApproved {
		builder = builder.Set("auto_approved", true)
	}
	if len(upd.AppendMedia) > 0 {
		builder = builder.Set("media", sq.Expr("media || ?", upd.AppendMedia))
	}

	querySQL, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("error construyendo la transición de estado: %w", err)
	}

	tag, err := q.Exec(ctx, querySQL, args...)
	if err != nil {
		return false, fmt.Errorf("error aplicando la transición de estado: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TicketRepository) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]entities.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets t
		WHERE t.status = $1 AND t.auto_approved = FALSE AND t.completed_at < $2
		ORDER BY t.completed_at ASC
		LIMIT $3`

	rows, err := r.storage.Query(ctx, query, string(domain.StatusCompletado), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("error consultando tickets completados sin revisión: %w", err)
	}
	defer rows.Close()

	tickets := make([]entities.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

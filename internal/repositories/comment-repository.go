package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"property-system/internal/entities"
)

type CommentRepositoryInterface interface {
	CreateEntry(ctx context.Context, entry *entities.TimelineEntry) error
	CreateEntryInTx(ctx context.Context, q Querier, entry *entities.TimelineEntry) error
	ListByTicket(ctx context.Context, ticketID uint64) ([]entities.TimelineEntry, error)
}

type CommentRepository struct {
	storage *pgxpool.Pool
}

func NewCommentRepository(storage *pgxpool.Pool) CommentRepositoryInterface {
	return &CommentRepository{storage: storage}
}

func (r *CommentRepository) CreateEntry(ctx context.Context, entry *entities.TimelineEntry) error {
	return r.CreateEntryInTx(ctx, r.storage, entry)
}

// CreateEntryInTx inserta una entrada de bitácora. La bitácora es append-only:
// no existen UPDATE ni DELETE sobre ticket_comments en todo el repositorio.
func (r *CommentRepository) CreateEntryInTx(ctx context.Context, q Querier, entry *entities.TimelineEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("error serializando metadata de la bitácora: %w", err)
	}
	if entry.Media == nil {
		entry.Media = []string{}
	}

	query := `
		INSERT INTO ticket_comments (ticket_id, author_id, author_role, entry_type,
			message, media, metadata, tx_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at`

	err = q.QueryRow(ctx, query,
		entry.TicketID, entry.AuthorID, entry.AuthorRole, entry.EntryType,
		entry.Message, entry.Media, metadata, entry.TxID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("error insertando entrada de bitácora: %w", err)
	}
	return nil
}

func (r *CommentRepository) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.TimelineEntry, error) {
	query := `
		SELECT id, ticket_id, author_id, author_role, entry_type, message,
			media, metadata, tx_id, created_at
		FROM ticket_comments
		WHERE ticket_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.storage.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("error consultando la bitácora: %w", err)
	}
	defer rows.Close()

	entries := make([]entities.TimelineEntry, 0)
	for rows.Next() {
		var e entities.TimelineEntry
		var metadata []byte
		if err := rows.Scan(
			&e.ID, &e.TicketID, &e.AuthorID, &e.AuthorRole, &e.EntryType, &e.Message,
			&e.Media, &metadata, &e.TxID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error escaneando entrada de bitácora: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("error decodificando metadata de bitácora: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

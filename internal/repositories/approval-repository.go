package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-system/internal/entities"
	apperrors "property-system/pkg/errors"
)

type ApprovalRepositoryInterface interface {
	CreateInTx(ctx context.Context, q Querier, approval *entities.Approval) error
	FindByTicket(ctx context.Context, ticketID uint64) (*entities.Approval, error)
}

type ApprovalRepository struct {
	storage *pgxpool.Pool
}

func NewApprovalRepository(storage *pgxpool.Pool) ApprovalRepositoryInterface {
	return &ApprovalRepository{storage: storage}
}

func (r *ApprovalRepository) CreateInTx(ctx context.Context, q Querier, approval *entities.Approval) error {
	if approval.EvidencePhotos == nil {
		approval.EvidencePhotos = []string{}
	}

	query := `
		INSERT INTO ticket_approvals (ticket_id, approver_id, action, rating,
			quality_score, punctuality_score, comment, evidence_photos, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at`

	err := q.QueryRow(ctx, query,
		approval.TicketID, approval.ApproverID, approval.Action, approval.Rating,
		approval.QualityScore, approval.PunctualityScore, approval.Comment,
		approval.EvidencePhotos,
	).Scan(&approval.ID, &approval.CreatedAt)
	if err != nil {
		return fmt.Errorf("error insertando la aprobación: %w", err)
	}
	return nil
}

func (r *ApprovalRepository) FindByTicket(ctx context.Context, ticketID uint64) (*entities.Approval, error) {
	query := `
		SELECT id, ticket_id, approver_id, action, rating, quality_score,
			punctuality_score, comment, evidence_photos, created_at
		FROM ticket_approvals
		WHERE ticket_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var a entities.Approval
	err := r.storage.QueryRow(ctx, query, ticketID).Scan(
		&a.ID, &a.TicketID, &a.ApproverID, &a.Action, &a.Rating, &a.QualityScore,
		&a.PunctualityScore, &a.Comment, &a.EvidencePhotos, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error escaneando la aprobación: %w", err)
	}
	return &a, nil
}

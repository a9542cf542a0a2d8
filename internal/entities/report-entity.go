package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"property-system/internal/domain"
)

// ReportFilter acota el informe operativo de tickets.
type ReportFilter struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	Statuses   []domain.Status
	Department string
	Limit      uint64
	Offset     uint64
}

// ReportItem es una fila del informe: el ticket con sus vecinos ya unidos.
type ReportItem struct {
	TicketID        uint64
	Title           string
	Category        string
	Priority        string
	Status          domain.Status
	PropertyAddress string
	Municipality    string
	Department      string
	ReporterName    string
	ProviderName    null.String
	AutoApproved    bool
	Rating          null.Int
	CreatedAt       time.Time
	CompletedAt     null.Time
	ResolutionHours null.Float64
}

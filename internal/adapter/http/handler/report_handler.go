package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mimhaad/finance-ledger/internal/adapter/http/dto"
	"github.com/mimhaad/finance-ledger/internal/domain"
)

// TrialBalanceService computes trial balance reports.
type TrialBalanceService interface {
	GetTrialBalance(ctx context.Context, asOf *time.Time) (*domain.TrialBalanceReport, error)
}

// ReportHandler serves ledger reports.
type ReportHandler struct {
	trial TrialBalanceService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(trial TrialBalanceService) *ReportHandler {
	return &ReportHandler{trial: trial}
}

// TrialBalance returns the trial balance, optionally as of a date.
func (h *ReportHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		writeDomainError(w, "invalid as_of", err)
		return
	}

	report, err := h.trial.GetTrialBalance(r.Context(), asOf)
	if err != nil {
		writeDomainError(w, "failed to compute trial balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TrialBalanceFromDomain(report))
}

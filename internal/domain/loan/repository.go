package loan

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("loan not found")
	ErrConflict = errors.New("loan modified concurrently")
)

// Repository is the dual-backend loan store. Implementations are expected
// to degrade to a local backup when the remote collection is unreachable;
// only ErrNotFound and ErrConflict are meaningful to callers.
type Repository interface {
	// Create persists the loan and assigns l.LoanID. Ids created through
	// the offline fallback carry a recognizable local-origin prefix.
	Create(ctx context.Context, l *Loan) error
	// Save writes the full record back under its existing id.
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// ListByParticipant returns every loan where email is the lender or
	// the borrower, newest first, deduplicated across backends.
	ListByParticipant(ctx context.Context, email string) ([]Loan, error)
}

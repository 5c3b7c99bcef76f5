package mysql

import (
	"context"
	"errors"

	loanDomain "ckmoney-backend/internal/domain/loan"

	"gorm.io/gorm"
)

// LoanRepository is the remote loans collection: insert, conditional save,
// get by public id, and the two exact-match participant queries.
type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Insert(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// Save writes the full record back, conditional on the revision it was read
// at. A concurrent edit leaves zero matching rows and reports ErrConflict;
// the caller's in-memory revision is only bumped on success.
func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	prev := l.Revision
	next := *l
	next.Revision = prev + 1
	res := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Where("loan_id = ? AND revision = ?", l.LoanID, prev).
		Select("*").Omit("id", "created_at").
		Updates(&next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a lost race from an id that simply is not there.
		var count int64
		if err := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
			Where("loan_id = ?", l.LoanID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return loanDomain.ErrNotFound
		}
		return loanDomain.ErrConflict
	}
	l.Revision = next.Revision
	return nil
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

func (r *LoanRepository) ListByLenderEmail(ctx context.Context, email string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).Where("lender_email = ?", email).Find(&out)
	return out, res.Error
}

func (r *LoanRepository) ListByBorrowerEmail(ctx context.Context, email string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).Where("borrower_email = ?", email).Find(&out)
	return out, res.Error
}

// Package lifecycle drives the loan status state machine. Every operation is
// a read-modify-write: load by id (silent no-op when the loan is gone),
// apply the transition through the store, then dispatch at most one
// notification to the counterparty as an explicit post-commit step.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	loanDomain "ckmoney-backend/internal/domain/loan"
	notifDomain "ckmoney-backend/internal/domain/notification"
	notifUC "ckmoney-backend/internal/usecase/notification"
)

type Notifier interface {
	Send(ctx context.Context, in notifUC.SendInput) error
}

type Usecase struct {
	loans    loanDomain.Repository
	notifier Notifier
	now      func() time.Time
}

func NewUsecase(loans loanDomain.Repository, notifier Notifier) *Usecase {
	return &Usecase{loans: loans, notifier: notifier, now: time.Now}
}

// Result reports what a transition did. Loan is nil when the operation was a
// silent no-op; Notified is false when no notification was due or when
// dispatch failed (the transition itself still committed).
type Result struct {
	Loan     *loanDomain.Loan
	Notified bool
}

func (u *Usecase) load(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if errors.Is(err, loanDomain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// notify dispatches fire-and-forget: a failed send is logged and reported in
// the Result, never surfaced as an operation error.
func (u *Usecase) notify(ctx context.Context, in notifUC.SendInput) bool {
	if err := u.notifier.Send(ctx, in); err != nil {
		log.Printf("lifecycle: notification for loan %s not delivered: %v", in.LoanID, err)
		return false
	}
	return true
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// DeclareRepayment: the borrower states the loan has been repaid. The lender
// is asked to confirm.
func (u *Usecase) DeclareRepayment(ctx context.Context, loanID, method, proof string) (Result, error) {
	l, err := u.load(ctx, loanID)
	if err != nil || l == nil {
		return Result{}, err
	}

	now := u.now().UTC()
	l.Status = loanDomain.StatusRepaymentPending
	l.RepaymentMethod = method
	l.RepaymentDeclaredDate = &now
	if proof != "" {
		l.RepaymentProof = proof
	}
	if err := u.loans.Save(ctx, l); err != nil {
		return Result{}, err
	}

	notified := u.notify(ctx, notifUC.SendInput{
		UserID:     l.LenderEmail,
		LoanID:     l.LoanID,
		Type:       notifDomain.TypeActionRequired,
		Title:      "Remboursement Déclaré",
		Message:    fmt.Sprintf("💰 %s déclare vous avoir remboursé %s %s.", l.BorrowerName, formatAmount(l.Amount), l.Currency),
		ActionType: notifDomain.ActionReviewPayment,
	})
	return Result{Loan: l, Notified: notified}, nil
}

// RequestDelay: the borrower proposes a new repayment date, pending lender
// approval.
func (u *Usecase) RequestDelay(ctx context.Context, loanID string, newDate time.Time) (Result, error) {
	l, err := u.load(ctx, loanID)
	if err != nil || l == nil {
		return Result{}, err
	}

	now := u.now().UTC()
	l.Status = loanDomain.StatusDelayRequested
	l.DelayProposedDate = &newDate
	l.DelayRequestDate = &now
	if err := u.loans.Save(ctx, l); err != nil {
		return Result{}, err
	}

	notified := u.notify(ctx, notifUC.SendInput{
		UserID:     l.LenderEmail,
		LoanID:     l.LoanID,
		Type:       notifDomain.TypeActionRequired,
		Title:      "Demande de délai",
		Message:    fmt.Sprintf("📅 %s propose une nouvelle date de remboursement : le %s.", l.BorrowerName, newDate.Format("02/01/2006")),
		ActionType: notifDomain.ActionReviewDelay,
	})
	return Result{Loan: l, Notified: notified}, nil
}

// RespondToDelay resolves the round trip back to active. Acceptance moves
// the repayment date to the proposed one; either way both delay fields are
// cleared. No notification — the borrower polls. A loan with no open delay
// request is a silent no-op.
func (u *Usecase) RespondToDelay(ctx context.Context, loanID string, accepted bool) (Result, error) {
	l, err := u.load(ctx, loanID)
	if err != nil || l == nil {
		return Result{}, err
	}
	if l.DelayProposedDate == nil {
		return Result{}, nil
	}

	if accepted {
		l.RepaymentDate = *l.DelayProposedDate
	}
	l.Status = loanDomain.StatusActive
	l.DelayProposedDate = nil
	l.DelayRequestDate = nil
	if err := u.loans.Save(ctx, l); err != nil {
		return Result{}, err
	}
	return Result{Loan: l}, nil
}

// ConfirmPayment: the lender acknowledges the declared repayment; the
// penalty freezes from here on.
func (u *Usecase) ConfirmPayment(ctx context.Context, loanID string) (Result, error) {
	l, err := u.load(ctx, loanID)
	if err != nil || l == nil {
		return Result{}, err
	}

	l.Status = loanDomain.StatusPaid
	if err := u.loans.Save(ctx, l); err != nil {
		return Result{}, err
	}
	return Result{Loan: l}, nil
}

// ActivateWithContract stores the scanned signed contract and puts the loan
// in force.
func (u *Usecase) ActivateWithContract(ctx context.Context, loanID, fileDataURL string) (Result, error) {
	l, err := u.load(ctx, loanID)
	if err != nil || l == nil {
		return Result{}, err
	}

	now := u.now().UTC()
	l.Status = loanDomain.StatusActive
	l.SignedContractURL = fileDataURL
	l.SignedDate = &now
	if err := u.loans.Save(ctx, l); err != nil {
		return Result{}, err
	}
	return Result{Loan: l}, nil
}

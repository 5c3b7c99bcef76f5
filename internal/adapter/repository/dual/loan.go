// Package dual implements the loan Repository over two backends: the remote
// collection is authoritative, and every remote call races a deadline; on
// timeout or error the operation degrades to the local backup instead of
// failing. No retries — availability over consistency, reconciled on read.
package dual

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"ckmoney-backend/internal/adapter/repository/local"
	loanDomain "ckmoney-backend/internal/domain/loan"
	"ckmoney-backend/pkg/id"
)

const (
	defaultOpTimeout   = 2 * time.Second
	defaultListTimeout = 3 * time.Second
)

// RemoteLoans is the remote collection surface the dual store needs.
type RemoteLoans interface {
	Insert(ctx context.Context, l *loanDomain.Loan) error
	Save(ctx context.Context, l *loanDomain.Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error)
	ListByLenderEmail(ctx context.Context, email string) ([]loanDomain.Loan, error)
	ListByBorrowerEmail(ctx context.Context, email string) ([]loanDomain.Loan, error)
}

type LoanRepository struct {
	remote      RemoteLoans
	fallback    *local.LoanStore
	opTimeout   time.Duration
	listTimeout time.Duration
}

func NewLoanRepository(remote RemoteLoans, fallback *local.LoanStore, opTimeout, listTimeout time.Duration) *LoanRepository {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	if listTimeout <= 0 {
		listTimeout = defaultListTimeout
	}
	return &LoanRepository{remote: remote, fallback: fallback, opTimeout: opTimeout, listTimeout: listTimeout}
}

// Create inserts remotely under the op deadline; when the remote store is
// unreachable the loan is re-identified with a local-origin id and appended
// to the backup so creation never fails for connectivity reasons.
func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	l.LoanID = id.NewID32()

	rctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	err := r.remote.Insert(rctx, l)
	if err == nil {
		return nil
	}
	log.Printf("loans: remote insert failed, switching to offline mode: %v", err)

	l.ID = 0
	l.LoanID = id.NewLocalID()
	return r.fallback.Append(ctx, *l)
}

// Save routes local-origin ids straight to the backup. Remote saves are
// conditional on the loan's revision; a genuine conflict is surfaced, any
// other failure upserts into the backup under the same id (remote and local
// may now disagree — the read path reconciles).
func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	if id.IsLocal(l.LoanID) {
		l.Revision++
		return r.fallback.Upsert(ctx, *l)
	}

	rctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	err := r.remote.Save(rctx, l)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, loanDomain.ErrConflict):
		return err
	}
	log.Printf("loans: remote save failed for %s, writing to local backup: %v", l.LoanID, err)

	l.Revision++
	return r.fallback.Upsert(ctx, *l)
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	if id.IsLocal(loanID) {
		return r.fallback.FindByID(ctx, loanID)
	}

	rctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	l, err := r.remote.GetByLoanID(rctx, loanID)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, loanDomain.ErrNotFound) {
		log.Printf("loans: remote get failed for %s, scanning local backup: %v", loanID, err)
	}
	return r.fallback.FindByID(ctx, loanID)
}

// ListByParticipant merges both remote participant queries (run in parallel
// under one shared deadline) with the local backup. Backup records are
// skipped when their id is already present, and also when their createdAt
// matches a remote record — a loan created offline that has since synced
// under a different remote id would otherwise show up twice.
func (r *LoanRepository) ListByParticipant(ctx context.Context, email string) ([]loanDomain.Loan, error) {
	rctx, cancel := context.WithTimeout(ctx, r.listTimeout)
	defer cancel()

	var (
		wg                     sync.WaitGroup
		asLender, asBorrower   []loanDomain.Loan
		errLender, errBorrower error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		asLender, errLender = r.remote.ListByLenderEmail(rctx, email)
	}()
	go func() {
		defer wg.Done()
		asBorrower, errBorrower = r.remote.ListByBorrowerEmail(rctx, email)
	}()
	wg.Wait()

	locals, err := r.fallback.ByParticipant(ctx, email)
	if err != nil {
		log.Printf("loans: local backup scan failed: %v", err)
		locals = nil
	}

	if errLender != nil || errBorrower != nil {
		remoteErr := errLender
		if remoteErr == nil {
			remoteErr = errBorrower
		}
		log.Printf("loans: remote participant query failed, serving local backup only: %v", remoteErr)
		sortByCreatedAtDesc(locals)
		return locals, nil
	}

	merged := make(map[string]loanDomain.Loan, len(asLender)+len(asBorrower))
	remoteCreatedAts := make(map[int64]struct{})
	for _, l := range append(asLender, asBorrower...) {
		merged[l.LoanID] = l
		remoteCreatedAts[l.CreatedAt.UnixNano()] = struct{}{}
	}
	for _, l := range locals {
		if _, dup := merged[l.LoanID]; dup {
			continue
		}
		if _, dup := remoteCreatedAts[l.CreatedAt.UnixNano()]; dup {
			continue
		}
		merged[l.LoanID] = l
	}

	out := make([]loanDomain.Loan, 0, len(merged))
	for _, l := range merged {
		out = append(out, l)
	}
	sortByCreatedAtDesc(out)
	return out, nil
}

func sortByCreatedAtDesc(loans []loanDomain.Loan) {
	sort.Slice(loans, func(i, j int) bool {
		return loans[i].CreatedAt.After(loans[j].CreatedAt)
	})
}

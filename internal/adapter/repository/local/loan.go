// Package local is the offline loan backup: the whole loan array lives under
// one namespaced key in the embedded store and is rewritten on every change.
package local

import (
	"context"
	"encoding/json"

	loanDomain "ckmoney-backend/internal/domain/loan"
	"ckmoney-backend/internal/infrastructure/localstore"
)

const loansKey = "ckmoney:loans:backup"

type LoanStore struct{ kv *localstore.Store }

func NewLoanStore(kv *localstore.Store) *LoanStore { return &LoanStore{kv: kv} }

// All returns every backed-up loan. An unreadable payload is treated as an
// empty backup rather than an error, matching the best-effort contract.
func (s *LoanStore) All(ctx context.Context) ([]loanDomain.Loan, error) {
	raw, ok, err := s.kv.Get(ctx, loansKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var loans []loanDomain.Loan
	if err := json.Unmarshal(raw, &loans); err != nil {
		return nil, nil
	}
	return loans, nil
}

func (s *LoanStore) save(ctx context.Context, loans []loanDomain.Loan) error {
	raw, err := json.Marshal(loans)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, loansKey, raw)
}

func (s *LoanStore) Append(ctx context.Context, l loanDomain.Loan) error {
	loans, err := s.All(ctx)
	if err != nil {
		return err
	}
	return s.save(ctx, append(loans, l))
}

// Upsert replaces the record with the same id, or appends when absent.
func (s *LoanStore) Upsert(ctx context.Context, l loanDomain.Loan) error {
	loans, err := s.All(ctx)
	if err != nil {
		return err
	}
	for i := range loans {
		if loans[i].LoanID == l.LoanID {
			loans[i] = l
			return s.save(ctx, loans)
		}
	}
	return s.save(ctx, append(loans, l))
}

func (s *LoanStore) FindByID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	loans, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range loans {
		if loans[i].LoanID == loanID {
			return &loans[i], nil
		}
	}
	return nil, loanDomain.ErrNotFound
}

func (s *LoanStore) ByParticipant(ctx context.Context, email string) ([]loanDomain.Loan, error) {
	loans, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []loanDomain.Loan
	for _, l := range loans {
		if l.ParticipantIs(email) {
			out = append(out, l)
		}
	}
	return out, nil
}

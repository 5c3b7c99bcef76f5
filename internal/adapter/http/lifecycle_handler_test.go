package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "ckmoney-backend/internal/domain/loan"
	"ckmoney-backend/internal/usecase/lifecycle"
	notifUC "ckmoney-backend/internal/usecase/notification"

	"github.com/labstack/echo/v4"
)

type notifierMock struct {
	SendFn func(ctx context.Context, in notifUC.SendInput) error
	sent   []notifUC.SendInput
}

func (m *notifierMock) Send(ctx context.Context, in notifUC.SendInput) error {
	m.sent = append(m.sent, in)
	if m.SendFn == nil {
		return nil
	}
	return m.SendFn(ctx, in)
}

func activeLoan() *domain.Loan {
	return &domain.Loan{
		LoanID:        "abc123",
		LenderName:    "Marie Dupont",
		LenderEmail:   "marie.dupont@example.com",
		BorrowerName:  "Jean Martin",
		Amount:        1000,
		Currency:      "EUR",
		Status:        domain.StatusActive,
		RepaymentDate: time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
	}
}

func newLifecycleHandler(repo *repoMock, notifier *notifierMock) *LifecycleHandler {
	return NewLifecycleHandler(lifecycle.NewUsecase(repo, notifier))
}

func doLifecycle(t *testing.T, h echo.HandlerFunc, path, loanID string, body *json.RawMessage) *httptest.ResponseRecorder {
	t.Helper()
	e := newEchoWithValidator()
	var req *stdhttp.Request
	if body != nil {
		req = httptest.NewRequest(stdhttp.MethodPost, path, mustJSON(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(stdhttp.MethodPost, path, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	c.SetParamNames("loan_id")
	c.SetParamValues(loanID)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func rawBody(t *testing.T, v any) *json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	raw := json.RawMessage(b)
	return &raw
}

func TestDeclareRepayment_TransitionsAndNotifies(t *testing.T) {
	var saved *domain.Loan
	repo := &repoMock{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return activeLoan(), nil
		},
		SaveFn: func(ctx context.Context, l *domain.Loan) error {
			saved = l
			return nil
		},
	}
	notifier := &notifierMock{}
	h := newLifecycleHandler(repo, notifier)

	rec := doLifecycle(t, h.DeclareRepayment, "/loans/:loan_id/repayment", "abc123",
		rawBody(t, map[string]string{"method": "virement", "proof": "https://bank/receipt.pdf"}))

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	var got transitionResp
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != string(domain.StatusRepaymentPending) || !got.Notified {
		t.Fatalf("unexpected response: %+v", got)
	}
	if saved == nil || saved.RepaymentMethod != "virement" || saved.RepaymentDeclaredDate == nil {
		t.Fatalf("saved loan wrong: %+v", saved)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != "marie.dupont@example.com" {
		t.Fatalf("lender not notified: %+v", notifier.sent)
	}
}

func TestDeclareRepayment_MissingMethod(t *testing.T) {
	h := newLifecycleHandler(&repoMock{}, &notifierMock{})
	rec := doLifecycle(t, h.DeclareRepayment, "/loans/:loan_id/repayment", "abc123",
		rawBody(t, map[string]string{"proof": "x"}))
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeclareRepayment_UnknownLoanIsSilent(t *testing.T) {
	repo := &repoMock{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return nil, domain.ErrNotFound
		},
	}
	h := newLifecycleHandler(repo, &notifierMock{})
	rec := doLifecycle(t, h.DeclareRepayment, "/loans/:loan_id/repayment", "missing",
		rawBody(t, map[string]string{"method": "virement"}))
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestRequestDelay_BadDate(t *testing.T) {
	h := newLifecycleHandler(&repoMock{}, &notifierMock{})
	rec := doLifecycle(t, h.RequestDelay, "/loans/:loan_id/delay", "abc123",
		rawBody(t, map[string]string{"proposed_date": "01/10/2026"}))
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRequestDelay_Transitions(t *testing.T) {
	var saved *domain.Loan
	repo := &repoMock{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return activeLoan(), nil
		},
		SaveFn: func(ctx context.Context, l *domain.Loan) error {
			saved = l
			return nil
		},
	}
	notifier := &notifierMock{}
	h := newLifecycleHandler(repo, notifier)

	rec := doLifecycle(t, h.RequestDelay, "/loans/:loan_id/delay", "abc123",
		rawBody(t, map[string]string{"proposed_date": "2026-10-01"}))

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if saved == nil || saved.Status != domain.StatusDelayRequested || saved.DelayProposedDate == nil {
		t.Fatalf("saved loan wrong: %+v", saved)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.sent))
	}
}

func TestRespondToDelay_RequiresAccepted(t *testing.T) {
	h := newLifecycleHandler(&repoMock{}, &notifierMock{})
	rec := doLifecycle(t, h.RespondToDelay, "/loans/:loan_id/delay/response", "abc123",
		rawBody(t, map[string]any{}))
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRespondToDelay_AcceptedFalseStillBinds(t *testing.T) {
	proposed := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	l := activeLoan()
	l.Status = domain.StatusDelayRequested
	l.DelayProposedDate = &proposed

	var saved *domain.Loan
	repo := &repoMock{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return l, nil
		},
		SaveFn: func(ctx context.Context, lo *domain.Loan) error {
			saved = lo
			return nil
		},
	}
	notifier := &notifierMock{}
	h := newLifecycleHandler(repo, notifier)

	// accepted=false must not be treated as a missing field
	rec := doLifecycle(t, h.RespondToDelay, "/loans/:loan_id/delay/response", "abc123",
		rawBody(t, map[string]bool{"accepted": false}))

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if saved == nil || saved.Status != domain.StatusActive {
		t.Fatalf("saved loan wrong: %+v", saved)
	}
	if saved.DelayProposedDate != nil || saved.DelayRequestDate != nil {
		t.Fatalf("delay fields not cleared: %+v", saved)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("delay response must not notify, got %+v", notifier.sent)
	}
}

func TestRespondToDelay_NoOpenRequestIsSilent(t *testing.T) {
	repo := &repoMock{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return activeLoan(), nil // no DelayProposedDate
		},
	}
	h := newLifecycleHandler(repo, &notifierMock{})
	rec := doLifecycle(t, h.RespondToDelay, "/loans/:loan_id/delay/response", "abc123",
		rawBody(t, map[string]bool{"accepted": true}))
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestConfirmPayment_Transitions(t *testing.T) {
	l := activeLoan()
	l.Status = domain.StatusRepaymentPending

	var saved *domain.Loan
	repo := &repoMock{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return l, nil
		},
		SaveFn: func(ctx context.Context, lo *domain.Loan) error {
			saved = lo
			return nil
		},
	}
	h := newLifecycleHandler(repo, &notifierMock{})

	rec := doLifecycle(t, h.ConfirmPayment, "/loans/:loan_id/payment/confirmation", "abc123", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if saved == nil || saved.Status != domain.StatusPaid {
		t.Fatalf("saved loan wrong: %+v", saved)
	}
}

func TestActivate_StoresContractURL(t *testing.T) {
	l := activeLoan()
	l.Status = domain.StatusPendingBorrower

	var saved *domain.Loan
	repo := &repoMock{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return l, nil
		},
		SaveFn: func(ctx context.Context, lo *domain.Loan) error {
			saved = lo
			return nil
		},
	}
	h := newLifecycleHandler(repo, &notifierMock{})

	rec := doLifecycle(t, h.Activate, "/loans/:loan_id/activate", "abc123",
		rawBody(t, map[string]string{"signed_contract_url": "data:application/pdf;base64,AAAA"}))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if saved == nil || saved.Status != domain.StatusActive {
		t.Fatalf("saved loan wrong: %+v", saved)
	}
	if saved.SignedContractURL == "" || saved.SignedDate == nil {
		t.Fatalf("signature not recorded: %+v", saved)
	}
}

func TestLifecycle_ConflictMapsTo409(t *testing.T) {
	repo := &repoMock{
		GetByLoanIDFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			return activeLoan(), nil
		},
		SaveFn: func(ctx context.Context, l *domain.Loan) error {
			return domain.ErrConflict
		},
	}
	h := newLifecycleHandler(repo, &notifierMock{})

	rec := doLifecycle(t, h.ConfirmPayment, "/loans/:loan_id/payment/confirmation", "abc123", nil)
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ckmoney-backend/internal/contract"
	domain "ckmoney-backend/internal/domain/loan"
	"ckmoney-backend/pkg/id"
	"ckmoney-backend/pkg/share"
)

// ErrInvalidInput wraps every caller-side validation failure so transports
// can map the whole family to one status.
var ErrInvalidInput = errors.New("invalid loan input")

type Usecase struct {
	repo      domain.Repository
	contracts contract.Generator
	now       func() time.Time
}

func NewUsecase(r domain.Repository, g contract.Generator) *Usecase {
	return &Usecase{repo: r, contracts: g, now: time.Now}
}

type CreateLoanInput struct {
	LenderName        string
	LenderEmail       string
	LenderCivility    string
	LenderBirthDate   string
	LenderBirthPlace  string
	LenderAddress     string
	LenderSignature   string
	LenderIBAN        string
	LenderPaymentLink string
	LenderCountry     string

	BorrowerName       string
	BorrowerEmail      string
	BorrowerCivility   string
	BorrowerBirthDate  string
	BorrowerBirthPlace string
	BorrowerAddress    string
	BorrowerPhone      string
	BorrowerCountry    string

	Amount           float64
	Currency         string
	LoanDate         time.Time
	RepaymentDate    time.Time
	LateInterestRate float64
	City             string
	Country          string
}

func (in *CreateLoanInput) validate() error {
	switch {
	case in.LenderName == "" || in.LenderEmail == "":
		return fmt.Errorf("%w: lender name and email are required", ErrInvalidInput)
	case in.BorrowerName == "":
		return fmt.Errorf("%w: borrower name is required", ErrInvalidInput)
	case in.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	case in.Currency == "":
		return fmt.Errorf("%w: currency is required", ErrInvalidInput)
	case in.LoanDate.IsZero() || in.RepaymentDate.IsZero():
		return fmt.Errorf("%w: loan and repayment dates are required", ErrInvalidInput)
	case !in.RepaymentDate.After(in.LoanDate):
		return fmt.Errorf("%w: repayment date must be after loan date", ErrInvalidInput)
	case in.LateInterestRate < 0 || in.LateInterestRate > 20:
		return fmt.Errorf("%w: late interest rate must be between 0 and 20", ErrInvalidInput)
	}
	return nil
}

type LoanDTO struct {
	LoanID string `json:"loan_id"`

	LenderName  string `json:"lender_name"`
	LenderEmail string `json:"lender_email"`

	BorrowerName  string `json:"borrower_name"`
	BorrowerEmail string `json:"borrower_email,omitempty"`
	BorrowerPhone string `json:"borrower_phone,omitempty"`

	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
	LoanDate         time.Time `json:"loan_date"`
	RepaymentDate    time.Time `json:"repayment_date"`
	LateInterestRate float64   `json:"late_interest_rate"`

	Status       string `json:"status"`
	ContractText string `json:"contract_text,omitempty"`

	SignedDate        *time.Time `json:"signed_date,omitempty"`
	SignedContractURL string     `json:"signed_contract_url,omitempty"`

	RepaymentMethod       string     `json:"repayment_method,omitempty"`
	RepaymentDeclaredDate *time.Time `json:"repayment_declared_date,omitempty"`

	DelayProposedDate *time.Time `json:"delay_proposed_date,omitempty"`
	DelayRequestDate  *time.Time `json:"delay_request_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Offline marks a record that exists only in the local backup.
	Offline bool           `json:"offline"`
	Due     domain.Accrual `json:"due"`

	// Hand-off artifacts, populated on creation.
	ShareText string `json:"share_text,omitempty"`
	ShareLink string `json:"share_link,omitempty"`
}

func (u *Usecase) toDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:                l.LoanID,
		LenderName:            l.LenderName,
		LenderEmail:           l.LenderEmail,
		BorrowerName:          l.BorrowerName,
		BorrowerEmail:         l.BorrowerEmail,
		BorrowerPhone:         l.BorrowerPhone,
		Amount:                l.Amount,
		Currency:              l.Currency,
		LoanDate:              l.LoanDate,
		RepaymentDate:         l.RepaymentDate,
		LateInterestRate:      l.LateInterestRate,
		Status:                string(l.Status),
		ContractText:          l.ContractText,
		SignedDate:            l.SignedDate,
		SignedContractURL:     l.SignedContractURL,
		RepaymentMethod:       l.RepaymentMethod,
		RepaymentDeclaredDate: l.RepaymentDeclaredDate,
		DelayProposedDate:     l.DelayProposedDate,
		DelayRequestDate:      l.DelayRequestDate,
		CreatedAt:             l.CreatedAt,
		Offline:               id.IsLocal(l.LoanID),
		Due:                   domain.CalculateDueAmount(l.Amount, l.RepaymentDate, l.Status, u.now()),
	}
}

// Create validates the draft, generates the contract text exactly once
// (template fallback on collaborator failure) and persists the loan. The
// returned DTO carries the WhatsApp hand-off link for the paper contract.
func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	l := &domain.Loan{
		LenderName:        in.LenderName,
		LenderEmail:       in.LenderEmail,
		LenderCivility:    in.LenderCivility,
		LenderBirthDate:   in.LenderBirthDate,
		LenderBirthPlace:  in.LenderBirthPlace,
		LenderAddress:     in.LenderAddress,
		LenderSignature:   in.LenderSignature,
		LenderIBAN:        in.LenderIBAN,
		LenderPaymentLink: in.LenderPaymentLink,
		LenderCountry:     in.LenderCountry,

		BorrowerName:       in.BorrowerName,
		BorrowerEmail:      in.BorrowerEmail,
		BorrowerCivility:   in.BorrowerCivility,
		BorrowerBirthDate:  in.BorrowerBirthDate,
		BorrowerBirthPlace: in.BorrowerBirthPlace,
		BorrowerAddress:    in.BorrowerAddress,
		BorrowerPhone:      in.BorrowerPhone,
		BorrowerCountry:    in.BorrowerCountry,

		Amount:           in.Amount,
		Currency:         in.Currency,
		LoanDate:         in.LoanDate,
		RepaymentDate:    in.RepaymentDate,
		LateInterestRate: in.LateInterestRate,
		City:             in.City,
		Country:          in.Country,

		Status:    domain.StatusPendingBorrower,
		CreatedAt: u.now().UTC(),
	}

	text, err := u.contracts.Generate(ctx, l)
	if err != nil {
		text = contract.FallbackText(l)
	}
	l.ContractText = text

	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	dto := u.toDTO(l)
	dto.ShareText = share.Text(l.BorrowerName, l.Amount, l.Currency)
	dto.ShareLink = share.WhatsAppLink(l.BorrowerPhone, dto.ShareText)
	return dto, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return u.toDTO(l), nil
}

// Due recomputes the derived interest figures; they are never persisted.
func (u *Usecase) Due(ctx context.Context, loanID string) (domain.Accrual, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return domain.Accrual{}, err
	}
	return domain.CalculateDueAmount(l.Amount, l.RepaymentDate, l.Status, u.now()), nil
}

func (u *Usecase) ListByParticipant(ctx context.Context, email string) ([]LoanDTO, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: participant email is required", ErrInvalidInput)
	}
	loans, err := u.repo.ListByParticipant(ctx, email)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		out = append(out, *u.toDTO(&loans[i]))
	}
	return out, nil
}

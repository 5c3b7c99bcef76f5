package loan

import (
	"time"
)

type Status string

const (
	StatusPendingBorrower  Status = "pending_borrower"
	StatusActive           Status = "active"
	StatusRepaymentPending Status = "repayment_pending"
	StatusDelayRequested   Status = "delay_requested"
	StatusPaid             Status = "paid"
)

// Loan is the debt-recognition record. Dates of birth are kept as plain
// strings: they only ever feed the generated contract text.
type Loan struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID string `gorm:"size:64;uniqueIndex:ux_loans_loan_id" json:"loan_id"`

	LenderName        string `gorm:"size:255" json:"lender_name"`
	LenderEmail       string `gorm:"size:255;index:idx_loans_lender_email" json:"lender_email"`
	LenderCivility    string `gorm:"size:8" json:"lender_civility,omitempty"`
	LenderBirthDate   string `gorm:"size:32" json:"lender_birth_date,omitempty"`
	LenderBirthPlace  string `gorm:"size:255" json:"lender_birth_place,omitempty"`
	LenderAddress     string `gorm:"type:text" json:"lender_address,omitempty"`
	LenderSignature   string `gorm:"type:text" json:"lender_signature,omitempty"`
	LenderIBAN        string `gorm:"size:64;column:lender_iban" json:"lender_iban,omitempty"`
	LenderPaymentLink string `gorm:"type:text" json:"lender_payment_link,omitempty"`
	LenderCountry     string `gorm:"size:128" json:"lender_country,omitempty"`

	BorrowerName       string `gorm:"size:255" json:"borrower_name"`
	BorrowerEmail      string `gorm:"size:255;index:idx_loans_borrower_email" json:"borrower_email,omitempty"`
	BorrowerCivility   string `gorm:"size:8" json:"borrower_civility,omitempty"`
	BorrowerBirthDate  string `gorm:"size:32" json:"borrower_birth_date,omitempty"`
	BorrowerBirthPlace string `gorm:"size:255" json:"borrower_birth_place,omitempty"`
	BorrowerAddress    string `gorm:"type:text" json:"borrower_address,omitempty"`
	// International format without +, e.g. 33612345678.
	BorrowerPhone     string `gorm:"size:32" json:"borrower_phone,omitempty"`
	BorrowerSignature string `gorm:"type:text" json:"borrower_signature,omitempty"`
	BorrowerCountry   string `gorm:"size:128" json:"borrower_country,omitempty"`

	Amount           float64   `gorm:"type:decimal(18,2)" json:"amount"`
	Currency         string    `gorm:"size:8" json:"currency"`
	LoanDate         time.Time `gorm:"type:date" json:"loan_date"`
	RepaymentDate    time.Time `gorm:"type:date" json:"repayment_date"`
	LateInterestRate float64   `gorm:"type:decimal(6,2)" json:"late_interest_rate"`

	Status Status `gorm:"type:enum('pending_borrower','active','repayment_pending','delay_requested','paid');default:'pending_borrower'" json:"status"`

	// Immutable once generated at creation time.
	ContractText      string     `gorm:"type:text" json:"contract_text,omitempty"`
	City              string     `gorm:"size:128" json:"city,omitempty"`
	Country           string     `gorm:"size:128" json:"country,omitempty"`
	SignedDate        *time.Time `json:"signed_date,omitempty"`
	SignedContractURL string     `gorm:"type:text;column:signed_contract_url" json:"signed_contract_url,omitempty"`

	RepaymentDeclaredDate *time.Time `json:"repayment_declared_date,omitempty"`
	RepaymentMethod       string     `gorm:"size:64" json:"repayment_method,omitempty"`
	RepaymentProof        string     `gorm:"type:text" json:"repayment_proof,omitempty"`

	// Both set while a delay request is open, both cleared on resolution.
	DelayProposedDate *time.Time `json:"delay_proposed_date,omitempty"`
	DelayRequestDate  *time.Time `json:"delay_request_date,omitempty"`

	// Bumped on every save; remote saves are conditional on the previous
	// value so a concurrent edit surfaces as ErrConflict instead of a
	// silently lost write.
	Revision int64 `gorm:"not null;default:0" json:"revision"`

	// Dedup key across backends: a loan created offline and later synced
	// under a remote id still carries the same CreatedAt.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// ParticipantIs reports whether email belongs to either party of the loan.
func (l *Loan) ParticipantIs(email string) bool {
	return email != "" && (l.LenderEmail == email || l.BorrowerEmail == email)
}

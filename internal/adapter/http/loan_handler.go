package http

import (
	"errors"
	"net/http"

	loanDomain "ckmoney-backend/internal/domain/loan"
	loanUC "ckmoney-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loanUC.Usecase }

func NewLoanHandler(uc *loanUC.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	LenderName        string `json:"lender_name" validate:"required"`
	LenderEmail       string `json:"lender_email" validate:"required,email"`
	LenderCivility    string `json:"lender_civility" validate:"omitempty,civility"`
	LenderBirthDate   string `json:"lender_birth_date"`
	LenderBirthPlace  string `json:"lender_birth_place"`
	LenderAddress     string `json:"lender_address"`
	LenderSignature   string `json:"lender_signature"`
	LenderIBAN        string `json:"lender_iban"`
	LenderPaymentLink string `json:"lender_payment_link"`
	LenderCountry     string `json:"lender_country"`

	BorrowerName       string `json:"borrower_name" validate:"required"`
	BorrowerEmail      string `json:"borrower_email" validate:"omitempty,email"`
	BorrowerCivility   string `json:"borrower_civility" validate:"omitempty,civility"`
	BorrowerBirthDate  string `json:"borrower_birth_date"`
	BorrowerBirthPlace string `json:"borrower_birth_place"`
	BorrowerAddress    string `json:"borrower_address"`
	BorrowerPhone      string `json:"borrower_phone"`
	BorrowerCountry    string `json:"borrower_country"`

	Amount           float64 `json:"amount" validate:"required,gt=0,dec2"`
	Currency         string  `json:"currency" validate:"required"`
	LoanDate         string  `json:"loan_date" validate:"required"`
	RepaymentDate    string  `json:"repayment_date" validate:"required"`
	LateInterestRate float64 `json:"late_interest_rate" validate:"gte=0,lte=20"`
	City             string  `json:"city"`
	Country          string  `json:"country"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	loanDate, err := parseDate(req.LoanDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: []FieldError{{Field: "loan_date", Message: "must be a date (YYYY-MM-DD)"}}})
	}
	repaymentDate, err := parseDate(req.RepaymentDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: []FieldError{{Field: "repayment_date", Message: "must be a date (YYYY-MM-DD)"}}})
	}

	dto, err := h.uc.Create(c.Request().Context(), loanUC.CreateLoanInput{
		LenderName:        req.LenderName,
		LenderEmail:       req.LenderEmail,
		LenderCivility:    req.LenderCivility,
		LenderBirthDate:   req.LenderBirthDate,
		LenderBirthPlace:  req.LenderBirthPlace,
		LenderAddress:     req.LenderAddress,
		LenderSignature:   req.LenderSignature,
		LenderIBAN:        req.LenderIBAN,
		LenderPaymentLink: req.LenderPaymentLink,
		LenderCountry:     req.LenderCountry,

		BorrowerName:       req.BorrowerName,
		BorrowerEmail:      req.BorrowerEmail,
		BorrowerCivility:   req.BorrowerCivility,
		BorrowerBirthDate:  req.BorrowerBirthDate,
		BorrowerBirthPlace: req.BorrowerBirthPlace,
		BorrowerAddress:    req.BorrowerAddress,
		BorrowerPhone:      req.BorrowerPhone,
		BorrowerCountry:    req.BorrowerCountry,

		Amount:           req.Amount,
		Currency:         req.Currency,
		LoanDate:         loanDate,
		RepaymentDate:    repaymentDate,
		LateInterestRate: req.LateInterestRate,
		City:             req.City,
		Country:          req.Country,
	})
	if err != nil {
		if errors.Is(err, loanUC.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "loan could not be stored"})
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		if errors.Is(err, loanDomain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "loan store unavailable"})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetDue(c echo.Context) error {
	due, err := h.uc.Due(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		if errors.Is(err, loanDomain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "loan store unavailable"})
	}
	return c.JSON(http.StatusOK, due)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	email := c.QueryParam("participant")
	dtos, err := h.uc.ListByParticipant(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, loanUC.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "loan store unavailable"})
	}
	return c.JSON(http.StatusOK, dtos)
}

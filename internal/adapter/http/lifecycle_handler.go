package http

import (
	"errors"
	"net/http"

	loanDomain "ckmoney-backend/internal/domain/loan"
	"ckmoney-backend/internal/usecase/lifecycle"

	"github.com/labstack/echo/v4"
)

type LifecycleHandler struct{ uc *lifecycle.Usecase }

func NewLifecycleHandler(uc *lifecycle.Usecase) *LifecycleHandler {
	return &LifecycleHandler{uc: uc}
}

type transitionResp struct {
	LoanID   string `json:"loan_id"`
	Status   string `json:"status"`
	Notified bool   `json:"notified"`
}

// respond maps the usecase result: a silent no-op (unknown loan, or no open
// delay request) is 204, an applied transition is 200, a lost concurrent
// write is 409.
func respond(c echo.Context, res lifecycle.Result, err error) error {
	if err != nil {
		if errors.Is(err, loanDomain.ErrConflict) {
			return c.JSON(http.StatusConflict, ErrorResponse{Error: "loan modified concurrently, retry"})
		}
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "loan store unavailable"})
	}
	if res.Loan == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, transitionResp{
		LoanID:   res.Loan.LoanID,
		Status:   string(res.Loan.Status),
		Notified: res.Notified,
	})
}

type declareRepaymentReq struct {
	Method string `json:"method" validate:"required"`
	Proof  string `json:"proof"`
}

func (h *LifecycleHandler) DeclareRepayment(c echo.Context) error {
	var req declareRepaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	res, err := h.uc.DeclareRepayment(c.Request().Context(), c.Param("loan_id"), req.Method, req.Proof)
	return respond(c, res, err)
}

type requestDelayReq struct {
	ProposedDate string `json:"proposed_date" validate:"required"`
}

func (h *LifecycleHandler) RequestDelay(c echo.Context) error {
	var req requestDelayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	proposed, err := parseDate(req.ProposedDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: []FieldError{{Field: "proposed_date", Message: "must be a date (YYYY-MM-DD)"}}})
	}
	res, err := h.uc.RequestDelay(c.Request().Context(), c.Param("loan_id"), proposed)
	return respond(c, res, err)
}

type respondDelayReq struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

func (h *LifecycleHandler) RespondToDelay(c echo.Context) error {
	var req respondDelayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	res, err := h.uc.RespondToDelay(c.Request().Context(), c.Param("loan_id"), *req.Accepted)
	return respond(c, res, err)
}

func (h *LifecycleHandler) ConfirmPayment(c echo.Context) error {
	res, err := h.uc.ConfirmPayment(c.Request().Context(), c.Param("loan_id"))
	return respond(c, res, err)
}

type activateReq struct {
	SignedContractURL string `json:"signed_contract_url" validate:"required"`
}

func (h *LifecycleHandler) Activate(c echo.Context) error {
	var req activateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	res, err := h.uc.ActivateWithContract(c.Request().Context(), c.Param("loan_id"), req.SignedContractURL)
	return respond(c, res, err)
}

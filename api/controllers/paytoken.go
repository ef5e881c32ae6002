package controllers

import (
	"net/http"

	"github.com/mintforge/collections-backend/api/responses"
	"github.com/mintforge/collections-backend/api/validators"
	"github.com/mintforge/collections-backend/internal/paytoken"
	pkgerrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/logger"
)

func PayTokenBalance(svc paytoken.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := addressParam(r, "holder")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.BalanceOf(r.Context(), address)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"address": address.Hex(), "balance": balance.String()})
	}
}

func PayTokenAllowance(svc paytoken.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := validators.AddressField(r.URL.Query().Get("owner"), "owner")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		spender, err := validators.AddressField(r.URL.Query().Get("spender"), "spender")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		allowance, err := svc.Allowance(r.Context(), owner, spender)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"owner":     owner.Hex(),
			"spender":   spender.Hex(),
			"allowance": allowance.String(),
		})
	}
}

type payTokenApproveRequest struct {
	Spender string `json:"spender" validate:"required"`
	Amount  string `json:"amount" validate:"required"`
}

func PayTokenApprove(svc paytoken.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload payTokenApproveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		spender, err := validators.AddressField(payload.Spender, "spender")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := validators.AmountField(payload.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Approve(r.Context(), caller, spender, amount); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"spender": spender.Hex(), "allowance": amount.String()})
	}
}

type payTokenTransferRequest struct {
	To     string `json:"to" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

func PayTokenTransfer(svc paytoken.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload payTokenTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := validators.AddressField(payload.To, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := validators.AmountField(payload.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !amount.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive"))
			return
		}

		if err := svc.Transfer(r.Context(), caller, to, amount); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"to": to.Hex(), "amount": amount.String()})
	}
}

type payTokenMintRequest struct {
	To     string `json:"to" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

// PayTokenMint credits test balances. Routed only outside production.
func PayTokenMint(svc paytoken.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload payTokenMintRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := validators.AddressField(payload.To, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := validators.AmountField(payload.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Mint(r.Context(), to, amount); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"to": to.Hex(), "amount": amount.String()})
	}
}

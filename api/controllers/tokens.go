package controllers

import (
	"net/http"

	"github.com/mintforge/collections-backend/api/responses"
	"github.com/mintforge/collections-backend/api/validators"
	"github.com/mintforge/collections-backend/internal/registry"
	pkgerrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/logger"
)

func TokenOwner(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tokenID, err := tokenIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		owner, err := svc.OwnerOf(r.Context(), address, tokenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"token_id": tokenID, "owner": owner.Hex()})
	}
}

func TokenApprovedAddress(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tokenID, err := tokenIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		approved, err := svc.GetApproved(r.Context(), address, tokenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"token_id": tokenID, "approved": approved.Hex()})
	}
}

func TokenBalance(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		owner, err := addressParam(r, "owner")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.BalanceOf(r.Context(), address, owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"owner": owner.Hex(), "balance": balance})
	}
}

type tokenListResponse struct {
	Tokens     []tokenResponse `json:"tokens"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// TokenList returns the tokens held by one owner. The owner query parameter
// is required because listing a whole collection is an analytics concern, not
// a registry one.
func TokenList(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rawOwner := r.URL.Query().Get("owner")
		if rawOwner == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "owner query parameter required"))
			return
		}
		owner, err := validators.AddressField(rawOwner, "owner")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tokens, next, err := svc.ListByOwner(r.Context(), address, owner, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]tokenResponse, 0, len(tokens))
		for i := range tokens {
			out = append(out, tokenResponseFromModel(&tokens[i]))
		}
		responses.WriteSuccess(w, tokenListResponse{Tokens: out, NextCursor: next})
	}
}

type transferRequest struct {
	From    string `json:"from" validate:"required"`
	To      string `json:"to" validate:"required"`
	TokenID string `json:"token_id" validate:"required"`
}

func TokenTransfer(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := validators.AddressField(payload.From, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.AddressField(payload.To, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Transfer(r.Context(), registry.TransferInput{
			Collection: address,
			Caller:     caller,
			From:       from,
			To:         to,
			TokenID:    payload.TokenID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"token_id": payload.TokenID, "owner": to.Hex()})
	}
}

type batchTransferRequest struct {
	From     string   `json:"from" validate:"required"`
	To       string   `json:"to" validate:"required"`
	TokenIDs []string `json:"token_ids" validate:"required,min=1"`
}

func TokenBatchTransfer(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload batchTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := validators.AddressField(payload.From, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.AddressField(payload.To, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.BatchTransfer(r.Context(), registry.BatchTransferInput{
			Collection: address,
			Caller:     caller,
			From:       from,
			To:         to,
			TokenIDs:   payload.TokenIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"transferred": len(payload.TokenIDs), "owner": to.Hex()})
	}
}

type approveRequest struct {
	To      string `json:"to" validate:"required"`
	TokenID string `json:"token_id" validate:"required"`
}

func TokenApprove(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload approveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := validators.AddressField(payload.To, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Approve(r.Context(), registry.ApproveInput{
			Collection: address,
			Caller:     caller,
			To:         to,
			TokenID:    payload.TokenID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"token_id": payload.TokenID, "approved": to.Hex()})
	}
}

type operatorRequest struct {
	Operator string `json:"operator" validate:"required"`
	Approved bool   `json:"approved"`
}

func TokenSetApprovalForAll(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload operatorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		operator, err := validators.AddressField(payload.Operator, "operator")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SetApprovalForAll(r.Context(), registry.OperatorInput{
			Collection: address,
			Caller:     caller,
			Operator:   operator,
			Approved:   payload.Approved,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"operator": operator.Hex(), "approved": payload.Approved})
	}
}

func TokenIsApprovedForAll(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		owner, err := addressParam(r, "owner")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		operator, err := addressParam(r, "operator")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		approved, err := svc.IsApprovedForAll(r.Context(), address, owner, operator)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"owner": owner.Hex(), "operator": operator.Hex(), "approved": approved})
	}
}

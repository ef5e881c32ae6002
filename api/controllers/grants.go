package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mintforge/collections-backend/api/responses"
	"github.com/mintforge/collections-backend/api/validators"
	"github.com/mintforge/collections-backend/internal/collection"
	"github.com/mintforge/collections-backend/pkg/logger"
)

type globalGrantRequest struct {
	Addresses []string `json:"addresses" validate:"required,min=1"`
	Granted   []bool   `json:"granted" validate:"required,min=1"`
}

func GrantSetMinters(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
	return setGlobalGrant(svc.SetMinters, logg)
}

func GrantSetManagers(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
	return setGlobalGrant(svc.SetManagers, logg)
}

func setGlobalGrant(op func(context.Context, collection.GlobalGrantInput) error, logg *logger.Logger) http.HandlerFunc {
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

		var payload globalGrantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := validators.AddressSliceField(payload.Addresses, "addresses")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = op(r.Context(), collection.GlobalGrantInput{
			Collection: address,
			Caller:     caller,
			Addresses:  addresses,
			Granted:    payload.Granted,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"updated": len(addresses)})
	}
}

type itemMintersRequest struct {
	Ordinals   []int64  `json:"ordinals" validate:"required,min=1"`
	Addresses  []string `json:"addresses" validate:"required,min=1"`
	Allowances []string `json:"allowances" validate:"required,min=1"`
}

func GrantSetItemMinters(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload itemMintersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := validators.AddressSliceField(payload.Addresses, "addresses")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SetItemMinters(r.Context(), collection.ItemMinterInput{
			Collection: address,
			Caller:     caller,
			Ordinals:   payload.Ordinals,
			Addresses:  addresses,
			Allowances: payload.Allowances,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"updated": len(addresses)})
	}
}

type itemManagersRequest struct {
	Ordinals  []int64  `json:"ordinals" validate:"required,min=1"`
	Addresses []string `json:"addresses" validate:"required,min=1"`
	Granted   []bool   `json:"granted" validate:"required,min=1"`
}

func GrantSetItemManagers(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload itemManagersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := validators.AddressSliceField(payload.Addresses, "addresses")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SetItemManagers(r.Context(), collection.ItemManagerInput{
			Collection: address,
			Caller:     caller,
			Ordinals:   payload.Ordinals,
			Addresses:  addresses,
			Granted:    payload.Granted,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"updated": len(addresses)})
	}
}

type allowanceResponse struct {
	Minter    string `json:"minter"`
	Ordinal   int64  `json:"ordinal"`
	Allowance string `json:"allowance"`
	Unlimited bool   `json:"unlimited"`
}

func GrantItemMinterAllowance(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ordinal, err := ordinalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		minter, err := validators.AddressField(chi.URLParam(r, "minter"), "minter")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		allowance, err := svc.ItemMinterAllowance(r.Context(), address, ordinal, minter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, allowanceResponse{
			Minter:    minter.Hex(),
			Ordinal:   ordinal,
			Allowance: allowance.Wire(),
			Unlimited: allowance.Unlimited,
		})
	}
}

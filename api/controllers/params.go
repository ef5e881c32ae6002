package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mintforge/collections-backend/api/middleware"
	"github.com/mintforge/collections-backend/api/validators"
	pkgerrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"
	"github.com/mintforge/collections-backend/pkg/pagination"
)

func collectionParam(r *http.Request) (evm.Address, error) {
	return validators.AddressField(chi.URLParam(r, "address"), "address")
}

func addressParam(r *http.Request, name string) (evm.Address, error) {
	return validators.AddressField(chi.URLParam(r, name), name)
}

func ordinalParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "ordinal"))
	ordinal, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ordinal < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "ordinal must be a non-negative integer").
			WithDetails(map[string]any{"field": "ordinal"})
	}
	return ordinal, nil
}

func tokenIDParam(r *http.Request) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "tokenId"))
	if _, err := evm.ParseHash(raw); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid token id").
			WithDetails(map[string]any{"field": "tokenId"})
	}
	return strings.ToLower(raw), nil
}

func callerFromRequest(r *http.Request) (evm.Address, error) {
	caller := middleware.CallerFromContext(r.Context())
	if caller.IsZero() {
		return evm.ZeroAddress, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller context missing")
	}
	return caller, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

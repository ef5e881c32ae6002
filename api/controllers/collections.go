package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mintforge/collections-backend/api/middleware"
	"github.com/mintforge/collections-backend/api/responses"
	"github.com/mintforge/collections-backend/api/validators"
	"github.com/mintforge/collections-backend/internal/collection"
	"github.com/mintforge/collections-backend/internal/committee"
	"github.com/mintforge/collections-backend/internal/factory"
	"github.com/mintforge/collections-backend/pkg/db/models"
	pkgerrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"
	"github.com/mintforge/collections-backend/pkg/logger"
)

type collectionResponse struct {
	Address         string     `json:"address"`
	ProofOfCreation string     `json:"proof_of_creation"`
	Name            string     `json:"name"`
	Symbol          string     `json:"symbol"`
	BaseURI         string     `json:"base_uri"`
	Owner           string     `json:"owner"`
	Creator         string     `json:"creator"`
	Initialized     bool       `json:"initialized"`
	Approved        bool       `json:"approved"`
	Completed       bool       `json:"completed"`
	Editable        bool       `json:"editable"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ItemCount       int64      `json:"item_count"`
	CreatedAt       time.Time  `json:"created_at"`
}

func collectionResponseFromModel(m *models.Collection) collectionResponse {
	return collectionResponse{
		Address:         m.Address.Hex(),
		ProofOfCreation: m.ProofOfCreation.Hex(),
		Name:            m.Name,
		Symbol:          m.Symbol,
		BaseURI:         m.BaseURI,
		Owner:           m.OwnerAddress.Hex(),
		Creator:         m.CreatorAddress.Hex(),
		Initialized:     m.Initialized,
		Approved:        m.Approved,
		Completed:       m.Completed,
		Editable:        m.Editable,
		CompletedAt:     m.CompletedAt,
		ItemCount:       m.ItemCount,
		CreatedAt:       m.CreatedAt,
	}
}

type createCollectionRequest struct {
	Salt           string                 `json:"salt" validate:"required"`
	Name           string                 `json:"name"`
	Symbol         string                 `json:"symbol"`
	BaseURI        string                 `json:"base_uri"`
	Creator        string                 `json:"creator"`
	ShouldComplete bool                   `json:"should_complete"`
	IsEditable     bool                   `json:"is_editable"`
	Items          []collection.ItemInput `json:"items"`
}

func (req createCollectionRequest) toInput(caller evm.Address) (committee.CreateCollectionInput, error) {
	salt, err := validators.HashField(req.Salt, "salt")
	if err != nil {
		return committee.CreateCollectionInput{}, err
	}

	creator := evm.ZeroAddress
	if req.Creator != "" {
		creator, err = validators.AddressField(req.Creator, "creator")
		if err != nil {
			return committee.CreateCollectionInput{}, err
		}
	}

	return committee.CreateCollectionInput{
		Caller: caller,
		Salt:   salt,
		Init: factory.InitData{
			Name:           req.Name,
			Symbol:         req.Symbol,
			BaseURI:        req.BaseURI,
			Creator:        creator,
			ShouldComplete: req.ShouldComplete,
			IsEditable:     req.IsEditable,
			Items:          req.Items,
		},
	}, nil
}

type createCollectionResponse struct {
	Collection collectionResponse `json:"collection"`
	Salt       string             `json:"salt"`
	SaltHash   string             `json:"salt_hash"`
	Deployer   string             `json:"deployer"`
}

// CollectionCreate deploys a collection proxy through the manager layer. The
// creation fee is charged from the caller's pay token balance when configured.
func CollectionCreate(svc committee.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "committee service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createCollectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logCtx := logg.WithFields(r.Context(), map[string]any{
				"relayed":  middleware.RelayedFromContext(r.Context()),
				"deployer": caller.Hex(),
			})
			logg.Info(logCtx, "collection creation requested")
		}

		result, err := svc.CreateCollection(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createCollectionResponse{
			Collection: collectionResponseFromModel(result.Collection),
			Salt:       result.Deployment.Salt.Hex(),
			SaltHash:   result.Deployment.SaltHash.Hex(),
			Deployer:   result.Deployment.Deployer.Hex(),
		})
	}
}

func CollectionGet(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		col, err := svc.Get(r.Context(), address)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, collectionResponseFromModel(col))
	}
}

type collectionListResponse struct {
	Collections []collectionResponse `json:"collections"`
	NextCursor  string               `json:"next_cursor,omitempty"`
}

func CollectionList(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cols, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]collectionResponse, 0, len(cols))
		for i := range cols {
			out = append(out, collectionResponseFromModel(&cols[i]))
		}
		responses.WriteSuccess(w, collectionListResponse{Collections: out, NextCursor: next})
	}
}

type initializeRequest struct {
	Name           string                 `json:"name" validate:"required"`
	Symbol         string                 `json:"symbol" validate:"required"`
	BaseURI        string                 `json:"base_uri"`
	Creator        string                 `json:"creator" validate:"required"`
	ShouldComplete bool                   `json:"should_complete"`
	IsEditable     bool                   `json:"is_editable"`
	Items          []collection.ItemInput `json:"items"`
}

func CollectionInitialize(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload initializeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		creator, err := validators.AddressField(payload.Creator, "creator")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Initialize(r.Context(), collection.InitializeInput{
			Collection:     address,
			Caller:         caller,
			Name:           payload.Name,
			Symbol:         payload.Symbol,
			BaseURI:        payload.BaseURI,
			Creator:        creator,
			ShouldComplete: payload.ShouldComplete,
			IsEditable:     payload.IsEditable,
			Items:          payload.Items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "initialized"})
	}
}

func CollectionComplete(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.Complete(r.Context(), collection.CallerInput{Collection: address, Caller: caller}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "completed"})
	}
}

type flagRequest struct {
	Value bool `json:"value"`
}

func CollectionSetEditable(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload flagRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SetEditable(r.Context(), collection.FlagInput{
			Collection: address,
			Caller:     caller,
			Value:      payload.Value,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"editable": payload.Value})
	}
}

type baseURIRequest struct {
	BaseURI string `json:"base_uri" validate:"required"`
}

func CollectionSetBaseURI(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload baseURIRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SetBaseURI(r.Context(), collection.BaseURIInput{
			Collection: address,
			Caller:     caller,
			BaseURI:    payload.BaseURI,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"base_uri": payload.BaseURI})
	}
}

type transferRoleRequest struct {
	To string `json:"to" validate:"required"`
}

func CollectionTransferOwnership(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
	return transferRole(svc.TransferOwnership, logg, "ownership")
}

func CollectionTransferCreatorship(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
	return transferRole(svc.TransferCreatorship, logg, "creatorship")
}

func transferRole(op func(context.Context, collection.TransferRoleInput) error, logg *logger.Logger, role string) http.HandlerFunc {
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

		var payload transferRoleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := validators.AddressField(payload.To, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = op(r.Context(), collection.TransferRoleInput{
			Collection: address,
			Caller:     caller,
			To:         to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"role": role, "to": to.Hex()})
	}
}

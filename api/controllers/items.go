package controllers

import (
	"net/http"
	"time"

	"github.com/mintforge/collections-backend/api/responses"
	"github.com/mintforge/collections-backend/api/validators"
	"github.com/mintforge/collections-backend/internal/collection"
	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/logger"
)

type itemResponse struct {
	Ordinal     int64     `json:"ordinal"`
	Rarity      string    `json:"rarity"`
	MaxSupply   int64     `json:"max_supply"`
	TotalSupply int64     `json:"total_supply"`
	Price       string    `json:"price"`
	Beneficiary string    `json:"beneficiary"`
	Metadata    string    `json:"metadata"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func itemResponseFromModel(m *models.Item) itemResponse {
	return itemResponse{
		Ordinal:     m.Ordinal,
		Rarity:      string(m.Rarity),
		MaxSupply:   m.Rarity.MaxSupply(),
		TotalSupply: m.TotalSupply,
		Price:       m.Price.String(),
		Beneficiary: m.Beneficiary.Hex(),
		Metadata:    m.Metadata,
		ContentHash: m.ContentHash,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type addItemsRequest struct {
	Items []collection.ItemInput `json:"items" validate:"required,min=1,dive"`
}

func ItemsAdd(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload addItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.AddItems(r.Context(), collection.AddItemsInput{
			Collection: address,
			Caller:     caller,
			Items:      payload.Items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]itemResponse, 0, len(items))
		for i := range items {
			out = append(out, itemResponseFromModel(&items[i]))
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"items": out})
	}
}

func ItemGet(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		item, err := svc.GetItem(r.Context(), address, ordinal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, itemResponseFromModel(item))
	}
}

type itemListResponse struct {
	Items      []itemResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func ItemList(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, next, err := svc.ListItems(r.Context(), address, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]itemResponse, 0, len(items))
		for i := range items {
			out = append(out, itemResponseFromModel(&items[i]))
		}
		responses.WriteSuccess(w, itemListResponse{Items: out, NextCursor: next})
	}
}

type editSalesDataRequest struct {
	Updates []collection.SalesDataUpdate `json:"updates" validate:"required,min=1,dive"`
}

func ItemsEditSalesData(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload editSalesDataRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.EditItemsSalesData(r.Context(), collection.EditSalesDataInput{
			Collection: address,
			Caller:     caller,
			Updates:    payload.Updates,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"updated": len(payload.Updates)})
	}
}

type editMetadataRequest struct {
	Updates []collection.MetadataUpdate `json:"updates" validate:"required,min=1,dive"`
}

func ItemsEditMetadata(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload editMetadataRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.EditItemsMetadata(r.Context(), collection.EditMetadataInput{
			Collection: address,
			Caller:     caller,
			Updates:    payload.Updates,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"updated": len(payload.Updates)})
	}
}

type rescueItemsRequest struct {
	Updates []collection.RescueUpdate `json:"updates" validate:"required,min=1,dive"`
}

// ItemsRescue is the owner-side correction path for broken metadata. It
// bypasses the editable flag on purpose.
func ItemsRescue(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload rescueItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.RescueItems(r.Context(), collection.RescueInput{
			Collection: address,
			Caller:     caller,
			Updates:    payload.Updates,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"rescued": len(payload.Updates)})
	}
}

package controllers

import (
	"net/http"
	"time"

	"github.com/mintforge/collections-backend/api/responses"
	"github.com/mintforge/collections-backend/api/validators"
	"github.com/mintforge/collections-backend/internal/committee"
	"github.com/mintforge/collections-backend/pkg/logger"
)

type memberResponse struct {
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

func CommitteeMembers(svc committee.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := svc.ListMembers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]memberResponse, 0, len(members))
		for _, m := range members {
			out = append(out, memberResponse{Address: m.Address.Hex(), CreatedAt: m.CreatedAt})
		}
		responses.WriteSuccess(w, map[string]any{"members": out})
	}
}

type setMemberRequest struct {
	Address string `json:"address" validate:"required"`
	Member  bool   `json:"member"`
}

// CommitteeSetMember adds or removes a committee member. Only the configured
// admin address may call it.
func CommitteeSetMember(svc committee.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setMemberRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := validators.AddressField(payload.Address, "address")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetMember(r.Context(), caller, address, payload.Member); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"address": address.Hex(), "member": payload.Member})
	}
}

type manageCollectionRequest struct {
	Approved bool `json:"approved"`
}

func CommitteeManageCollection(svc committee.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload manageCollectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.ManageCollection(r.Context(), committee.ManageInput{
			Caller:     caller,
			Collection: address,
			Approved:   payload.Approved,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"collection": address.Hex(), "approved": payload.Approved})
	}
}

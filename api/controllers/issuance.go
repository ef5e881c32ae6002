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

type tokenResponse struct {
	TokenID     string    `json:"token_id"`
	ItemOrdinal int64     `json:"item_ordinal"`
	IssuedID    int64     `json:"issued_id"`
	Owner       string    `json:"owner"`
	Approved    string    `json:"approved,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func tokenResponseFromModel(m *models.Token) tokenResponse {
	out := tokenResponse{
		TokenID:     m.TokenID,
		ItemOrdinal: m.ItemOrdinal,
		IssuedID:    m.IssuedID,
		Owner:       m.OwnerAddress.Hex(),
		CreatedAt:   m.CreatedAt,
	}
	if !m.Approved.IsZero() {
		out.Approved = m.Approved.Hex()
	}
	return out
}

type issueRequest struct {
	Entries []collection.IssueEntry `json:"entries" validate:"required,min=1,dive"`
}

// TokensIssue mints a batch atomically. Either every entry mints or the call
// fails with no tokens created.
func TokensIssue(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload issueRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tokens, err := svc.IssueTokens(r.Context(), collection.IssueInput{
			Collection: address,
			Caller:     caller,
			Entries:    payload.Entries,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]tokenResponse, 0, len(tokens))
		for i := range tokens {
			out = append(out, tokenResponseFromModel(&tokens[i]))
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"tokens": out})
	}
}

package controllers

import (
	"net/http"
	"time"

	"github.com/mintforge/collections-backend/api/responses"
	"github.com/mintforge/collections-backend/api/validators"
	"github.com/mintforge/collections-backend/internal/factory"
	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/logger"
)

type computeAddressRequest struct {
	Salt     string `json:"salt" validate:"required"`
	Deployer string `json:"deployer" validate:"required"`
}

// FactoryComputeAddress predicts the proxy address for a salt and deployer
// without deploying anything.
func FactoryComputeAddress(svc factory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload computeAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		salt, err := validators.HashField(payload.Salt, "salt")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deployer, err := validators.AddressField(payload.Deployer, "deployer")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.ComputeAddress(salt, deployer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"salt":     salt.Hex(),
			"deployer": deployer.Hex(),
			"address":  address.Hex(),
		})
	}
}

type deploymentResponse struct {
	Address        string    `json:"address"`
	Salt           string    `json:"salt"`
	Deployer       string    `json:"deployer"`
	SaltHash       string    `json:"salt_hash"`
	Implementation string    `json:"implementation"`
	CreatedAt      time.Time `json:"created_at"`
}

func deploymentResponseFromModel(m *models.Deployment) deploymentResponse {
	return deploymentResponse{
		Address:        m.Address.Hex(),
		Salt:           m.Salt.Hex(),
		Deployer:       m.Deployer.Hex(),
		SaltHash:       m.SaltHash.Hex(),
		Implementation: m.Implementation.Hex(),
		CreatedAt:      m.CreatedAt,
	}
}

func FactoryDeploymentGet(svc factory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deployment, err := svc.GetDeployment(r.Context(), address)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, deploymentResponseFromModel(deployment))
	}
}

// FactoryValidate checks proof-of-creation: whether the address was deployed
// by this factory and still derives from its recorded salt hash.
func FactoryValidate(svc factory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := collectionParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		valid, err := svc.IsValidCollection(r.Context(), address)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"address": address.Hex(), "valid": valid})
	}
}

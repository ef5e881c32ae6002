package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mintforge/collections-backend/api/controllers"
	"github.com/mintforge/collections-backend/api/middleware"
	"github.com/mintforge/collections-backend/internal/collection"
	"github.com/mintforge/collections-backend/internal/committee"
	"github.com/mintforge/collections-backend/internal/factory"
	"github.com/mintforge/collections-backend/internal/paytoken"
	"github.com/mintforge/collections-backend/internal/registry"
	"github.com/mintforge/collections-backend/pkg/config"
	"github.com/mintforge/collections-backend/pkg/db"
	"github.com/mintforge/collections-backend/pkg/logger"
	"github.com/mintforge/collections-backend/pkg/metrics"
	"github.com/mintforge/collections-backend/pkg/redis"
)

// Services groups the domain services the router exposes.
type Services struct {
	Collections collection.Service
	Registry    registry.Service
	Factory     factory.Service
	PayToken    paytoken.Service
	Committee   committee.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	promRegistry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	// Read endpoints stay public. Anything that mutates state requires a
	// verified signer token.
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Get("/collections", controllers.CollectionList(svcs.Collections, logg))
			r.Get("/collections/{address}", controllers.CollectionGet(svcs.Collections, logg))
			r.Get("/collections/{address}/items", controllers.ItemList(svcs.Collections, logg))
			r.Get("/collections/{address}/items/{ordinal}", controllers.ItemGet(svcs.Collections, logg))
			r.Get("/collections/{address}/items/{ordinal}/minters/{minter}", controllers.GrantItemMinterAllowance(svcs.Collections, logg))

			r.Get("/collections/{address}/tokens", controllers.TokenList(svcs.Registry, logg))
			r.Get("/collections/{address}/tokens/{tokenId}/owner", controllers.TokenOwner(svcs.Registry, logg))
			r.Get("/collections/{address}/tokens/{tokenId}/approved", controllers.TokenApprovedAddress(svcs.Registry, logg))
			r.Get("/collections/{address}/balances/{owner}", controllers.TokenBalance(svcs.Registry, logg))
			r.Get("/collections/{address}/operators/{owner}/{operator}", controllers.TokenIsApprovedForAll(svcs.Registry, logg))

			r.Post("/factory/compute-address", controllers.FactoryComputeAddress(svcs.Factory, logg))
			r.Get("/factory/deployments/{address}", controllers.FactoryDeploymentGet(svcs.Factory, logg))
			r.Get("/factory/validate/{address}", controllers.FactoryValidate(svcs.Factory, logg))

			r.Get("/committee/members", controllers.CommitteeMembers(svcs.Committee, logg))

			r.Get("/paytoken/balances/{holder}", controllers.PayTokenBalance(svcs.PayToken, logg))
			r.Get("/paytoken/allowance", controllers.PayTokenAllowance(svcs.PayToken, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RateLimit(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Post("/collections", controllers.CollectionCreate(svcs.Committee, logg))
			r.Post("/collections/{address}/initialize", controllers.CollectionInitialize(svcs.Collections, logg))
			r.Post("/collections/{address}/complete", controllers.CollectionComplete(svcs.Collections, logg))
			r.Post("/collections/{address}/editable", controllers.CollectionSetEditable(svcs.Collections, logg))
			r.Put("/collections/{address}/base-uri", controllers.CollectionSetBaseURI(svcs.Collections, logg))
			r.Post("/collections/{address}/ownership", controllers.CollectionTransferOwnership(svcs.Collections, logg))
			r.Post("/collections/{address}/creatorship", controllers.CollectionTransferCreatorship(svcs.Collections, logg))

			r.Post("/collections/{address}/items", controllers.ItemsAdd(svcs.Collections, logg))
			r.Patch("/collections/{address}/items/sales-data", controllers.ItemsEditSalesData(svcs.Collections, logg))
			r.Patch("/collections/{address}/items/metadata", controllers.ItemsEditMetadata(svcs.Collections, logg))
			r.Post("/collections/{address}/items/rescue", controllers.ItemsRescue(svcs.Collections, logg))

			r.Post("/collections/{address}/minters", controllers.GrantSetMinters(svcs.Collections, logg))
			r.Post("/collections/{address}/managers", controllers.GrantSetManagers(svcs.Collections, logg))
			r.Post("/collections/{address}/item-minters", controllers.GrantSetItemMinters(svcs.Collections, logg))
			r.Post("/collections/{address}/item-managers", controllers.GrantSetItemManagers(svcs.Collections, logg))

			r.Post("/collections/{address}/issue", controllers.TokensIssue(svcs.Collections, logg))

			r.Post("/collections/{address}/tokens/transfer", controllers.TokenTransfer(svcs.Registry, logg))
			r.Post("/collections/{address}/tokens/batch-transfer", controllers.TokenBatchTransfer(svcs.Registry, logg))
			r.Post("/collections/{address}/tokens/approve", controllers.TokenApprove(svcs.Registry, logg))
			r.Post("/collections/{address}/tokens/approval-for-all", controllers.TokenSetApprovalForAll(svcs.Registry, logg))

			r.Post("/committee/members", controllers.CommitteeSetMember(svcs.Committee, logg))
			r.Post("/committee/collections/{address}/approval", controllers.CommitteeManageCollection(svcs.Committee, logg))

			r.Post("/paytoken/approve", controllers.PayTokenApprove(svcs.PayToken, logg))
			r.Post("/paytoken/transfer", controllers.PayTokenTransfer(svcs.PayToken, logg))

			if !cfg.App.IsProd() {
				r.Post("/paytoken/mint", controllers.PayTokenMint(svcs.PayToken, logg))
			}
		})
	})

	return r
}

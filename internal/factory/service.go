package factory

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	dbpkg "github.com/mintforge/collections-backend/pkg/db"
	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/enums"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"
	"github.com/mintforge/collections-backend/pkg/logger"
	"github.com/mintforge/collections-backend/pkg/outbox"

	"github.com/mintforge/collections-backend/internal/collection"
	"github.com/mintforge/collections-backend/internal/locker"
)

// InitData optionally configures the collection in the same call that
// deploys it.
type InitData struct {
	Name           string
	Symbol         string
	BaseURI        string
	Creator        evm.Address
	ShouldComplete bool
	IsEditable     bool
	Items          []collection.ItemInput
}

// CreateCollectionInput deploys one proxy. The deterministic address derives
// from (salt, deployer) only, never from the owner or init payload.
type CreateCollectionInput struct {
	Salt     evm.Hash
	Deployer evm.Address
	Owner    evm.Address
	Init     *InitData
}

// Result pairs the deployment record with the registered collection row.
type Result struct {
	Deployment *models.Deployment
	Collection *models.Collection
}

// Service deploys collection proxies at deterministic CREATE2 addresses and
// verifies provenance of existing ones.
type Service interface {
	ComputeAddress(salt evm.Hash, deployer evm.Address) (evm.Address, error)
	CreateCollection(ctx context.Context, input CreateCollectionInput) (*Result, error)

	// Deploy records the deployment and registers the collection inside the
	// caller's transaction, so other writes can commit or fail with it. Init
	// data is ignored; initialization runs against committed state.
	Deploy(ctx context.Context, tx *gorm.DB, input CreateCollectionInput) (*Result, error)
	IsValidCollection(ctx context.Context, address evm.Address) (bool, error)
	GetDeployment(ctx context.Context, address evm.Address) (*models.Deployment, error)
}

type service struct {
	repo           Repository
	client         *dbpkg.Client
	locks          *locker.Keyed
	collections    collection.Service
	events         *outbox.Service
	logg           *logger.Logger
	factory        evm.Address
	implementation evm.Address
}

// Options carries optional service collaborators.
type Options struct {
	Events *outbox.Service
	Logger *logger.Logger
}

// NewService wires a factory service.
func NewService(repo Repository, client *dbpkg.Client, locks *locker.Keyed, collections collection.Service, factory, implementation evm.Address, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("factory repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if collections == nil {
		return nil, fmt.Errorf("collection service required")
	}
	if factory.IsZero() || implementation.IsZero() {
		return nil, fmt.Errorf("factory and implementation addresses required")
	}
	if locks == nil {
		locks = locker.NewKeyed()
	}
	return &service{
		repo:           repo,
		client:         client,
		locks:          locks,
		collections:    collections,
		events:         opts.Events,
		logg:           opts.Logger,
		factory:        factory,
		implementation: implementation,
	}, nil
}

// ComputeAddress evaluates the CREATE2 formula for a prospective deployment
// without touching storage.
func (s *service) ComputeAddress(salt evm.Hash, deployer evm.Address) (evm.Address, error) {
	if deployer.IsZero() {
		return evm.ZeroAddress, apperrors.New(apperrors.CodeValidation, "deployer cannot be the zero address")
	}
	codeHash, err := evm.ProxyCodeHash(s.implementation)
	if err != nil {
		return evm.ZeroAddress, apperrors.Wrap(apperrors.CodeInternal, err, "proxy code hash")
	}
	return evm.ComputeAddress(s.factory, evm.SaltHash(salt, deployer), codeHash), nil
}

// CreateCollection burns the (salt, deployer) pair, records the deployment
// and registers the collection with the deployer's proof of creation. When
// init data is supplied the collection is initialized right after; an init
// failure surfaces as an error but the address stays burned, exactly as a
// reverted follow-up call would leave it on chain.
func (s *service) CreateCollection(ctx context.Context, input CreateCollectionInput) (*Result, error) {
	if input.Deployer.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "deployer cannot be the zero address")
	}
	if input.Owner.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "owner cannot be the zero address")
	}

	address, err := s.ComputeAddress(input.Salt, input.Deployer)
	if err != nil {
		return nil, err
	}

	key := address.Hex()
	s.locks.Lock(key)

	var result *Result
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		r, err := s.Deploy(ctx, tx, input)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	s.locks.Unlock(key)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithCollection(ctx, address.Hex()), "collection proxy deployed")
	}

	// Initialization takes the collection lock itself, so it runs after the
	// deployment commit. A failure here leaves the deployment in place.
	if input.Init != nil {
		init := input.Init
		if err := s.collections.Initialize(ctx, collection.InitializeInput{
			Collection:     address,
			Caller:         input.Owner,
			Name:           init.Name,
			Symbol:         init.Symbol,
			BaseURI:        init.BaseURI,
			Creator:        init.Creator,
			ShouldComplete: init.ShouldComplete,
			IsEditable:     init.IsEditable,
			Items:          init.Items,
		}); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Deploy needs no per-address lock of its own; ux_deployments_salt_hash
// rejects concurrent use of the same (salt, deployer) pair at the index.
func (s *service) Deploy(ctx context.Context, tx *gorm.DB, input CreateCollectionInput) (*Result, error) {
	if tx == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "transaction required")
	}
	if input.Deployer.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "deployer cannot be the zero address")
	}
	if input.Owner.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "owner cannot be the zero address")
	}

	saltHash := evm.SaltHash(input.Salt, input.Deployer)
	address, err := s.ComputeAddress(input.Salt, input.Deployer)
	if err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	deployment := &models.Deployment{
		Salt:           input.Salt,
		Deployer:       input.Deployer,
		SaltHash:       saltHash,
		Address:        address,
		Implementation: s.implementation,
	}
	if err := repo.CreateDeployment(ctx, deployment); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_deployments_salt_hash") {
			return nil, apperrors.New(apperrors.CodeConflict, "salt already used by this deployer").
				WithDetails(map[string]any{"address": address.Hex()})
		}
		return nil, err
	}

	col, err := s.collections.Create(ctx, tx, collection.CreateInput{
		Address:         address,
		ProofOfCreation: saltHash,
		Owner:           input.Owner,
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProxyCreated,
			AggregateType: enums.AggregateDeployment,
			AggregateID:   deployment.ID,
			Actor:         &outbox.ActorRef{Address: input.Deployer.Hex()},
			Data: map[string]any{
				"address":        address.Hex(),
				"salt_hash":      saltHash.Hex(),
				"implementation": s.implementation.Hex(),
				"owner":          input.Owner.Hex(),
			},
			Version: 1,
		})
		if err != nil {
			return nil, err
		}
	}
	return &Result{Deployment: deployment, Collection: col}, nil
}

// IsValidCollection recomputes the CREATE2 address from the stored proof of
// creation and reports whether it matches a collection this factory made.
func (s *service) IsValidCollection(ctx context.Context, address evm.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	deployment, err := s.repo.FindDeploymentByAddress(ctx, address)
	if err != nil {
		return false, err
	}
	if deployment == nil {
		return false, nil
	}
	codeHash, err := evm.ProxyCodeHash(deployment.Implementation)
	if err != nil {
		return false, err
	}
	return evm.ComputeAddress(s.factory, deployment.SaltHash, codeHash) == address, nil
}

func (s *service) GetDeployment(ctx context.Context, address evm.Address) (*models.Deployment, error) {
	deployment, err := s.repo.FindDeploymentByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if deployment == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "deployment not found")
	}
	return deployment, nil
}

package committee

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/mintforge/collections-backend/pkg/db"
	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/enums"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"
	"github.com/mintforge/collections-backend/pkg/logger"
	"github.com/mintforge/collections-backend/pkg/outbox"

	"github.com/mintforge/collections-backend/internal/collection"
	"github.com/mintforge/collections-backend/internal/factory"
	"github.com/mintforge/collections-backend/internal/paytoken"
)

// CreateCollectionInput is the fee-gated creation path. The caller pays the
// creation fee and becomes the collection creator; the forwarder becomes the
// owner so approval stays policy-controlled.
type CreateCollectionInput struct {
	Caller evm.Address
	Salt   evm.Hash
	Init   factory.InitData
}

// ManageInput toggles the approved flag on a factory-made collection.
type ManageInput struct {
	Caller     evm.Address
	Collection evm.Address
	Approved   bool
}

// Service is the committee/manager layer: membership, fee-gated creation and
// approval management through the forwarder.
type Service interface {
	IsMember(ctx context.Context, address evm.Address) (bool, error)
	ListMembers(ctx context.Context) ([]models.CommitteeMember, error)
	SetMember(ctx context.Context, caller, address evm.Address, member bool) error

	CreateCollection(ctx context.Context, input CreateCollectionInput) (*factory.Result, error)
	ManageCollection(ctx context.Context, input ManageInput) error
}

// Params carries the committee's policy configuration.
type Params struct {
	Forwarder     evm.Address
	FeesCollector evm.Address
	Admin         evm.Address
	CreationFee   decimal.Decimal
}

type service struct {
	repo        Repository
	client      *dbpkg.Client
	factory     factory.Service
	collections collection.Service
	payToken    paytoken.Service
	events      *outbox.Service
	logg        *logger.Logger
	params      Params
}

// Options carries optional service collaborators.
type Options struct {
	Events *outbox.Service
	Logger *logger.Logger
}

// NewService wires a committee service.
func NewService(repo Repository, client *dbpkg.Client, fac factory.Service, collections collection.Service, payToken paytoken.Service, params Params, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("committee repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if fac == nil {
		return nil, fmt.Errorf("factory service required")
	}
	if collections == nil {
		return nil, fmt.Errorf("collection service required")
	}
	if payToken == nil {
		return nil, fmt.Errorf("paytoken service required")
	}
	if params.Forwarder.IsZero() {
		return nil, fmt.Errorf("forwarder address required")
	}
	if params.CreationFee.IsPositive() && params.FeesCollector.IsZero() {
		return nil, fmt.Errorf("fees collector required when a creation fee is set")
	}
	if params.CreationFee.IsNegative() {
		return nil, fmt.Errorf("creation fee cannot be negative")
	}
	return &service{
		repo:        repo,
		client:      client,
		factory:     fac,
		collections: collections,
		payToken:    payToken,
		events:      opts.Events,
		logg:        opts.Logger,
		params:      params,
	}, nil
}

func (s *service) IsMember(ctx context.Context, address evm.Address) (bool, error) {
	return s.repo.IsMember(ctx, address)
}

func (s *service) ListMembers(ctx context.Context) ([]models.CommitteeMember, error) {
	return s.repo.ListMembers(ctx)
}

// SetMember adds or removes a committee member. Admin only; redundant
// writes are rejected.
func (s *service) SetMember(ctx context.Context, caller, address evm.Address, member bool) error {
	if s.params.Admin.IsZero() || caller != s.params.Admin {
		return apperrors.New(apperrors.CodeForbidden, "caller is not the committee admin")
	}
	if address.IsZero() {
		return apperrors.New(apperrors.CodeValidation, "member address cannot be zero")
	}

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.IsMember(ctx, address)
		if err != nil {
			return err
		}
		if current == member {
			return apperrors.New(apperrors.CodeStateConflict, "membership already holds value")
		}
		if member {
			err = repo.AddMember(ctx, address)
		} else {
			err = repo.RemoveMember(ctx, address)
		}
		if err != nil {
			return err
		}
		if s.events != nil {
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCommitteeMemberSet,
				AggregateType: enums.AggregateCommitteeMember,
				AggregateID:   uuidForAddress(address),
				Actor:         &outbox.ActorRef{Address: caller.Hex()},
				Data: map[string]any{
					"address": address.Hex(),
					"member":  member,
				},
				Version: 1,
			})
		}
		return nil
	})
}

// CreateCollection deploys through the factory with the forwarder as owner
// and charges the creation fee in the same transaction, so a fee transfer
// never outlives a failed deployment and a deployment never commits unpaid.
// The ledger lock spans the whole transaction; the CanCover pre-check is a
// cheap rejection for callers who plainly cannot pay.
func (s *service) CreateCollection(ctx context.Context, input CreateCollectionInput) (*factory.Result, error) {
	if input.Caller.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "caller address is required")
	}

	fee := s.params.CreationFee
	if fee.IsPositive() {
		covered, err := s.payToken.CanCover(ctx, s.params.Forwarder, input.Caller, fee)
		if err != nil {
			return nil, err
		}
		if !covered {
			return nil, apperrors.New(apperrors.CodeStateConflict, "creation fee not covered").
				WithDetails(map[string]any{"fee": fee.String()})
		}
	}

	var result *factory.Result
	create := func() error {
		return s.client.WithTx(ctx, func(tx *gorm.DB) error {
			r, err := s.factory.Deploy(ctx, tx, factory.CreateCollectionInput{
				Salt:     input.Salt,
				Deployer: input.Caller,
				Owner:    s.params.Forwarder,
			})
			if err != nil {
				return err
			}
			result = r
			if fee.IsPositive() {
				return s.collectFee(ctx, tx, input.Caller, r.Collection.ID, fee)
			}
			return nil
		})
	}

	var err error
	if fee.IsPositive() {
		err = s.payToken.WithLedgerLock(create)
	} else {
		err = create()
	}
	if err != nil {
		return nil, err
	}

	// Initialization runs against the committed deployment. A failure here
	// leaves the collection deployed and the fee paid, the same way a
	// reverted follow-up call would on chain.
	if input.Init.Name != "" || input.Init.Symbol != "" {
		init := input.Init
		if init.Creator.IsZero() {
			init.Creator = input.Caller
		}
		if err := s.collections.Initialize(ctx, collection.InitializeInput{
			Collection:     result.Collection.Address,
			Caller:         s.params.Forwarder,
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
		col, ferr := s.collections.Get(ctx, result.Collection.Address)
		if ferr == nil {
			result.Collection = col
		}
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithCollection(ctx, result.Collection.Address.Hex()), "fee-gated collection created")
	}
	return result, nil
}

// collectFee draws the fee and records the transfer inside tx. The caller
// holds the pay token ledger lock.
func (s *service) collectFee(ctx context.Context, tx *gorm.DB, payer evm.Address, collectionID uuid.UUID, fee decimal.Decimal) error {
	if err := s.payToken.TransferFromTx(ctx, tx, s.params.Forwarder, payer, s.params.FeesCollector, fee); err != nil {
		return err
	}

	transfer := &models.FeeTransfer{
		Payer:        payer,
		Collector:    s.params.FeesCollector,
		Amount:       fee,
		CollectionID: collectionID,
	}
	if err := s.repo.WithTx(tx).CreateFeeTransfer(ctx, transfer); err != nil {
		return err
	}
	if s.events != nil {
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCreationFeeCollected,
			AggregateType: enums.AggregateFeeTransfer,
			AggregateID:   transfer.ID,
			Actor:         &outbox.ActorRef{Address: payer.Hex()},
			Data: map[string]any{
				"payer":     payer.Hex(),
				"collector": s.params.FeesCollector.Hex(),
				"amount":    fee.String(),
			},
			Version: 1,
		})
	}
	return nil
}

// ManageCollection lets a committee member toggle approval on a collection
// this factory deployed. The call acts as the forwarder, which owns every
// committee-created collection.
func (s *service) ManageCollection(ctx context.Context, input ManageInput) error {
	member, err := s.repo.IsMember(ctx, input.Caller)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.New(apperrors.CodeForbidden, "caller is not a committee member")
	}

	valid, err := s.factory.IsValidCollection(ctx, input.Collection)
	if err != nil {
		return err
	}
	if !valid {
		return apperrors.New(apperrors.CodeValidation, "collection was not deployed by this factory")
	}

	return s.collections.SetApproved(ctx, collection.FlagInput{
		Collection: input.Collection,
		Caller:     s.params.Forwarder,
		Value:      input.Approved,
	})
}

// uuidForAddress derives a stable aggregate ID for membership events, so
// adds and removals of the same address share one aggregate.
func uuidForAddress(address evm.Address) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, address.Bytes())
}

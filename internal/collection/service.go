package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/mintforge/collections-backend/pkg/db"
	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/enums"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"
	"github.com/mintforge/collections-backend/pkg/logger"
	"github.com/mintforge/collections-backend/pkg/metrics"
	"github.com/mintforge/collections-backend/pkg/outbox"
	"github.com/mintforge/collections-backend/pkg/pagination"

	"github.com/mintforge/collections-backend/internal/locker"
	"github.com/mintforge/collections-backend/internal/registry"
)

// Service is the collection aggregate: catalogue, permissions, lifecycle and
// issuance. Every mutating call locks the collection and runs in one
// transaction, so batches apply all-or-nothing.
type Service interface {
	Create(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Collection, error)
	Get(ctx context.Context, address evm.Address) (*models.Collection, error)
	List(ctx context.Context, params pagination.Params) ([]models.Collection, string, error)

	Initialize(ctx context.Context, input InitializeInput) error
	AddItems(ctx context.Context, input AddItemsInput) ([]models.Item, error)
	EditItemsSalesData(ctx context.Context, input EditSalesDataInput) error
	EditItemsMetadata(ctx context.Context, input EditMetadataInput) error
	RescueItems(ctx context.Context, input RescueInput) error
	GetItem(ctx context.Context, address evm.Address, ordinal int64) (*models.Item, error)
	ListItems(ctx context.Context, address evm.Address, params pagination.Params) ([]models.Item, string, error)

	SetApproved(ctx context.Context, input FlagInput) error
	SetEditable(ctx context.Context, input FlagInput) error
	SetBaseURI(ctx context.Context, input BaseURIInput) error
	Complete(ctx context.Context, input CallerInput) error
	TransferOwnership(ctx context.Context, input TransferRoleInput) error
	TransferCreatorship(ctx context.Context, input TransferRoleInput) error

	SetMinters(ctx context.Context, input GlobalGrantInput) error
	SetManagers(ctx context.Context, input GlobalGrantInput) error
	SetItemMinters(ctx context.Context, input ItemMinterInput) error
	SetItemManagers(ctx context.Context, input ItemManagerInput) error
	ItemMinterAllowance(ctx context.Context, address evm.Address, ordinal int64, minter evm.Address) (Allowance, error)

	IssueTokens(ctx context.Context, input IssueInput) ([]models.Token, error)
}

type service struct {
	repo        Repository
	client      *dbpkg.Client
	locks       *locker.Keyed
	registry    registry.Service
	events      *outbox.Service
	issuance    *metrics.IssuanceMetrics
	logg        *logger.Logger
	gracePeriod time.Duration
	now         func() time.Time
}

// Options carries optional service collaborators.
type Options struct {
	Events   *outbox.Service
	Issuance *metrics.IssuanceMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

// NewService wires a collection service.
func NewService(repo Repository, client *dbpkg.Client, locks *locker.Keyed, reg registry.Service, gracePeriod time.Duration, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("collection repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry service required")
	}
	if locks == nil {
		locks = locker.NewKeyed()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        repo,
		client:      client,
		locks:       locks,
		registry:    reg,
		events:      opts.Events,
		issuance:    opts.Issuance,
		logg:        opts.Logger,
		gracePeriod: gracePeriod,
		now:         now,
	}, nil
}

// Create registers the collection row for a deployed proxy inside the
// factory's transaction.
func (s *service) Create(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Collection, error) {
	if input.Address.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "collection address is required")
	}
	if input.Owner.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "collection owner is required")
	}
	col := &models.Collection{
		Address:         input.Address,
		ProofOfCreation: input.ProofOfCreation,
		OwnerAddress:    input.Owner,
		CreatorAddress:  input.Owner,
	}
	if err := s.repo.WithTx(tx).CreateCollection(ctx, col); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_collections_address") {
			return nil, apperrors.New(apperrors.CodeConflict, "collection address already registered")
		}
		return nil, err
	}
	return col, nil
}

func (s *service) Get(ctx context.Context, address evm.Address) (*models.Collection, error) {
	col, err := s.repo.FindByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "collection not found")
	}
	return col, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Collection, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	cols, err := s.repo.ListCollections(ctx, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(cols) > limit {
		cols = cols[:limit]
		last := cols[len(cols)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return cols, next, nil
}

func (s *service) GetItem(ctx context.Context, address evm.Address, ordinal int64) (*models.Item, error) {
	col, err := s.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, col.ID, ordinal)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "item not found")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, address evm.Address, params pagination.Params) ([]models.Item, string, error) {
	col, err := s.Get(ctx, address)
	if err != nil {
		return nil, "", err
	}
	cursor, err := pagination.ParseOrdinalCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	items, err := s.repo.ListItems(ctx, col.ID, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(items) > limit {
		items = items[:limit]
		next = pagination.EncodeOrdinalCursor(pagination.OrdinalCursor{Ordinal: items[len(items)-1].Ordinal})
	}
	return items, next, nil
}

func (s *service) ItemMinterAllowance(ctx context.Context, address evm.Address, ordinal int64, minter evm.Address) (Allowance, error) {
	col, err := s.Get(ctx, address)
	if err != nil {
		return Allowance{}, err
	}
	row, err := s.repo.FindItemAllowance(ctx, col.ID, ordinal, minter)
	if err != nil {
		return Allowance{}, err
	}
	if row == nil {
		return Allowance{Remaining: decimal.Zero}, nil
	}
	return Allowance{Unlimited: row.Unlimited, Remaining: row.Remaining}, nil
}

// withCollection locks the aggregate, opens a transaction and hands fn the
// transaction-bound repository plus the freshly loaded collection row.
func (s *service) withCollection(ctx context.Context, address evm.Address, fn func(tx *gorm.DB, repo Repository, col *models.Collection) error) error {
	key := address.Hex()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		col, err := repo.FindByAddress(ctx, address)
		if err != nil {
			return err
		}
		if col == nil {
			return apperrors.New(apperrors.CodeNotFound, "collection not found")
		}
		return fn(tx, repo, col)
	})
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, col *models.Collection, caller evm.Address, eventType enums.OutboxEventType, data map[string]any) error {
	if s.events == nil {
		return nil
	}
	return s.events.Emit(ctx, tx, domainEvent(col, caller, eventType, data))
}

// emitOnce is emit for one-way transitions; an event already queued for the
// aggregate is left alone instead of queued twice.
func (s *service) emitOnce(ctx context.Context, tx *gorm.DB, col *models.Collection, caller evm.Address, eventType enums.OutboxEventType, data map[string]any) error {
	if s.events == nil {
		return nil
	}
	return s.events.EmitIfNotExists(ctx, tx, domainEvent(col, caller, eventType, data))
}

func domainEvent(col *models.Collection, caller evm.Address, eventType enums.OutboxEventType, data map[string]any) outbox.DomainEvent {
	if data == nil {
		data = map[string]any{}
	}
	data["collection"] = col.Address.Hex()
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateCollection,
		AggregateID:   col.ID,
		Actor:         &outbox.ActorRef{Address: caller.Hex()},
		Data:          data,
		Version:       1,
	}
}

// validateItemInput checks one catalogue entry and returns the parsed parts.
func validateItemInput(index int, input ItemInput) (enums.Rarity, decimal.Decimal, evm.Address, error) {
	fail := func(msg string) (enums.Rarity, decimal.Decimal, evm.Address, error) {
		return "", decimal.Zero, evm.ZeroAddress, apperrors.New(apperrors.CodeValidation, msg).
			WithDetails(map[string]any{"index": index})
	}

	rarity, err := enums.ParseRarity(input.Rarity)
	if err != nil {
		return fail(fmt.Sprintf("invalid rarity %q", input.Rarity))
	}
	if input.Metadata == "" {
		return fail("item metadata cannot be empty")
	}
	price, err := decimal.NewFromString(input.Price)
	if err != nil || price.IsNegative() {
		return fail(fmt.Sprintf("invalid price %q", input.Price))
	}
	beneficiary := evm.ZeroAddress
	if input.Beneficiary != "" {
		beneficiary, err = evm.ParseAddress(input.Beneficiary)
		if err != nil {
			return fail(fmt.Sprintf("invalid beneficiary %q", input.Beneficiary))
		}
	}
	if price.IsPositive() && beneficiary.IsZero() {
		return fail("priced item requires a beneficiary")
	}
	if price.IsZero() && !beneficiary.IsZero() {
		return fail("free item cannot have a beneficiary")
	}
	return rarity, price, beneficiary, nil
}

package registry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/mintforge/collections-backend/pkg/db"
	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/enums"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"
	"github.com/mintforge/collections-backend/pkg/logger"
	"github.com/mintforge/collections-backend/pkg/outbox"
	"github.com/mintforge/collections-backend/pkg/pagination"
	"github.com/mintforge/collections-backend/pkg/tokenid"

	"github.com/mintforge/collections-backend/internal/locker"
)

// Service exposes the ERC-721 style ownership ledger. Minting happens inside
// the issuance transaction; transfers and approvals open their own.
type Service interface {
	Mint(ctx context.Context, tx *gorm.DB, input MintInput) (*models.Token, error)
	OwnerOf(ctx context.Context, collection evm.Address, tokenID string) (evm.Address, error)
	BalanceOf(ctx context.Context, collection, owner evm.Address) (int64, error)
	GetApproved(ctx context.Context, collection evm.Address, tokenID string) (evm.Address, error)
	IsApprovedForAll(ctx context.Context, collection, owner, operator evm.Address) (bool, error)
	ListByOwner(ctx context.Context, collection, owner evm.Address, params pagination.Params) ([]models.Token, string, error)
	Transfer(ctx context.Context, input TransferInput) error
	BatchTransfer(ctx context.Context, input BatchTransferInput) error
	Approve(ctx context.Context, input ApproveInput) error
	SetApprovalForAll(ctx context.Context, input OperatorInput) error
}

// MintInput carries one mint performed by the issuance engine.
type MintInput struct {
	CollectionID uuid.UUID
	To           evm.Address
	TokenID      string
	ItemOrdinal  int64
	IssuedID     int64
}

// TransferInput moves one token between addresses.
type TransferInput struct {
	Collection evm.Address
	Caller     evm.Address
	From       evm.Address
	To         evm.Address
	TokenID    string
}

// BatchTransferInput moves several tokens from one holder in one transaction.
type BatchTransferInput struct {
	Collection evm.Address
	Caller     evm.Address
	From       evm.Address
	To         evm.Address
	TokenIDs   []string
}

// ApproveInput grants a per-token transfer approval.
type ApproveInput struct {
	Collection evm.Address
	Caller     evm.Address
	To         evm.Address
	TokenID    string
}

// OperatorInput toggles a blanket operator approval.
type OperatorInput struct {
	Collection evm.Address
	Caller     evm.Address
	Operator   evm.Address
	Approved   bool
}

type service struct {
	repo   Repository
	client *dbpkg.Client
	locks  *locker.Keyed
	events *outbox.Service
	logg   *logger.Logger
}

// NewService wires a registry service.
func NewService(repo Repository, client *dbpkg.Client, locks *locker.Keyed, events *outbox.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if locks == nil {
		locks = locker.NewKeyed()
	}
	return &service{repo: repo, client: client, locks: locks, events: events, logg: logg}, nil
}

func (s *service) Mint(ctx context.Context, tx *gorm.DB, input MintInput) (*models.Token, error) {
	if input.To.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "mint recipient cannot be the zero address")
	}
	if _, err := tokenid.Parse(input.TokenID); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid token id")
	}

	repo := s.repo.WithTx(tx)
	exists, err := repo.TokenExists(ctx, input.CollectionID, input.TokenID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.New(apperrors.CodeConflict, "token already minted")
	}

	token := &models.Token{
		CollectionID: input.CollectionID,
		TokenID:      input.TokenID,
		ItemOrdinal:  input.ItemOrdinal,
		IssuedID:     input.IssuedID,
		OwnerAddress: input.To,
		Approved:     evm.ZeroAddress,
	}
	if err := repo.CreateToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *service) OwnerOf(ctx context.Context, collection evm.Address, tokenID string) (evm.Address, error) {
	col, err := s.findCollection(ctx, collection)
	if err != nil {
		return evm.ZeroAddress, err
	}
	token, err := s.findToken(ctx, col.ID, tokenID)
	if err != nil {
		return evm.ZeroAddress, err
	}
	return token.OwnerAddress, nil
}

func (s *service) BalanceOf(ctx context.Context, collection, owner evm.Address) (int64, error) {
	if owner.IsZero() {
		return 0, apperrors.New(apperrors.CodeValidation, "balance query for the zero address")
	}
	col, err := s.findCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	return s.repo.CountByOwner(ctx, col.ID, owner)
}

func (s *service) GetApproved(ctx context.Context, collection evm.Address, tokenID string) (evm.Address, error) {
	col, err := s.findCollection(ctx, collection)
	if err != nil {
		return evm.ZeroAddress, err
	}
	token, err := s.findToken(ctx, col.ID, tokenID)
	if err != nil {
		return evm.ZeroAddress, err
	}
	return token.Approved, nil
}

func (s *service) IsApprovedForAll(ctx context.Context, collection, owner, operator evm.Address) (bool, error) {
	col, err := s.findCollection(ctx, collection)
	if err != nil {
		return false, err
	}
	approval, err := s.repo.FindOperatorApproval(ctx, col.ID, owner, operator)
	if err != nil {
		return false, err
	}
	return approval != nil && approval.Approved, nil
}

func (s *service) ListByOwner(ctx context.Context, collection, owner evm.Address, params pagination.Params) ([]models.Token, string, error) {
	col, err := s.findCollection(ctx, collection)
	if err != nil {
		return nil, "", err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	tokens, err := s.repo.ListByOwner(ctx, col.ID, owner, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(tokens) > limit {
		tokens = tokens[:limit]
		last := tokens[len(tokens)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return tokens, next, nil
}

func (s *service) Transfer(ctx context.Context, input TransferInput) error {
	return s.BatchTransfer(ctx, BatchTransferInput{
		Collection: input.Collection,
		Caller:     input.Caller,
		From:       input.From,
		To:         input.To,
		TokenIDs:   []string{input.TokenID},
	})
}

func (s *service) BatchTransfer(ctx context.Context, input BatchTransferInput) error {
	if len(input.TokenIDs) == 0 {
		return apperrors.New(apperrors.CodeValidation, "no token ids supplied")
	}
	if input.To.IsZero() {
		return apperrors.New(apperrors.CodeValidation, "transfer to the zero address")
	}

	col, err := s.findCollection(ctx, input.Collection)
	if err != nil {
		return err
	}

	key := input.Collection.Hex()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, rawID := range input.TokenIDs {
			token, err := s.findTokenTx(ctx, repo, col.ID, rawID)
			if err != nil {
				return err
			}
			if token.OwnerAddress != input.From {
				return apperrors.New(apperrors.CodeValidation, "from address is not the token owner")
			}
			authorized, err := s.canTransfer(ctx, repo, col.ID, token, input.Caller)
			if err != nil {
				return err
			}
			if !authorized {
				return apperrors.New(apperrors.CodeForbidden, "caller is not owner nor approved")
			}
			if err := repo.UpdateTokenOwner(ctx, token.ID, input.To); err != nil {
				return err
			}
			if s.events != nil {
				err = s.events.Emit(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventTokenTransferred,
					AggregateType: enums.AggregateCollection,
					AggregateID:   col.ID,
					Actor:         &outbox.ActorRef{Address: input.Caller.Hex()},
					Data: map[string]any{
						"collection": input.Collection.Hex(),
						"token_id":   token.TokenID,
						"from":       input.From.Hex(),
						"to":         input.To.Hex(),
					},
					Version: 1,
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *service) Approve(ctx context.Context, input ApproveInput) error {
	col, err := s.findCollection(ctx, input.Collection)
	if err != nil {
		return err
	}

	key := input.Collection.Hex()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		token, err := s.findTokenTx(ctx, repo, col.ID, input.TokenID)
		if err != nil {
			return err
		}
		if input.To == token.OwnerAddress {
			return apperrors.New(apperrors.CodeValidation, "approval to the current owner")
		}
		if token.OwnerAddress != input.Caller {
			operator, err := repo.FindOperatorApproval(ctx, col.ID, token.OwnerAddress, input.Caller)
			if err != nil {
				return err
			}
			if operator == nil || !operator.Approved {
				return apperrors.New(apperrors.CodeForbidden, "caller is not owner nor operator")
			}
		}
		if err := repo.UpdateTokenApproved(ctx, token.ID, input.To); err != nil {
			return err
		}
		if s.events != nil {
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventTokenApproved,
				AggregateType: enums.AggregateCollection,
				AggregateID:   col.ID,
				Actor:         &outbox.ActorRef{Address: input.Caller.Hex()},
				Data: map[string]any{
					"collection": input.Collection.Hex(),
					"token_id":   token.TokenID,
					"approved":   input.To.Hex(),
				},
				Version: 1,
			})
		}
		return nil
	})
}

func (s *service) SetApprovalForAll(ctx context.Context, input OperatorInput) error {
	if input.Operator.IsZero() {
		return apperrors.New(apperrors.CodeValidation, "operator cannot be the zero address")
	}
	if input.Operator == input.Caller {
		return apperrors.New(apperrors.CodeValidation, "caller cannot be its own operator")
	}

	col, err := s.findCollection(ctx, input.Collection)
	if err != nil {
		return err
	}

	key := input.Collection.Hex()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpsertOperatorApproval(ctx, &models.OperatorApproval{
			CollectionID: col.ID,
			Owner:        input.Caller,
			Operator:     input.Operator,
			Approved:     input.Approved,
		}); err != nil {
			return err
		}
		if s.events != nil {
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOperatorSet,
				AggregateType: enums.AggregateCollection,
				AggregateID:   col.ID,
				Actor:         &outbox.ActorRef{Address: input.Caller.Hex()},
				Data: map[string]any{
					"collection": input.Collection.Hex(),
					"owner":      input.Caller.Hex(),
					"operator":   input.Operator.Hex(),
					"approved":   input.Approved,
				},
				Version: 1,
			})
		}
		return nil
	})
}

func (s *service) canTransfer(ctx context.Context, repo Repository, collectionID uuid.UUID, token *models.Token, caller evm.Address) (bool, error) {
	if caller == token.OwnerAddress || caller == token.Approved {
		return true, nil
	}
	operator, err := repo.FindOperatorApproval(ctx, collectionID, token.OwnerAddress, caller)
	if err != nil {
		return false, err
	}
	return operator != nil && operator.Approved, nil
}

func (s *service) findCollection(ctx context.Context, address evm.Address) (*models.Collection, error) {
	col, err := s.repo.FindCollectionByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "collection not found")
	}
	return col, nil
}

func (s *service) findToken(ctx context.Context, collectionID uuid.UUID, tokenID string) (*models.Token, error) {
	return s.findTokenTx(ctx, s.repo, collectionID, tokenID)
}

func (s *service) findTokenTx(ctx context.Context, repo Repository, collectionID uuid.UUID, tokenID string) (*models.Token, error) {
	if _, err := tokenid.Parse(tokenID); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid token id")
	}
	token, err := repo.FindToken(ctx, collectionID, tokenID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "token not found")
	}
	return token, nil
}

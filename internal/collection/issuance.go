package collection

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mintforge/collections-backend/internal/registry"
	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/enums"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/tokenid"
)

// issuanceItem carries the per-item state mutated while walking a batch.
type issuanceItem struct {
	item      *models.Item
	supply    int64
	allowance *models.ItemMinterAllowance
	consumed  int64
}

// IssueTokens mints one token per entry inside a single transaction. The
// caller must be the creator, a collection-wide minter or hold a per-item
// allowance for every touched item. Any failing entry rolls back the batch.
func (s *service) IssueTokens(ctx context.Context, input IssueInput) ([]models.Token, error) {
	if len(input.Entries) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "no issuance entries supplied")
	}
	for i, entry := range input.Entries {
		if entry.Beneficiary.IsZero() {
			return nil, apperrors.New(apperrors.CodeValidation, "beneficiary cannot be zero address").
				WithDetails(map[string]any{"index": i})
		}
	}

	var minted []models.Token
	err := s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := s.requireMintingAllowed(col); err != nil {
			return err
		}

		authority, err := classifyMinter(ctx, repo, col, input.Caller)
		if err != nil {
			return err
		}

		state, err := s.loadIssuanceItems(ctx, repo, col, input, authority)
		if err != nil {
			return err
		}

		tokens := make([]models.Token, 0, len(input.Entries))
		for i, entry := range input.Entries {
			st := state[entry.Ordinal]
			maxSupply := st.item.Rarity.MaxSupply()
			if st.supply >= maxSupply {
				if s.issuance != nil {
					s.issuance.IncExhausted(string(st.item.Rarity))
				}
				return apperrors.New(apperrors.CodeExhausted, "item supply exhausted").
					WithDetails(map[string]any{"index": i, "ordinal": entry.Ordinal, "max_supply": maxSupply})
			}
			if authority == mintAllowance {
				if err := drawAllowance(st, entry.Ordinal); err != nil {
					return err
				}
			}

			st.supply++
			issuedID := st.supply
			packed, err := tokenid.EncodeUint64(uint64(entry.Ordinal), uint64(issuedID))
			if err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "encode token id")
			}
			tokenHex := tokenid.Hex(packed)

			token, err := s.registry.Mint(ctx, tx, registry.MintInput{
				CollectionID: col.ID,
				To:           entry.Beneficiary,
				TokenID:      tokenHex,
				ItemOrdinal:  entry.Ordinal,
				IssuedID:     issuedID,
			})
			if err != nil {
				return err
			}
			tokens = append(tokens, *token)

			if err := s.emit(ctx, tx, col, input.Caller, enums.EventTokenIssued, map[string]any{
				"token_id":    tokenHex,
				"ordinal":     entry.Ordinal,
				"issued_id":   issuedID,
				"beneficiary": entry.Beneficiary.Hex(),
			}); err != nil {
				return err
			}
		}

		if err := s.persistIssuanceState(ctx, repo, state, authority); err != nil {
			return err
		}

		if s.issuance != nil {
			for _, entry := range input.Entries {
				s.issuance.IncIssued(string(state[entry.Ordinal].item.Rarity))
			}
			s.issuance.ObserveBatchSize(len(input.Entries))
		}
		minted = tokens
		return nil
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// requireMintingAllowed gates primary issuance on the lifecycle state. The
// grace window starts at completion and must fully elapse first.
func (s *service) requireMintingAllowed(col *models.Collection) error {
	if !col.Initialized {
		return apperrors.New(apperrors.CodeStateConflict, "collection not initialized")
	}
	if !col.Approved {
		return apperrors.New(apperrors.CodeStateConflict, "collection not approved")
	}
	if !col.Completed || col.CompletedAt == nil {
		return apperrors.New(apperrors.CodeStateConflict, "collection not completed")
	}
	if s.now().Before(col.CompletedAt.Add(s.gracePeriod)) {
		return apperrors.New(apperrors.CodeStateConflict, "collection is in grace period").
			WithDetails(map[string]any{"minting_opens_at": col.CompletedAt.Add(s.gracePeriod)})
	}
	return nil
}

// loadIssuanceItems resolves every distinct item a batch touches in one query
// and, for allowance-based callers, the matching allowance rows. Large
// batches repeat ordinals heavily so per-entry lookups are avoided.
func (s *service) loadIssuanceItems(ctx context.Context, repo Repository, col *models.Collection, input IssueInput, authority mintAuthority) (map[int64]*issuanceItem, error) {
	distinct := make([]int64, 0, len(input.Entries))
	seen := make(map[int64]bool, len(input.Entries))
	for _, entry := range input.Entries {
		if !seen[entry.Ordinal] {
			seen[entry.Ordinal] = true
			distinct = append(distinct, entry.Ordinal)
		}
	}

	items, err := repo.FindItems(ctx, col.ID, distinct)
	if err != nil {
		return nil, err
	}
	state := make(map[int64]*issuanceItem, len(items))
	for i := range items {
		item := &items[i]
		state[item.Ordinal] = &issuanceItem{item: item, supply: item.TotalSupply}
	}
	for _, ordinal := range distinct {
		if state[ordinal] == nil {
			return nil, apperrors.New(apperrors.CodeNotFound, "item not found").
				WithDetails(map[string]any{"ordinal": ordinal})
		}
	}

	if authority == mintAllowance {
		for _, ordinal := range distinct {
			row, err := repo.FindItemAllowance(ctx, col.ID, ordinal, input.Caller)
			if err != nil {
				return nil, err
			}
			if row == nil || (!row.Unlimited && !row.Remaining.IsPositive()) {
				return nil, apperrors.New(apperrors.CodeForbidden, "caller has no mint allowance for item").
					WithDetails(map[string]any{"ordinal": ordinal})
			}
			state[ordinal].allowance = row
		}
	}
	return state, nil
}

func drawAllowance(st *issuanceItem, ordinal int64) error {
	if st.allowance.Unlimited {
		return nil
	}
	if decimal.NewFromInt(st.consumed + 1).GreaterThan(st.allowance.Remaining) {
		return apperrors.New(apperrors.CodeForbidden, "mint allowance exhausted").
			WithDetails(map[string]any{"ordinal": ordinal})
	}
	st.consumed++
	return nil
}

// persistIssuanceState flushes the batch's supply counters and finite
// allowance drawdowns back to their rows.
func (s *service) persistIssuanceState(ctx context.Context, repo Repository, state map[int64]*issuanceItem, authority mintAuthority) error {
	for _, st := range state {
		if st.supply != st.item.TotalSupply {
			if err := repo.UpdateItem(ctx, st.item.ID, map[string]any{"total_supply": st.supply}); err != nil {
				return err
			}
		}
		if authority == mintAllowance && st.consumed > 0 && !st.allowance.Unlimited {
			st.allowance.Remaining = st.allowance.Remaining.Sub(decimal.NewFromInt(st.consumed))
			if err := repo.UpsertItemAllowance(ctx, st.allowance); err != nil {
				return err
			}
		}
	}
	return nil
}

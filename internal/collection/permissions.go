package collection

import (
	"context"

	"github.com/mintforge/collections-backend/pkg/db/models"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"
)

func requireOwner(col *models.Collection, caller evm.Address) error {
	if col.OwnerAddress != caller {
		return apperrors.New(apperrors.CodeForbidden, "caller is not the collection owner")
	}
	return nil
}

func requireCreator(col *models.Collection, caller evm.Address) error {
	if col.CreatorAddress != caller {
		return apperrors.New(apperrors.CodeForbidden, "caller is not the collection creator")
	}
	return nil
}

func requireOwnerOrCreator(col *models.Collection, caller evm.Address) error {
	if col.OwnerAddress != caller && col.CreatorAddress != caller {
		return apperrors.New(apperrors.CodeForbidden, "caller is neither owner nor creator")
	}
	return nil
}

// canManageItem reports manage authority over one item: the creator, a
// collection-wide manager or a per-item manager.
func canManageItem(ctx context.Context, repo Repository, col *models.Collection, ordinal int64, caller evm.Address) (bool, error) {
	if col.CreatorAddress == caller {
		return true, nil
	}
	global, err := repo.HasManagerGrant(ctx, col.ID, caller)
	if err != nil {
		return false, err
	}
	if global {
		return true, nil
	}
	return repo.HasItemManagerGrant(ctx, col.ID, ordinal, caller)
}

// mintAuthority classifies the caller's right to mint one item. Creators and
// global minters mint without touching allowances; everyone else draws down
// a per-item allowance row.
type mintAuthority int

const (
	mintDenied mintAuthority = iota
	mintUncounted
	mintAllowance
)

func classifyMinter(ctx context.Context, repo Repository, col *models.Collection, caller evm.Address) (mintAuthority, error) {
	if col.CreatorAddress == caller {
		return mintUncounted, nil
	}
	granted, err := repo.HasMinterGrant(ctx, col.ID, caller)
	if err != nil {
		return mintDenied, err
	}
	if granted {
		return mintUncounted, nil
	}
	return mintAllowance, nil
}

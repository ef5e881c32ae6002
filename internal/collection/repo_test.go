package collection

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/enums"
	"github.com/mintforge/collections-backend/pkg/evm"
	"github.com/mintforge/collections-backend/pkg/pagination"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Collection{},
		&models.Item{},
		&models.MinterGrant{},
		&models.ManagerGrant{},
		&models.ItemMinterAllowance{},
		&models.ItemManagerGrant{},
	))
	return conn
}

func seedRepoCollection(t *testing.T, repo Repository, address evm.Address) *models.Collection {
	t.Helper()
	col := &models.Collection{
		Address:         address,
		ProofOfCreation: proofHash,
		OwnerAddress:    ownerAddr,
		CreatorAddress:  creatorAddr,
	}
	require.NoError(t, repo.CreateCollection(context.Background(), col))
	return col
}

func TestRepositoryFindByAddress(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	seeded := seedRepoCollection(t, repo, colAddr)

	found, err := repo.FindByAddress(ctx, colAddr)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, ownerAddr, found.OwnerAddress)

	missing, err := repo.FindByAddress(ctx, buyerAddr)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryListItemsPaginatesByOrdinal(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	col := seedRepoCollection(t, repo, colAddr)

	var items []*models.Item
	for ordinal := int64(0); ordinal < 5; ordinal++ {
		items = append(items, &models.Item{
			CollectionID: col.ID,
			Ordinal:      ordinal,
			Rarity:       enums.RarityCommon,
			Price:        decimal.Zero,
			Metadata:     "ipfs://item",
		})
	}
	require.NoError(t, repo.CreateItems(ctx, items))

	page, err := repo.ListItems(ctx, col.ID, nil, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, int64(0), page[0].Ordinal)
	assert.Equal(t, int64(2), page[2].Ordinal)

	rest, err := repo.ListItems(ctx, col.ID, &pagination.OrdinalCursor{Ordinal: page[2].Ordinal}, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, int64(3), rest[0].Ordinal)
	assert.Equal(t, int64(4), rest[1].Ordinal)
}

func TestRepositoryMinterGrantLifecycle(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	col := seedRepoCollection(t, repo, colAddr)

	has, err := repo.HasMinterGrant(ctx, col.ID, minterAddr)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.SetMinterGrant(ctx, col.ID, minterAddr, true))

	has, err = repo.HasMinterGrant(ctx, col.ID, minterAddr)
	require.NoError(t, err)
	assert.True(t, has)

	grants, err := repo.ListMinterGrants(ctx, col.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, minterAddr, grants[0].Address)

	require.NoError(t, repo.SetMinterGrant(ctx, col.ID, minterAddr, false))

	has, err = repo.HasMinterGrant(ctx, col.ID, minterAddr)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRepositoryUpsertItemAllowance(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	col := seedRepoCollection(t, repo, colAddr)

	require.NoError(t, repo.UpsertItemAllowance(ctx, &models.ItemMinterAllowance{
		CollectionID: col.ID,
		ItemOrdinal:  0,
		Address:      minterAddr,
		Remaining:    decimal.NewFromInt(5),
	}))

	row, err := repo.FindItemAllowance(ctx, col.ID, 0, minterAddr)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.Remaining.Equal(decimal.NewFromInt(5)))
	assert.False(t, row.Unlimited)
	firstID := row.ID

	require.NoError(t, repo.UpsertItemAllowance(ctx, &models.ItemMinterAllowance{
		CollectionID: col.ID,
		ItemOrdinal:  0,
		Address:      minterAddr,
		Unlimited:    true,
		Remaining:    decimal.Zero,
	}))

	row, err = repo.FindItemAllowance(ctx, col.ID, 0, minterAddr)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, firstID, row.ID)
	assert.True(t, row.Unlimited)
}

func TestRepositoryUpdateCollection(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	col := seedRepoCollection(t, repo, colAddr)

	require.NoError(t, repo.UpdateCollection(ctx, col.ID, map[string]any{
		"initialized": true,
		"name":        "Wearables",
	}))

	found, err := repo.FindByAddress(ctx, colAddr)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Initialized)
	assert.Equal(t, "Wearables", found.Name)

	err = repo.UpdateCollection(ctx, uuid.New(), map[string]any{"name": "other"})
	require.NoError(t, err)
}

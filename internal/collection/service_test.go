package collection

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/mintforge/collections-backend/pkg/db"
	"github.com/mintforge/collections-backend/pkg/db/models"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"

	"github.com/mintforge/collections-backend/internal/locker"
	"github.com/mintforge/collections-backend/internal/registry"
)

var (
	ownerAddr   = evm.MustAddress("0x1000000000000000000000000000000000000001")
	creatorAddr = evm.MustAddress("0x2000000000000000000000000000000000000002")
	minterAddr  = evm.MustAddress("0x3000000000000000000000000000000000000003")
	managerAddr = evm.MustAddress("0x4000000000000000000000000000000000000004")
	buyerAddr   = evm.MustAddress("0x5000000000000000000000000000000000000005")
	colAddr     = evm.MustAddress("0x6000000000000000000000000000000000000006")

	proofHash = evm.MustHash("0x7000000000000000000000000000000000000000000000000000000000000007")
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testEnv struct {
	svc   Service
	conn  *gorm.DB
	clock *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Collection{},
		&models.Item{},
		&models.MinterGrant{},
		&models.ManagerGrant{},
		&models.ItemMinterAllowance{},
		&models.ItemManagerGrant{},
		&models.Token{},
		&models.OperatorApproval{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client := dbpkg.NewFromConn(conn)
	locks := locker.NewKeyed()
	regSvc, err := registry.NewService(registry.NewRepository(conn), client, locks, nil, nil)
	if err != nil {
		t.Fatalf("new registry service: %v", err)
	}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc, err := NewService(NewRepository(conn), client, locks, regSvc, 7*24*time.Hour, Options{Now: clock.Now})
	if err != nil {
		t.Fatalf("new collection service: %v", err)
	}

	env := &testEnv{svc: svc, conn: conn, clock: clock}
	if err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		_, err := svc.Create(context.Background(), tx, CreateInput{
			Address:         colAddr,
			ProofOfCreation: proofHash,
			Owner:           ownerAddr,
		})
		return err
	}); err != nil {
		t.Fatalf("seed collection: %v", err)
	}
	return env
}

func freeItem(rarity string) ItemInput {
	return ItemInput{Rarity: rarity, Price: "0", Metadata: "ipfs://item"}
}

func pricedItem(rarity, price string) ItemInput {
	return ItemInput{Rarity: rarity, Price: price, Beneficiary: creatorAddr.Hex(), Metadata: "ipfs://item"}
}

func initialize(t *testing.T, env *testEnv, items ...ItemInput) {
	t.Helper()
	err := env.svc.Initialize(context.Background(), InitializeInput{
		Collection: colAddr,
		Caller:     ownerAddr,
		Name:       "Wearables",
		Symbol:     "WRB",
		BaseURI:    "ipfs://base/",
		Creator:    creatorAddr,
		IsEditable: true,
		Items:      items,
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func completeAndElapse(t *testing.T, env *testEnv) {
	t.Helper()
	if err := env.svc.Complete(context.Background(), CallerInput{Collection: colAddr, Caller: creatorAddr}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	env.clock.Advance(7*24*time.Hour + time.Minute)
}

func assertCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr := apperrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error with code %s, got %v", code, err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}

func countItems(t *testing.T, env *testEnv) int64 {
	t.Helper()
	var n int64
	if err := env.conn.Model(&models.Item{}).Count(&n).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	return n
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.svc.Initialize(ctx, InitializeInput{
		Collection: colAddr, Caller: buyerAddr,
		Name: "Wearables", Symbol: "WRB", Creator: creatorAddr,
	})
	assertCode(t, err, apperrors.CodeForbidden)

	initialize(t, env, freeItem("common"), pricedItem("mythic", "500"))

	col, err := env.svc.Get(ctx, colAddr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !col.Initialized || !col.Approved {
		t.Fatalf("expected initialized and approved, got %+v", col)
	}
	if col.CreatorAddress != creatorAddr {
		t.Fatalf("expected creator %s, got %s", creatorAddr.Hex(), col.CreatorAddress.Hex())
	}
	if col.ItemCount != 2 {
		t.Fatalf("expected 2 items, got %d", col.ItemCount)
	}

	first, err := env.svc.GetItem(ctx, colAddr, 0)
	if err != nil {
		t.Fatalf("get item 0: %v", err)
	}
	if first.Rarity != "common" || !first.Price.IsZero() {
		t.Fatalf("unexpected item 0: %+v", first)
	}
	second, err := env.svc.GetItem(ctx, colAddr, 1)
	if err != nil {
		t.Fatalf("get item 1: %v", err)
	}
	if second.Rarity != "mythic" || second.Price.String() != "500" {
		t.Fatalf("unexpected item 1: %+v", second)
	}

	err = env.svc.Initialize(ctx, InitializeInput{
		Collection: colAddr, Caller: ownerAddr,
		Name: "Again", Symbol: "AGN", Creator: creatorAddr,
	})
	assertCode(t, err, apperrors.CodeStateConflict)
}

func TestInitializeShouldComplete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.svc.Initialize(ctx, InitializeInput{
		Collection: colAddr, Caller: ownerAddr,
		Name: "Drop", Symbol: "DRP", Creator: creatorAddr,
		ShouldComplete: true,
		Items:          []ItemInput{freeItem("unique")},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	col, err := env.svc.Get(ctx, colAddr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !col.Completed || col.CompletedAt == nil {
		t.Fatalf("expected completed collection, got %+v", col)
	}
	if !col.CompletedAt.Equal(env.clock.Now()) {
		t.Fatalf("expected completed_at %v, got %v", env.clock.Now(), col.CompletedAt)
	}
}

func TestAddItemsValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env)

	// One invalid entry rejects the whole batch.
	_, err := env.svc.AddItems(ctx, AddItemsInput{
		Collection: colAddr, Caller: creatorAddr,
		Items: []ItemInput{freeItem("common"), freeItem("made-up")},
	})
	assertCode(t, err, apperrors.CodeValidation)
	if n := countItems(t, env); n != 0 {
		t.Fatalf("expected rollback to leave 0 items, found %d", n)
	}

	// Priced items need a beneficiary, free ones must not have one.
	_, err = env.svc.AddItems(ctx, AddItemsInput{
		Collection: colAddr, Caller: creatorAddr,
		Items: []ItemInput{{Rarity: "rare", Price: "100", Metadata: "ipfs://x"}},
	})
	assertCode(t, err, apperrors.CodeValidation)
	_, err = env.svc.AddItems(ctx, AddItemsInput{
		Collection: colAddr, Caller: creatorAddr,
		Items: []ItemInput{{Rarity: "rare", Price: "0", Beneficiary: creatorAddr.Hex(), Metadata: "ipfs://x"}},
	})
	assertCode(t, err, apperrors.CodeValidation)

	_, err = env.svc.AddItems(ctx, AddItemsInput{
		Collection: colAddr, Caller: ownerAddr,
		Items: []ItemInput{freeItem("common")},
	})
	assertCode(t, err, apperrors.CodeForbidden)

	created, err := env.svc.AddItems(ctx, AddItemsInput{
		Collection: colAddr, Caller: creatorAddr,
		Items: []ItemInput{freeItem("common"), pricedItem("epic", "250")},
	})
	if err != nil {
		t.Fatalf("add items: %v", err)
	}
	if len(created) != 2 || created[0].Ordinal != 0 || created[1].Ordinal != 1 {
		t.Fatalf("expected dense ordinals 0 and 1, got %+v", created)
	}
}

func TestAddItemsFrozenAfterComplete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))
	if err := env.svc.Complete(ctx, CallerInput{Collection: colAddr, Caller: creatorAddr}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := env.svc.AddItems(ctx, AddItemsInput{
		Collection: colAddr, Caller: creatorAddr,
		Items: []ItemInput{freeItem("rare")},
	})
	assertCode(t, err, apperrors.CodeStateConflict)
}

func TestCompleteIsOneWayAndCreatorOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))

	assertCode(t, env.svc.Complete(ctx, CallerInput{Collection: colAddr, Caller: ownerAddr}), apperrors.CodeForbidden)
	if err := env.svc.Complete(ctx, CallerInput{Collection: colAddr, Caller: creatorAddr}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertCode(t, env.svc.Complete(ctx, CallerInput{Collection: colAddr, Caller: creatorAddr}), apperrors.CodeStateConflict)
}

func TestEditItemsSalesData(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"), freeItem("rare"))

	update := SalesDataUpdate{Ordinal: 0, Price: "750", Beneficiary: buyerAddr.Hex()}

	err := env.svc.EditItemsSalesData(ctx, EditSalesDataInput{
		Collection: colAddr, Caller: buyerAddr,
		Updates: []SalesDataUpdate{update},
	})
	assertCode(t, err, apperrors.CodeForbidden)

	// A per-item manager may edit their item but not others.
	if err := env.svc.SetItemManagers(ctx, ItemManagerInput{
		Collection: colAddr, Caller: creatorAddr,
		Ordinals:  []int64{0},
		Addresses: []evm.Address{managerAddr},
		Granted:   []bool{true},
	}); err != nil {
		t.Fatalf("set item manager: %v", err)
	}
	if err := env.svc.EditItemsSalesData(ctx, EditSalesDataInput{
		Collection: colAddr, Caller: managerAddr,
		Updates: []SalesDataUpdate{update},
	}); err != nil {
		t.Fatalf("manager edit: %v", err)
	}
	err = env.svc.EditItemsSalesData(ctx, EditSalesDataInput{
		Collection: colAddr, Caller: managerAddr,
		Updates: []SalesDataUpdate{{Ordinal: 1, Price: "10", Beneficiary: buyerAddr.Hex()}},
	})
	assertCode(t, err, apperrors.CodeForbidden)

	item, err := env.svc.GetItem(ctx, colAddr, 0)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Price.String() != "750" || item.Beneficiary != buyerAddr {
		t.Fatalf("expected updated sales data, got %+v", item)
	}

	// Dropping the price to zero must drop the beneficiary too.
	err = env.svc.EditItemsSalesData(ctx, EditSalesDataInput{
		Collection: colAddr, Caller: creatorAddr,
		Updates: []SalesDataUpdate{{Ordinal: 0, Price: "0", Beneficiary: buyerAddr.Hex()}},
	})
	assertCode(t, err, apperrors.CodeValidation)
}

func TestEditItemsMetadataRequiresEditable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))

	if err := env.svc.SetEditable(ctx, FlagInput{Collection: colAddr, Caller: ownerAddr, Value: false}); err != nil {
		t.Fatalf("set editable: %v", err)
	}
	err := env.svc.EditItemsMetadata(ctx, EditMetadataInput{
		Collection: colAddr, Caller: creatorAddr,
		Updates: []MetadataUpdate{{Ordinal: 0, Metadata: "ipfs://v2"}},
	})
	assertCode(t, err, apperrors.CodeStateConflict)

	if err := env.svc.SetEditable(ctx, FlagInput{Collection: colAddr, Caller: ownerAddr, Value: true}); err != nil {
		t.Fatalf("set editable: %v", err)
	}
	if err := env.svc.EditItemsMetadata(ctx, EditMetadataInput{
		Collection: colAddr, Caller: creatorAddr,
		Updates: []MetadataUpdate{{Ordinal: 0, Metadata: "ipfs://v2"}},
	}); err != nil {
		t.Fatalf("edit metadata: %v", err)
	}
	item, err := env.svc.GetItem(ctx, colAddr, 0)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Metadata != "ipfs://v2" {
		t.Fatalf("expected updated metadata, got %q", item.Metadata)
	}
}

func TestRescueItems(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))

	hashV1 := "0x00000000000000000000000000000000000000000000000000000000000000d1"
	hashV2 := "0x00000000000000000000000000000000000000000000000000000000000000d2"

	err := env.svc.RescueItems(ctx, RescueInput{
		Collection: colAddr, Caller: creatorAddr,
		Updates: []RescueUpdate{{Ordinal: 0, ContentHash: hashV1}},
	})
	assertCode(t, err, apperrors.CodeForbidden)

	// Empty metadata keeps the stored value.
	if err := env.svc.RescueItems(ctx, RescueInput{
		Collection: colAddr, Caller: ownerAddr,
		Updates: []RescueUpdate{{Ordinal: 0, ContentHash: hashV1}},
	}); err != nil {
		t.Fatalf("rescue: %v", err)
	}
	item, err := env.svc.GetItem(ctx, colAddr, 0)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Metadata != "ipfs://item" || item.ContentHash != hashV1 {
		t.Fatalf("unexpected rescued item: %+v", item)
	}

	if err := env.svc.RescueItems(ctx, RescueInput{
		Collection: colAddr, Caller: ownerAddr,
		Updates: []RescueUpdate{{Ordinal: 0, Metadata: "ipfs://fixed", ContentHash: hashV2}},
	}); err != nil {
		t.Fatalf("rescue with metadata: %v", err)
	}
	item, err = env.svc.GetItem(ctx, colAddr, 0)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Metadata != "ipfs://fixed" || item.ContentHash != hashV2 {
		t.Fatalf("unexpected rescued item: %+v", item)
	}
}

func TestRescueItemsRejectsMalformedContentHash(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))

	for _, bad := range []string{"deadbeef", "0xcafe", "not a hash"} {
		err := env.svc.RescueItems(ctx, RescueInput{
			Collection: colAddr, Caller: ownerAddr,
			Updates: []RescueUpdate{{Ordinal: 0, ContentHash: bad}},
		})
		assertCode(t, err, apperrors.CodeValidation)
	}

	item, err := env.svc.GetItem(ctx, colAddr, 0)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.ContentHash != "" {
		t.Fatalf("expected content hash untouched, got %q", item.ContentHash)
	}
}

func TestSetMintersRedundantWrite(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))

	grant := GlobalGrantInput{
		Collection: colAddr, Caller: creatorAddr,
		Addresses: []evm.Address{minterAddr},
		Granted:   []bool{true},
	}
	if err := env.svc.SetMinters(ctx, grant); err != nil {
		t.Fatalf("set minters: %v", err)
	}
	assertCode(t, env.svc.SetMinters(ctx, grant), apperrors.CodeStateConflict)

	revoke := grant
	revoke.Granted = []bool{false}
	if err := env.svc.SetMinters(ctx, revoke); err != nil {
		t.Fatalf("revoke minters: %v", err)
	}
	assertCode(t, env.svc.SetMinters(ctx, revoke), apperrors.CodeStateConflict)

	grant.Caller = ownerAddr
	assertCode(t, env.svc.SetMinters(ctx, grant), apperrors.CodeForbidden)
}

func TestSetItemMinters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))

	err := env.svc.SetItemMinters(ctx, ItemMinterInput{
		Collection: colAddr, Caller: creatorAddr,
		Ordinals:   []int64{0, 1},
		Addresses:  []evm.Address{minterAddr},
		Allowances: []string{"5"},
	})
	assertCode(t, err, apperrors.CodeValidation)

	err = env.svc.SetItemMinters(ctx, ItemMinterInput{
		Collection: colAddr, Caller: creatorAddr,
		Ordinals:   []int64{7},
		Addresses:  []evm.Address{minterAddr},
		Allowances: []string{"5"},
	})
	assertCode(t, err, apperrors.CodeNotFound)

	set := ItemMinterInput{
		Collection: colAddr, Caller: creatorAddr,
		Ordinals:   []int64{0},
		Addresses:  []evm.Address{minterAddr},
		Allowances: []string{"5"},
	}
	if err := env.svc.SetItemMinters(ctx, set); err != nil {
		t.Fatalf("set item minters: %v", err)
	}
	assertCode(t, env.svc.SetItemMinters(ctx, set), apperrors.CodeStateConflict)

	got, err := env.svc.ItemMinterAllowance(ctx, colAddr, 0, minterAddr)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if got.Unlimited || got.Remaining.String() != "5" {
		t.Fatalf("expected finite allowance of 5, got %+v", got)
	}

	unlimited := set
	unlimited.Allowances = []string{maxUint256.String()}
	if err := env.svc.SetItemMinters(ctx, unlimited); err != nil {
		t.Fatalf("set unlimited: %v", err)
	}
	got, err = env.svc.ItemMinterAllowance(ctx, colAddr, 0, minterAddr)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if !got.Unlimited {
		t.Fatalf("expected unlimited allowance, got %+v", got)
	}
}

func TestTransferRoles(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env)

	assertCode(t, env.svc.TransferOwnership(ctx, TransferRoleInput{
		Collection: colAddr, Caller: creatorAddr, To: buyerAddr,
	}), apperrors.CodeForbidden)

	if err := env.svc.TransferOwnership(ctx, TransferRoleInput{
		Collection: colAddr, Caller: ownerAddr, To: buyerAddr,
	}); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	col, err := env.svc.Get(ctx, colAddr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if col.OwnerAddress != buyerAddr {
		t.Fatalf("expected owner %s, got %s", buyerAddr.Hex(), col.OwnerAddress.Hex())
	}

	// The creator may hand off their own role without owning the collection.
	if err := env.svc.TransferCreatorship(ctx, TransferRoleInput{
		Collection: colAddr, Caller: creatorAddr, To: managerAddr,
	}); err != nil {
		t.Fatalf("transfer creatorship: %v", err)
	}
	col, err = env.svc.Get(ctx, colAddr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if col.CreatorAddress != managerAddr {
		t.Fatalf("expected creator %s, got %s", managerAddr.Hex(), col.CreatorAddress.Hex())
	}
}

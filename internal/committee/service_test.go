package committee

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/mintforge/collections-backend/pkg/db"
	"github.com/mintforge/collections-backend/pkg/db/models"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"

	"github.com/mintforge/collections-backend/internal/collection"
	"github.com/mintforge/collections-backend/internal/factory"
	"github.com/mintforge/collections-backend/internal/locker"
	"github.com/mintforge/collections-backend/internal/paytoken"
	"github.com/mintforge/collections-backend/internal/registry"
)

var (
	adminAddr     = evm.MustAddress("0xc000000000000000000000000000000000000001")
	memberAddr    = evm.MustAddress("0xc000000000000000000000000000000000000002")
	creatorUser   = evm.MustAddress("0xc000000000000000000000000000000000000003")
	forwarderAddr = evm.MustAddress("0xc000000000000000000000000000000000000004")
	collectorAddr = evm.MustAddress("0xc000000000000000000000000000000000000005")
	factoryAddr   = evm.MustAddress("0xc000000000000000000000000000000000000006")
	implAddr      = evm.MustAddress("0xc000000000000000000000000000000000000007")

	creationSalt = evm.MustHash("0x00000000000000000000000000000000000000000000000000000000000000aa")
)

type testEnv struct {
	svc      Service
	payToken paytoken.Service
	conn     *gorm.DB
}

func newTestEnv(t *testing.T, fee int64) *testEnv {
	t.Helper()
	return newTestEnvWith(t, fee, nil)
}

// newTestEnvWith optionally wraps the pay token the committee sees while the
// env keeps the real ledger for seeding balances.
func newTestEnvWith(t *testing.T, fee int64, wrapPayToken func(paytoken.Service) paytoken.Service) *testEnv {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.CommitteeMember{},
		&models.FeeTransfer{},
		&models.PayTokenAccount{},
		&models.PayTokenAllowance{},
		&models.Deployment{},
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
		t.Fatalf("registry: %v", err)
	}
	colSvc, err := collection.NewService(collection.NewRepository(conn), client, locks, regSvc, 7*24*time.Hour, collection.Options{})
	if err != nil {
		t.Fatalf("collection: %v", err)
	}
	facSvc, err := factory.NewService(factory.NewRepository(conn), client, locks, colSvc, factoryAddr, implAddr, factory.Options{})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	paySvc, err := paytoken.NewService(paytoken.NewRepository(conn), client, locks)
	if err != nil {
		t.Fatalf("paytoken: %v", err)
	}

	committeePay := paySvc
	if wrapPayToken != nil {
		committeePay = wrapPayToken(paySvc)
	}
	svc, err := NewService(NewRepository(conn), client, facSvc, colSvc, committeePay, Params{
		Forwarder:     forwarderAddr,
		FeesCollector: collectorAddr,
		Admin:         adminAddr,
		CreationFee:   decimal.NewFromInt(fee),
	}, Options{})
	if err != nil {
		t.Fatalf("committee: %v", err)
	}
	return &testEnv{svc: svc, payToken: paySvc, conn: conn}
}

func assertCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	appErr := apperrors.As(err)
	if appErr == nil || appErr.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestSetMember(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 0)

	assertCode(t, env.svc.SetMember(ctx, memberAddr, memberAddr, true), apperrors.CodeForbidden)

	if err := env.svc.SetMember(ctx, adminAddr, memberAddr, true); err != nil {
		t.Fatalf("add member: %v", err)
	}
	member, err := env.svc.IsMember(ctx, memberAddr)
	if err != nil {
		t.Fatalf("is member: %v", err)
	}
	if !member {
		t.Fatal("expected membership")
	}

	assertCode(t, env.svc.SetMember(ctx, adminAddr, memberAddr, true), apperrors.CodeStateConflict)

	if err := env.svc.SetMember(ctx, adminAddr, memberAddr, false); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	assertCode(t, env.svc.SetMember(ctx, adminAddr, memberAddr, false), apperrors.CodeStateConflict)
}

func TestCreateCollectionChargesFee(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 100)

	input := CreateCollectionInput{
		Caller: creatorUser,
		Salt:   creationSalt,
		Init:   factory.InitData{Name: "Wearables", Symbol: "WRB"},
	}

	// No funds, no allowance.
	_, err := env.svc.CreateCollection(ctx, input)
	assertCode(t, err, apperrors.CodeStateConflict)

	if err := env.payToken.Mint(ctx, creatorUser, decimal.NewFromInt(250)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	// Funds but no allowance for the forwarder.
	_, err = env.svc.CreateCollection(ctx, input)
	assertCode(t, err, apperrors.CodeStateConflict)

	if err := env.payToken.Approve(ctx, creatorUser, forwarderAddr, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	result, err := env.svc.CreateCollection(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Owner is the forwarder, creator is the paying user.
	if result.Collection.OwnerAddress != forwarderAddr {
		t.Fatalf("expected forwarder owner, got %s", result.Collection.OwnerAddress.Hex())
	}
	var col models.Collection
	if err := env.conn.Where("id = ?", result.Collection.ID).First(&col).Error; err != nil {
		t.Fatalf("load collection: %v", err)
	}
	if col.CreatorAddress != creatorUser || !col.Initialized {
		t.Fatalf("expected initialized collection created by user, got %+v", col)
	}

	balance, err := env.payToken.BalanceOf(ctx, collectorAddr)
	if err != nil {
		t.Fatalf("collector balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected collected fee 100, got %s", balance)
	}

	var transfers []models.FeeTransfer
	if err := env.conn.Find(&transfers).Error; err != nil {
		t.Fatalf("load fee transfers: %v", err)
	}
	if len(transfers) != 1 || !transfers[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected one fee transfer of 100, got %+v", transfers)
	}
	if transfers[0].CollectionID != result.Collection.ID {
		t.Fatal("fee transfer must reference the new collection")
	}
}

func TestCreateCollectionZeroFeeSkipsLedger(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 0)

	result, err := env.svc.CreateCollection(ctx, CreateCollectionInput{
		Caller: creatorUser,
		Salt:   creationSalt,
		Init:   factory.InitData{Name: "Free", Symbol: "FRE"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Collection.OwnerAddress != forwarderAddr {
		t.Fatalf("expected forwarder owner, got %s", result.Collection.OwnerAddress.Hex())
	}

	var n int64
	if err := env.conn.Model(&models.FeeTransfer{}).Count(&n).Error; err != nil {
		t.Fatalf("count fee transfers: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no fee transfers, found %d", n)
	}
}

func TestManageCollection(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 0)

	result, err := env.svc.CreateCollection(ctx, CreateCollectionInput{
		Caller: creatorUser,
		Salt:   creationSalt,
		Init:   factory.InitData{Name: "Wearables", Symbol: "WRB"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	address := result.Collection.Address

	// Non-members cannot manage.
	assertCode(t, env.svc.ManageCollection(ctx, ManageInput{
		Caller: creatorUser, Collection: address, Approved: false,
	}), apperrors.CodeForbidden)

	if err := env.svc.SetMember(ctx, adminAddr, memberAddr, true); err != nil {
		t.Fatalf("add member: %v", err)
	}

	// Unknown collections are rejected before touching state.
	assertCode(t, env.svc.ManageCollection(ctx, ManageInput{
		Caller: memberAddr, Collection: creatorUser, Approved: false,
	}), apperrors.CodeValidation)

	if err := env.svc.ManageCollection(ctx, ManageInput{
		Caller: memberAddr, Collection: address, Approved: false,
	}); err != nil {
		t.Fatalf("manage: %v", err)
	}

	var col models.Collection
	if err := env.conn.Where("address = ?", address).First(&col).Error; err != nil {
		t.Fatalf("load collection: %v", err)
	}
	if col.Approved {
		t.Fatal("expected approval to be revoked")
	}

	// Redundant toggles surface the state conflict from the collection.
	assertCode(t, env.svc.ManageCollection(ctx, ManageInput{
		Caller: memberAddr, Collection: address, Approved: false,
	}), apperrors.CodeStateConflict)
}

// optimisticPayToken reports coverage regardless of the ledger, standing in
// for a balance drained between the pre-check and the in-transaction draw.
type optimisticPayToken struct {
	paytoken.Service
}

func (optimisticPayToken) CanCover(context.Context, evm.Address, evm.Address, decimal.Decimal) (bool, error) {
	return true, nil
}

func TestCreateCollectionFeeFailureRollsBackDeployment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvWith(t, 100, func(inner paytoken.Service) paytoken.Service {
		return optimisticPayToken{inner}
	})

	_, err := env.svc.CreateCollection(ctx, CreateCollectionInput{
		Caller: creatorUser,
		Salt:   creationSalt,
		Init:   factory.InitData{Name: "Wearables", Symbol: "WRB"},
	})
	assertCode(t, err, apperrors.CodeStateConflict)

	for _, check := range []struct {
		name  string
		model any
	}{
		{"deployments", &models.Deployment{}},
		{"collections", &models.Collection{}},
		{"fee transfers", &models.FeeTransfer{}},
	} {
		var n int64
		if err := env.conn.Model(check.model).Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", check.name, err)
		}
		if n != 0 {
			t.Fatalf("expected no %s after a failed creation, found %d", check.name, n)
		}
	}

	// The salt stays usable once the caller can actually pay.
	if err := env.payToken.Mint(ctx, creatorUser, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := env.payToken.Approve(ctx, creatorUser, forwarderAddr, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := env.svc.CreateCollection(ctx, CreateCollectionInput{
		Caller: creatorUser,
		Salt:   creationSalt,
	}); err != nil {
		t.Fatalf("create after funding: %v", err)
	}
}

package factory

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

	"github.com/mintforge/collections-backend/internal/collection"
	"github.com/mintforge/collections-backend/internal/locker"
	"github.com/mintforge/collections-backend/internal/registry"
)

var (
	factoryAddr = evm.MustAddress("0xf000000000000000000000000000000000000001")
	implAddr    = evm.MustAddress("0xf000000000000000000000000000000000000002")
	deployer    = evm.MustAddress("0xd000000000000000000000000000000000000001")
	otherUser   = evm.MustAddress("0xd000000000000000000000000000000000000002")

	saltA = evm.MustHash("0x0000000000000000000000000000000000000000000000000000000000000001")
	saltB = evm.MustHash("0x0000000000000000000000000000000000000000000000000000000000000002")
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
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
		t.Fatalf("new registry service: %v", err)
	}
	colSvc, err := collection.NewService(collection.NewRepository(conn), client, locks, regSvc, 7*24*time.Hour, collection.Options{})
	if err != nil {
		t.Fatalf("new collection service: %v", err)
	}
	svc, err := NewService(NewRepository(conn), client, locks, colSvc, factoryAddr, implAddr, Options{})
	if err != nil {
		t.Fatalf("new factory service: %v", err)
	}
	return svc, conn
}

func TestComputeAddressDeterminism(t *testing.T) {
	svc, _ := newTestService(t)

	a1, err := svc.ComputeAddress(saltA, deployer)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	a2, err := svc.ComputeAddress(saltA, deployer)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if a1 != a2 {
		t.Fatalf("same inputs produced %s and %s", a1.Hex(), a2.Hex())
	}

	// Different salt or deployer moves the address.
	b, err := svc.ComputeAddress(saltB, deployer)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	c, err := svc.ComputeAddress(saltA, otherUser)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if a1 == b || a1 == c || b == c {
		t.Fatalf("expected distinct addresses, got %s %s %s", a1.Hex(), b.Hex(), c.Hex())
	}

	if _, err := svc.ComputeAddress(saltA, evm.ZeroAddress); err == nil {
		t.Fatal("expected zero deployer to be rejected")
	}
}

func TestCreateCollection(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	predicted, err := svc.ComputeAddress(saltA, deployer)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	result, err := svc.CreateCollection(ctx, CreateCollectionInput{
		Salt: saltA, Deployer: deployer, Owner: deployer,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Collection.Address != predicted {
		t.Fatalf("expected address %s, got %s", predicted.Hex(), result.Collection.Address.Hex())
	}
	if result.Deployment.SaltHash != evm.SaltHash(saltA, deployer) {
		t.Fatalf("unexpected salt hash %s", result.Deployment.SaltHash.Hex())
	}
	if result.Collection.ProofOfCreation != result.Deployment.SaltHash {
		t.Fatal("proof of creation must equal the deployment salt hash")
	}
	if result.Collection.OwnerAddress != deployer || result.Collection.CreatorAddress != deployer {
		t.Fatalf("expected deployer as owner and creator, got %+v", result.Collection)
	}

	deployment, err := svc.GetDeployment(ctx, predicted)
	if err != nil {
		t.Fatalf("get deployment: %v", err)
	}
	if deployment.Implementation != implAddr {
		t.Fatalf("expected implementation %s, got %s", implAddr.Hex(), deployment.Implementation.Hex())
	}
}

func TestCreateCollectionSaltReuse(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.CreateCollection(ctx, CreateCollectionInput{
		Salt: saltA, Deployer: deployer, Owner: deployer,
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.CreateCollection(ctx, CreateCollectionInput{
		Salt: saltA, Deployer: deployer, Owner: otherUser,
	})
	if err == nil {
		t.Fatal("expected salt reuse to fail")
	}
	appErr := apperrors.As(err)
	if appErr == nil || appErr.Code() != apperrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// A different deployer may reuse the same salt.
	if _, err := svc.CreateCollection(ctx, CreateCollectionInput{
		Salt: saltA, Deployer: otherUser, Owner: otherUser,
	}); err != nil {
		t.Fatalf("other deployer create: %v", err)
	}
}

func TestCreateCollectionWithInit(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)

	result, err := svc.CreateCollection(ctx, CreateCollectionInput{
		Salt: saltA, Deployer: deployer, Owner: deployer,
		Init: &InitData{
			Name: "Wearables", Symbol: "WRB", Creator: deployer,
			Items: []collection.ItemInput{
				{Rarity: "common", Price: "0", Metadata: "ipfs://item"},
			},
		},
	})
	if err != nil {
		t.Fatalf("create with init: %v", err)
	}

	var col models.Collection
	if err := conn.Where("address = ?", result.Collection.Address).First(&col).Error; err != nil {
		t.Fatalf("load collection: %v", err)
	}
	if !col.Initialized || col.Name != "Wearables" || col.ItemCount != 1 {
		t.Fatalf("expected initialized collection with one item, got %+v", col)
	}
}

func TestCreateCollectionInitFailureBurnsAddress(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)

	// Missing name fails initialization after the deployment committed.
	_, err := svc.CreateCollection(ctx, CreateCollectionInput{
		Salt: saltA, Deployer: deployer, Owner: deployer,
		Init: &InitData{Symbol: "WRB", Creator: deployer},
	})
	if err == nil {
		t.Fatal("expected init failure")
	}

	var n int64
	if err := conn.Model(&models.Deployment{}).Count(&n).Error; err != nil {
		t.Fatalf("count deployments: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected deployment to persist, found %d", n)
	}

	// The salt stays burned for this deployer.
	_, err = svc.CreateCollection(ctx, CreateCollectionInput{
		Salt: saltA, Deployer: deployer, Owner: deployer,
	})
	appErr := apperrors.As(err)
	if appErr == nil || appErr.Code() != apperrors.CodeConflict {
		t.Fatalf("expected conflict on burned salt, got %v", err)
	}
}

func TestIsValidCollection(t *testing.T) {
	ctx := context.Background()
	svc, conn := newTestService(t)

	result, err := svc.CreateCollection(ctx, CreateCollectionInput{
		Salt: saltA, Deployer: deployer, Owner: deployer,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	valid, err := svc.IsValidCollection(ctx, result.Collection.Address)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !valid {
		t.Fatal("expected deployed collection to validate")
	}

	valid, err = svc.IsValidCollection(ctx, otherUser)
	if err != nil {
		t.Fatalf("validate unknown: %v", err)
	}
	if valid {
		t.Fatal("unknown address must not validate")
	}

	// Tampered provenance must fail the recomputation.
	if err := conn.Model(&models.Deployment{}).
		Where("address = ?", result.Collection.Address).
		Update("salt_hash", evm.SaltHash(saltB, deployer)).Error; err != nil {
		t.Fatalf("tamper: %v", err)
	}
	valid, err = svc.IsValidCollection(ctx, result.Collection.Address)
	if err != nil {
		t.Fatalf("validate tampered: %v", err)
	}
	if valid {
		t.Fatal("tampered provenance must not validate")
	}
}

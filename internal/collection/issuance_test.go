package collection

import (
	"context"
	"testing"
	"time"

	"github.com/mintforge/collections-backend/pkg/db/models"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"
	"github.com/mintforge/collections-backend/pkg/tokenid"
)

func entries(ordinal int64, count int) []IssueEntry {
	out := make([]IssueEntry, count)
	for i := range out {
		out[i] = IssueEntry{Beneficiary: buyerAddr, Ordinal: ordinal}
	}
	return out
}

func countTokens(t *testing.T, env *testEnv) int64 {
	t.Helper()
	var n int64
	if err := env.conn.Model(&models.Token{}).Count(&n).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	return n
}

func TestIssueTokensLifecycleGates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))

	issue := IssueInput{Collection: colAddr, Caller: creatorAddr, Entries: entries(0, 1)}

	// Not completed yet.
	_, err := env.svc.IssueTokens(ctx, issue)
	assertCode(t, err, apperrors.CodeStateConflict)

	if err := env.svc.Complete(ctx, CallerInput{Collection: colAddr, Caller: creatorAddr}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Completed but still inside the grace window.
	_, err = env.svc.IssueTokens(ctx, issue)
	assertCode(t, err, apperrors.CodeStateConflict)

	env.clock.Advance(7*24*time.Hour - time.Minute)
	_, err = env.svc.IssueTokens(ctx, issue)
	assertCode(t, err, apperrors.CodeStateConflict)

	env.clock.Advance(2 * time.Minute)

	// Revoked approval blocks issuance even after the grace window.
	if err := env.svc.SetApproved(ctx, FlagInput{Collection: colAddr, Caller: ownerAddr, Value: false}); err != nil {
		t.Fatalf("revoke approval: %v", err)
	}
	_, err = env.svc.IssueTokens(ctx, issue)
	assertCode(t, err, apperrors.CodeStateConflict)

	if err := env.svc.SetApproved(ctx, FlagInput{Collection: colAddr, Caller: ownerAddr, Value: true}); err != nil {
		t.Fatalf("restore approval: %v", err)
	}
	tokens, err := env.svc.IssueTokens(ctx, issue)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(tokens) != 1 || tokens[0].OwnerAddress != buyerAddr {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestIssueTokensEncodesPackedIDs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"), freeItem("rare"))
	completeAndElapse(t, env)

	tokens, err := env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: creatorAddr,
		Entries: []IssueEntry{
			{Beneficiary: buyerAddr, Ordinal: 1},
			{Beneficiary: buyerAddr, Ordinal: 1},
			{Beneficiary: buyerAddr, Ordinal: 0},
		},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}

	for i, want := range []struct {
		item   uint64
		issued uint64
	}{{1, 1}, {1, 2}, {0, 1}} {
		packed, err := tokenid.EncodeUint64(want.item, want.issued)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if tokens[i].TokenID != tokenid.Hex(packed) {
			t.Fatalf("token %d: expected id %s, got %s", i, tokenid.Hex(packed), tokens[i].TokenID)
		}
		if tokens[i].ItemOrdinal != int64(want.item) || tokens[i].IssuedID != int64(want.issued) {
			t.Fatalf("token %d: unexpected ordinal/issued %+v", i, tokens[i])
		}
	}

	item, err := env.svc.GetItem(ctx, colAddr, 1)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.TotalSupply != 2 {
		t.Fatalf("expected supply 2, got %d", item.TotalSupply)
	}
}

func TestIssueTokensSupplyExhaustion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("mythic"))
	completeAndElapse(t, env)

	tokens, err := env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: creatorAddr,
		Entries: entries(0, 10),
	})
	if err != nil {
		t.Fatalf("issue 10 mythic: %v", err)
	}
	if len(tokens) != 10 {
		t.Fatalf("expected 10 tokens, got %d", len(tokens))
	}

	_, err = env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: creatorAddr,
		Entries: entries(0, 1),
	})
	assertCode(t, err, apperrors.CodeExhausted)

	item, err := env.svc.GetItem(ctx, colAddr, 0)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.TotalSupply != 10 {
		t.Fatalf("expected supply to stay at 10, got %d", item.TotalSupply)
	}
}

func TestIssueTokensBatchAtomicity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("unique"), freeItem("common"))
	completeAndElapse(t, env)

	// The second unique entry exhausts mid-batch; nothing must persist.
	_, err := env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: creatorAddr,
		Entries: []IssueEntry{
			{Beneficiary: buyerAddr, Ordinal: 1},
			{Beneficiary: buyerAddr, Ordinal: 0},
			{Beneficiary: buyerAddr, Ordinal: 0},
		},
	})
	assertCode(t, err, apperrors.CodeExhausted)
	if n := countTokens(t, env); n != 0 {
		t.Fatalf("expected rollback to leave 0 tokens, found %d", n)
	}
	item, err := env.svc.GetItem(ctx, colAddr, 1)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.TotalSupply != 0 {
		t.Fatalf("expected supply 0 after rollback, got %d", item.TotalSupply)
	}

	// Unknown ordinal rejects the batch before any mint.
	_, err = env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: creatorAddr,
		Entries: []IssueEntry{
			{Beneficiary: buyerAddr, Ordinal: 1},
			{Beneficiary: buyerAddr, Ordinal: 9},
		},
	})
	assertCode(t, err, apperrors.CodeNotFound)
	if n := countTokens(t, env); n != 0 {
		t.Fatalf("expected 0 tokens, found %d", n)
	}
}

func TestIssueTokensAuthority(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))
	completeAndElapse(t, env)

	// No grant and no allowance.
	_, err := env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: minterAddr,
		Entries: entries(0, 1),
	})
	assertCode(t, err, apperrors.CodeForbidden)

	// A global minter mints without an allowance row.
	if err := env.svc.SetMinters(ctx, GlobalGrantInput{
		Collection: colAddr, Caller: creatorAddr,
		Addresses: []evm.Address{minterAddr},
		Granted:   []bool{true},
	}); err != nil {
		t.Fatalf("set minters: %v", err)
	}
	if _, err := env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: minterAddr,
		Entries: entries(0, 3),
	}); err != nil {
		t.Fatalf("global minter issue: %v", err)
	}
}

func TestIssueTokensAllowanceDrawdown(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))
	completeAndElapse(t, env)

	if err := env.svc.SetItemMinters(ctx, ItemMinterInput{
		Collection: colAddr, Caller: creatorAddr,
		Ordinals:   []int64{0},
		Addresses:  []evm.Address{minterAddr},
		Allowances: []string{"2"},
	}); err != nil {
		t.Fatalf("set item minters: %v", err)
	}

	// The whole batch exceeds the allowance, so even the covered part fails.
	_, err := env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: minterAddr,
		Entries: entries(0, 3),
	})
	assertCode(t, err, apperrors.CodeForbidden)
	if n := countTokens(t, env); n != 0 {
		t.Fatalf("expected rollback to leave 0 tokens, found %d", n)
	}

	if _, err := env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: minterAddr,
		Entries: entries(0, 2),
	}); err != nil {
		t.Fatalf("issue within allowance: %v", err)
	}
	remaining, err := env.svc.ItemMinterAllowance(ctx, colAddr, 0, minterAddr)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if remaining.Unlimited || !remaining.Remaining.IsZero() {
		t.Fatalf("expected drained allowance, got %+v", remaining)
	}

	_, err = env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: minterAddr,
		Entries: entries(0, 1),
	})
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestIssueTokensUnlimitedAllowanceNeverDecrements(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))
	completeAndElapse(t, env)

	if err := env.svc.SetItemMinters(ctx, ItemMinterInput{
		Collection: colAddr, Caller: creatorAddr,
		Ordinals:   []int64{0},
		Addresses:  []evm.Address{minterAddr},
		Allowances: []string{maxUint256.String()},
	}); err != nil {
		t.Fatalf("set item minters: %v", err)
	}

	if _, err := env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: minterAddr,
		Entries: entries(0, 5),
	}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := env.svc.ItemMinterAllowance(ctx, colAddr, 0, minterAddr)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if !got.Unlimited {
		t.Fatalf("expected allowance to stay unlimited, got %+v", got)
	}
}

func TestIssueTokensLargeBatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"), freeItem("uncommon"), freeItem("rare"))
	completeAndElapse(t, env)

	batch := make([]IssueEntry, 0, 70)
	for i := 0; i < 70; i++ {
		batch = append(batch, IssueEntry{Beneficiary: buyerAddr, Ordinal: int64(i % 3)})
	}
	tokens, err := env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: creatorAddr,
		Entries: batch,
	})
	if err != nil {
		t.Fatalf("issue batch: %v", err)
	}
	if len(tokens) != 70 {
		t.Fatalf("expected 70 tokens, got %d", len(tokens))
	}

	for ordinal := int64(0); ordinal < 3; ordinal++ {
		item, err := env.svc.GetItem(ctx, colAddr, ordinal)
		if err != nil {
			t.Fatalf("get item %d: %v", ordinal, err)
		}
		var want int64 = 23
		if ordinal == 0 {
			want = 24
		}
		if item.TotalSupply != want {
			t.Fatalf("item %d: expected supply %d, got %d", ordinal, want, item.TotalSupply)
		}
	}
}

func TestIssueTokensZeroBeneficiary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	initialize(t, env, freeItem("common"))
	completeAndElapse(t, env)

	_, err := env.svc.IssueTokens(ctx, IssueInput{
		Collection: colAddr, Caller: creatorAddr,
		Entries: []IssueEntry{{Beneficiary: evm.ZeroAddress, Ordinal: 0}},
	})
	assertCode(t, err, apperrors.CodeValidation)
}

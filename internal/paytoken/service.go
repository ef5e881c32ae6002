package paytoken

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/mintforge/collections-backend/pkg/db"
	"github.com/mintforge/collections-backend/pkg/db/models"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"

	"github.com/mintforge/collections-backend/internal/locker"
)

// lockKey serializes all pay token mutations. Transfers touch two accounts,
// so a single ledger-wide critical section sidesteps lock ordering entirely.
const lockKey = "paytoken"

// Service is an ERC-20 style balance ledger for the creation fee token. The
// committee layer is its only internal consumer; the mint path exists so
// operators can seed balances.
type Service interface {
	BalanceOf(ctx context.Context, address evm.Address) (decimal.Decimal, error)
	Allowance(ctx context.Context, owner, spender evm.Address) (decimal.Decimal, error)
	CanCover(ctx context.Context, spender, from evm.Address, amount decimal.Decimal) (bool, error)

	Mint(ctx context.Context, to evm.Address, amount decimal.Decimal) error
	Approve(ctx context.Context, owner, spender evm.Address, amount decimal.Decimal) error
	Transfer(ctx context.Context, from, to evm.Address, amount decimal.Decimal) error
	TransferFrom(ctx context.Context, spender, from, to evm.Address, amount decimal.Decimal) error

	// WithLedgerLock runs fn while holding the ledger lock, so callers can
	// span a TransferFromTx and their own writes with one critical section.
	WithLedgerLock(fn func() error) error
	TransferFromTx(ctx context.Context, tx *gorm.DB, spender, from, to evm.Address, amount decimal.Decimal) error
}

type service struct {
	repo   Repository
	client *dbpkg.Client
	locks  *locker.Keyed
}

// NewService wires a pay token service.
func NewService(repo Repository, client *dbpkg.Client, locks *locker.Keyed) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("paytoken repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if locks == nil {
		locks = locker.NewKeyed()
	}
	return &service{repo: repo, client: client, locks: locks}, nil
}

func (s *service) BalanceOf(ctx context.Context, address evm.Address) (decimal.Decimal, error) {
	account, err := s.repo.FindAccount(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil {
		return decimal.Zero, nil
	}
	return account.Balance, nil
}

func (s *service) Allowance(ctx context.Context, owner, spender evm.Address) (decimal.Decimal, error) {
	allowance, err := s.repo.FindAllowance(ctx, owner, spender)
	if err != nil {
		return decimal.Zero, err
	}
	if allowance == nil {
		return decimal.Zero, nil
	}
	return allowance.Amount, nil
}

// CanCover reports whether from has both the balance and the spender
// allowance for amount. Advisory only; TransferFrom revalidates.
func (s *service) CanCover(ctx context.Context, spender, from evm.Address, amount decimal.Decimal) (bool, error) {
	if amount.IsZero() {
		return true, nil
	}
	balance, err := s.BalanceOf(ctx, from)
	if err != nil {
		return false, err
	}
	if balance.LessThan(amount) {
		return false, nil
	}
	if spender == from {
		return true, nil
	}
	allowance, err := s.Allowance(ctx, from, spender)
	if err != nil {
		return false, err
	}
	return allowance.GreaterThanOrEqual(amount), nil
}

func (s *service) Mint(ctx context.Context, to evm.Address, amount decimal.Decimal) error {
	if to.IsZero() {
		return apperrors.New(apperrors.CodeValidation, "cannot mint to the zero address")
	}
	if !amount.IsPositive() {
		return apperrors.New(apperrors.CodeValidation, "mint amount must be positive")
	}
	return s.withLedger(ctx, func(tx *gorm.DB, repo Repository) error {
		return credit(ctx, repo, to, amount)
	})
}

func (s *service) Approve(ctx context.Context, owner, spender evm.Address, amount decimal.Decimal) error {
	if owner.IsZero() || spender.IsZero() {
		return apperrors.New(apperrors.CodeValidation, "owner and spender are required")
	}
	if amount.IsNegative() {
		return apperrors.New(apperrors.CodeValidation, "allowance cannot be negative")
	}
	return s.withLedger(ctx, func(tx *gorm.DB, repo Repository) error {
		return repo.UpsertAllowance(ctx, owner, spender, amount)
	})
}

func (s *service) Transfer(ctx context.Context, from, to evm.Address, amount decimal.Decimal) error {
	return s.TransferFrom(ctx, from, from, to, amount)
}

// TransferFrom moves amount from from to to on behalf of spender. When the
// spender is not the balance owner the allowance is checked and drawn down.
func (s *service) TransferFrom(ctx context.Context, spender, from, to evm.Address, amount decimal.Decimal) error {
	if err := validateTransfer(from, to, amount); err != nil {
		return err
	}
	return s.withLedger(ctx, func(tx *gorm.DB, repo Repository) error {
		return transferFrom(ctx, repo, spender, from, to, amount)
	})
}

// TransferFromTx is TransferFrom inside the caller's transaction. The caller
// must hold the ledger lock via WithLedgerLock for the transaction's whole
// lifetime.
func (s *service) TransferFromTx(ctx context.Context, tx *gorm.DB, spender, from, to evm.Address, amount decimal.Decimal) error {
	if tx == nil {
		return apperrors.New(apperrors.CodeInternal, "transaction required")
	}
	if err := validateTransfer(from, to, amount); err != nil {
		return err
	}
	return transferFrom(ctx, s.repo.WithTx(tx), spender, from, to, amount)
}

func (s *service) WithLedgerLock(fn func() error) error {
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)
	return fn()
}

func validateTransfer(from, to evm.Address, amount decimal.Decimal) error {
	if from.IsZero() || to.IsZero() {
		return apperrors.New(apperrors.CodeValidation, "transfer endpoints cannot be the zero address")
	}
	if !amount.IsPositive() {
		return apperrors.New(apperrors.CodeValidation, "transfer amount must be positive")
	}
	return nil
}

func transferFrom(ctx context.Context, repo Repository, spender, from, to evm.Address, amount decimal.Decimal) error {
	if spender != from {
		allowance, err := repo.FindAllowance(ctx, from, spender)
		if err != nil {
			return err
		}
		if allowance == nil || allowance.Amount.LessThan(amount) {
			return apperrors.New(apperrors.CodeStateConflict, "insufficient allowance")
		}
		if err := repo.UpsertAllowance(ctx, from, spender, allowance.Amount.Sub(amount)); err != nil {
			return err
		}
	}

	account, err := repo.FindAccount(ctx, from)
	if err != nil {
		return err
	}
	if account == nil || account.Balance.LessThan(amount) {
		return apperrors.New(apperrors.CodeStateConflict, "insufficient balance")
	}
	if err := repo.UpdateBalance(ctx, from, account.Balance.Sub(amount)); err != nil {
		return err
	}
	return credit(ctx, repo, to, amount)
}

func (s *service) withLedger(ctx context.Context, fn func(tx *gorm.DB, repo Repository) error) error {
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(tx, s.repo.WithTx(tx))
	})
}

func credit(ctx context.Context, repo Repository, to evm.Address, amount decimal.Decimal) error {
	account, err := repo.FindAccount(ctx, to)
	if err != nil {
		return err
	}
	if account == nil {
		return repo.CreateAccount(ctx, &models.PayTokenAccount{Address: to, Balance: amount})
	}
	return repo.UpdateBalance(ctx, to, account.Balance.Add(amount))
}

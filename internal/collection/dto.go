package collection

import (
	"github.com/mintforge/collections-backend/pkg/evm"
)

// ItemInput is one catalogue entry as supplied by creators.
type ItemInput struct {
	Rarity      string `json:"rarity" validate:"required"`
	Price       string `json:"price" validate:"required"`
	Beneficiary string `json:"beneficiary" validate:"required"`
	Metadata    string `json:"metadata" validate:"required"`
}

// CreateInput registers a freshly deployed proxy. Only the factory calls it.
type CreateInput struct {
	Address         evm.Address
	ProofOfCreation evm.Hash
	Owner           evm.Address
}

// InitializeInput configures a collection exactly once.
type InitializeInput struct {
	Collection     evm.Address
	Caller         evm.Address
	Name           string
	Symbol         string
	BaseURI        string
	Creator        evm.Address
	ShouldComplete bool
	IsEditable     bool
	Items          []ItemInput
}

// AddItemsInput appends catalogue entries.
type AddItemsInput struct {
	Collection evm.Address
	Caller     evm.Address
	Items      []ItemInput
}

// SalesDataUpdate changes price and beneficiary for one item.
type SalesDataUpdate struct {
	Ordinal     int64  `json:"ordinal"`
	Price       string `json:"price" validate:"required"`
	Beneficiary string `json:"beneficiary" validate:"required"`
}

// EditSalesDataInput batches sales data updates.
type EditSalesDataInput struct {
	Collection evm.Address
	Caller     evm.Address
	Updates    []SalesDataUpdate
}

// MetadataUpdate changes the metadata string for one item.
type MetadataUpdate struct {
	Ordinal  int64  `json:"ordinal"`
	Metadata string `json:"metadata" validate:"required"`
}

// EditMetadataInput batches metadata updates.
type EditMetadataInput struct {
	Collection evm.Address
	Caller     evm.Address
	Updates    []MetadataUpdate
}

// RescueUpdate is an owner-side correction of one item. Empty metadata keeps
// the existing value.
type RescueUpdate struct {
	Ordinal     int64  `json:"ordinal"`
	Metadata    string `json:"metadata"`
	ContentHash string `json:"content_hash"`
}

// RescueInput batches rescue corrections.
type RescueInput struct {
	Collection evm.Address
	Caller     evm.Address
	Updates    []RescueUpdate
}

// FlagInput toggles a lifecycle flag.
type FlagInput struct {
	Collection evm.Address
	Caller     evm.Address
	Value      bool
}

// BaseURIInput replaces the collection base URI.
type BaseURIInput struct {
	Collection evm.Address
	Caller     evm.Address
	BaseURI    string
}

// CallerInput carries operations that need no payload beyond the caller.
type CallerInput struct {
	Collection evm.Address
	Caller     evm.Address
}

// TransferRoleInput moves ownership or creatorship to a new address.
type TransferRoleInput struct {
	Collection evm.Address
	Caller     evm.Address
	To         evm.Address
}

// GlobalGrantInput batches collection-wide minter or manager toggles.
type GlobalGrantInput struct {
	Collection evm.Address
	Caller     evm.Address
	Addresses  []evm.Address
	Granted    []bool
}

// ItemMinterInput batches per-item mint allowance writes. Allowances are wire
// strings so the max-uint256 sentinel survives intact.
type ItemMinterInput struct {
	Collection evm.Address
	Caller     evm.Address
	Ordinals   []int64
	Addresses  []evm.Address
	Allowances []string
}

// ItemManagerInput batches per-item manager toggles.
type ItemManagerInput struct {
	Collection evm.Address
	Caller     evm.Address
	Ordinals   []int64
	Addresses  []evm.Address
	Granted    []bool
}

// IssueEntry mints one token of one item to a beneficiary.
type IssueEntry struct {
	Beneficiary evm.Address `json:"beneficiary"`
	Ordinal     int64       `json:"ordinal"`
}

// IssueInput batches issuances into one transaction.
type IssueInput struct {
	Collection evm.Address
	Caller     evm.Address
	Entries    []IssueEntry
}

package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCollection      OutboxAggregateType = "collection"
	AggregateItem            OutboxAggregateType = "item"
	AggregateToken           OutboxAggregateType = "token"
	AggregateDeployment      OutboxAggregateType = "deployment"
	AggregateCommitteeMember OutboxAggregateType = "committee_member"
	AggregateFeeTransfer     OutboxAggregateType = "fee_transfer"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCollection,
	AggregateItem,
	AggregateToken,
	AggregateDeployment,
	AggregateCommitteeMember,
	AggregateFeeTransfer,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres. One value per
// observable domain event the platform emits.
type OutboxEventType string

const (
	EventProxyCreated           OutboxEventType = "proxy_created"
	EventCollectionInitialized  OutboxEventType = "collection_initialized"
	EventItemAdded              OutboxEventType = "item_added"
	EventItemSalesDataUpdated   OutboxEventType = "item_sales_data_updated"
	EventItemMetadataUpdated    OutboxEventType = "item_metadata_updated"
	EventItemRescued            OutboxEventType = "item_rescued"
	EventApprovalChanged        OutboxEventType = "approval_changed"
	EventCollectionCompleted    OutboxEventType = "collection_completed"
	EventEditableChanged        OutboxEventType = "editable_changed"
	EventBaseURIChanged         OutboxEventType = "base_uri_changed"
	EventCreatorshipTransferred OutboxEventType = "creatorship_transferred"
	EventOwnershipTransferred   OutboxEventType = "ownership_transferred"
	EventMinterSet              OutboxEventType = "minter_set"
	EventItemMinterSet          OutboxEventType = "item_minter_set"
	EventManagerSet             OutboxEventType = "manager_set"
	EventItemManagerSet         OutboxEventType = "item_manager_set"
	EventTokenIssued            OutboxEventType = "token_issued"
	EventTokenTransferred       OutboxEventType = "token_transferred"
	EventTokenApproved          OutboxEventType = "token_approved"
	EventOperatorSet            OutboxEventType = "operator_set"
	EventCommitteeMemberSet     OutboxEventType = "committee_member_set"
	EventCreationFeeCollected   OutboxEventType = "creation_fee_collected"
)

var validOutboxEventTypes = []OutboxEventType{
	EventProxyCreated,
	EventCollectionInitialized,
	EventItemAdded,
	EventItemSalesDataUpdated,
	EventItemMetadataUpdated,
	EventItemRescued,
	EventApprovalChanged,
	EventCollectionCompleted,
	EventEditableChanged,
	EventBaseURIChanged,
	EventCreatorshipTransferred,
	EventOwnershipTransferred,
	EventMinterSet,
	EventItemMinterSet,
	EventManagerSet,
	EventItemManagerSet,
	EventTokenIssued,
	EventTokenTransferred,
	EventTokenApproved,
	EventOperatorSet,
	EventCommitteeMemberSet,
	EventCreationFeeCollected,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

package enums

// OutboxEventType names a domain event queued for publication.
type OutboxEventType string

const (
	EventStockReceived         OutboxEventType = "stock.received"
	EventStockAdjusted         OutboxEventType = "stock.adjusted"
	EventStockConsumed         OutboxEventType = "stock.consumed"
	EventTransferCreated       OutboxEventType = "transfer.created"
	EventTransferReviewed      OutboxEventType = "transfer.reviewed"
	EventTransferShipped       OutboxEventType = "transfer.shipped"
	EventTransferReceived      OutboxEventType = "transfer.received"
	EventTransferCancelled     OutboxEventType = "transfer.cancelled"
	EventTransferReversed      OutboxEventType = "transfer.reversed"
	EventTransferReprioritized OutboxEventType = "transfer.reprioritized"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateBranchStock OutboxAggregateType = "branch_stock"
	AggregateTransfer    OutboxAggregateType = "transfer"
)

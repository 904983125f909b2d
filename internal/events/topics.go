package events

// Topics emitted by the POS domain.
const (
	TopicSaleCompleted = "sale.completed"
	TopicSaleCancelled = "sale.cancelled"
	TopicStockLow      = "stock.low"
)

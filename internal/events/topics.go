package events

// Topic constants for domain events emitted by the pricing pipeline.
const (
	TopicDiscountCreated = "discount.created"
	TopicDiscountUpdated = "discount.updated"
	TopicDiscountDeleted = "discount.deleted"
	TopicDishRepriced    = "dish.repriced"
	TopicCartRepriced    = "cart.repriced"
	TopicCartStale       = "cart.stale"
)

package websocket

// Event names pushed over the hub.
const (
	// Booking events
	EventBookingCreated   = "booking:created"
	EventBookingConfirmed = "booking:confirmed"
	EventBookingCancelled = "booking:cancelled"
	EventBookingCheckedIn = "booking:checked_in"

	// Cafe order events
	EventOrderCreated = "order:created"
	EventOrderStatus  = "order:status"

	// Credit events
	EventCreditsAllocated = "credits:allocated"
	EventCreditsExpired   = "credits:expired"
)

// BookingEvent is the payload for booking lifecycle events.
type BookingEvent struct {
	BookingID     uint   `json:"booking_id"`
	Reference     string `json:"reference"`
	WorkspaceID   uint   `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
	BookingDate   string `json:"booking_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
}

// OrderEvent is the payload for cafe order lifecycle events.
type OrderEvent struct {
	OrderID uint   `json:"order_id"`
	Number  string `json:"number"`
	Status  string `json:"status"`
	Total   string `json:"total"`
}

// CreditEvent signals an allocation or expiration to the owning user.
type CreditEvent struct {
	CreditType string `json:"credit_type"`
	Amount     string `json:"amount"`
	Reason     string `json:"reason"`
}

package domain

type CheckoutState int

const (
	CheckoutIdle CheckoutState = iota
	CheckoutProcessing
	CheckoutCompleted
)

func (s CheckoutState) String() string {
	switch s {
	case CheckoutIdle:
		return "idle"
	case CheckoutProcessing:
		return "processing"
	case CheckoutCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

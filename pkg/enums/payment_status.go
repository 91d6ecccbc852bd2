package enums

// PaymentStatus tracks a gateway transaction. Only initialized rows are
// picked up by verification and reconciliation.
type PaymentStatus string

const (
	PaymentStatusInitialized PaymentStatus = "initialized"
	PaymentStatusSuccess     PaymentStatus = "success"
	PaymentStatusFailed      PaymentStatus = "failed"
	PaymentStatusAbandoned   PaymentStatus = "abandoned"
)

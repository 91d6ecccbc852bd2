package enums

// PaymentMethod describes how a customer settles an order.
type PaymentMethod string

const (
	PaymentMethodPaystack       PaymentMethod = "paystack"
	PaymentMethodCashOnDelivery PaymentMethod = "cod"
)

var paymentMethods = values[PaymentMethod]{PaymentMethodPaystack, PaymentMethodCashOnDelivery}

func (p PaymentMethod) String() string { return string(p) }

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	return paymentMethods.parse("payment method", raw)
}

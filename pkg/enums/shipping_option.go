package enums

// ShippingOption is the delivery speed a customer picks when shipping is not free.
type ShippingOption string

const (
	ShippingOptionStandard ShippingOption = "standard"
	ShippingOptionExpress  ShippingOption = "express"
)

var shippingOptions = values[ShippingOption]{ShippingOptionStandard, ShippingOptionExpress}

func (s ShippingOption) String() string { return string(s) }

func ParseShippingOption(raw string) (ShippingOption, error) {
	return shippingOptions.parse("shipping option", raw)
}

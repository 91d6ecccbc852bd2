package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancel, true},
		{OrderStatusProcessing, OrderStatusDelivered, true},
		{OrderStatusProcessing, OrderStatusCancel, true},
		{OrderStatusPending, OrderStatusPending, true},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusCancel, OrderStatusProcessing, false},
		{OrderStatusDelivered, OrderStatusCancel, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusDelivered.IsTerminal() || !OrderStatusCancel.IsTerminal() {
		t.Fatalf("delivered and cancel should be terminal")
	}
	if OrderStatusPending.IsTerminal() {
		t.Fatalf("pending should not be terminal")
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	got, err := ParseOrderStatus("cancel")
	if err != nil || got != OrderStatusCancel {
		t.Fatalf("unexpected parse result %v %v", got, err)
	}
}

func TestParseRejectsCaseVariants(t *testing.T) {
	if _, err := ParseShippingOption("Express"); err == nil {
		t.Fatalf("shipping option parsing should be exact")
	}
	if got, err := ParsePaymentMethod("cod"); err != nil || got != PaymentMethodCashOnDelivery {
		t.Fatalf("unexpected parse result %v %v", got, err)
	}
	if _, err := ParseCouponStatus(""); err == nil {
		t.Fatalf("empty coupon status should fail")
	}
}

func TestPaymentMethodString(t *testing.T) {
	if PaymentMethodPaystack.String() != "paystack" || PaymentMethodCashOnDelivery.String() != "cod" {
		t.Fatalf("unexpected payment method strings %q %q", PaymentMethodPaystack, PaymentMethodCashOnDelivery)
	}
}

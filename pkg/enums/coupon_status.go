package enums

// CouponStatus toggles whether a coupon may be redeemed at all.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
)

var couponStatuses = values[CouponStatus]{CouponStatusActive, CouponStatusInactive}

func ParseCouponStatus(raw string) (CouponStatus, error) {
	return couponStatuses.parse("coupon status", raw)
}

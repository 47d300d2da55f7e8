package models

// ProportionalRefund computes the refund in cents for cancelling k of n seats
// on a booking priced at totalCents: totalCents * k / n, rounded to the
// nearest cent with ties going to the even cent (banker's rounding).
func ProportionalRefund(totalCents int64, cancelled, original int) int64 {
	if original <= 0 || cancelled <= 0 {
		return 0
	}
	if cancelled >= original {
		return totalCents
	}

	numerator := totalCents * int64(cancelled)
	n := int64(original)
	quotient := numerator / n
	remainder := numerator % n

	switch {
	case 2*remainder > n:
		return quotient + 1
	case 2*remainder < n:
		return quotient
	case quotient%2 != 0:
		// exactly half a cent, round to even
		return quotient + 1
	default:
		return quotient
	}
}

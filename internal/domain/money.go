package domain

import "fmt"

// Money is an amount in integer paise (minor currency units). Balances,
// stakes, and payouts are carried in paise end-to-end; conversion to rupees
// happens only at the display boundary via String.
type Money int64

// String formats the amount as rupees with two decimal places.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, v/100, v%100)
}

package fees

import (
	"fmt"

	"github.com/holiman/uint256"
)

// BpsDenominator is the basis point scale: 10_000 bps equals 100%.
const BpsDenominator = 10_000

// MaxBps is the largest fee rate accepted by ValidateBps.
const MaxBps uint16 = BpsDenominator

// ValidateBps rejects fee rates above 100%.
func ValidateBps(field string, bps uint16) error {
	if bps > MaxBps {
		return fmt.Errorf("fees: %s %d exceeds %d bps", field, bps, MaxBps)
	}
	return nil
}

// Result summarises the outcome of applying a basis point rate to a gross
// amount. Fee + Net always equals Gross.
type Result struct {
	Gross uint64
	Fee   uint64
	Net   uint64
}

// Apply computes fee = gross * bps / 10_000 with a 256-bit intermediate so the
// product never overflows, rounding toward zero. The fee is clamped to gross
// for rates above 100%.
func Apply(gross uint64, bps uint16) Result {
	result := Result{Gross: gross, Net: gross}
	if gross == 0 || bps == 0 {
		return result
	}
	fee := Fee(gross, bps)
	if fee >= gross {
		result.Fee = gross
		result.Net = 0
		return result
	}
	result.Fee = fee
	result.Net = gross - fee
	return result
}

// Fee returns gross * bps / 10_000, multiplying first.
func Fee(gross uint64, bps uint16) uint64 {
	product := new(uint256.Int).Mul(uint256.NewInt(gross), uint256.NewInt(uint64(bps)))
	product.Div(product, uint256.NewInt(BpsDenominator))
	if !product.IsUint64() {
		return gross
	}
	return product.Uint64()
}

package staking

import "github.com/holiman/uint256"

const (
	// CalcDecimals scales accumulatedRewardPerShare fixed-point math.
	CalcDecimals = 1_000_000_000_000 // 10^12

	// BasisPointsDivisor expresses aprBasisPoints as hundredths of a percent.
	BasisPointsDivisor = 10_000

	// SecondsPerYear is 365.25 days, matching spec.md's accrual denominator.
	SecondsPerYear = 31_557_600
)

var (
	calcDecimalsU256 = uint256.NewInt(CalcDecimals)
	basisDivisorU256 = uint256.NewInt(BasisPointsDivisor)
	secondsPerYearU  = uint256.NewInt(SecondsPerYear)
)

// mulDivFloor computes floor(a*b/d) using uint256 intermediates so that the
// multiplication never truncates before the division, per spec.md §9. The
// caller is responsible for ensuring the product fits in 256 bits; token
// amounts and ARPS in this domain never approach that bound.
func mulDivFloor(a, b, d *uint256.Int) *uint256.Int {
	product := new(uint256.Int).Mul(a, b)
	return new(uint256.Int).Div(product, d)
}

// accrualIncrement computes CALC_DECIMALS * dt * aprBps / 10000 / SECONDS_PER_YEAR,
// multiplying before dividing exactly as spec.md §4.1 step 2 requires.
func accrualIncrement(dtSeconds uint64, aprBps uint64) *uint256.Int {
	dt := uint256.NewInt(dtSeconds)
	apr := uint256.NewInt(aprBps)

	numerator := new(uint256.Int).Mul(calcDecimalsU256, dt)
	numerator.Mul(numerator, apr)
	numerator.Div(numerator, basisDivisorU256)
	numerator.Div(numerator, secondsPerYearU)
	return numerator
}

// shareOfPrincipal computes floor(amount*arps/CALC_DECIMALS), the quantity
// subtracted to/from rewardDebt throughout the engine.
func shareOfPrincipal(amount, arps *uint256.Int) *uint256.Int {
	return mulDivFloor(amount, arps, calcDecimalsU256)
}

func u256(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func cloneU256(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(v)
}

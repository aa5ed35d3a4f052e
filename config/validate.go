package config

import "fmt"

// MaxAprBasisPoints bounds PoolParams.AprBasisPoints in a loaded config or
// overlay to a sane ceiling (1000%); the engine's SetApr and the RPC setApr
// method have no such limit, so only operator-authored files are checked.
const MaxAprBasisPoints = 100_000

// MinHarvestIntervalSeconds is the smallest nonzero harvest cooldown a config
// or overlay may set. Zero is accepted and disables the cooldown; a nonzero
// value below this is rejected as a likely typo.
const MinHarvestIntervalSeconds = 60

func ValidateConfig(g Global) error {
	if g.Pool.AprBasisPoints > MaxAprBasisPoints {
		return fmt.Errorf("pool: apr_basis_points exceeds %d", MaxAprBasisPoints)
	}
	if g.Pool.HarvestIntervalSeconds != 0 && g.Pool.HarvestIntervalSeconds < MinHarvestIntervalSeconds {
		return fmt.Errorf("pool: harvest_interval_seconds below %d", MinHarvestIntervalSeconds)
	}
	return nil
}

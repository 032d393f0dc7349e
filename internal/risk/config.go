package risk

// Thresholds carries the tunable constants of the risk rules. The defaults
// mirror the values the detection rules were originally calibrated with;
// they are configuration, not derived truths.
type Thresholds struct {
	// WhiteHorseCompanies is the number of distinct companies a single
	// person must manage or own before the shared-director rule fires.
	WhiteHorseCompanies int

	// WhiteHorseFloor is the minimum risk score applied to a flagged person.
	WhiteHorseFloor float64

	// CycleFloor is the minimum risk score applied to every company on a
	// circular-ownership cycle.
	CycleFloor float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		WhiteHorseCompanies: 5,
		WhiteHorseFloor:     5,
		CycleFloor:          6,
	}
}

package services

import "math"

// ExperienceLedger computes level thresholds and applies experience
// deltas. Pure arithmetic, no I/O: the persistence layer feeds it a
// snapshot and writes back the result.
type ExperienceLedger struct {
	BaseXP     int
	Multiplier float64
}

func NewExperienceLedger(cfg EngagementConfig) ExperienceLedger {
	return ExperienceLedger{BaseXP: cfg.BaseXP, Multiplier: cfg.LevelMultiplier}
}

// Progress is the ledger's view of a group user.
type Progress struct {
	Level      int
	Experience int
}

// RequiredExperience returns the XP needed to leave the given level:
// round(BaseXP * Multiplier^(level-1)). Rounded, not floored.
func (l ExperienceLedger) RequiredExperience(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Round(float64(l.BaseXP) * math.Pow(l.Multiplier, float64(level-1))))
}

// Apply adds delta XP and performs at most one level-up step, subtracting
// the crossed threshold from the experience pool. A single event never
// absorbs two thresholds at once; with per-message deltas far below any
// threshold the invariant experience < RequiredExperience(level) holds
// after every apply.
func (l ExperienceLedger) Apply(p Progress, delta int) (Progress, bool) {
	if p.Level < 1 {
		p.Level = 1
	}
	p.Experience += delta

	required := l.RequiredExperience(p.Level)
	if p.Experience >= required {
		p.Level++
		p.Experience -= required
		return p, true
	}
	return p, false
}

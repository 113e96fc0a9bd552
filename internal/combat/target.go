package combat

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	// RosterSize is the fixed number of simulated targets per session.
	RosterSize = 6

	// Fresh target hit points are rolled uniformly from [TargetMinHP, TargetMaxHP].
	TargetMinHP = 60
	TargetMaxHP = 150
)

var callsigns = [RosterSize]string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"}

// Target is one simulated enemy in the roster.
type Target struct {
	ID       string
	Callsign string
	HP       int
	MaxHP    int
}

// Dead reports whether the target has been destroyed.
func (t *Target) Dead() bool { return t.HP <= 0 }

// newRoster builds the fixed six-target roster with freshly rolled HP.
func newRoster(rng *rand.Rand) []*Target {
	roster := make([]*Target, RosterSize)
	for i := range roster {
		hp := rollHP(rng)
		roster[i] = &Target{
			ID:       fmt.Sprintf("target-%d", i+1),
			Callsign: callsigns[i],
			HP:       hp,
			MaxHP:    hp,
		}
	}
	return roster
}

func rollHP(rng *rand.Rand) int {
	return TargetMinHP + rng.Intn(TargetMaxHP-TargetMinHP+1)
}

// resolveTarget maps a detection id to a roster target. The scheme is a
// two-step lookup: a trailing numeric suffix indexes the ordinal callsign
// (1-based), and if that fails the id is compared case-insensitively against
// each callsign. The suffix parse is intentionally permissive about what
// precedes the digits, so detector label schemes can vary.
func resolveTarget(roster []*Target, id string) *Target {
	if n, ok := trailingNumber(id); ok && n >= 1 && n <= len(roster) {
		return roster[n-1]
	}
	for _, t := range roster {
		if strings.EqualFold(t.Callsign, id) {
			return t
		}
	}
	return nil
}

// trailingNumber extracts the run of decimal digits at the end of s.
func trailingNumber(s string) (int, bool) {
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n := 0
	for _, c := range s[start:end] {
		n = n*10 + int(c-'0')
		if n > RosterSize*1000 {
			return 0, false
		}
	}
	return n, true
}

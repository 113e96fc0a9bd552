package combat

import "time"

// Class defines the per-loadout combat tuning. The three classes trade rate
// of fire against per-shot damage.
type Class struct {
	ID       string
	Name     string
	MaxAmmo  int
	Cooldown time.Duration
	Damage   int
}

var (
	// Interceptor: light class, high rate of fire, low damage.
	Interceptor = Class{ID: "interceptor", Name: "Interceptor", MaxAmmo: 90, Cooldown: 200 * time.Millisecond, Damage: 10}
	// Vanguard: standard class and the default loadout.
	Vanguard = Class{ID: "vanguard", Name: "Vanguard", MaxAmmo: 30, Cooldown: 500 * time.Millisecond, Damage: 25}
	// Juggernaut: heavy class, slow and hard hitting.
	Juggernaut = Class{ID: "juggernaut", Name: "Juggernaut", MaxAmmo: 15, Cooldown: time.Second, Damage: 60}
)

var classesByID = map[string]Class{
	Interceptor.ID: Interceptor,
	Vanguard.ID:    Vanguard,
	Juggernaut.ID:  Juggernaut,
}

// ClassByID resolves a loadout id, falling back to Vanguard for unknown or
// empty ids.
func ClassByID(id string) Class {
	if c, ok := classesByID[id]; ok {
		return c
	}
	return Vanguard
}

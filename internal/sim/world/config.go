package world

type WorldConfig struct {
	ID         string
	TickRateHz int
	ObsRadius  int
	Height     int
	Seed       int64
	BoundaryR  int

	// Floor of generated stone at the bottom of every column.
	FloorY int

	ButtonHoldTicks int

	// Operational parameters. Included in snapshots for deterministic resume.
	SnapshotEveryTicks int
	RateLimits         RateLimitConfig
}

type RateLimitConfig struct {
	PlaceWindowTicks    int
	PlaceMax            int
	InteractWindowTicks int
	InteractMax         int
}

func (c *WorldConfig) applyDefaults() {
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
	if c.ObsRadius <= 0 {
		c.ObsRadius = 7
	}
	if c.Height <= 0 {
		c.Height = 64
	}
	if c.BoundaryR <= 0 {
		c.BoundaryR = 256
	}
	if c.FloorY <= 0 {
		c.FloorY = 4
	}
	if c.ButtonHoldTicks <= 0 {
		c.ButtonHoldTicks = 10
	}
	if c.SnapshotEveryTicks <= 0 {
		c.SnapshotEveryTicks = 3000
	}
	c.RateLimits.applyDefaults()
}

func (rl *RateLimitConfig) applyDefaults() {
	if rl.PlaceWindowTicks <= 0 {
		rl.PlaceWindowTicks = 10
	}
	if rl.PlaceMax <= 0 {
		rl.PlaceMax = 40
	}
	if rl.InteractWindowTicks <= 0 {
		rl.InteractWindowTicks = 10
	}
	if rl.InteractMax <= 0 {
		rl.InteractMax = 20
	}
}

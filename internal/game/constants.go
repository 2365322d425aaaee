package game

// Table and shot parameters for the mini-billiards table.
// Geometry must match the reference client exactly; changing any of these
// changes every shot outcome.

const (
	TableWidth  = 15.0
	TableHeight = 8.0

	PocketRadius = 0.5
	BallRadius   = 0.3

	NumBalls   = 7 // index 0 is the cue ball
	NumPockets = 6

	ChargeTime     = 1.0 // seconds held for a full-power shot
	TargetTickRate = 60

	cushionDamping = 0.15 // speed fraction lost per cushion reflection, scaled by incidence
	impactDamping  = 0.95 // speed retained after a ball-ball impact
	swapBlend      = 0.85 // weight of the swapped normal component in collision response
	rollDecay      = 0.05 // speed lost per second, in table widths
)

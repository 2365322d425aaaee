package game

import (
	"log"
	"math"
)

// BallState is a ball's externally visible state for serialization.
type BallState struct {
	Index    int     `json:"index"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Speed    float64 `json:"speed"`
	Pocketed bool    `json:"pocketed"`
}

// TableSnapshot is the full externally visible simulation state.
type TableSnapshot struct {
	Balls          [NumBalls]BallState `json:"balls"`
	Charging       bool                `json:"charging"`
	ChargeProgress float64             `json:"charge_progress"`
	BallsMoving    bool                `json:"balls_moving"`
}

// Simulation advances one table and its shot input state machine on a fixed
// tick. It is not safe for concurrent use; the owning session serializes all
// calls.
type Simulation struct {
	table *Table
	scene Scene
	host  Host

	charging       bool
	chargeProgress float64
	ballsMoving    bool

	// Optional event hooks, invoked synchronously from the tick.
	OnShot   func(aim Vec2, power float64)
	OnPocket func(ballIndex int)
	OnReset  func()
}

// NewSimulation creates a simulation bound to a scene service. host may be
// nil when no engine-side service exists (headless hosting).
func NewSimulation(scene Scene, host Host) *Simulation {
	return &Simulation{
		table: NewTable(scene),
		scene: scene,
		host:  host,
	}
}

// Init sets up the host tick rate and background, then racks the table.
func (s *Simulation) Init() error {
	if s.host != nil {
		s.host.SetTargetTickRate(TargetTickRate)
	}
	s.scene.SetupBackground(TableWidth, TableHeight)
	return s.table.Init()
}

// Deinit tears down the table and clears the shot state machine.
func (s *Simulation) Deinit() {
	s.table.Deinit()
	s.charging = false
	s.chargeProgress = 0
	s.ballsMoving = false
}

func (s *Simulation) Table() *Table { return s.table }

func (s *Simulation) BallsMoving() bool { return s.ballsMoving }

func (s *Simulation) Charging() bool { return s.charging }

func (s *Simulation) ChargeProgress() float64 { return s.chargeProgress }

// Update advances the simulation by dt seconds: charge accumulation first,
// then the per-ball pipeline in index order, then the settle check.
func (s *Simulation) Update(dt float64) {
	if s.charging {
		s.chargeProgress = math.Min(s.chargeProgress+dt/ChargeTime, 1)
	}
	s.scene.UpdateProgressBar(s.chargeProgress)

	if !s.ballsMoving {
		return
	}

	for i := 0; i < NumBalls; i++ {
		if s.table.Pocketed[i] {
			continue
		}
		if s.moveBall(i, dt) {
			// Sinking the cue ball reset the table; the rest of this
			// tick's ball processing is discarded.
			break
		}
	}

	if s.table.SpeedSum() == 0 {
		s.ballsMoving = false
	}
}

// PressStart begins charging a shot. Ignored while balls are in motion.
func (s *Simulation) PressStart(x, y float64) {
	if s.ballsMoving {
		return
	}
	s.charging = true
}

// PressEnd releases the shot: the cue ball is aimed from its position toward
// the release point and launched at chargeProgress * TableWidth. A release
// exactly on the cue ball has no direction, so the shot is discarded.
// Ignored while balls are in motion; either way the charge state resets.
func (s *Simulation) PressEnd(x, y float64) {
	if s.ballsMoving {
		return
	}

	aim := NewVec2(x, y).Minus(s.table.Positions[0])
	if !aim.IsZero() {
		power := s.chargeProgress * TableWidth
		s.table.Directions[0] = aim.Normalize()
		s.table.Speeds[0] = power
		s.ballsMoving = true
		if s.OnShot != nil {
			s.OnShot(s.table.Directions[0], power)
		}
	}

	s.charging = false
	s.chargeProgress = 0
}

// isInPocket reports whether the ball's center lies within the capture
// radius of any pocket.
func (s *Simulation) isInPocket(i int) bool {
	pos := s.table.Positions[i]
	for _, p := range s.table.pockets {
		if p.Minus(pos).Length() <= PocketRadius {
			return true
		}
	}
	return false
}

// checkBorders clamps the ball inside the cushions. Each axis is handled
// independently, so a corner hit can reflect and damp both in one tick.
// Damping scales with how squarely the ball meets the cushion and never
// drives speed negative.
func (s *Simulation) checkBorders(i int) {
	t := s.table
	limitX := 0.5*TableWidth - BallRadius
	limitY := 0.5*TableHeight - BallRadius

	if t.Positions[i].Y < -limitY {
		t.Positions[i].Y = -limitY
		t.Speeds[i] -= cushionDamping * t.Speeds[i] * (1 + math.Abs(t.Directions[i].Y))
		t.Directions[i] = t.Directions[i].InvertY()
	}
	if t.Positions[i].Y > limitY {
		t.Positions[i].Y = limitY
		t.Speeds[i] -= cushionDamping * t.Speeds[i] * (1 + math.Abs(t.Directions[i].Y))
		t.Directions[i] = t.Directions[i].InvertY()
	}
	if t.Positions[i].X < -limitX {
		t.Positions[i].X = -limitX
		t.Speeds[i] -= cushionDamping * t.Speeds[i] * (1 + math.Abs(t.Directions[i].X))
		t.Directions[i] = t.Directions[i].InvertX()
	}
	if t.Positions[i].X > limitX {
		t.Positions[i].X = limitX
		t.Speeds[i] -= cushionDamping * t.Speeds[i] * (1 + math.Abs(t.Directions[i].X))
		t.Directions[i] = t.Directions[i].InvertX()
	}
	if t.Speeds[i] < 0 {
		t.Speeds[i] = 0
	}
}

// checkBallCollision scans every other ball and resolves overlaps as a
// softened elastic collision. The scan re-runs for each ball every tick, so
// a pair can be resolved twice in one frame; that re-resolution is part of
// the tuned behavior and must stay.
func (s *Simulation) checkBallCollision(idx int) {
	t := s.table

	for i := 0; i < NumBalls; i++ {
		if i == idx {
			continue
		}
		// Sunk balls are parked far outside the table, so they never pass
		// the distance test.
		offset := t.Positions[i].Minus(t.Positions[idx])
		dist := offset.Length()
		if dist >= 2*BallRadius {
			continue
		}
		if dist == 0 {
			// Coincident centers have no collision normal; leave both
			// balls untouched rather than divide by zero.
			continue
		}

		// Collision axis components: the normal points from this ball to
		// the other.
		sin := offset.X / dist
		cos := offset.Y / dist
		normal := NewVec2(sin, cos)
		tangent := NewVec2(-cos, sin)

		// Push this ball out of the overlap. The other ball gets its own
		// correction when its scan runs.
		t.Positions[idx] = t.Positions[idx].Minus(normal.Times(2*BallRadius - dist))

		v1 := t.Directions[idx].Times(t.Speeds[idx])
		v2 := t.Directions[i].Times(t.Speeds[i])

		vn1 := v1.Dot(normal)
		vn2 := v2.Dot(normal)
		vt1 := v1.Dot(tangent)
		vt2 := v2.Dot(tangent)

		// Equal-mass elastic exchange of the normal components, softened:
		// 85% swapped outcome blended with 15% unswapped.
		newV1 := normal.Times(swapBlend*vn2 + (1-swapBlend)*vn1).
			Plus(tangent.Times(swapBlend*vt1 + (1-swapBlend)*vt2))
		newV2 := normal.Times(swapBlend*vn1 + (1-swapBlend)*vn2).
			Plus(tangent.Times(swapBlend*vt2 + (1-swapBlend)*vt1))

		t.Speeds[idx] = impactDamping * newV1.Length()
		t.Directions[idx] = newV1.Normalize()
		t.Speeds[i] = impactDamping * newV2.Length()
		t.Directions[i] = newV2.Normalize()
	}
}

// moveBall runs the per-ball pipeline: pocket test, cushion collision,
// ball-ball collision, integration, decay. It reports true when sinking the
// cue ball reset the table.
func (s *Simulation) moveBall(i int, dt float64) (reset bool) {
	t := s.table

	if s.isInPocket(i) {
		if i == 0 {
			// Scratch: the whole rack restarts.
			s.Deinit()
			if err := s.Init(); err != nil {
				// Unreachable: Deinit released every handle.
				log.Printf("[SIM] reset after cue-ball scratch failed: %v", err)
			}
			if s.OnReset != nil {
				s.OnReset()
			}
			return true
		}

		if t.ballMeshes[i] != NoMesh {
			s.scene.DestroyMesh(t.ballMeshes[i])
			t.ballMeshes[i] = NoMesh
		}
		// Park the ball well outside any reachable position and retire it
		// for the rest of the rack.
		t.Positions[i] = NewVec2(2*TableWidth, 2*TableWidth)
		t.Speeds[i] = 0
		t.Pocketed[i] = true
		if s.OnPocket != nil {
			s.OnPocket(i)
		}
		return false
	}

	s.checkBorders(i)
	s.checkBallCollision(i)

	t.Positions[i] = t.Positions[i].Plus(t.Directions[i].Times(t.Speeds[i] * dt))
	s.scene.PlaceMesh(t.ballMeshes[i], t.Positions[i].X, t.Positions[i].Y, 0)
	t.Speeds[i] = math.Max(t.Speeds[i]-rollDecay*TableWidth*dt, 0)
	return false
}

// Snapshot captures the externally visible state for broadcast and caching.
func (s *Simulation) Snapshot() TableSnapshot {
	snap := TableSnapshot{
		Charging:       s.charging,
		ChargeProgress: s.chargeProgress,
		BallsMoving:    s.ballsMoving,
	}
	for i := 0; i < NumBalls; i++ {
		snap.Balls[i] = BallState{
			Index:    i,
			X:        s.table.Positions[i].X,
			Y:        s.table.Positions[i].Y,
			Speed:    s.table.Speeds[i],
			Pocketed: s.table.Pocketed[i],
		}
	}
	return snap
}

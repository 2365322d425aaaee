package game

import (
	"math"
	"testing"
)

const tickDt = 1.0 / 60

func newTestSim(t *testing.T) *Simulation {
	t.Helper()
	sim := NewSimulation(&NopScene{}, nil)
	if err := sim.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return sim
}

func TestChargeAndReleaseScenario(t *testing.T) {
	sim := newTestSim(t)
	cue := sim.table.Positions[0]

	// Press, hold for half the charge time, release straight along +x.
	sim.PressStart(cue.X, cue.Y)
	sim.Update(0.5 * ChargeTime)

	if !almostEqual(sim.ChargeProgress(), 0.5) {
		t.Fatalf("ChargeProgress = %v, want 0.5", sim.ChargeProgress())
	}

	sim.PressEnd(cue.X+1, cue.Y)

	if got, want := sim.table.Speeds[0], 0.5*TableWidth; !almostEqual(got, want) {
		t.Errorf("Cue speed = %v, want %v", got, want)
	}
	dir := sim.table.Directions[0]
	if !almostEqual(dir.X, 1) || !almostEqual(dir.Y, 0) {
		t.Errorf("Cue direction = %+v, want (1,0)", dir)
	}
	if !sim.BallsMoving() {
		t.Error("BallsMoving should be true after release")
	}
	if sim.ChargeProgress() != 0 {
		t.Errorf("ChargeProgress = %v after release, want 0", sim.ChargeProgress())
	}
	if sim.Charging() {
		t.Error("Charging should be false after release")
	}
}

func TestChargeProgressBounds(t *testing.T) {
	sim := newTestSim(t)
	sim.PressStart(0, 0)

	for _, dt := range []float64{0, 0.1, 5, 0.0001, 100} {
		sim.Update(dt)
		p := sim.ChargeProgress()
		if p < 0 || p > 1 {
			t.Fatalf("ChargeProgress = %v after dt=%v, want within [0,1]", p, dt)
		}
	}
	if sim.ChargeProgress() != 1 {
		t.Errorf("ChargeProgress = %v after long hold, want 1", sim.ChargeProgress())
	}
}

func TestInputIgnoredWhileMoving(t *testing.T) {
	sim := newTestSim(t)
	sim.table.Directions[0] = NewVec2(1, 0)
	sim.table.Speeds[0] = 3
	sim.ballsMoving = true

	sim.PressStart(0, 0)
	if sim.Charging() {
		t.Error("Press while balls moving should be ignored")
	}

	before := sim.table.Speeds[0]
	sim.PressEnd(5, 5)
	if sim.table.Speeds[0] != before {
		t.Error("Release while balls moving should not touch the cue ball")
	}
}

func TestReleaseAtCueBallIsNoOpShot(t *testing.T) {
	sim := newTestSim(t)
	cue := sim.table.Positions[0]

	sim.PressStart(cue.X, cue.Y)
	sim.Update(ChargeTime) // full charge
	sim.PressEnd(cue.X, cue.Y)

	// No aim direction exists, so the shot is discarded but the charge
	// state still resets.
	if sim.table.Speeds[0] != 0 {
		t.Errorf("Cue speed = %v, want 0 for a no-op shot", sim.table.Speeds[0])
	}
	if sim.BallsMoving() {
		t.Error("BallsMoving should stay false for a no-op shot")
	}
	if sim.Charging() || sim.ChargeProgress() != 0 {
		t.Error("Charge state should reset after a no-op shot")
	}
}

func TestCushionClampAndReflect(t *testing.T) {
	sim := newTestSim(t)
	limitX := 0.5*TableWidth - BallRadius

	// Push the cue ball past the right cushion, heading out.
	sim.table.Positions[0] = NewVec2(limitX+0.1, 0)
	sim.table.Directions[0] = NewVec2(1, 0)
	sim.table.Speeds[0] = 5

	sim.checkBorders(0)

	if sim.table.Positions[0].X != limitX {
		t.Errorf("X = %v after clamp, want %v", sim.table.Positions[0].X, limitX)
	}
	if sim.table.Directions[0].X != -1 {
		t.Errorf("Direction.X = %v, want -1 after reflection", sim.table.Directions[0].X)
	}
	// Square hit: damping factor is 0.15 * (1 + 1).
	if want := 5 * (1 - 0.30); !almostEqual(sim.table.Speeds[0], want) {
		t.Errorf("Speed = %v after cushion, want %v", sim.table.Speeds[0], want)
	}
}

func TestCornerReflectsBothAxes(t *testing.T) {
	sim := newTestSim(t)
	limitX := 0.5*TableWidth - BallRadius
	limitY := 0.5*TableHeight - BallRadius

	d := NewVec2(1, 1).Normalize()
	sim.table.Positions[0] = NewVec2(limitX+0.05, limitY+0.05)
	sim.table.Directions[0] = d
	sim.table.Speeds[0] = 4

	sim.checkBorders(0)

	pos := sim.table.Positions[0]
	if pos.X != limitX || pos.Y != limitY {
		t.Errorf("Corner clamp = %+v, want (%v,%v)", pos, limitX, limitY)
	}
	got := sim.table.Directions[0]
	if !almostEqual(got.X, -d.X) || !almostEqual(got.Y, -d.Y) {
		t.Errorf("Corner reflection = %+v, want %+v", got, NewVec2(-d.X, -d.Y))
	}
	if sim.table.Speeds[0] < 0 {
		t.Errorf("Speed went negative in corner: %v", sim.table.Speeds[0])
	}
}

func TestCushionEnergyNonIncrease(t *testing.T) {
	sim := newTestSim(t)
	limitY := 0.5*TableHeight - BallRadius

	sim.table.Positions[0] = NewVec2(0, -limitY-0.2)
	sim.table.Directions[0] = NewVec2(0.6, -0.8)
	sim.table.Speeds[0] = 7

	before := sim.table.SpeedSum()
	sim.checkBorders(0)
	after := sim.table.SpeedSum()

	if after > before {
		t.Errorf("Cushion collision gained energy: %v -> %v", before, after)
	}
	if sim.table.Speeds[0] < 0 {
		t.Errorf("Speed negative after damping: %v", sim.table.Speeds[0])
	}
}

func TestHeadOnCollisionSwapsAndSeparates(t *testing.T) {
	sim := newTestSim(t)

	// Clear the rack out of the way; only balls 0 and 1 matter here.
	for i := 2; i < NumBalls; i++ {
		sim.table.Positions[i] = NewVec2(2*TableWidth, 2*TableWidth)
		sim.table.Pocketed[i] = true
	}

	speed := 3.0
	sim.table.Positions[0] = NewVec2(-BallRadius, 0)
	sim.table.Directions[0] = NewVec2(1, 0)
	sim.table.Speeds[0] = speed
	sim.table.Positions[1] = NewVec2(BallRadius, 0)
	sim.table.Directions[1] = NewVec2(-1, 0)
	sim.table.Speeds[1] = speed
	sim.ballsMoving = true

	before := sim.table.SpeedSum()
	sim.Update(tickDt)
	after := sim.table.SpeedSum()

	// Normal components exchange: each ball now travels back the way it came.
	if sim.table.Directions[0].X >= 0 {
		t.Errorf("Ball 0 direction.X = %v, want negative after head-on swap", sim.table.Directions[0].X)
	}
	if sim.table.Directions[1].X <= 0 {
		t.Errorf("Ball 1 direction.X = %v, want positive after head-on swap", sim.table.Directions[1].X)
	}
	if after > before {
		t.Errorf("Ball collision gained energy: %v -> %v", before, after)
	}

	// Next step they must move apart without overlapping.
	sim.Update(tickDt)
	gap := sim.table.Positions[1].Minus(sim.table.Positions[0]).Length()
	if gap < 2*BallRadius-1e-9 {
		t.Errorf("Balls still overlapping after separation: gap=%v", gap)
	}
}

func TestPocketCaptureIsTerminal(t *testing.T) {
	sim := newTestSim(t)
	pockets := pocketPositions()

	// Drop ball 2 just inside a pocket's capture radius, moving.
	sim.table.Positions[2] = pockets[1].Plus(NewVec2(0.2, 0.1))
	sim.table.Directions[2] = NewVec2(0, -1)
	sim.table.Speeds[2] = 2
	sim.ballsMoving = true

	sim.Update(tickDt)

	if !sim.table.Pocketed[2] {
		t.Fatal("Ball 2 should be pocketed")
	}
	if sim.table.Speeds[2] != 0 {
		t.Errorf("Pocketed ball speed = %v, want 0", sim.table.Speeds[2])
	}
	parked := sim.table.Positions[2]
	if math.Abs(parked.X) <= 0.5*TableWidth && math.Abs(parked.Y) <= 0.5*TableHeight {
		t.Errorf("Pocketed ball parked inside the table: %+v", parked)
	}

	// Terminal: nothing about the ball changes for the rest of the rack.
	sim.table.Speeds[0] = 1
	sim.table.Directions[0] = NewVec2(1, 0)
	sim.ballsMoving = true
	for i := 0; i < 120; i++ {
		sim.Update(tickDt)
	}
	if sim.table.Positions[2] != parked || sim.table.Speeds[2] != 0 || !sim.table.Pocketed[2] {
		t.Error("Pocketed ball state changed after capture")
	}
}

func TestPocketWinsOverCushion(t *testing.T) {
	sim := newTestSim(t)
	pockets := pocketPositions()

	// Inside the corner pocket radius AND past both cushions: the pocket
	// test runs first, so the ball sinks instead of being clamped.
	sim.table.Positions[4] = pockets[2].Plus(NewVec2(-0.1, 0.05))
	sim.table.Directions[4] = NewVec2(1, -1).Normalize()
	sim.table.Speeds[4] = 3
	sim.ballsMoving = true

	sim.Update(tickDt)

	if !sim.table.Pocketed[4] {
		t.Error("Ball in pocket radius should sink before cushion handling")
	}
}

func TestCueScratchResetsTable(t *testing.T) {
	sim := newTestSim(t)
	pockets := pocketPositions()

	// Mess up the table: sink ball 5, set ball 6 in motion.
	sim.table.Positions[5] = pockets[4]
	sim.table.Directions[6] = NewVec2(0, 1)
	sim.table.Speeds[6] = 2
	sim.ballsMoving = true
	sim.Update(tickDt)
	if !sim.table.Pocketed[5] {
		t.Fatal("Setup: ball 5 should be pocketed")
	}

	// Now scratch: cue ball into a corner pocket.
	sim.table.Positions[0] = pockets[0]
	sim.table.Directions[0] = NewVec2(-1, -1).Normalize()
	sim.table.Speeds[0] = 1
	sim.ballsMoving = true

	resets := 0
	sim.OnReset = func() { resets++ }
	sim.Update(tickDt)

	if resets != 1 {
		t.Fatalf("Expected exactly one table reset, got %d", resets)
	}

	want := ballStartPositions()
	for i := 0; i < NumBalls; i++ {
		if sim.table.Positions[i] != want[i] {
			t.Errorf("Ball %d at %+v after reset, want %+v", i, sim.table.Positions[i], want[i])
		}
		if sim.table.Pocketed[i] {
			t.Errorf("Ball %d still pocketed after reset", i)
		}
		if sim.table.Speeds[i] != 0 {
			t.Errorf("Ball %d speed = %v after reset, want 0", i, sim.table.Speeds[i])
		}
	}
	if sim.BallsMoving() {
		t.Error("BallsMoving should clear on the same frame as the reset")
	}
}

func TestSettlingFlagClearsSameFrame(t *testing.T) {
	sim := newTestSim(t)
	sim.table.Directions[0] = NewVec2(1, 0)
	sim.table.Speeds[0] = 0.1
	sim.ballsMoving = true

	for i := 0; i < 100; i++ {
		sim.Update(tickDt)
		if sim.table.SpeedSum() == 0 {
			if sim.BallsMoving() {
				t.Fatal("BallsMoving still true on the frame SpeedSum hit 0")
			}
			return
		}
		if !sim.BallsMoving() {
			t.Fatal("BallsMoving cleared while balls still had speed")
		}
	}
	t.Fatal("Ball never settled within 100 frames")
}

func TestBreakShotSoak(t *testing.T) {
	sim := newTestSim(t)
	cue := sim.table.Positions[0]

	// Full-power break straight into the rack.
	sim.PressStart(cue.X, cue.Y)
	sim.Update(2 * ChargeTime)
	sim.PressEnd(cue.X+1, cue.Y)

	limitX := 0.5*TableWidth - BallRadius
	limitY := 0.5*TableHeight - BallRadius
	// A ball can leave the rails by at most one integration step before the
	// next tick clamps it back.
	excursion := TableWidth * tickDt

	for frame := 0; frame < 3000; frame++ {
		sim.Update(tickDt)

		for i := 0; i < NumBalls; i++ {
			if sim.table.Speeds[i] < 0 {
				t.Fatalf("Frame %d: ball %d speed negative: %v", frame, i, sim.table.Speeds[i])
			}
			if math.IsNaN(sim.table.Speeds[i]) || math.IsNaN(sim.table.Positions[i].X) {
				t.Fatalf("Frame %d: ball %d state is NaN", frame, i)
			}
			if sim.table.Pocketed[i] {
				continue
			}
			p := sim.table.Positions[i]
			if math.Abs(p.X) > limitX+excursion+1e-9 || math.Abs(p.Y) > limitY+excursion+1e-9 {
				t.Fatalf("Frame %d: ball %d escaped the table: %+v", frame, i, p)
			}
		}

		if !sim.BallsMoving() {
			return // settled cleanly
		}
	}
	t.Fatal("Break shot never settled within 3000 frames")
}

func TestDeterministicReplay(t *testing.T) {
	run := func() TableSnapshot {
		sim := NewSimulation(&NopScene{}, nil)
		if err := sim.Init(); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		cue := sim.table.Positions[0]
		sim.PressStart(cue.X, cue.Y)
		sim.Update(0.7)
		sim.PressEnd(cue.X+2, cue.Y+0.3)
		for i := 0; i < 600; i++ {
			sim.Update(tickDt)
		}
		return sim.Snapshot()
	}

	first := run()
	second := run()
	if first != second {
		t.Errorf("Same inputs diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

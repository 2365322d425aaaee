package game

import "errors"

// ErrTableInitialized is returned when Init is called while visual handles
// from a previous Init still exist.
var ErrTableInitialized = errors.New("table already initialized")

// Table is the single authority for ball and pocket state in one session.
// Velocity is stored as a unit direction plus a scalar speed; a zero
// direction means the ball has never been set in motion.
type Table struct {
	scene Scene

	Positions  [NumBalls]Vec2
	Directions [NumBalls]Vec2
	Speeds     [NumBalls]float64
	Pocketed   [NumBalls]bool

	pockets      [NumPockets]Vec2
	ballMeshes   [NumBalls]MeshHandle
	pocketMeshes [NumPockets]MeshHandle
}

// NewTable creates an uninitialized table bound to a scene service.
func NewTable(scene Scene) *Table {
	return &Table{
		scene:   scene,
		pockets: pocketPositions(),
	}
}

// pocketPositions derives the 6 pocket centers from the table extents:
// four corners plus the mid-rail pockets on the long sides.
func pocketPositions() [NumPockets]Vec2 {
	return [NumPockets]Vec2{
		{X: -0.5 * TableWidth, Y: -0.5 * TableHeight},
		{X: 0, Y: -0.5 * TableHeight},
		{X: 0.5 * TableWidth, Y: -0.5 * TableHeight},
		{X: -0.5 * TableWidth, Y: 0.5 * TableHeight},
		{X: 0, Y: 0.5 * TableHeight},
		{X: 0.5 * TableWidth, Y: 0.5 * TableHeight},
	}
}

// ballStartPositions is the fixed rack layout. Index 0 is the cue ball.
func ballStartPositions() [NumBalls]Vec2 {
	return [NumBalls]Vec2{
		{X: -0.3 * TableWidth, Y: 0},
		{X: 0.2 * TableWidth, Y: 0},
		{X: 0.25 * TableWidth, Y: 0.05 * TableHeight},
		{X: 0.25 * TableWidth, Y: -0.05 * TableHeight},
		{X: 0.3 * TableWidth, Y: 0.1 * TableHeight},
		{X: 0.3 * TableWidth, Y: 0},
		{X: 0.3 * TableWidth, Y: -0.1 * TableHeight},
	}
}

// Init places all balls at the rack layout, clears pocketed flags, zeroes
// velocities, and creates exactly one visual handle per ball and pocket.
// Calling Init while any handle exists is a contract violation and returns
// ErrTableInitialized.
func (t *Table) Init() error {
	for _, h := range t.pocketMeshes {
		if h != NoMesh {
			return ErrTableInitialized
		}
	}
	for _, h := range t.ballMeshes {
		if h != NoMesh {
			return ErrTableInitialized
		}
	}

	t.Positions = ballStartPositions()
	t.Directions = [NumBalls]Vec2{}
	t.Speeds = [NumBalls]float64{}
	t.Pocketed = [NumBalls]bool{}

	for i := range t.pocketMeshes {
		t.pocketMeshes[i] = t.scene.CreatePocketMesh(PocketRadius)
		t.scene.PlaceMesh(t.pocketMeshes[i], t.pockets[i].X, t.pockets[i].Y, 0)
	}
	for i := range t.ballMeshes {
		t.ballMeshes[i] = t.scene.CreateBallMesh(BallRadius)
		t.scene.PlaceMesh(t.ballMeshes[i], t.Positions[i].X, t.Positions[i].Y, 0)
	}
	return nil
}

// Deinit destroys every live visual handle and clears all table state.
// Sunk balls have already released their handles, so it is safe at any time.
func (t *Table) Deinit() {
	for i, h := range t.pocketMeshes {
		if h != NoMesh {
			t.scene.DestroyMesh(h)
		}
		t.pocketMeshes[i] = NoMesh
	}
	for i, h := range t.ballMeshes {
		if h != NoMesh {
			t.scene.DestroyMesh(h)
		}
		t.ballMeshes[i] = NoMesh
	}

	t.Positions = [NumBalls]Vec2{}
	t.Directions = [NumBalls]Vec2{}
	t.Speeds = [NumBalls]float64{}
	t.Pocketed = [NumBalls]bool{}
}

// SpeedSum is the settling oracle: speeds are non-negative, so the sum is
// zero iff every ball is at rest.
func (t *Table) SpeedSum() float64 {
	sum := 0.0
	for _, s := range t.Speeds {
		sum += s
	}
	return sum
}

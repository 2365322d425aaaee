package game

// MeshHandle identifies a visual object owned by the scene service.
// NoMesh means no visual is attached (a sunk ball, or headless use).
type MeshHandle int64

const NoMesh MeshHandle = 0

// Scene is the visual service the simulation drives. All calls are
// synchronous and non-failing; a headless host passes a NopScene.
type Scene interface {
	CreateBallMesh(radius float64) MeshHandle
	CreatePocketMesh(radius float64) MeshHandle
	PlaceMesh(h MeshHandle, x, y, z float64)
	DestroyMesh(h MeshHandle)
	SetupBackground(width, height float64)
	UpdateProgressBar(value float64)
}

// Host is the engine-side service boundary.
type Host interface {
	SetTargetTickRate(fps int)
}

// NopScene discards all visual calls. It still hands out distinct handles so
// the table's create/destroy pairing stays intact.
type NopScene struct {
	next MeshHandle
}

func (s *NopScene) CreateBallMesh(float64) MeshHandle {
	s.next++
	return s.next
}

func (s *NopScene) CreatePocketMesh(float64) MeshHandle {
	s.next++
	return s.next
}

func (s *NopScene) PlaceMesh(MeshHandle, float64, float64, float64) {}
func (s *NopScene) DestroyMesh(MeshHandle)                          {}
func (s *NopScene) SetupBackground(float64, float64)                {}
func (s *NopScene) UpdateProgressBar(float64)                       {}

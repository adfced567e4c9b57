package logic

// BlockFace is one of the six faces of an unrotated block.
// The index order matches the connection arrays in the gate registry.
type BlockFace uint8

const (
	FaceRight BlockFace = iota // +X before rotation
	FaceLeft                   // -X
	FaceTop                    // +Y
	FaceBottom                 // -Y
	FaceFront                  // -Z
	FaceBack                   // +Z
)

var AllFaces = [6]BlockFace{FaceRight, FaceLeft, FaceTop, FaceBottom, FaceFront, FaceBack}

func (f BlockFace) Index() int { return int(f) }

func (f BlockFace) Opposite() BlockFace {
	// Faces come in +/- pairs, so flip the low bit.
	return f ^ 1
}

func (f BlockFace) String() string {
	switch f {
	case FaceRight:
		return "RIGHT"
	case FaceLeft:
		return "LEFT"
	case FaceTop:
		return "TOP"
	case FaceBottom:
		return "BOTTOM"
	case FaceFront:
		return "FRONT"
	default:
		return "BACK"
	}
}

// Direction is one of the six axis-aligned directions in structure space.
// Unlike BlockFace it is independent of any block's rotation.
type Direction uint8

const (
	DirPosX Direction = iota
	DirNegX
	DirPosY
	DirNegY
	DirNegZ
	DirPosZ
)

var AllDirections = [6]Direction{DirPosX, DirNegX, DirPosY, DirNegY, DirNegZ, DirPosZ}

func (d Direction) Opposite() Direction { return d ^ 1 }

func (d Direction) Vec() Vec3i {
	switch d {
	case DirPosX:
		return Vec3i{X: 1}
	case DirNegX:
		return Vec3i{X: -1}
	case DirPosY:
		return Vec3i{Y: 1}
	case DirNegY:
		return Vec3i{Y: -1}
	case DirNegZ:
		return Vec3i{Z: -1}
	default:
		return Vec3i{Z: 1}
	}
}

func (d Direction) String() string {
	switch d {
	case DirPosX:
		return "+X"
	case DirNegX:
		return "-X"
	case DirPosY:
		return "+Y"
	case DirNegY:
		return "-Y"
	case DirNegZ:
		return "-Z"
	default:
		return "+Z"
	}
}

func directionFromVec(v Vec3i) (Direction, bool) {
	switch v {
	case (Vec3i{X: 1}):
		return DirPosX, true
	case (Vec3i{X: -1}):
		return DirNegX, true
	case (Vec3i{Y: 1}):
		return DirPosY, true
	case (Vec3i{Y: -1}):
		return DirNegY, true
	case (Vec3i{Z: -1}):
		return DirNegZ, true
	case (Vec3i{Z: 1}):
		return DirPosZ, true
	}
	return DirPosX, false
}

// Rotation orients a block by naming the world directions its local Top
// and Front faces point. Up and Front must be orthogonal axes; anything
// else is treated as the identity so a corrupt rotation can never make a
// block's face mapping non-bijective.
type Rotation struct {
	Up    Direction
	Front Direction
}

var IdentityRotation = Rotation{Up: DirPosY, Front: DirNegZ}

func (r Rotation) valid() bool {
	u, f := r.Up.Vec(), r.Front.Vec()
	return u.X*f.X+u.Y*f.Y+u.Z*f.Z == 0
}

// DirectionOf reports which world direction the given local face points
// under this rotation. The mapping is recomputed on every call; it is
// never cached across a rotation change.
func (r Rotation) DirectionOf(face BlockFace) Direction {
	if !r.valid() {
		r = IdentityRotation
	}
	up := r.Up.Vec()
	front := r.Front.Vec()
	right := cross(front, up)

	var v Vec3i
	switch face {
	case FaceRight:
		v = right
	case FaceLeft:
		v = right.Negate()
	case FaceTop:
		v = up
	case FaceBottom:
		v = up.Negate()
	case FaceFront:
		v = front
	default:
		v = front.Negate()
	}
	d, _ := directionFromVec(v)
	return d
}

// FacePointing is the inverse of DirectionOf: which local face points in
// the given world direction.
func (r Rotation) FacePointing(dir Direction) BlockFace {
	for _, face := range AllFaces {
		if r.DirectionOf(face) == dir {
			return face
		}
	}
	return FaceTop // unreachable: DirectionOf is a bijection
}

// DirectionsOfEachFace returns the world direction of all six faces,
// indexed by BlockFace.
func (r Rotation) DirectionsOfEachFace() [6]Direction {
	var out [6]Direction
	for _, face := range AllFaces {
		out[face.Index()] = r.DirectionOf(face)
	}
	return out
}

func cross(a, b Vec3i) Vec3i {
	return Vec3i{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

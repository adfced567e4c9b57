package world

import "voxlogic/internal/sim/logic"

type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

func (v Vec3i) ToLogic() logic.Vec3i { return logic.Vec3i{X: v.X, Y: v.Y, Z: v.Z} }

func FromLogic(v logic.Vec3i) Vec3i { return Vec3i{X: v.X, Y: v.Y, Z: v.Z} }

func FromArray(a [3]int) Vec3i { return Vec3i{X: a[0], Y: a[1], Z: a[2]} }

func Chebyshev(a, b Vec3i) int {
	d := func(p, q int) int {
		if p > q {
			return p - q
		}
		return q - p
	}
	m := d(a.X, b.X)
	if dy := d(a.Y, b.Y); dy > m {
		m = dy
	}
	if dz := d(a.Z, b.Z); dz > m {
		m = dz
	}
	return m
}

// parseDir maps wire-format direction strings onto directions.
func parseDir(s string) (logic.Direction, bool) {
	switch s {
	case "+X":
		return logic.DirPosX, true
	case "-X":
		return logic.DirNegX, true
	case "+Y":
		return logic.DirPosY, true
	case "-Y":
		return logic.DirNegY, true
	case "+Z":
		return logic.DirPosZ, true
	case "-Z":
		return logic.DirNegZ, true
	}
	return logic.DirPosX, false
}

// parseRotation builds a rotation from wire-format up/front strings.
// Empty strings mean the identity; non-orthogonal pairs are rejected.
func parseRotation(up, front string) (logic.Rotation, bool) {
	if up == "" && front == "" {
		return logic.IdentityRotation, true
	}
	u, okU := parseDir(up)
	f, okF := parseDir(front)
	if !okU || !okF {
		return logic.IdentityRotation, false
	}
	uv, fv := u.Vec(), f.Vec()
	if uv.X*fv.X+uv.Y*fv.Y+uv.Z*fv.Z != 0 {
		return logic.IdentityRotation, false
	}
	return logic.Rotation{Up: u, Front: f}, true
}

package logic

// Vec3i is a block coordinate inside one structure's voxel space.
type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

func (v Vec3i) Negate() Vec3i { return Vec3i{X: -v.X, Y: -v.Y, Z: -v.Z} }

// Step returns the neighboring coordinate one block away in the given
// world direction.
func (v Vec3i) Step(d Direction) Vec3i {
	o := d.Vec()
	return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3i) Less(o Vec3i) bool {
	if v.X != o.X {
		return v.X < o.X
	}
	if v.Y != o.Y {
		return v.Y < o.Y
	}
	return v.Z < o.Z
}

// Port identifies one logic connection point: a block coordinate plus the
// world direction its face points. Any port or wire one step in that
// direction is adjacent to it.
type Port struct {
	Coord Vec3i
	Dir   Direction
}

func NewPort(coord Vec3i, dir Direction) Port { return Port{Coord: coord, Dir: dir} }

func portLess(a, b Port) bool {
	if a.Coord != b.Coord {
		return a.Coord.Less(b.Coord)
	}
	return a.Dir < b.Dir
}

// allPortsFor seeds a visited set with every port of a block, so graph
// walks starting at its neighbors never step back into it.
func allPortsFor(coord Vec3i) map[Port]bool {
	all := make(map[Port]bool, 6)
	for _, d := range AllDirections {
		all[NewPort(coord, d)] = true
	}
	return all
}

package world

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"voxlogic/internal/sim/logic"
)

const chunkEdge = 16

type ChunkKey struct {
	CX int
	CY int
	CZ int
}

type Chunk struct {
	CX, CY, CZ int
	Blocks     []uint16 // len = 16*16*16

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, y, z int) int {
	// x fastest, then y, then z
	return x + y*chunkEdge + z*chunkEdge*chunkEdge
}

func (c *Chunk) Get(x, y, z int) uint16 {
	return c.Blocks[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b uint16) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		// Hash the raw uint16 slice deterministically.
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

type WorldGen struct {
	Seed      int64
	Height    int
	BoundaryR int
	FloorY    int

	// Palette ids for core blocks.
	Air     uint16
	Stone   uint16
	Bedrock uint16
}

// ChunkStore holds the voxel structure: dense per-chunk block arrays
// plus a sparse rotation table. It also serves as the logic engine's
// view of the structure.
type ChunkStore struct {
	gen WorldGen
	// Accessed only from the world loop goroutine.
	chunks map[ChunkKey]*Chunk
	rots   map[Vec3i]logic.Rotation
}

func NewChunkStore(gen WorldGen) *ChunkStore {
	return &ChunkStore{
		gen:    gen,
		chunks: map[ChunkKey]*Chunk{},
		rots:   map[Vec3i]logic.Rotation{},
	}
}

func (s *ChunkStore) inBounds(pos Vec3i) bool {
	if pos.Y < 0 || pos.Y >= s.gen.Height {
		return false
	}
	if s.gen.BoundaryR > 0 {
		if pos.X < -s.gen.BoundaryR || pos.X > s.gen.BoundaryR || pos.Z < -s.gen.BoundaryR || pos.Z > s.gen.BoundaryR {
			return false
		}
	}
	return true
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func (s *ChunkStore) GetBlock(pos Vec3i) uint16 {
	if !s.inBounds(pos) {
		return s.gen.Air
	}
	cx, cy, cz := floorDiv(pos.X, chunkEdge), floorDiv(pos.Y, chunkEdge), floorDiv(pos.Z, chunkEdge)
	ch := s.getOrGenChunk(cx, cy, cz)
	return ch.Get(mod(pos.X, chunkEdge), mod(pos.Y, chunkEdge), mod(pos.Z, chunkEdge))
}

func (s *ChunkStore) SetBlock(pos Vec3i, b uint16) {
	if !s.inBounds(pos) {
		return
	}
	cx, cy, cz := floorDiv(pos.X, chunkEdge), floorDiv(pos.Y, chunkEdge), floorDiv(pos.Z, chunkEdge)
	ch := s.getOrGenChunk(cx, cy, cz)
	ch.Set(mod(pos.X, chunkEdge), mod(pos.Y, chunkEdge), mod(pos.Z, chunkEdge), b)
}

func (s *ChunkStore) GetRotation(pos Vec3i) logic.Rotation {
	if r, ok := s.rots[pos]; ok {
		return r
	}
	return logic.IdentityRotation
}

func (s *ChunkStore) SetRotation(pos Vec3i, r logic.Rotation) {
	if r == logic.IdentityRotation {
		delete(s.rots, pos)
		return
	}
	s.rots[pos] = r
}

func (s *ChunkStore) ClearRotation(pos Vec3i) { delete(s.rots, pos) }

// Rotations returns the sparse rotation table keys in sorted order.
func (s *ChunkStore) Rotations() []Vec3i {
	out := make([]Vec3i, 0, len(s.rots))
	for p := range s.rots {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ToLogic().Less(out[j].ToLogic()) })
	return out
}

// logic.Structure implementation.

func (s *ChunkStore) BlockTypeAt(c logic.Vec3i) uint16 {
	return s.GetBlock(FromLogic(c))
}

func (s *ChunkStore) RotationAt(c logic.Vec3i) logic.Rotation {
	return s.GetRotation(FromLogic(c))
}

func (s *ChunkStore) InBounds(c logic.Vec3i) bool {
	return s.inBounds(FromLogic(c))
}

func (s *ChunkStore) getOrGenChunk(cx, cy, cz int) *Chunk {
	k := ChunkKey{CX: cx, CY: cy, CZ: cz}
	if ch, ok := s.chunks[k]; ok {
		return ch
	}
	ch := &Chunk{
		CX:     cx,
		CY:     cy,
		CZ:     cz,
		Blocks: make([]uint16, chunkEdge*chunkEdge*chunkEdge),
	}
	s.generateChunk(ch)
	ch.dirty = true
	_ = ch.Digest() // initialize digest
	s.chunks[k] = ch
	return ch
}

// restoreChunk installs chunk contents verbatim, bypassing worldgen.
func (s *ChunkStore) restoreChunk(cx, cy, cz int, blocks []uint16) {
	ch := &Chunk{
		CX:     cx,
		CY:     cy,
		CZ:     cz,
		Blocks: make([]uint16, chunkEdge*chunkEdge*chunkEdge),
	}
	copy(ch.Blocks, blocks)
	ch.dirty = true
	s.chunks[ChunkKey{CX: cx, CY: cy, CZ: cz}] = ch
}

func (s *ChunkStore) generateChunk(ch *Chunk) {
	// Flat build platform: bedrock at the bottom, stone up to FloorY,
	// air above.
	for y := 0; y < chunkEdge; y++ {
		wy := ch.CY*chunkEdge + y
		b := s.gen.Air
		if wy < s.gen.FloorY {
			b = s.gen.Stone
		}
		if wy == 0 {
			b = s.gen.Bedrock
		}
		if b == s.gen.Air {
			continue
		}
		for z := 0; z < chunkEdge; z++ {
			for x := 0; x < chunkEdge; x++ {
				ch.Blocks[ch.index(x, y, z)] = b
			}
		}
	}
}

func floorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

package logic

import "fmt"

// Connection defines how one face of a logic block interacts with its
// neighbor.
type Connection uint8

const (
	// ConnNone carries no logic connection; the face is inert.
	ConnNone Connection = iota
	// ConnInput reads the aggregated value of the adjacent network.
	ConnInput
	// ConnOutput writes the block's value into the adjacent network.
	ConnOutput
	// ConnWire joins adjacent networks without delaying or consuming the
	// signal.
	ConnWire
)

func (c Connection) String() string {
	switch c {
	case ConnInput:
		return "INPUT"
	case ConnOutput:
		return "OUTPUT"
	case ConnWire:
		return "WIRE"
	default:
		return "NONE"
	}
}

// ParseConnection maps a catalog face role string onto a Connection.
func ParseConnection(s string) (Connection, error) {
	switch s {
	case "", "NONE":
		return ConnNone, nil
	case "INPUT":
		return ConnInput, nil
	case "OUTPUT":
		return ConnOutput, nil
	case "WIRE":
		return ConnWire, nil
	}
	return ConnNone, fmt.Errorf("unknown connection role %q", s)
}

// LogicBlock describes one block type's participation in the logic
// system: the role of each unrotated face, the value its outputs emit
// when idle, and the behavior evaluated each tick.
type LogicBlock struct {
	BlockID       uint16
	Name          string
	Connections   [6]Connection // indexed by BlockFace
	DefaultOutput int
	Behavior      Behavior
}

func (lb *LogicBlock) ConnectionOn(face BlockFace) Connection {
	return lb.Connections[face.Index()]
}

func (lb *LogicBlock) facesWith(c Connection) []BlockFace {
	var out []BlockFace
	for _, face := range AllFaces {
		if lb.Connections[face.Index()] == c {
			out = append(out, face)
		}
	}
	return out
}

func (lb *LogicBlock) InputFaces() []BlockFace  { return lb.facesWith(ConnInput) }
func (lb *LogicBlock) OutputFaces() []BlockFace { return lb.facesWith(ConnOutput) }
func (lb *LogicBlock) WireFaces() []BlockFace   { return lb.facesWith(ConnWire) }

func (lb *LogicBlock) HasWires() bool {
	for _, c := range lb.Connections {
		if c == ConnWire {
			return true
		}
	}
	return false
}

// NewLogicBlock builds a registration from a behavior's own port
// declaration.
func NewLogicBlock(blockID uint16, name string, b Behavior) *LogicBlock {
	return &LogicBlock{
		BlockID:       blockID,
		Name:          name,
		Connections:   b.Ports(),
		DefaultOutput: b.DefaultOutput(),
		Behavior:      b,
	}
}

// BehaviorByName resolves a catalog behavior tag onto a built-in gate
// behavior. New gate types register here (or directly via Register with
// a custom Behavior).
func BehaviorByName(name string) (Behavior, bool) {
	switch name {
	case "AND":
		return AndGate{}, true
	case "OR":
		return OrGate{}, true
	case "XOR":
		return XorGate{}, true
	case "NOT":
		return NotGate{}, true
	case "BUTTON":
		return Button{}, true
	case "SWITCH":
		return Switch{}, true
	case "FLIP_FLOP":
		return FlipFlop{}, true
	case "WIRE":
		return Wire{}, true
	case "INDICATOR":
		return Indicator{}, true
	}
	return nil, false
}

// Registry is the immutable per-session table of logic block types,
// keyed by palette block id. Block types without a registration have no
// ports and never participate in a network.
type Registry struct {
	byID map[uint16]*LogicBlock
}

func NewRegistry() *Registry {
	return &Registry{byID: map[uint16]*LogicBlock{}}
}

func (r *Registry) Register(lb *LogicBlock) error {
	if lb == nil {
		return fmt.Errorf("register: nil logic block")
	}
	if _, dup := r.byID[lb.BlockID]; dup {
		return fmt.Errorf("register: duplicate logic block id %d (%s)", lb.BlockID, lb.Name)
	}
	if lb.Behavior == nil {
		return fmt.Errorf("register: logic block %s has no behavior", lb.Name)
	}
	r.byID[lb.BlockID] = lb
	return nil
}

// For returns the logic block registered for the given palette id, or
// nil for non-logic blocks. A nil result is not an error.
func (r *Registry) For(blockID uint16) *LogicBlock {
	return r.byID[blockID]
}

// Structure is the voxel storage collaborator the engine reads from. It
// is implemented by the world's chunk store.
type Structure interface {
	// BlockTypeAt returns the palette id at the coordinate (air for
	// unoccupied or out-of-bounds cells).
	BlockTypeAt(Vec3i) uint16
	// RotationAt returns the block's current rotation. Callers re-derive
	// face directions from it on every read.
	RotationAt(Vec3i) Rotation
	// InBounds reports whether the coordinate exists in the structure.
	InBounds(Vec3i) bool
}

package protocol

type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	AgentID         string `json:"agent_id"`

	Self   SelfObs   `json:"self"`
	Voxels VoxelsObs `json:"voxels"`

	// Circuit state near the focus point: published outputs and lit
	// stateful blocks.
	Outputs []OutputObs `json:"outputs"`
	Blocks  []BlockObs  `json:"blocks"`

	Events []Event `json:"events"`
}

type SelfObs struct {
	Focus [3]int `json:"focus"`
}

type VoxelsObs struct {
	Center   [3]int     `json:"center"`
	Radius   int        `json:"radius"`
	Encoding string     `json:"encoding"` // "OPS"
	Ops      []VoxelOp  `json:"ops,omitempty"`
	Rots     []VoxelRot `json:"rots,omitempty"`
}

type VoxelOp struct {
	D [3]int `json:"d"` // delta from center (dx,dy,dz)
	B uint16 `json:"b"` // block palette id
}

type VoxelRot struct {
	D     [3]int `json:"d"`
	Up    string `json:"up"`
	Front string `json:"front"`
}

// OutputObs is one published producer value: block position, the world
// direction of the emitting face, and the signal.
type OutputObs struct {
	Pos    [3]int `json:"pos"`
	Dir    string `json:"dir"`
	Signal int    `json:"signal"`
}

// BlockObs is the visible state of a stateful logic block (pressed
// button, lit indicator, latched flip-flop).
type BlockObs struct {
	Pos    [3]int `json:"pos"`
	Signal int    `json:"signal"`
	Timer  int    `json:"timer,omitempty"`
}

type Event map[string]interface{}

// ACT (client -> server)
type ActMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	AgentID         string       `json:"agent_id"`
	Instants        []InstantReq `json:"instants,omitempty"`
}

// InstantReq is one structural edit or interaction, applied at the next
// tick boundary in request order.
type InstantReq struct {
	ID   string `json:"id"`
	Type string `json:"type"` // "PLACE","MINE","ROTATE","INTERACT","FOCUS"

	Pos   [3]int `json:"pos,omitempty"`
	Block string `json:"block,omitempty"`
	Up    string `json:"up,omitempty"`
	Front string `json:"front,omitempty"`
}

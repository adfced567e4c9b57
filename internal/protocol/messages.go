package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	AgentName       string            `json:"agent_name"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
	Auth            *HelloAuth        `json:"auth,omitempty"`
}

type HelloCapabilities struct {
	EventCursor bool `json:"event_cursor,omitempty"`
	MaxQueue    int  `json:"max_queue,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id,omitempty"`
	AgentID         string         `json:"agent_id"`
	ResumeToken     string         `json:"resume_token"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	TickRateHz      int    `json:"tick_rate_hz"`
	ChunkSize       [3]int `json:"chunk_size"`
	Height          int    `json:"height"`
	BoundaryR       int    `json:"boundary_r"`
	ObsRadius       int    `json:"obs_radius"`
	ButtonHoldTicks int    `json:"button_hold_ticks"`
	Seed            int64  `json:"seed"`
}

type CatalogDigests struct {
	BlockPalette DigestRef `json:"block_palette"`
	TuningDigest string    `json:"tuning_digest,omitempty"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// CATALOG (server -> client): one catalog sent whole.
type CatalogMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Name            string      `json:"name"`   // e.g. "block_palette"
	Digest          string      `json:"digest"` // sha256 hex
	Data            interface{} `json:"data"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}

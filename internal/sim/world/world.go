package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"voxlogic/internal/persistence/snapshot"
	"voxlogic/internal/protocol"
	"voxlogic/internal/sim/catalogs"
	"voxlogic/internal/sim/logic"
)

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type AttachRequest struct {
	ResumeToken string
	Out         chan []byte
	Resp        chan JoinResponse
}

type JoinResponse struct {
	Welcome  protocol.WelcomeMsg
	Catalogs []protocol.CatalogMsg
}

type ActionEnvelope struct {
	AgentID string
	Act     protocol.ActMsg
}

type RecordedJoin struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
}

type RecordedAction struct {
	AgentID string          `json:"agent_id"`
	Act     protocol.ActMsg `json:"act"`
}

type TickLogEntry struct {
	Tick    uint64           `json:"tick"`
	Joins   []RecordedJoin   `json:"joins,omitempty"`
	Leaves  []string         `json:"leaves,omitempty"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Digest  string           `json:"digest"`
}

type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Action string `json:"action"` // e.g. "SET_BLOCK", "LOGIC_OUTPUT"
	Pos    [3]int `json:"pos"`
	From   uint16 `json:"from,omitempty"`
	To     uint16 `json:"to,omitempty"`
	Signal int    `json:"signal,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type EventsRequest struct {
	ReqID       string
	SinceCursor uint64
	Limit       int
	Resp        chan protocol.EventBatchMsg
}

type clientState struct {
	Out chan []byte
}

// World is a single-threaded authoritative simulation of one logic
// structure. All state must be accessed only from the world loop
// goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	tick atomic.Uint64

	chunks *ChunkStore
	reg    *logic.Registry
	engine *logic.Engine

	agents  map[string]*Agent
	clients map[string]*clientState

	inbox     chan ActionEnvelope
	join      chan JoinRequest
	attach    chan AttachRequest
	leave     chan string
	eventsReq chan EventsRequest
	stop      chan struct{}
	stopOnce  sync.Once

	nextAgentNum atomic.Uint64
	agentCount   atomic.Int64

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be
	// off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	// Global event journal for EVENT_BATCH replay.
	journal *eventJournal
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	cfg.applyDefaults()

	b := func(id string) (uint16, error) {
		v, ok := cats.Blocks.Index[id]
		if !ok {
			return 0, fmt.Errorf("missing block id in palette: %s", id)
		}
		return v, nil
	}
	air, err := b("AIR")
	if err != nil {
		return nil, err
	}
	stone, err := b("STONE")
	if err != nil {
		return nil, err
	}
	bedrock, err := b("BEDROCK")
	if err != nil {
		return nil, err
	}

	reg, err := cats.Blocks.LogicRegistry()
	if err != nil {
		return nil, err
	}

	chunks := NewChunkStore(WorldGen{
		Seed:      cfg.Seed,
		Height:    cfg.Height,
		BoundaryR: cfg.BoundaryR,
		FloorY:    cfg.FloorY,
		Air:       air,
		Stone:     stone,
		Bedrock:   bedrock,
	})

	w := &World{
		cfg:       cfg,
		catalogs:  cats,
		chunks:    chunks,
		reg:       reg,
		engine:    logic.NewEngine(reg, chunks, logic.Config{ButtonHoldTicks: cfg.ButtonHoldTicks}),
		agents:    map[string]*Agent{},
		clients:   map[string]*clientState{},
		inbox:     make(chan ActionEnvelope, 1024),
		join:      make(chan JoinRequest, 64),
		attach:    make(chan AttachRequest, 64),
		leave:     make(chan string, 64),
		eventsReq: make(chan EventsRequest, 64),
		stop:      make(chan struct{}),
		journal:   newEventJournal(4096),
	}
	w.engine.OnOutputChanged = w.onOutputChanged
	w.engine.OnStateChanged = w.onStateChanged
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)                  { w.auditLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- ActionEnvelope  { return w.inbox }
func (w *World) Join() chan<- JoinRequest      { return w.join }
func (w *World) Attach() chan<- AttachRequest  { return w.attach }
func (w *World) Leave() chan<- string          { return w.leave }
func (w *World) Events() chan<- EventsRequest  { return w.eventsReq }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}

type QueueDepths struct {
	Inbox  int `json:"inbox"`
	Join   int `json:"join"`
	Leave  int `json:"leave"`
	Attach int `json:"attach"`
}

type WorldMetrics struct {
	Tick        uint64      `json:"tick"`
	Agents      int64       `json:"agents"`
	QueueDepths QueueDepths `json:"queue_depths"`
}

// Metrics is safe to call from any goroutine; it reads only atomics
// and channel lengths.
func (w *World) Metrics() WorldMetrics {
	return WorldMetrics{
		Tick:   w.tick.Load(),
		Agents: w.agentCount.Load(),
		QueueDepths: QueueDepths{
			Inbox:  len(w.inbox),
			Join:   len(w.join),
			Leave:  len(w.leave),
			Attach: len(w.attach),
		},
	}
}

func (w *World) joinAgent(name string, out chan []byte) JoinResponse {
	n := w.nextAgentNum.Add(1)
	id := fmt.Sprintf("A%04d", n)
	a := &Agent{
		ID:          id,
		Name:        name,
		ResumeToken: fmt.Sprintf("resume_%s_%d", id, mix64(uint64(w.cfg.Seed)+n)&0xffffff),
		Focus:       Vec3i{Y: w.cfg.FloorY},
	}
	a.initDefaults()
	w.agents[id] = a
	w.agentCount.Store(int64(len(w.agents)))
	w.clients[id] = &clientState{Out: out}
	return JoinResponse{
		Welcome:  w.buildWelcome(a),
		Catalogs: w.buildCatalogMsgs(),
	}
}

// handleAttach rebinds a reconnecting client to its agent by resume
// token. Handled inline (not at the tick boundary): it changes no
// simulation state.
func (w *World) handleAttach(req AttachRequest) {
	for _, a := range w.agents {
		if a.ResumeToken != "" && a.ResumeToken == req.ResumeToken {
			w.clients[a.ID] = &clientState{Out: req.Out}
			if req.Resp != nil {
				req.Resp <- JoinResponse{Welcome: w.buildWelcome(a), Catalogs: w.buildCatalogMsgs()}
			}
			return
		}
	}
	if req.Resp != nil {
		req.Resp <- JoinResponse{}
	}
}

func (w *World) handleLeave(agentID string) {
	delete(w.clients, agentID)
}

func (w *World) buildWelcome(a *Agent) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		AgentID:         a.ID,
		ResumeToken:     a.ResumeToken,
		WorldParams: protocol.WorldParams{
			TickRateHz:      w.cfg.TickRateHz,
			ChunkSize:       [3]int{chunkEdge, chunkEdge, chunkEdge},
			Height:          w.cfg.Height,
			BoundaryR:       w.cfg.BoundaryR,
			ObsRadius:       w.cfg.ObsRadius,
			ButtonHoldTicks: w.cfg.ButtonHoldTicks,
			Seed:            w.cfg.Seed,
		},
		Catalogs: protocol.CatalogDigests{
			BlockPalette: protocol.DigestRef{
				Digest: w.catalogs.Blocks.PaletteDigest,
				Count:  len(w.catalogs.Blocks.Palette),
			},
		},
	}
}

func (w *World) buildCatalogMsgs() []protocol.CatalogMsg {
	return []protocol.CatalogMsg{{
		Type:            protocol.TypeCatalog,
		ProtocolVersion: protocol.Version,
		Name:            "block_palette",
		Digest:          w.catalogs.Blocks.PaletteDigest,
		Data:            w.catalogs.Blocks.Palette,
	}}
}

// stateDigest hashes the full simulation state: chunk contents,
// rotations, published producer values, and gate states. Two worlds
// that replayed the same inputs must agree on it tick for tick.
func (w *World) stateDigest(tick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	binary.LittleEndian.PutUint64(tmp[:], tick)
	h.Write(tmp[:])

	for _, k := range w.chunks.LoadedChunkKeys() {
		ch := w.chunks.chunks[k]
		d := ch.Digest()
		h.Write(d[:])
	}

	for _, pos := range w.chunks.Rotations() {
		r := w.chunks.GetRotation(pos)
		writeVec(h, pos)
		h.Write([]byte{byte(r.Up), byte(r.Front)})
	}

	producers := w.engine.Driver().Producers()
	ports := make([]logic.Port, 0, len(producers))
	for p := range producers {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return portLessDigest(ports[i], ports[j]) })
	for _, p := range ports {
		writeVec(h, FromLogic(p.Coord))
		h.Write([]byte{byte(p.Dir)})
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(producers[p])))
		h.Write(tmp[:])
	}

	states := w.engine.States()
	coords := make([]Vec3i, 0, len(states))
	for c := range states {
		coords = append(coords, FromLogic(c))
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].ToLogic().Less(coords[j].ToLogic()) })
	for _, c := range coords {
		s := states[c.ToLogic()]
		writeVec(h, c)
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(s.Signal)))
		h.Write(tmp[:])
		flags := byte(0)
		if s.Pressed {
			flags |= 1
		}
		if s.Armed {
			flags |= 2
		}
		h.Write([]byte{flags, byte(s.Timer)})
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeVec(h interface{ Write([]byte) (int, error) }, v Vec3i) {
	var tmp [8]byte
	for _, c := range [3]int{v.X, v.Y, v.Z} {
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(c)))
		h.Write(tmp[:])
	}
}

func portLessDigest(a, b logic.Port) bool {
	if a.Coord != b.Coord {
		return a.Coord.Less(b.Coord)
	}
	return a.Dir < b.Dir
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

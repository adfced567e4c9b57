package logic

// portKind distinguishes the two port index maps inside the graph.
type portKind uint8

const (
	kindInput portKind = iota
	kindOutput
)

// Group is one network: a maximal connected set of compatible ports.
// Producers update first each tick, pushing any change of the aggregated
// value to the consumers, which re-evaluate on the following tick.
type Group struct {
	// Most recently placed wire of the group, kept to shortcut the walk
	// that identifies which group a new neighbor belongs to. Cleared when
	// that wire is removed.
	recentWire *Vec3i

	Producers map[Port]int
	Consumers map[Port]bool
}

func newGroup(recentWire *Vec3i) *Group {
	return &Group{
		recentWire: recentWire,
		Producers:  map[Port]int{},
		Consumers:  map[Port]bool{},
	}
}

// Signal returns the aggregated value of the group: the maximum producer
// value, which degenerates to OR for 0/1 circuits and preserves
// magnitude for analog-style producers. A group with no producers reads 0.
func (g *Group) Signal() int {
	max := 0
	for _, v := range g.Producers {
		if v > max {
			max = v
		}
	}
	return max
}

// On reports whether any producer is emitting a non-zero value.
func (g *Group) On() bool { return g.Signal() != 0 }

// Graph maintains the partition of ports into groups for one structure.
type Graph struct {
	nextGroupID int
	groups      map[int]*Group
	outputGroup map[Port]int
	inputGroup  map[Port]int
}

func newGraph() *Graph {
	return &Graph{
		groups:      map[int]*Group{},
		outputGroup: map[Port]int{},
		inputGroup:  map[Port]int{},
	}
}

func (g *Graph) newGroupID() int {
	id := g.nextGroupID
	g.nextGroupID++
	return id
}

func (g *Graph) newGroup(recentWire *Vec3i) int {
	id := g.newGroupID()
	g.groups[id] = newGroup(recentWire)
	return id
}

func (g *Graph) removeGroup(id int) {
	delete(g.groups, id)
}

func (g *Graph) portIndex(kind portKind) map[Port]int {
	if kind == kindInput {
		return g.inputGroup
	}
	return g.outputGroup
}

// groupOf returns the group attached to the given port, or nil if the
// port is not part of any network.
func (g *Graph) groupOf(port Port, kind portKind) *Group {
	id, ok := g.portIndex(kind)[port]
	if !ok {
		return nil
	}
	return g.groups[id]
}

// addPort inserts a port into a group and schedules its block: inputs
// are queued for Consume (their network value may differ from what the
// block last saw), outputs for Produce (so the block publishes its
// current value into the group).
func (g *Graph) addPort(port Port, groupID int, kind portKind, signal int, sched *Scheduler) {
	g.portIndex(kind)[port] = groupID
	grp := g.groups[groupID]
	if kind == kindInput {
		grp.Consumers[port] = true
		sched.QueueInput(port.Coord)
	} else {
		grp.Producers[port] = signal
		sched.QueueOutput(port.Coord)
	}
}

// removePort detaches a port from its group. If the port was the last
// member, the group is deleted outright. Removing an output port clears
// its producer value first and re-pings the group's consumers, so no
// stale signal survives the block's destruction.
func (g *Graph) removePort(port Port, kind portKind, st Structure, reg *Registry, sched *Scheduler) {
	if !st.InBounds(port.Coord.Step(port.Dir)) {
		// A port facing the structure edge was never added.
		return
	}
	groupID, ok := g.portIndex(kind)[port]
	if !ok {
		return
	}

	neighbor := port.Coord.Step(port.Dir)
	visited := allPortsFor(port.Coord)
	if _, found := g.findGroup(neighbor, port.Dir.Opposite(), st, visited, reg); !found {
		// Last port of its group.
		g.removeGroup(groupID)
	} else {
		grp := g.groups[groupID]
		if kind == kindInput {
			delete(grp.Consumers, port)
		} else {
			delete(grp.Producers, port)
			for consumer := range grp.Consumers {
				sched.QueueInput(consumer.Coord)
			}
		}
	}
	delete(g.portIndex(kind), port)
}

// findGroup walks from a neighboring block back toward an existing
// group. fromDir is the world direction of the face of coord that was
// entered (the opposite of the step taken to reach it). Blocks without a
// registration are non-conductive and end the walk.
func (g *Graph) findGroup(coord Vec3i, fromDir Direction, st Structure, visited map[Port]bool, reg *Registry) (int, bool) {
	if !st.InBounds(coord) {
		return 0, false
	}
	lb := reg.For(st.BlockTypeAt(coord))
	if lb == nil {
		return 0, false
	}

	face := st.RotationAt(coord).FacePointing(fromDir)
	switch lb.ConnectionOn(face) {
	case ConnInput:
		id, ok := g.inputGroup[NewPort(coord, fromDir)]
		return id, ok
	case ConnOutput:
		id, ok := g.outputGroup[NewPort(coord, fromDir)]
		return id, ok
	case ConnWire:
		if id, ok := g.groupByRecentWire(coord); ok {
			return id, ok
		}
		// This wire does not pin its group; recurse through its other
		// wire faces.
		visited[NewPort(coord, fromDir)] = true
		rot := st.RotationAt(coord)
		for _, wireFace := range lb.WireFaces() {
			dir := rot.DirectionOf(wireFace)
			visited[NewPort(coord, dir)] = true
			next := coord.Step(dir)
			if !st.InBounds(next) {
				continue
			}
			if visited[NewPort(next, dir.Opposite())] {
				continue
			}
			if id, ok := g.findGroup(next, dir.Opposite(), st, visited, reg); ok {
				return id, ok
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

func (g *Graph) groupByRecentWire(coord Vec3i) (int, bool) {
	for id, grp := range g.groups {
		if grp.recentWire != nil && *grp.recentWire == coord {
			return id, true
		}
	}
	return 0, false
}

func (g *Graph) setRecentWire(groupID int, coord Vec3i) {
	c := coord
	g.groups[groupID].recentWire = &c
}

// wireGroup resolves the group a wire-bearing block at coord belongs to,
// either via the group's pinned wire coordinate or by searching its
// neighbors.
func (g *Graph) wireGroup(coord Vec3i, lb *LogicBlock, st Structure, reg *Registry) (int, bool) {
	if id, ok := g.groupByRecentWire(coord); ok {
		return id, true
	}
	visited := allPortsFor(coord)
	rot := st.RotationAt(coord)
	for _, wireFace := range lb.WireFaces() {
		dir := rot.DirectionOf(wireFace)
		next := coord.Step(dir)
		if !st.InBounds(next) {
			continue
		}
		if id, ok := g.findGroup(next, dir.Opposite(), st, visited, reg); ok {
			return id, true
		}
	}
	return 0, false
}

// mergeGroups fuses the given groups into one freshly numbered group
// containing the union of their ports, pinned to the wire block at coord
// that connected them. Every consumer is re-pinged: the merged aggregate
// may differ from what either half read before.
func (g *Graph) mergeGroups(groupIDs map[int]bool, coord Vec3i, sched *Scheduler) {
	newID := g.newGroupID()
	for port, id := range g.outputGroup {
		if groupIDs[id] {
			g.outputGroup[port] = newID
		}
	}
	for port, id := range g.inputGroup {
		if groupIDs[id] {
			g.inputGroup[port] = newID
		}
	}

	merged := newGroup(&coord)
	for id := range groupIDs {
		grp := g.groups[id]
		if grp == nil {
			continue
		}
		for port, v := range grp.Producers {
			merged.Producers[port] = v
		}
		for port := range grp.Consumers {
			merged.Consumers[port] = true
		}
		g.removeGroup(id)
	}
	g.groups[newID] = merged

	for consumer := range merged.Consumers {
		sched.QueueInput(consumer.Coord)
	}
}

// renameGroup walks one connected component after a wire removal,
// re-homing every reachable port into the group newID. Producer values
// move with their ports. Reports whether anything was reachable (an
// untouched newID group should be discarded by the caller).
func (g *Graph) renameGroup(newID int, coord Vec3i, fromDir Direction, st Structure, visited map[Port]bool, reg *Registry, sched *Scheduler) bool {
	if visited[NewPort(coord, fromDir)] {
		return false
	}
	if !st.InBounds(coord) {
		return false
	}
	lb := reg.For(st.BlockTypeAt(coord))
	if lb == nil {
		return false
	}

	face := st.RotationAt(coord).FacePointing(fromDir)
	switch lb.ConnectionOn(face) {
	case ConnInput:
		g.addPort(NewPort(coord, fromDir), newID, kindInput, 0, sched)
	case ConnOutput:
		port := NewPort(coord, fromDir)
		signal := 0
		if old := g.groupOf(port, kindOutput); old != nil {
			signal = old.Producers[port]
		}
		g.addPort(port, newID, kindOutput, signal, sched)
	case ConnWire:
		visited[NewPort(coord, fromDir)] = true
		rot := st.RotationAt(coord)
		for _, wireFace := range lb.WireFaces() {
			dir := rot.DirectionOf(wireFace)
			visited[NewPort(coord, dir)] = true
			next := coord.Step(dir)
			if !st.InBounds(next) {
				continue
			}
			if visited[NewPort(next, dir.Opposite())] {
				continue
			}
			g.renameGroup(newID, next, dir.Opposite(), st, visited, reg, sched)
		}
		// Set last so the walk's entry wire ends up pinned.
		g.setRecentWire(newID, coord)
	default:
		return false
	}
	return true
}

// updateProducer publishes a new value for an output port. Setting the
// same value twice is a no-op and schedules nothing; a changed group
// aggregate queues every consumer for the next Consume phase.
func (g *Graph) updateProducer(port Port, signal int, sched *Scheduler) {
	grp := g.groupOf(port, kindOutput)
	if grp == nil {
		return
	}
	if old, ok := grp.Producers[port]; ok && old == signal {
		return
	}
	was := g.signalOfGroup(grp)
	grp.Producers[port] = signal
	if g.signalOfGroup(grp) != was {
		for consumer := range grp.Consumers {
			sched.QueueInput(consumer.Coord)
		}
	}
}

func (g *Graph) signalOfGroup(grp *Group) int { return grp.Signal() }

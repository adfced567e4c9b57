package logic

// Driver is the public interface to one structure's logic graph. Gate
// behaviors and the world only ever talk to the driver; they never touch
// the graph directly. A driver belongs to exactly one structure.
type Driver struct {
	graph *Graph
}

func NewDriver() *Driver {
	return &Driver{graph: newGraph()}
}

// ReadInput returns the aggregated value of the network attached to the
// input port at (coord, dir), or 0 if the face has no port or the port
// no network. It never mutates state and may be called any number of
// times during Consume.
func (d *Driver) ReadInput(coord Vec3i, dir Direction) int {
	grp := d.graph.groupOf(NewPort(coord, dir), kindInput)
	if grp == nil {
		return 0
	}
	return grp.Signal()
}

// ReadAllInputs reads all six faces in BlockFace order, resolving each
// face through the block's current rotation.
func (d *Driver) ReadAllInputs(coord Vec3i, rot Rotation) [6]int {
	var out [6]int
	for _, face := range AllFaces {
		out[face.Index()] = d.ReadInput(coord, rot.DirectionOf(face))
	}
	return out
}

// UpdateProducer sets the emitted value of an output port. Equal values
// are suppressed; changed group aggregates queue the group's consumers
// for the next tick's Consume phase.
func (d *Driver) UpdateProducer(port Port, signal int, sched *Scheduler) {
	d.graph.updateProducer(port, signal, sched)
}

func (d *Driver) portPlaced(coord Vec3i, dir Direction, kind portKind, st Structure, reg *Registry, sched *Scheduler) {
	neighbor := coord.Step(dir)
	if !st.InBounds(neighbor) {
		// No neighbor cell, no port (and thus no new group).
		return
	}
	visited := allPortsFor(coord)
	groupID, found := d.graph.findGroup(neighbor, dir.Opposite(), st, visited, reg)
	if !found {
		groupID = d.graph.newGroup(nil)
	}
	d.graph.addPort(NewPort(coord, dir), groupID, kind, 0, sched)
}

// AddBlock adds a logic block, with all of its ports and wire
// connections, to the graph. New wire edges merge the adjacent groups
// into one.
func (d *Driver) AddBlock(lb *LogicBlock, rot Rotation, coord Vec3i, st Structure, reg *Registry, sched *Scheduler) {
	for _, face := range lb.InputFaces() {
		d.portPlaced(coord, rot.DirectionOf(face), kindInput, st, reg, sched)
	}
	for _, face := range lb.OutputFaces() {
		d.portPlaced(coord, rot.DirectionOf(face), kindOutput, st, reg, sched)
	}

	if !lb.HasWires() {
		return
	}

	// Collect the groups adjacent to any wire face.
	groupIDs := map[int]bool{}
	for _, face := range lb.WireFaces() {
		dir := rot.DirectionOf(face)
		neighbor := coord.Step(dir)
		if !st.InBounds(neighbor) {
			continue
		}
		visited := allPortsFor(coord)
		if id, ok := d.graph.findGroup(neighbor, dir.Opposite(), st, visited, reg); ok {
			groupIDs[id] = true
		}
	}

	switch len(groupIDs) {
	case 0:
		d.graph.newGroup(&coord)
	case 1:
		for id := range groupIDs {
			d.graph.setRecentWire(id, coord)
		}
	default:
		d.graph.mergeGroups(groupIDs, coord, sched)
	}
}

// RemoveBlock removes a logic block from the graph. Removing a wire
// block may split its group into several disconnected groups, each of
// which recomputes its aggregate; consumers whose value changed are
// re-queued. The caller must have already removed the block from the
// structure storage.
func (d *Driver) RemoveBlock(lb *LogicBlock, rot Rotation, coord Vec3i, st Structure, reg *Registry, sched *Scheduler) {
	for _, face := range lb.InputFaces() {
		d.graph.removePort(NewPort(coord, rot.DirectionOf(face)), kindInput, st, reg, sched)
	}
	for _, face := range lb.OutputFaces() {
		d.graph.removePort(NewPort(coord, rot.DirectionOf(face)), kindOutput, st, reg, sched)
	}

	if !lb.HasWires() {
		return
	}

	oldGroupID, ok := d.graph.wireGroup(coord, lb, st, reg)
	if !ok {
		// Isolated wire with no surviving group record.
		if id, pinned := d.graph.groupByRecentWire(coord); pinned {
			d.graph.removeGroup(id)
		}
		return
	}
	wasOn := d.graph.groups[oldGroupID].On()

	// Walk out of each wire face, claiming one surviving component per
	// unvisited direction under a fresh group id.
	visited := allPortsFor(coord)
	for _, face := range lb.WireFaces() {
		dir := rot.DirectionOf(face)
		neighbor := coord.Step(dir)
		if !st.InBounds(neighbor) {
			continue
		}
		groupID := d.graph.newGroup(nil)
		if !d.graph.renameGroup(groupID, neighbor, dir.Opposite(), st, visited, reg, sched) {
			d.graph.removeGroup(groupID)
			continue
		}
		grp := d.graph.groups[groupID]
		if grp.On() != wasOn {
			for consumer := range grp.Consumers {
				sched.QueueInput(consumer.Coord)
			}
		}
	}
	d.graph.removeGroup(oldGroupID)
}

// GroupCount reports the number of live networks (used by tests and the
// world's debug surface).
func (d *Driver) GroupCount() int { return len(d.graph.groups) }

// ProducerValue returns the currently published value of an output port.
func (d *Driver) ProducerValue(port Port) (int, bool) {
	grp := d.graph.groupOf(port, kindOutput)
	if grp == nil {
		return 0, false
	}
	v, ok := grp.Producers[port]
	return v, ok
}

// Producers returns every output port and its published value, for
// snapshot export.
func (d *Driver) Producers() map[Port]int {
	out := make(map[Port]int)
	for port := range d.graph.outputGroup {
		if grp := d.graph.groupOf(port, kindOutput); grp != nil {
			out[port] = grp.Producers[port]
		}
	}
	return out
}

package engine

import (
	"errors"

	"axum-engine/debug"
	"axum-engine/fieldbus"
	"axum-engine/funcnum"
	"axum-engine/mixer"
	"axum-engine/registry"
	"axum-engine/store"
)

// OnAddressTableChange handles a node appearing, disappearing or moving on
// the field bus.
func (e *Engine) OnAddressTableChange(old, cur fieldbus.AddressEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case !old.Valid() && cur.Valid():
		e.addNode(cur)
	case old.Valid() && !cur.Valid():
		e.removeNode(old.Address)
	case old.Valid() && cur.Valid():
		debug.Log("node", "%08x moved to %08x", old.Address, cur.Address)
	}
	e.flush()
}

func (e *Engine) addNode(entry fieldbus.AddressEntry) {
	id, fresh := e.reg.AddNode(entry)
	if !fresh {
		debug.Log("node", "%08x already known as %s", entry.Address, id)
		return
	}
	debug.Log("node", "%08x online: %04x:%04x #%d, id %s", entry.Address, entry.ManufacturerID, entry.ProductID, entry.UniqueID, id)
	for _, obj := range []uint16{fieldbus.ObjFirmwareMajorRevision, fieldbus.ObjNumberOfObjects} {
		if err := e.out.RequestSensorValue(entry.Address, obj, false); err != nil {
			debug.Log("node", "%08x: request %d: %v", entry.Address, obj, err)
		}
	}
}

// removeNode drops a node, rebuilds the functions it served in one batch,
// frees its rack slot and re-routes only what depended on it.
func (e *Engine) removeNode(addr uint32) {
	fns, ok := e.reg.RemoveNode(addr)
	if !ok {
		return
	}
	e.reg.RebuildAll(fns)
	debug.Log("node", "%08x offline, %d functions rebuilt", addr, len(fns))

	for i := range e.st.RackSlots {
		if e.st.RackSlots[i].Address != addr {
			continue
		}
		e.st.RackSlots[i] = mixer.RackSlot{}
		if err := e.store.DeleteSlot(i); err != nil && !errors.Is(err, store.ErrNotFound) {
			e.errs.HandleError(err)
		}
		e.rerouteAddress(addr)
	}
	for i := range e.st.DSPCards {
		if e.st.DSPCards[i].Address == addr {
			debug.Log("node", "%08x was DSP card %d", addr, i)
		}
	}
}

// rerouteAddress re-applies the routing of every module, DSP card and
// destination using a source or output on the I/O card at addr.
func (e *Engine) rerouteAddress(addr uint32) {
	affected := make(map[int]bool)
	for s := range e.st.Sources {
		for _, in := range e.st.Sources[s].Inputs {
			if in.Address == addr {
				affected[mixer.MatrixOfSource(s)] = true
				break
			}
		}
	}

	for m := range e.st.Modules {
		mod := &e.st.Modules[m]
		if affected[mod.SelectedSource] {
			e.router.ModuleSource(m)
			e.notifyModule(m, funcnum.ModuleSource)
		}
		if affected[mod.InsertSource] {
			e.router.ModuleInsertSource(m)
		}
	}
	for card := range e.st.DSPCards {
		for _, ms := range e.st.DSPCards[card].ExternSources {
			if affected[ms] {
				e.router.ExternSources(card)
				break
			}
		}
	}
	for d := range e.st.Destinations {
		dst := &e.st.Destinations[d]
		uses := affected[e.router.DestinationFeed(d)]
		for _, out := range dst.Outputs {
			if out.Address == addr {
				uses = true
			}
		}
		if uses {
			e.router.DestinationSource(d)
			e.notifyDestination(d, funcnum.DestinationSource)
		}
	}
}

// OnSensorDataResponse handles the answer to a RequestSensorValue.
func (e *Engine) OnSensorDataResponse(addr uint32, obj uint16, v fieldbus.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.reg.Node(addr)
	if !ok {
		debug.Log("node", "%08x: response from unknown node", addr)
		return
	}
	switch {
	case obj == fieldbus.ObjFirmwareMajorRevision:
		e.reg.Update(addr, func(node *registry.Node) { node.FirmwareMajor = int(v.Int) })
		e.loadTemplate(addr)
	case obj == fieldbus.ObjNumberOfObjects:
		e.reg.Update(addr, func(node *registry.Node) { node.NumberOfObjects = int(v.Int) })
		e.loadTemplate(addr)
	case n.SlotObject != 0 && obj == n.SlotObject:
		e.slotChanged(addr, int(v.Int))
	case obj >= fieldbus.CustomObjectBase:
		// Level mirrors answer with the current position of their control.
		b, ok := e.reg.Binding(addr, obj)
		if !ok || b.Function == funcnum.Unbound {
			return
		}
		switch b.Function.Sub() {
		case funcnum.MonitorPhonesLevel, funcnum.MonitorSpeakerLevel:
			if b.Function.Domain() == funcnum.MonitorBuss {
				e.dispatch(b.Function, e.newInput(addr, obj, b, v, 0))
			}
		}
	}
	e.flush()
}

// loadTemplate installs the object table once firmware and object count
// are known, binds the configured functions and sends the node its initial
// values. A template whose object count differs keeps the node waiting for
// a re-probe.
func (e *Engine) loadTemplate(addr uint32) {
	n, ok := e.reg.Node(addr)
	if !ok || n.InitFinished || n.FirmwareMajor < 0 || n.NumberOfObjects < 0 {
		return
	}
	if e.catalog == nil {
		debug.Log("node", "%08x: no node catalog", addr)
		return
	}
	tpl, err := e.catalog.LoadNodeTemplate(n.ManufacturerID, n.ProductID, n.FirmwareMajor)
	if err != nil {
		debug.Log("node", "%08x: %v", addr, err)
		return
	}
	if len(tpl.Objects) != n.NumberOfObjects {
		debug.Log("node", "%08x: template has %d objects, node reports %d", addr, len(tpl.Objects), n.NumberOfObjects)
		return
	}

	objs := make([]registry.Object, len(tpl.Objects))
	for i, ot := range tpl.Objects {
		objs[i] = registry.Object{Description: ot.Description, Sensor: ot.Sensor, Actuator: ot.Actuator}
	}
	e.reg.SetObjects(addr, objs)
	e.reg.Update(addr, func(node *registry.Node) {
		node.TemplateObjects = len(objs)
		node.SlotObject = tpl.SlotObject
	})

	entry := fieldbus.AddressEntry{Address: addr, ManufacturerID: n.ManufacturerID, ProductID: n.ProductID, UniqueID: n.UniqueID}
	var fns []funcnum.Number
	cfg, err := e.catalog.LoadNodeConfig(entry)
	switch {
	case err == nil:
		for _, b := range cfg.Bindings {
			fn, err := funcnum.Parse(b.Function)
			if err != nil {
				debug.Log("node", "%08x/%d: %v", addr, b.Object, err)
				continue
			}
			if _, ok := e.reg.Bind(addr, b.Object, fn, b.Threshold()); !ok {
				debug.Log("node", "%08x/%d: no such object", addr, b.Object)
				continue
			}
			fns = append(fns, fn)
		}
	case !errors.Is(err, store.ErrNotFound):
		e.errs.HandleError(err)
	}
	e.reg.RebuildAll(fns)
	e.reg.Update(addr, func(node *registry.Node) { node.InitFinished = true })
	debug.Log("node", "%08x: %d objects, %d bound", addr, len(objs), len(fns))

	e.syncNode(addr)
	if tpl.SlotObject != 0 {
		if err := e.out.RequestSensorValue(addr, tpl.SlotObject, false); err != nil {
			debug.Log("node", "%08x: request slot: %v", addr, err)
		}
	}
}

// slotChanged records the rack slot an I/O card reports and re-routes
// everything that uses it.
func (e *Engine) slotChanged(addr uint32, slot int) {
	if slot < 0 || slot >= mixer.NumRackSlots {
		debug.Log("node", "%08x: slot %d out of range", addr, slot)
		return
	}
	n, _ := e.reg.Node(addr)
	rs := mixer.RackSlot{Address: addr}
	if e.catalog != nil {
		if tpl, err := e.catalog.LoadNodeTemplate(n.ManufacturerID, n.ProductID, n.FirmwareMajor); err == nil {
			rs.InputChannels = tpl.InputChannels
			rs.OutputChannels = tpl.OutputChannels
		}
	}

	for i := range e.st.RackSlots {
		if i != slot && e.st.RackSlots[i].Address == addr {
			e.st.RackSlots[i] = mixer.RackSlot{}
			if err := e.store.DeleteSlot(i); err != nil && !errors.Is(err, store.ErrNotFound) {
				e.errs.HandleError(err)
			}
		}
	}
	e.st.RackSlots[slot] = rs
	e.reg.Update(addr, func(node *registry.Node) { node.SlotNumber = slot })
	if err := e.store.UpsertSlot(slot, rs); err != nil {
		e.errs.HandleError(err)
	}
	debug.Log("node", "%08x in slot %d (%d in, %d out)", addr, slot, rs.InputChannels, rs.OutputChannels)
	e.rerouteAddress(addr)
}

package engine

import (
	"fmt"

	"axum-engine/debug"
	"axum-engine/mixer"
)

// LoadConfig fills the model from the store. Records whose index is out of
// range are skipped. Nothing is pushed to the hardware; call Restore after.
func (e *Engine) LoadConfig() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.st
	g, err := e.store.LoadGlobal()
	if err != nil {
		return fmt.Errorf("load global: %w", err)
	}
	st.Global = g

	slots, err := e.store.LoadSlots()
	if err != nil {
		return fmt.Errorf("load slots: %w", err)
	}
	for _, s := range slots {
		if s.Index >= 0 && s.Index < mixer.NumRackSlots {
			st.RackSlots[s.Index] = s.RackSlot
		}
	}

	sources, err := e.store.LoadSources()
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	for _, c := range sources {
		src, ok := st.Source(c.Index)
		if !ok {
			debug.Log("store", "source %d out of range", c.Index)
			continue
		}
		src.Label = c.Label
		src.Inputs = c.Inputs
		src.DefaultGain = c.DefaultGain
		src.Gain = c.DefaultGain
		src.Phantom = c.Phantom
		src.Pad = c.Pad
		src.StartOnActive = c.StartOnActive
		src.StopOnInactive = c.StopOnInactive
		src.Redlight = c.Redlight
		src.MonitorMute = c.MonitorMute
		src.RelatedDestination = c.RelatedDestination
		src.Pool = c.Pool
	}

	modules, err := e.store.LoadModules()
	if err != nil {
		return fmt.Errorf("load modules: %w", err)
	}
	for _, c := range modules {
		mod, ok := st.Module(c.Index)
		if !ok {
			debug.Log("store", "module %d out of range", c.Index)
			continue
		}
		mod.Label = c.Label
		mod.Console = c.Console
		mod.SelectedSource = c.Source
		mod.InsertSource = c.InsertSource
		mod.Presets = c.Presets
		mod.Defaults = c.Defaults
		mod.DefaultRouting = c.DefaultRouting
		for b := range mod.Buss {
			mod.Buss[b].Assigned = c.Assigned[b]
		}
		applyProcessingDefaults(mod)
	}

	busses, err := e.store.LoadBusses()
	if err != nil {
		return fmt.Errorf("load busses: %w", err)
	}
	for _, c := range busses {
		b, ok := st.Buss(c.Index)
		if !ok {
			debug.Log("store", "buss %d out of range", c.Index)
			continue
		}
		b.Label = c.Label
		b.MasterLevel = c.MasterLevel
		b.Mono = c.Mono
		b.PreModuleOn = c.PreModuleOn
		b.PreModuleLevel = c.PreModuleLevel
		b.PreModuleBalance = c.PreModuleBalance
		b.Exclusive = c.Exclusive
		b.Interlock = c.Interlock
		b.Talkback = c.Talkback
		b.Console = c.Console
		b.GlobalReset = c.GlobalReset
	}

	monitors, err := e.store.LoadMonitors()
	if err != nil {
		return fmt.Errorf("load monitors: %w", err)
	}
	for _, c := range monitors {
		mon, ok := st.Monitor(c.Index)
		if !ok {
			debug.Log("store", "monitor %d out of range", c.Index)
			continue
		}
		mon.Label = c.Label
		mon.AutoSwitch = c.AutoSwitch
		mon.DefaultSelection = c.DefaultSelection
		mon.Interlock = c.Interlock
		mon.Talkback = c.Talkback
		mon.Console = c.Console
		mon.SwitchingDimLevel = c.SwitchingDimLevel
		mon.PhonesLevel = c.PhonesLevel
		mon.SpeakerLevel = c.SpeakerLevel
		if c.DefaultSelection >= 0 && c.DefaultSelection < mixer.NumMonitorInputs {
			mon.Buss[c.DefaultSelection] = true
		}
	}

	dests, err := e.store.LoadDestinations()
	if err != nil {
		return fmt.Errorf("load destinations: %w", err)
	}
	for _, c := range dests {
		dst, ok := st.Destination(c.Index)
		if !ok {
			debug.Log("store", "destination %d out of range", c.Index)
			continue
		}
		dst.Label = c.Label
		dst.Outputs = c.Outputs
		dst.Source = c.Source
		dst.Level = c.Level
		dst.Routing = c.Routing
		dst.Talkback = c.Talkback
		dst.MixMinusSource = c.MixMinusSource
		dst.CommBuss = c.CommBuss
	}

	presets, err := e.store.LoadProcessingPresets()
	if err != nil {
		return fmt.Errorf("load processing presets: %w", err)
	}
	st.ProcessingPresets = presets

	routing, err := e.store.LoadRoutingPresets()
	if err != nil {
		return fmt.Errorf("load routing presets: %w", err)
	}
	for _, c := range routing {
		mod, ok := st.Module(c.Module)
		if !ok || c.Index < 0 || c.Index >= mixer.NumRoutingPresets {
			debug.Log("store", "routing preset %d of module %d out of range", c.Index, c.Module)
			continue
		}
		mod.RoutingPresets[c.Index] = c.RoutingPreset
	}

	consolePresets, err := e.store.LoadConsolePresets()
	if err != nil {
		return fmt.Errorf("load console presets: %w", err)
	}
	for _, c := range consolePresets {
		if c.Index >= 0 && c.Index < mixer.NumConsolePresets {
			st.ConsolePresets[c.Index] = c.ConsolePreset
		}
	}

	mixMonitor, err := e.store.LoadMixMonitorPresets()
	if err != nil {
		return fmt.Errorf("load mix/monitor presets: %w", err)
	}
	for _, c := range mixMonitor {
		if c.Index >= 0 && c.Index < mixer.NumMixMonitor {
			st.MixMonitorPresets[c.Index] = c.MixMonitorPreset
		}
	}

	st.RebuildMatrixPositions()
	st.RebuildPresetPositions()
	debug.Log("store", "loaded %d sources, %d modules, %d presets", len(sources), len(modules), len(presets))
	return nil
}

// applyProcessingDefaults sets the processing and buss sends of mod to its
// configured defaults.
func applyProcessingDefaults(mod *mixer.Module) {
	d := &mod.Defaults
	if d.UseGain {
		mod.Gain = d.Gain
	}
	if d.UseLowCut {
		mod.LowCutFrequency = d.LowCutFrequency
		mod.LowCutOn = d.LowCutOn
	}
	if d.UsePhase {
		mod.Phase = d.Phase
	}
	if d.UseMono {
		mod.Mono = d.Mono
	}
	if d.UseEQ {
		mod.EQOn = d.EQOn
		mod.EQ = d.EQ
	}
	if d.UseDynamics {
		mod.Dynamics = d.Dynamics
	}
	for b, rb := range mod.DefaultRouting.Buss {
		if rb.Use {
			mod.Buss[b].Level = rb.Level
			mod.Buss[b].On = rb.On
			mod.Buss[b].Balance = rb.Balance
		}
	}
}

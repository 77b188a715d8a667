package midi

import (
	"context"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"axum-engine/config"
	"axum-engine/debug"
)

// DeviceEvent is emitted when surfaces connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	Surface    config.SurfaceConfig
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// scanTimeout bounds one port listing; some MIDI backends hang.
const scanTimeout = 3 * time.Second

type connected struct {
	ctl     Controller
	surface config.SurfaceConfig
}

// DeviceManager handles hot-plug detection of configured surfaces
type DeviceManager struct {
	surfaces    []config.SurfaceConfig
	controllers map[string]connected
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration

	// open is NewSurface, replaced in tests.
	open func(id string, in drivers.In, out drivers.Out) (Controller, error)
	// ports lists the MIDI ports, replaced in tests.
	ports func() ([]drivers.In, []drivers.Out)
}

// NewDeviceManager watches for the given surfaces.
func NewDeviceManager(surfaces []config.SurfaceConfig) *DeviceManager {
	return &DeviceManager{
		surfaces:    surfaces,
		controllers: make(map[string]connected),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		open: func(id string, in drivers.In, out drivers.Out) (Controller, error) {
			return NewSurface(id, in, out)
		},
		ports: func() ([]drivers.In, []drivers.Out) {
			return gomidi.GetInPorts(), gomidi.GetOutPorts()
		},
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected surfaces by port name.
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v.ctl
	}
	return out
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

// match returns the configured surface for a port name.
func (dm *DeviceManager) match(name string) (config.SurfaceConfig, bool) {
	for i := range dm.surfaces {
		if dm.surfaces[i].Matches(name) {
			return dm.surfaces[i], true
		}
	}
	return config.SurfaceConfig{}, false
}

func (dm *DeviceManager) scan() {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		inPorts, outPorts := dm.ports()
		ch <- portsResult{inPorts: inPorts, outPorts: outPorts}
	}()

	var inPorts []drivers.In
	var outPorts []drivers.Out

	select {
	case result := <-ch:
		inPorts = result.inPorts
		outPorts = result.outPorts
	case <-time.After(scanTimeout):
		debug.Log("midi", "port scan timed out")
		return
	}

	seenIDs := make(map[string]bool)
	claimed := make(map[uint32]bool)
	dm.mu.RLock()
	for _, c := range dm.controllers {
		claimed[c.surface.Address] = true
	}
	dm.mu.RUnlock()

	for _, inPort := range inPorts {
		id := inPort.String()
		surface, ok := dm.match(id)
		if !ok {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists || claimed[surface.Address] {
			continue
		}

		// Find matching output port
		var outPort drivers.Out
		for j, op := range outPorts {
			if surface.Matches(op.String()) {
				outPort = outPorts[j]
				break
			}
		}

		ctl, err := dm.open(id, inPort, outPort)
		if err != nil {
			debug.Log("midi", "open %s: %v", id, err)
			continue
		}
		claimed[surface.Address] = true

		dm.mu.Lock()
		dm.controllers[id] = connected{ctl: ctl, surface: surface}
		dm.mu.Unlock()

		debug.Log("midi", "connected %s as %q at 0x%x", id, surface.Name, surface.Address)
		dm.events <- DeviceEvent{
			Type:       DeviceConnected,
			Controller: ctl,
			Surface:    surface,
			ID:         id,
		}
	}

	// Check for disconnects
	dm.mu.Lock()
	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		c := dm.controllers[id]
		c.ctl.Close()
		delete(dm.controllers, id)
		debug.Log("midi", "disconnected %s", id)
		dm.events <- DeviceEvent{
			Type:    DeviceDisconnected,
			Surface: c.surface,
			ID:      id,
		}
	}
	dm.mu.Unlock()
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.ctl.Close()
	}
	dm.controllers = make(map[string]connected)
}

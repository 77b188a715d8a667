package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"axum-engine/config"
	"axum-engine/debug"
	"axum-engine/engine"
	"axum-engine/midi"
	"axum-engine/store"
	"axum-engine/theme"
	"axum-engine/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/axum-engine/config.yaml)")
	fresh := flag.Bool("fresh", false, "ignore the last backup and start from the stored configuration")
	headless := flag.Bool("headless", false, "run without the status monitor")
	flag.Parse()

	if err := run(*configPath, *fresh, *headless); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, fresh, headless bool) error {
	// Load config
	var cfg *config.Config
	var err error
	if configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(configPath)
	}
	if err != nil {
		return err
	}

	if cfg.Debug {
		if err := debug.Enable(""); err != nil {
			return err
		}
		defer debug.Disable()
	}

	storeDir, err := cfg.StorePath()
	if err != nil {
		return err
	}
	st, err := store.Open(storeDir)
	if err != nil {
		return err
	}

	// Surfaces are nodes on the bridge; their templates come from the
	// config, everything else from the store.
	bridge := midi.NewBridge(cfg.Surfaces)
	e := engine.New(engine.Options{
		Sender:       bridge,
		Store:        st,
		Catalogs:     store.Catalogs{bridge, st},
		BackupTicks:  cfg.BackupTicks(),
		TickPeriod:   cfg.TickPeriod(),
		MeterDivider: cfg.MeterDivider,
	})
	if err := e.LoadConfig(); err != nil {
		return err
	}
	if err := e.Restore(fresh); err != nil {
		return err
	}
	bridge.SetHandler(e)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go e.Run(ctx)
	go bridge.Run(ctx)

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(cfg.AutoConnectSurfaces())
	go deviceMgr.Run(ctx)

	defer func() {
		if err := e.Backup(); err != nil {
			debug.Log("backup", "final backup: %v", err)
		}
	}()

	if headless {
		fmt.Printf("axum-engine: %d surfaces configured, store %s\n", len(cfg.Surfaces), storeDir)
		attachSurfaces(deviceMgr, bridge)
		return nil
	}

	palette, err := theme.LoadOrDefault(cfg.Palette)
	if err != nil {
		debug.Log("theme", "%v, using built-in palette", err)
	}
	m := tui.NewModel(e, deviceMgr, bridge, theme.New(palette))
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}

// attachSurfaces feeds hot-plug events to the bridge until the device
// manager stops.
func attachSurfaces(deviceMgr *midi.DeviceManager, bridge *midi.Bridge) {
	for ev := range deviceMgr.Events() {
		switch ev.Type {
		case midi.DeviceConnected:
			if err := bridge.Attach(ev.Controller, ev.Surface); err != nil {
				debug.Log("midi", "attach %s: %v", ev.ID, err)
			}
		case midi.DeviceDisconnected:
			bridge.Detach(ev.Surface.Address)
		}
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"axum-engine/config"
	"axum-engine/fieldbus"
	"axum-engine/midi"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/axum-engine/config.yaml)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		return
	}

	var err error
	switch flag.Arg(0) {
	case "list":
		err = listPorts()
	case "detect":
		err = withConfig(*configPath, detect)
	case "watch":
		err = withConfig(*configPath, watch)
	case "text":
		err = withConfig(*configPath, func(cfg *config.Config) error {
			return sendText(cfg, flag.Args()[1:])
		})
	default:
		usage()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Surface probe")
	fmt.Println("")
	fmt.Println("Usage: surfaceprobe [-config file] <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                          - List all MIDI ports")
	fmt.Println("  detect                        - Match ports against configured surfaces")
	fmt.Println("  watch                         - Print sensor events of connected surfaces")
	fmt.Println("  text <surface> <display> <s>  - Show text on a surface display")
}

func withConfig(path string, fn func(*config.Config) error) error {
	var cfg *config.Config
	var err error
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return err
	}
	return fn(cfg)
}

// ports lists the MIDI ports; some backends hang, so give up after 3s.
func ports() ([]drivers.In, []drivers.Out, error) {
	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r.ins, r.outs, nil
	case <-time.After(3 * time.Second):
		return nil, nil, fmt.Errorf("timed out listing MIDI ports")
	}
}

func listPorts() error {
	ins, outs, err := ports()
	if err != nil {
		return err
	}
	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	return nil
}

func detect(cfg *config.Config) error {
	ins, outs, err := ports()
	if err != nil {
		return err
	}
	for _, s := range cfg.Surfaces {
		var in, out string
		for _, p := range ins {
			if s.Matches(p.String()) && in == "" {
				in = p.String()
			}
		}
		for _, p := range outs {
			if s.Matches(p.String()) && out == "" {
				out = p.String()
			}
		}
		status := "not found"
		if in != "" || out != "" {
			status = fmt.Sprintf("in %q out %q", in, out)
		}
		fmt.Printf("%-12s 0x%08x  %2d controls  %s\n", s.Name, s.Address, len(s.Controls), status)
	}
	return nil
}

// watch connects every configured surface found and prints what the engine
// would receive.
func watch(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	dm := midi.NewDeviceManager(cfg.Surfaces)
	go dm.Run(ctx)

	fmt.Println("Watching configured surfaces. Ctrl+C to exit.")
	for ev := range dm.Events() {
		switch ev.Type {
		case midi.DeviceConnected:
			fmt.Printf("[%s] %s connected as %q\n", time.Now().Format("15:04:05"), ev.ID, ev.Surface.Name)
			go printEvents(midi.NewLayout(ev.Surface), ev.Controller)
		case midi.DeviceDisconnected:
			fmt.Printf("[%s] %s disconnected\n", time.Now().Format("15:04:05"), ev.ID)
		}
	}
	return nil
}

func printEvents(l *midi.Layout, ctl midi.Controller) {
	for ev := range ctl.Events() {
		obj, v, ok := l.Sensor(ev)
		if !ok {
			fmt.Printf("  unmapped type 0x%02X ch %d #%d = %d\n", ev.Type, ev.Channel, ev.Number, ev.Value)
			continue
		}
		ctlCfg, _ := l.Control(obj)
		fmt.Printf("  object %d %-28s %s %s\n", obj, ctlCfg.Function, v.Type, v)
	}
}

func sendText(cfg *config.Config, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("want: text <surface> <display> <text>")
	}
	var surface *config.SurfaceConfig
	for i := range cfg.Surfaces {
		if cfg.Surfaces[i].Name == args[0] {
			surface = &cfg.Surfaces[i]
		}
	}
	if surface == nil {
		return fmt.Errorf("no surface named %q", args[0])
	}
	display, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("display %q: %w", args[1], err)
	}

	l := midi.NewLayout(*surface)
	var obj uint16
	found := false
	for i, c := range surface.Controls {
		if c.Kind == config.KindDisplay && int(c.Controller) == display {
			obj = fieldbus.CustomObjectBase + uint16(i)
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("surface %q has no display %d", surface.Name, display)
	}
	msg, _ := l.Message(obj, fieldbus.OctetsValue(strings.Join(args[2:], " ")))

	_, outs, err := ports()
	if err != nil {
		return err
	}
	for _, p := range outs {
		if !surface.Matches(p.String()) {
			continue
		}
		send, err := gomidi.SendTo(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p.String(), err)
		}
		fmt.Printf("Sending to %s: % X\n", p.String(), []byte(msg))
		return send(msg)
	}
	return fmt.Errorf("no output port for %q", surface.Name)
}

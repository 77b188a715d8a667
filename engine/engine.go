// Package engine is the control-plane core of the console. It receives
// sensor changes from the field bus, applies them to the mixer model under
// one state lock, pushes the resulting routing and DSP changes and fans the
// new values out to every attached control object.
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"axum-engine/debug"
	"axum-engine/fieldbus"
	"axum-engine/funcnum"
	"axum-engine/mixer"
	"axum-engine/registry"
	"axum-engine/routing"
	"axum-engine/store"
)

// Timing in ticks of the 10 ms timer.
const (
	TickPeriod        = 10 * time.Millisecond
	MeterDivider      = 5
	ReprobeDivider    = 5
	ControlModeTicks  = 1000
	AutoDeselectTicks = 1000
)

// ErrorHandler receives failures of the store and backup paths.
type ErrorHandler interface {
	HandleError(err error)
}

// DefaultErrorHandler logs errors.
type DefaultErrorHandler struct{}

func (DefaultErrorHandler) HandleError(err error) {
	debug.Log("store", "error: %v", err)
}

// Options configures an Engine. Nil fields get working defaults.
type Options struct {
	State     *mixer.State
	Registry  *registry.Registry
	Sender    fieldbus.Sender
	Backplane routing.Backplane
	DSP       routing.DSP
	Store     store.Store
	Catalogs  store.NodeCatalog

	// Now returns the current time in milliseconds.
	Now func() int64

	ErrorHandler ErrorHandler

	// BackupTicks is the periodic backup interval in ticks, 0 to disable.
	BackupTicks int

	// TickPeriod and MeterDivider override the defaults when positive.
	TickPeriod   time.Duration
	MeterDivider int
}

// Engine owns the mixer model and everything derived from it.
type Engine struct {
	mu sync.Mutex

	st      *mixer.State
	reg     *registry.Registry
	router  *routing.Router
	out     fieldbus.Sender
	store   store.Store
	catalog store.NodeCatalog
	now     func() int64
	errs    ErrorHandler

	pending    []funcnum.Number
	pendingSet map[funcnum.Number]bool

	ticks        int64
	backupTicks  int
	tickPeriod   time.Duration
	meterDivider int64
	sent         int64

	// last backup written or restored
	lastBackup BackupStatus

	// UpdateChan is signalled (non-blocking) after state changes.
	UpdateChan chan struct{}
}

// New returns an engine. The model is used as is; call LoadConfig to fill
// it from the store.
func New(opts Options) *Engine {
	if opts.State == nil {
		opts.State = mixer.NewState()
	}
	if opts.Registry == nil {
		opts.Registry = registry.New()
	}
	if opts.Sender == nil {
		opts.Sender = fieldbus.Discard{}
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory(store.DefaultDocument())
	}
	if opts.Catalogs == nil {
		if c, ok := opts.Store.(store.NodeCatalog); ok {
			opts.Catalogs = c
		}
	}
	if opts.Now == nil {
		opts.Now = func() int64 { return time.Now().UnixMilli() }
	}
	if opts.ErrorHandler == nil {
		opts.ErrorHandler = DefaultErrorHandler{}
	}
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = TickPeriod
	}
	if opts.MeterDivider <= 0 {
		opts.MeterDivider = MeterDivider
	}

	return &Engine{
		st:           opts.State,
		reg:          opts.Registry,
		router:       routing.New(opts.State, opts.Backplane, opts.DSP),
		out:          opts.Sender,
		store:        opts.Store,
		catalog:      opts.Catalogs,
		now:          opts.Now,
		errs:         opts.ErrorHandler,
		pendingSet:   make(map[funcnum.Number]bool),
		backupTicks:  opts.BackupTicks,
		tickPeriod:   opts.TickPeriod,
		meterDivider: int64(opts.MeterDivider),
		UpdateChan:   make(chan struct{}, 1),
	}
}

// Registry returns the node registry.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// View runs fn with the model under the state lock. fn must not keep
// references past its return.
func (e *Engine) View(fn func(st *mixer.State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.st)
}

// notify queues fn for fan-out at the end of the current event.
func (e *Engine) notify(fn funcnum.Number) {
	if e.pendingSet[fn] {
		return
	}
	e.pendingSet[fn] = true
	e.pending = append(e.pending, fn)
}

func (e *Engine) notifyModule(m, sub int) { e.notify(funcnum.Make(funcnum.Module, m, sub)) }
func (e *Engine) notifyBuss(b, sub int)   { e.notify(funcnum.Make(funcnum.Buss, b, sub)) }
func (e *Engine) notifyMonitor(m, sub int) {
	e.notify(funcnum.Make(funcnum.MonitorBuss, m, sub))
}
func (e *Engine) notifySource(s, sub int)      { e.notify(funcnum.Make(funcnum.Source, s, sub)) }
func (e *Engine) notifyDestination(d, sub int) { e.notify(funcnum.Make(funcnum.Destination, d, sub)) }
func (e *Engine) notifyConsole(c, sub int)     { e.notify(funcnum.Make(funcnum.Console, c, sub)) }
func (e *Engine) notifyGlobal(sub int)         { e.notify(funcnum.Make(funcnum.Global, 0, sub)) }

// flush sends every queued function. Sending may queue more (it does not
// today), so the loop re-reads the slice.
func (e *Engine) flush() {
	for i := 0; i < len(e.pending); i++ {
		e.checkObjectsToSent(e.pending[i], fieldbus.Broadcast, false)
	}
	if len(e.pending) > 0 {
		e.signal()
	}
	e.pending = e.pending[:0]
	clear(e.pendingSet)
}

func (e *Engine) signal() {
	select {
	case e.UpdateChan <- struct{}{}:
	default:
	}
}

// Status is a read-only summary for the operator monitor.
type Status struct {
	Ticks      int64
	SampleRate int
	Sent       int64
	Consoles   [mixer.NumConsoles]ConsoleStatus
	Busses     [mixer.NumBusses]BussStatus
	Modules    []ModuleStatus
	Nodes      []NodeStatus
	Backup     BackupStatus
}

// BackupStatus identifies the backup the model was last saved to or
// restored from. ID is uuid.Nil before the first one.
type BackupStatus struct {
	ID    uuid.UUID
	Taken time.Time
}

// ConsoleStatus summarizes one console.
type ConsoleStatus struct {
	SelectedModule int
	ControlMode    string
	MasterMode     string
	User           string
	UserLevel      int
}

// BussStatus summarizes one buss.
type BussStatus struct {
	Label  string
	Level  float64
	On     bool
	Meter  [2]float64
	Feeds  int
	Exclus int
}

// ModuleStatus summarizes one module that is on or has a source.
type ModuleStatus struct {
	Index  int
	Label  string
	Source string
	Level  float64
	On     bool
	Active bool
	Meter  [2]float64
	EQOn   bool
	EQ     [mixer.NumEQBands]mixer.EQBand
}

// NodeStatus summarizes one online node.
type NodeStatus struct {
	ID           uuid.UUID
	Address      uint32
	Product      uint16
	Objects      int
	Slot         int
	InitFinished bool
}

// Snapshot returns the current status.
func (e *Engine) Snapshot() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{Ticks: e.ticks, Sent: e.sent, SampleRate: e.st.Global.SamplerateHz, Backup: e.lastBackup}
	for c := range e.st.Consoles {
		con := &e.st.Consoles[c]
		s.Consoles[c] = ConsoleStatus{
			SelectedModule: con.Selected[mixer.SelectModule],
			ControlMode:    funcnum.ModeName(con.ControlMode),
			MasterMode:     funcnum.MasterModeName(con.MasterControlMode),
			User:           con.Username,
			UserLevel:      con.UserLevel,
		}
	}
	for b := range e.st.Busses {
		buss := &e.st.Busses[b]
		feeds := 0
		for m := range e.st.Modules {
			if e.st.Modules[m].Buss[b].On {
				feeds++
			}
		}
		s.Busses[b] = BussStatus{
			Label:  e.st.MatrixLabel(mixer.MatrixBussBase + b),
			Level:  buss.MasterLevel,
			On:     buss.MasterOn,
			Meter:  buss.Meter,
			Feeds:  feeds,
			Exclus: buss.Exclusive,
		}
	}
	for m := range e.st.Modules {
		mod := &e.st.Modules[m]
		if !mod.On && mod.SelectedSource == 0 {
			continue
		}
		s.Modules = append(s.Modules, ModuleStatus{
			Index:  m,
			Label:  mod.Label,
			Source: e.st.MatrixLabel(mod.SelectedSource),
			Level:  mod.FaderLevel,
			On:     mod.On,
			Active: mod.Active(),
			Meter:  mod.Meter,
			EQOn:   mod.EQOn,
			EQ:     mod.EQ,
		})
	}
	for _, n := range e.reg.Nodes() {
		s.Nodes = append(s.Nodes, NodeStatus{
			ID:           n.ID,
			Address:      n.Address,
			Product:      n.ProductID,
			Objects:      len(n.Objects),
			Slot:         n.SlotNumber,
			InitFinished: n.InitFinished,
		})
	}
	return s
}

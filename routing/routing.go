// Package routing projects the mixer model onto the backplane crosspoint
// router and the DSP cards. It keeps no state of its own: every call reads
// the current model and pushes the result.
package routing

import (
	"axum-engine/debug"
	"axum-engine/eqmath"
	"axum-engine/mixer"
)

// Backplane connects one physical channel to another.
type Backplane interface {
	Connect(from, to int) error
}

// DSP programs the processing cards.
type DSP interface {
	SetChannelStrip(module int, s Strip) error
	SetEQBand(module, band int, eq EQ) error
	SetBussSend(module, buss int, g SendGains) error
	SetBussMaster(buss int, m Master) error
	SetMonitorBuss(monitor int, m MonitorMix) error
	SetOutput(destination int, o Output) error
}

// Meters is one metering snapshot in dB.
type Meters struct {
	Modules      [mixer.NumModules][2]float64
	Busses       [mixer.NumBusses][2]float64
	Monitors     [mixer.NumMonitors][2]float64
	Destinations map[int][2]float64
}

// MeterReader is implemented by DSP back ends that can report levels.
type MeterReader interface {
	ReadMeters() (Meters, error)
}

// Strip is the per-module processing block.
type Strip struct {
	Gain            float64
	Phase           bool
	Mono            bool
	InsertOn        bool
	LowCutOn        bool
	LowCutFrequency float64
	EQOn            bool
	Dynamics        mixer.Dynamics
}

// EQ is one programmed band.
type EQ struct {
	On     bool
	Band   mixer.EQBand
	Biquad eqmath.Biquad
}

// SendGains is the 2x2 gain matrix from a module into a buss.
type SendGains struct {
	LL, LR float64
	RL, RR float64
	Pre    bool
}

// Master is a buss master block.
type Master struct {
	Gain float64
	Mono bool
}

// MonitorMix is a monitor buss block.
type MonitorMix struct {
	Inputs       [mixer.NumMonitorInputs]bool
	SpeakerGain  float64
	PhonesGain   float64
	Mono         bool
	Phase        bool
	TalkbackGain float64
}

// Output is a destination block.
type Output struct {
	Gain  float64
	Mono  bool
	Phase bool
}

// Fixed pad applied when a mono buss sums left and right.
const MonoSumPad = -6.0

// Router pushes model state to the backplane and the DSP.
type Router struct {
	st  *mixer.State
	bp  Backplane
	dsp DSP
}

// New returns a router over st. Nil back ends are replaced by no-ops.
func New(st *mixer.State, bp Backplane, dsp DSP) *Router {
	if bp == nil {
		bp = nopBackplane{}
	}
	if dsp == nil {
		dsp = nopDSP{}
	}
	return &Router{st: st, bp: bp, dsp: dsp}
}

// SetState points the router at a replacement model after a restore.
func (r *Router) SetState(st *mixer.State) { r.st = st }

// Meters reads a metering snapshot if the DSP supports it.
func (r *Router) Meters() (Meters, bool) {
	mr, ok := r.dsp.(MeterReader)
	if !ok {
		return Meters{}, false
	}
	m, err := mr.ReadMeters()
	if err != nil {
		debug.Log("route", "read meters: %v", err)
		return Meters{}, false
	}
	return m, true
}

func (r *Router) connect(from, to int) {
	if err := r.bp.Connect(from, to); err != nil {
		debug.Log("route", "connect %d -> %d: %v", from, to, err)
	}
}

func (r *Router) connectPair(left, right, to int) {
	r.connect(left, to)
	r.connect(right, to+1)
}

func (r *Router) input(ms int, what string) (int, int) {
	if ms == 0 {
		return Mute, Mute
	}
	l, rr, ok := MatrixInput(r.st, ms)
	if !ok {
		debug.Log("route", "%s: matrix source %d unresolved, muting", what, ms)
		return Mute, Mute
	}
	return l, rr
}

// ModuleSource connects the selected source of module m to its DSP input.
func (r *Router) ModuleSource(m int) {
	mod, ok := r.st.Module(m)
	if !ok {
		return
	}
	l, rr := r.input(mod.SelectedSource, "module source")
	r.connectPair(l, rr, ModuleChannel(m, CardModuleInput))
}

// ModuleInsertSource connects the insert source of module m to its insert return.
func (r *Router) ModuleInsertSource(m int) {
	mod, ok := r.st.Module(m)
	if !ok {
		return
	}
	l, rr := r.input(mod.InsertSource, "insert source")
	r.connectPair(l, rr, ModuleChannel(m, CardInsertReturn))
}

// ExternSources connects the extern inputs of a DSP card.
func (r *Router) ExternSources(card int) {
	if card < 0 || card >= mixer.NumDSPCards {
		return
	}
	for j, ms := range r.st.DSPCards[card].ExternSources {
		l, rr := r.input(ms, "extern source")
		r.connectPair(l, rr, CardChannel(card, CardExternInput, j))
	}
}

// DestinationFeed returns the matrix source currently feeding destination
// d: an active talkback, then an active comm buss, then the mix-minus of the
// module carrying the mix-minus source, then the routed source.
func (r *Router) DestinationFeed(d int) int {
	dst, ok := r.st.Destination(d)
	if !ok {
		return 0
	}
	for t, on := range dst.Talkback {
		if on && r.st.Global.Talkback[t] {
			return r.st.Global.TalkbackSource[t]
		}
	}
	if dst.CommActive && dst.CommBuss >= 0 && dst.CommBuss < mixer.NumBusses {
		return mixer.MatrixBussBase + dst.CommBuss
	}
	if dst.MixMinusActive && dst.MixMinusSource > 0 {
		for m := range r.st.Modules {
			if r.st.Modules[m].SelectedSource == dst.MixMinusSource {
				return mixer.MatrixMixMinusBase + m
			}
		}
	}
	return dst.Source
}

// DestinationSource connects the feed of destination d to its outputs,
// honoring the stereo/left/right routing mode.
func (r *Router) DestinationSource(d int) {
	dst, ok := r.st.Destination(d)
	if !ok {
		return
	}
	l, rr := r.input(r.DestinationFeed(d), "destination source")
	switch dst.Routing {
	case mixer.RoutingLeft:
		rr = l
	case mixer.RoutingRight:
		l = rr
	}
	for i, from := range [2]int{l, rr} {
		to, ok := SlotChannel(r.st, dst.Outputs[i], true)
		if !ok {
			if dst.Outputs[i].Bound() {
				debug.Log("route", "destination %d output %d offline", d, i)
			}
			continue
		}
		r.connect(from, to)
	}
}

// ChannelStrip pushes the processing block of module m.
func (r *Router) ChannelStrip(m int) {
	mod, ok := r.st.Module(m)
	if !ok {
		return
	}
	s := Strip{
		Gain:            mod.Gain,
		Phase:           mod.Phase,
		Mono:            mod.Mono,
		InsertOn:        mod.InsertOn,
		LowCutOn:        mod.LowCutOn,
		LowCutFrequency: mod.LowCutFrequency,
		EQOn:            mod.EQOn,
		Dynamics:        mod.Dynamics,
	}
	if err := r.dsp.SetChannelStrip(m, s); err != nil {
		debug.Log("route", "module %d strip: %v", m, err)
	}
}

// EQBand pushes one EQ band of module m.
func (r *Router) EQBand(m, band int) {
	mod, ok := r.st.Module(m)
	if !ok || band < 0 || band >= mixer.NumEQBands {
		return
	}
	b := mod.EQ[band]
	eq := EQ{
		On:     mod.EQOn,
		Band:   b,
		Biquad: eqmath.Design(b.Type, b.Frequency, b.Level, b.Bandwidth, r.st.Global.SamplerateHz),
	}
	if err := r.dsp.SetEQBand(m, band, eq); err != nil {
		debug.Log("route", "module %d band %d: %v", m, band, err)
	}
}

// EQ pushes every band of module m.
func (r *Router) EQ(m int) {
	for band := 0; band < mixer.NumEQBands; band++ {
		r.EQBand(m, band)
	}
}

// SendSuppressed reports whether source cough or comm mutes module m's
// contribution to buss b. Only normal busses are affected.
func (r *Router) SendSuppressed(m, b int) bool {
	mod := &r.st.Modules[m]
	if r.st.Busses[b].Exclusive != mixer.ExclusiveNone {
		return false
	}
	src := mixer.SourceOfMatrix(mod.SelectedSource)
	if src < 0 {
		return false
	}
	return r.st.Sources[src].Cough || r.st.Sources[src].Comm
}

// SendGains computes the gain matrix of module m into buss b.
func (r *Router) SendGains(m, b int) SendGains {
	mod := &r.st.Modules[m]
	buss := &r.st.Busses[b]
	send := &mod.Buss[b]

	on := send.On && send.Assigned && (mod.On || buss.PreModuleOn) && !r.SendSuppressed(m, b)
	if !on {
		return SendGains{Pre: send.Pre}
	}

	level := send.Level
	if !send.Pre && !buss.PreModuleLevel {
		level += mod.FaderLevel
	}
	gain := mixer.DBToGain(mixer.Clamp(level, mixer.FaderOff, mixer.MaxLevel))

	if buss.Mono {
		g := gain * mixer.DBToGain(MonoSumPad)
		return SendGains{LL: g, LR: g, RL: g, RR: g, Pre: send.Pre}
	}

	pos := mod.Pan
	if buss.PreModuleBalance {
		pos = send.Balance
	}
	left, right := balance(pos)
	return SendGains{LL: gain * left, RR: gain * right, Pre: send.Pre}
}

// balance is a linear balance law: unity at centre, one side fading out
// towards the other extreme.
func balance(pos int) (left, right float64) {
	pos = mixer.ClampInt(pos, 0, mixer.PanMax)
	half := float64(mixer.PanMax) / 2
	left = mixer.Clamp(float64(mixer.PanMax-pos)/half, 0, 1)
	right = mixer.Clamp(float64(pos)/half, 0, 1)
	return left, right
}

// BussSend pushes the send of module m into buss b.
func (r *Router) BussSend(m, b int) {
	if m < 0 || m >= mixer.NumModules || b < 0 || b >= mixer.NumBusses {
		return
	}
	if err := r.dsp.SetBussSend(m, b, r.SendGains(m, b)); err != nil {
		debug.Log("route", "module %d buss %d: %v", m, b, err)
	}
}

// BussSends pushes every send of module m.
func (r *Router) BussSends(m int) {
	for b := 0; b < mixer.NumBusses; b++ {
		r.BussSend(m, b)
	}
}

// BussMaster pushes the master block of buss b.
func (r *Router) BussMaster(b int) {
	buss, ok := r.st.Buss(b)
	if !ok {
		return
	}
	m := Master{Mono: buss.Mono}
	if buss.MasterOn {
		m.Gain = mixer.DBToGain(buss.MasterLevel)
	}
	if err := r.dsp.SetBussMaster(b, m); err != nil {
		debug.Log("route", "buss %d master: %v", b, err)
	}
}

// MonitorBuss pushes the monitor block of monitor mon.
func (r *Router) MonitorBuss(mon int) {
	m, ok := r.st.Monitor(mon)
	if !ok {
		return
	}
	mix := MonitorMix{
		Inputs: m.Buss,
		Mono:   m.Mono,
		Phase:  m.Phase,
	}
	if !m.Mute && !m.AutoMute {
		dim := 0.0
		if m.Dim {
			dim = m.SwitchingDimLevel
		}
		mix.SpeakerGain = mixer.DBToGain(m.SpeakerLevel + dim)
		mix.PhonesGain = mixer.DBToGain(m.PhonesLevel + dim)
	}
	for t, on := range m.Talkback {
		if on && r.st.Global.Talkback[t] {
			mix.TalkbackGain = mixer.DBToGain(mixer.DefaultTalkbackLevel)
			break
		}
	}
	if err := r.dsp.SetMonitorBuss(mon, mix); err != nil {
		debug.Log("route", "monitor %d: %v", mon, err)
	}
}

// Output pushes the output block of destination d.
func (r *Router) Output(d int) {
	dst, ok := r.st.Destination(d)
	if !ok {
		return
	}
	o := Output{Mono: dst.Mono, Phase: dst.Phase}
	if !dst.Mute {
		level := dst.Level
		if dst.Dim {
			level += mixer.DefaultDimLevel
		}
		o.Gain = mixer.DBToGain(level)
	}
	if err := r.dsp.SetOutput(d, o); err != nil {
		debug.Log("route", "destination %d output: %v", d, err)
	}
}

// Module pushes everything of module m.
func (r *Router) Module(m int) {
	r.ModuleSource(m)
	r.ModuleInsertSource(m)
	r.ChannelStrip(m)
	r.EQ(m)
	r.BussSends(m)
}

// All re-applies the complete model.
func (r *Router) All() {
	for m := 0; m < mixer.NumModules; m++ {
		r.Module(m)
	}
	for card := 0; card < mixer.NumDSPCards; card++ {
		r.ExternSources(card)
	}
	for b := 0; b < mixer.NumBusses; b++ {
		r.BussMaster(b)
	}
	for mon := 0; mon < mixer.NumMonitors; mon++ {
		r.MonitorBuss(mon)
	}
	for d := 0; d < mixer.NumDestinations; d++ {
		if r.st.Destinations[d].Outputs[0].Bound() || r.st.Destinations[d].Outputs[1].Bound() {
			r.DestinationSource(d)
			r.Output(d)
		}
	}
}

type nopBackplane struct{}

func (nopBackplane) Connect(int, int) error { return nil }

type nopDSP struct{}

func (nopDSP) SetChannelStrip(int, Strip) error      { return nil }
func (nopDSP) SetEQBand(int, int, EQ) error          { return nil }
func (nopDSP) SetBussSend(int, int, SendGains) error { return nil }
func (nopDSP) SetBussMaster(int, Master) error       { return nil }
func (nopDSP) SetMonitorBuss(int, MonitorMix) error  { return nil }
func (nopDSP) SetOutput(int, Output) error           { return nil }

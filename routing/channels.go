package routing

import (
	"axum-engine/debug"
	"axum-engine/mixer"
)

// Physical channel layout of the backplane. Stereo signals take two
// consecutive channels, left first.
const (
	Mute = 0

	SlotChannelBase = 1
	ChannelsPerSlot = 32

	BussOutputBase    = SlotChannelBase + mixer.NumRackSlots*ChannelsPerSlot
	MonitorOutputBase = BussOutputBase + mixer.NumBusses*2
	DSPCardBase       = MonitorOutputBase + mixer.NumMonitors*2
	DSPCardChannels   = 320
)

// Blocks inside one DSP card.
const (
	CardModuleInput  = 0
	CardInsertSend   = CardModuleInput + mixer.ModulesPerCard*2
	CardInsertReturn = CardInsertSend + mixer.ModulesPerCard*2
	CardMixMinusOut  = CardInsertReturn + mixer.ModulesPerCard*2
	CardExternInput  = CardMixMinusOut + mixer.ModulesPerCard*2
)

// ModuleCard returns the DSP card and the channel pair index of a module.
func ModuleCard(module int) (card, pair int) {
	return module / mixer.ModulesPerCard, module % mixer.ModulesPerCard
}

// CardChannel returns the left channel of pair in block of card.
func CardChannel(card, block, pair int) int {
	return DSPCardBase + card*DSPCardChannels + block + pair*2
}

// ModuleChannel returns the left channel of a module in block.
func ModuleChannel(module, block int) int {
	card, pair := ModuleCard(module)
	return CardChannel(card, block, pair)
}

// SlotChannel returns the backplane channel of channel ch on the I/O card
// at addr. Inputs are checked against the slot's input count, outputs
// against its output count. A binding to an address that holds no slot,
// such as a removed card, is logged and skipped.
func SlotChannel(st *mixer.State, b mixer.IOBinding, output bool) (int, bool) {
	if !b.Bound() || b.Channel < 0 || b.Channel >= ChannelsPerSlot {
		return Mute, false
	}
	for i := range st.RackSlots {
		slot := &st.RackSlots[i]
		if slot.Address != b.Address {
			continue
		}
		limit := slot.InputChannels
		if output {
			limit = slot.OutputChannels
		}
		if b.Channel >= limit {
			return Mute, false
		}
		return SlotChannelBase + i*ChannelsPerSlot + b.Channel, true
	}
	debug.Log("route", "%08x holds no rack slot, binding to channel %d skipped", b.Address, b.Channel)
	return Mute, false
}

// MatrixInput returns the left and right backplane channels carrying
// matrix source ms. A mono real source feeds both sides from its first
// input.
func MatrixInput(st *mixer.State, ms int) (left, right int, ok bool) {
	kind, i := mixer.MatrixIndex(ms)
	switch kind {
	case mixer.MatrixBuss:
		left = BussOutputBase + i*2
		return left, left + 1, true
	case mixer.MatrixInsert:
		left = ModuleChannel(i, CardInsertSend)
		return left, left + 1, true
	case mixer.MatrixMonitor:
		left = MonitorOutputBase + i*2
		return left, left + 1, true
	case mixer.MatrixMixMinus:
		left = ModuleChannel(i, CardMixMinusOut)
		return left, left + 1, true
	case mixer.MatrixSource:
		src := &st.Sources[i]
		left, ok = SlotChannel(st, src.Inputs[0], false)
		if !ok {
			return Mute, Mute, false
		}
		right, rok := SlotChannel(st, src.Inputs[1], false)
		if !rok {
			right = left
		}
		return left, right, true
	}
	return Mute, Mute, false
}

package mixer

import "math"

// Fader table sizes.
const (
	NumPositions   = 1024
	NumDBPositions = 1501
	dbResolution   = 0.1
)

// Position2dB maps a fader position to dB along an audio-taper curve built
// from three linear segments, strictly increasing, ending at +10 dB.
var Position2dB [NumPositions]float64

// DB2Position maps -140.0 dB + i*0.1 dB to the nearest fader position.
var DB2Position [NumDBPositions]int

var taper = [...]struct {
	pos int
	db  float64
}{
	{0, -140},
	{256, -60},
	{512, -30},
	{NumPositions - 1, MaxLevel},
}

func init() {
	seg := 0
	for pos := 0; pos < NumPositions; pos++ {
		for seg < len(taper)-2 && pos > taper[seg+1].pos {
			seg++
		}
		a, b := taper[seg], taper[seg+1]
		t := float64(pos-a.pos) / float64(b.pos-a.pos)
		Position2dB[pos] = a.db + t*(b.db-a.db)
	}

	pos := 0
	for i := 0; i < NumDBPositions; i++ {
		db := FaderOff + float64(i)*dbResolution
		for pos < NumPositions-1 && math.Abs(Position2dB[pos+1]-db) <= math.Abs(Position2dB[pos]-db) {
			pos++
		}
		DB2Position[i] = pos
	}
}

// PositionToDB returns the table dB of a fader position, clamping the position.
func PositionToDB(pos int) float64 {
	if pos < 0 {
		pos = 0
	}
	if pos >= NumPositions {
		pos = NumPositions - 1
	}
	return Position2dB[pos]
}

// DBToPosition returns the fader position of a dB value on the 0.1 dB grid.
func DBToPosition(db float64) int {
	i := int(math.Round((db - FaderOff) / dbResolution))
	if i < 0 {
		i = 0
	}
	if i >= NumDBPositions {
		i = NumDBPositions - 1
	}
	return DB2Position[i]
}

// ScaleToPosition maps raw in [min,max] linearly onto a fader position.
func ScaleToPosition(raw, min, max float64) int {
	if max <= min {
		return 0
	}
	t := (raw - min) / (max - min)
	t = Clamp(t, 0, 1)
	return int(math.Round(t * float64(NumPositions-1)))
}

// PositionToRaw maps a fader position onto [min,max].
func PositionToRaw(pos int, min, max float64) float64 {
	t := float64(pos) / float64(NumPositions-1)
	return math.Round(min + t*(max-min))
}

// Clamp bounds v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt bounds v to [lo,hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LevelFromPosition returns the module or send level of a fader position.
func LevelFromPosition(pos int, reserve float64) float64 {
	return Clamp(PositionToDB(pos), FaderOff, MaxLevel-reserve)
}

// MasterLevelFromPosition returns the master or monitor level of a fader
// position: table dB minus the fixed headroom, clamped to [-140,0].
func MasterLevelFromPosition(pos int) float64 {
	return Clamp(PositionToDB(pos)-MasterHeadroom, FaderOff, 0)
}

// MasterLevelToPosition is the inverse of MasterLevelFromPosition.
func MasterLevelToPosition(db float64) int {
	return DBToPosition(db + MasterHeadroom)
}

// DBToGain converts dB to a linear factor; the fader-off level is silence.
func DBToGain(db float64) float64 {
	if db <= FaderOff {
		return 0
	}
	return math.Pow(10, db/20)
}

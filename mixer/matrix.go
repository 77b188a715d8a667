package mixer

import "fmt"

// Matrix source numbering shared by source selection and routing.
const (
	MatrixBussBase     = 1
	MatrixInsertBase   = MatrixBussBase + NumBusses
	MatrixMonitorBase  = MatrixInsertBase + NumModules
	MatrixMixMinusBase = MatrixMonitorBase + NumMonitors
	MatrixSourceBase   = MatrixMixMinusBase + NumModules
	NumMatrixSources   = MatrixSourceBase + NumSources
)

// MatrixKindOf classifies a matrix source number.
type MatrixKindOf int

const (
	MatrixNone MatrixKindOf = iota
	MatrixBuss
	MatrixInsert
	MatrixMonitor
	MatrixMixMinus
	MatrixSource
)

// MatrixKind returns the kind of matrix source ms.
func MatrixKind(ms int) MatrixKindOf {
	switch {
	case ms >= MatrixBussBase && ms < MatrixInsertBase:
		return MatrixBuss
	case ms >= MatrixInsertBase && ms < MatrixMonitorBase:
		return MatrixInsert
	case ms >= MatrixMonitorBase && ms < MatrixMixMinusBase:
		return MatrixMonitor
	case ms >= MatrixMixMinusBase && ms < MatrixSourceBase:
		return MatrixMixMinus
	case ms >= MatrixSourceBase && ms < NumMatrixSources:
		return MatrixSource
	}
	return MatrixNone
}

// MatrixIndex returns the kind and zero-based index of matrix source ms.
func MatrixIndex(ms int) (MatrixKindOf, int) {
	switch k := MatrixKind(ms); k {
	case MatrixBuss:
		return k, ms - MatrixBussBase
	case MatrixInsert:
		return k, ms - MatrixInsertBase
	case MatrixMonitor:
		return k, ms - MatrixMonitorBase
	case MatrixMixMinus:
		return k, ms - MatrixMixMinusBase
	case MatrixSource:
		return k, ms - MatrixSourceBase
	}
	return MatrixNone, -1
}

// MatrixOfSource returns the matrix number of source index s.
func MatrixOfSource(s int) int { return MatrixSourceBase + s }

// SourceOfMatrix returns the source index of matrix source ms, or -1.
func SourceOfMatrix(ms int) int {
	if MatrixKind(ms) != MatrixSource {
		return -1
	}
	return ms - MatrixSourceBase
}

// MatrixLabel returns the display label of a matrix source.
func (s *State) MatrixLabel(ms int) string {
	k, i := MatrixIndex(ms)
	switch k {
	case MatrixBuss:
		if l := s.Busses[i].Label; l != "" {
			return l
		}
		return fmt.Sprintf("Buss %d", i+1)
	case MatrixInsert:
		return fmt.Sprintf("Ins %d", i+1)
	case MatrixMonitor:
		if l := s.Monitors[i].Label; l != "" {
			return l
		}
		return fmt.Sprintf("Mon %d", i+1)
	case MatrixMixMinus:
		return fmt.Sprintf("N-1 %d", i+1)
	case MatrixSource:
		if l := s.Sources[i].Label; l != "" {
			return l
		}
		return fmt.Sprintf("Src %d", i+1)
	}
	return "None"
}

// MixMinusInUse reports whether real source ms feeds a destination's mix-minus
// and is already carried by a module other than exclude. Selecting it on a
// second module would feed the N-1 output back into itself.
func (s *State) MixMinusInUse(ms, exclude int) bool {
	if MatrixKind(ms) != MatrixSource {
		return false
	}
	feeds := false
	for i := range s.Destinations {
		if s.Destinations[i].MixMinusSource == ms {
			feeds = true
			break
		}
	}
	if !feeds {
		return false
	}
	for i := range s.Modules {
		if i != exclude && s.Modules[i].SelectedSource == ms {
			return true
		}
	}
	return false
}

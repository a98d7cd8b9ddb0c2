package pbd

// RunKind identifies the kind of run a control code starts.
type RunKind uint8

const (
	RunUnsupported RunKind = iota
	RunLiteral
	RunDifference
	RunRepeat
)

// Control code ranges
const (
	maxLiteralCode    = 31
	maxDifferenceCode = 79
	minRepeatCode     = 223

	// MaxRunLength is the largest sample count a single run can declare.
	MaxRunLength = 256 - minRepeatCode
)

func (k RunKind) String() string {
	switch k {
	case RunLiteral:
		return "literal"
	case RunDifference:
		return "difference"
	case RunRepeat:
		return "repeat"
	default:
		return "unsupported"
	}
}

// Classify returns the run kind selected by a control code and the number of
// samples the run produces. The count is zero for unsupported codes.
func Classify(code byte) (RunKind, int) {
	switch {
	case code <= maxLiteralCode:
		return RunLiteral, int(code) + 1
	case code <= maxDifferenceCode:
		return RunDifference, int(code) - maxLiteralCode
	case code >= minRepeatCode:
		return RunRepeat, int(code) - (minRepeatCode - 1)
	default:
		return RunUnsupported, 0
	}
}

// KindStats counts the runs of one kind and the samples they produced.
type KindStats struct {
	Runs    int64
	Samples int64
}

// RunStats summarizes what a Reader has decoded so far.
type RunStats struct {
	Literal    KindStats
	Difference KindStats
	Repeat     KindStats

	// BytesIn is the number of compressed bytes consumed from the source.
	BytesIn int64
}

// Runs returns the total number of runs decoded.
func (s RunStats) Runs() int64 {
	return s.Literal.Runs + s.Difference.Runs + s.Repeat.Runs
}

// Samples returns the total number of samples decoded.
func (s RunStats) Samples() int64 {
	return s.Literal.Samples + s.Difference.Samples + s.Repeat.Samples
}

// Ratio returns decoded bytes per compressed byte, or 0 before any input.
func (s RunStats) Ratio() float64 {
	if s.BytesIn == 0 {
		return 0
	}
	return float64(s.Samples()*2) / float64(s.BytesIn)
}

func (s *RunStats) kind(k RunKind) *KindStats {
	switch k {
	case RunLiteral:
		return &s.Literal
	case RunDifference:
		return &s.Difference
	default:
		return &s.Repeat
	}
}

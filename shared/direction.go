package shared

// Direction represents market direction.
type Direction int

const (
	Long Direction = iota
	Short
)

// String stringifies the provided direction.
func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// Opposite returns the reverse of the provided direction.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}

	return Long
}

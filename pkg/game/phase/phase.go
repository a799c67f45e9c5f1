package phase

type ID int32

// Round phases for the maze variant. A round always advances
// Setup -> Live -> Overtime -> Reset and back to Setup.
const (
	Setup ID = iota
	Live
	Overtime
	Reset
)

func (p ID) String() string {
	switch p {
	case Setup:
		return "setup"
	case Live:
		return "live"
	case Overtime:
		return "overtime"
	case Reset:
		return "reset"
	}
	return "unknown"
}

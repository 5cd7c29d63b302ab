package model

// Status is a human-friendly label for how a row's position was decided.
// Keep these values stable; they are intended for CSV output.
type Status string

const (
	StatusWarmup     Status = "WARMUP"
	StatusFlat       Status = "FLAT"
	StatusSized      Status = "SIZED"
	StatusDegenerate Status = "DEGENERATE"
)

func StatusFromSize(size float64) Status {
	if size == 0 {
		return StatusFlat
	}
	return StatusSized
}

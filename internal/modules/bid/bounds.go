// Price bound validator.
package bid

type Boundary string

const (
	BoundaryNone Boundary = ""
	BoundaryMin  Boundary = "min"
	BoundaryMax  Boundary = "max"
)

// Clamp forces an amount into [MinBid, MaxBid] and reports which bound,
// if any, was hit. Pure function; callers surface the one-shot
// "minimum/maximum bid reached" notice themselves.
func Clamp(cents int64) (int64, Boundary) {
	if cents < MinBid {
		return MinBid, BoundaryMin
	}
	if cents > MaxBid {
		return MaxBid, BoundaryMax
	}
	return cents, BoundaryNone
}

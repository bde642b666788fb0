// Bid adjustment engine: fixed or percentage deltas over the working price.
package bid

type AdjustmentKind string

const (
	KindAmount  AdjustmentKind = "amount"
	KindPercent AdjustmentKind = "percent"
)

type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

// Adjustment is one step button on the bid sheet: +/-$2, +/-5%, etc.
// Value is cents for KindAmount and whole percent for KindPercent.
type Adjustment struct {
	Kind  AdjustmentKind
	Value int64
}

// ApplyAdjustment computes current +/- delta and clamps the result.
// Percentage deltas are taken from the current amount and rounded
// half-up to a cent.
func ApplyAdjustment(current int64, adj Adjustment, dir Direction) (int64, Boundary, error) {
	if adj.Value < 0 {
		return current, BoundaryNone, &ValidationError{Reason: "adjustment value must be non-negative"}
	}
	var delta int64
	switch adj.Kind {
	case KindAmount:
		delta = adj.Value
	case KindPercent:
		delta = (current*adj.Value + 50) / 100
	default:
		return current, BoundaryNone, &ValidationError{Reason: "unknown adjustment kind"}
	}

	next := current
	switch dir {
	case Increase:
		next += delta
	case Decrease:
		next -= delta
	default:
		return current, BoundaryNone, &ValidationError{Reason: "unknown adjustment direction"}
	}

	clamped, boundary := Clamp(next)
	return clamped, boundary, nil
}

// Package predictor computes the per-sample residual against either a
// supplied model buffer or the previously accepted sample of the same
// field, and, for model-backed modes, folds the observed sample back into
// the model so encoder and decoder advance in lockstep.
//
// Grounded on the model feedback loop described for the compression
// modes: MODEL_* predicts from the model buffer and emits an updated
// model; DIFF_* predicts from the previous sample of the field and never
// touches a model.
package predictor

// Mode selects where the predictor for a sample comes from.
type Mode uint8

const (
	// ModeDiff predicts from the previous accepted sample of the same
	// field; the first sample in a field predicts from zero.
	ModeDiff Mode = iota
	// ModeModel predicts from the caller-supplied model buffer and
	// produces an updated model value alongside the residual.
	ModeModel
)

// modelWeightBits is w in the updated-model formula; the weight v ranges
// over [0, 1<<modelWeightBits].
const modelWeightBits = 4

// MaxModelValue is the largest accepted model_value (v = 16 replaces the
// model outright with the latest sample).
const MaxModelValue = 1 << modelWeightBits

// State tracks the running predictor for one field across a collection:
// the previous accepted sample for ModeDiff, nothing persistent for
// ModeModel (the caller supplies model[i] per sample).
type State struct {
	mode Mode
	prev uint32
}

// NewDiffState returns a State for a DIFF_* field, predicting from zero at
// the first sample.
func NewDiffState() *State {
	return &State{mode: ModeDiff, prev: 0}
}

// NewModelState returns a State for a MODEL_* field. Model-backed
// prediction reads the model buffer directly and does not need State to
// carry history, but the same type is used so callers can treat both
// modes uniformly.
func NewModelState() *State {
	return &State{mode: ModeModel}
}

// Predict returns the predictor for the next sample. For ModeDiff it is
// the previous accepted sample (or zero for the first call); for
// ModeModel it is model, passed in by the caller for this sample index.
func (s *State) Predict(model uint32) uint32 {
	if s.mode == ModeDiff {
		return s.prev
	}

	return model
}

// Residual computes x - predictor in two's-complement b-bit arithmetic
// (wraparound is intentional and mirrors the width the field was declared
// with; residual.Map later re-masks to b bits).
func Residual(x, predictorValue uint32) uint32 {
	return x - predictorValue
}

// Accept records x as the previous sample for a DIFF_* field. It is a
// no-op for ModeModel, whose history lives entirely in the caller's model
// buffer.
func (s *State) Accept(x uint32) {
	if s.mode == ModeDiff {
		s.prev = x
	}
}

// UpdateModel computes model'[i,f] per the specified weighted average:
//
//	updated = round(((16-v)*model + v*x) / 16)
//
// v must be in [0, 16]. v == 0 retains the model unchanged; v == 16
// replaces it with x. Rounding is half-away-from-zero, implemented as
// integer division of the sum plus half the divisor (both operands are
// unsigned and the formula's intermediate products fit in 64 bits for any
// valid uint32 model/x).
func UpdateModel(model, x, v uint32) uint32 {
	if v > MaxModelValue {
		v = MaxModelValue
	}

	const w = uint64(1) << modelWeightBits
	sum := (w-uint64(v))*uint64(model) + uint64(v)*uint64(x)

	return uint32((sum + w/2) / w)
}

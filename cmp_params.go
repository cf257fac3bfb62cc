// Package cmp is the facade for the telemetry compression codec: it
// composes the bit-level codec, predictor, escape policy, type registry,
// collection codec, chunk framer, and entity header into the two public
// round-trip operations, CompressChunk and DecompressCmpEntity, plus the
// worst-case size bound CompressChunkSizeBound.
//
// Params construction follows a functional-options convention
// (internal/options), keeping the public surface small while every
// encode/decode knob — registry, mode, field params, model bookkeeping —
// stays explicit at the call site.
package cmp

import (
	"github.com/platocmp/cmp/datatype"
	"github.com/platocmp/cmp/entity"
	"github.com/platocmp/cmp/internal/options"
)

// Params configures one CompressChunk/DecompressCmpEntity call. Zero
// value is not directly usable — construct with NewParams and Options.
type Params struct {
	Registry    datatype.MaxUsedBits
	Mode        datatype.CmpMode
	FieldParams []datatype.FieldParams
	ModelValue  uint32
	ModelID     uint8
	ModelCounter uint8
	Adaptive    bool
	VersionID   uint32
}

// Option configures a Params via the generic functional-options pattern
// (internal/options.Option[T]).
type Option = options.Option[*Params]

// NewParams returns the default Params (DefaultMaxUsedBits registry,
// DIFF_ZERO mode, software version_id 1.0) with opts applied in order.
func NewParams(opts ...Option) (*Params, error) {
	p := &Params{
		Registry:  datatype.DefaultMaxUsedBits,
		Mode:      datatype.ModeDiffZero,
		VersionID: entity.VersionSoftwareBit | 1<<16,
	}
	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	return p, nil
}

// WithRegistry overrides the max_used_bits registry.
func WithRegistry(r datatype.MaxUsedBits) Option {
	return options.NoError(func(p *Params) { p.Registry = r })
}

// WithMode overrides the compression mode.
func WithMode(m datatype.CmpMode) Option {
	return options.NoError(func(p *Params) { p.Mode = m })
}

// WithFieldParams supplies the per-field (golomb_par, spill) the encoder
// uses; required for every mode except RAW.
func WithFieldParams(params ...datatype.FieldParams) Option {
	return options.NoError(func(p *Params) { p.FieldParams = params })
}

// WithModelValue sets model_value (v in [0,16]) for MODEL_* modes.
func WithModelValue(v uint32) Option {
	return options.NoError(func(p *Params) { p.ModelValue = v })
}

// WithModelID sets the entity's model_id field.
func WithModelID(id uint8) Option {
	return options.NoError(func(p *Params) { p.ModelID = id })
}

// WithModelCounter sets the entity's model_counter field.
func WithModelCounter(c uint8) Option {
	return options.NoError(func(p *Params) { p.ModelCounter = c })
}

// WithAdaptive selects the adaptive imagette trailer variant.
func WithAdaptive(adaptive bool) Option {
	return options.NoError(func(p *Params) { p.Adaptive = adaptive })
}

// WithVersionID overrides the entity's version_id (the software bit is
// not forced here — callers that want it set should OR in
// entity.VersionSoftwareBit themselves).
func WithVersionID(v uint32) Option {
	return options.NoError(func(p *Params) { p.VersionID = v })
}

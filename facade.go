package cmp

import (
	"fmt"

	"github.com/platocmp/cmp/archive"
	"github.com/platocmp/cmp/chunk"
	"github.com/platocmp/cmp/cmperrs"
	"github.com/platocmp/cmp/collection"
	"github.com/platocmp/cmp/datatype"
	"github.com/platocmp/cmp/entity"
	"github.com/platocmp/cmp/format"
	"github.com/platocmp/cmp/internal/bufpool"
	"github.com/platocmp/cmp/internal/rtlog"
	"github.com/platocmp/cmp/sizebound"
)

// Chunk is the single-collection convenience input/output the facade
// operates on — the common case is one collection per chunk.
// Multi-collection chunks are served directly
// by package chunk, which takes an explicit per-collection sample count
// instead of recovering it from the entity's original_size field.
type Chunk struct {
	Header  collection.Header
	Samples collection.Samples
}

func bytesPerSample(ct datatype.ChunkType) int {
	n := 0
	for _, f := range ct.Fields() {
		n += f.ByteWidth()
	}

	return n
}

// validateFieldParams rejects a (golomb_par, spill) pair that the entity
// trailer cannot carry losslessly: imagette trailers store both as a
// single byte each (entity.ImagetteParams), so golomb_par must additionally
// respect the spec's narrower imagette bound or it would silently
// truncate on write.
func validateFieldParams(ct datatype.ChunkType, fp datatype.FieldParams) error {
	maxGolomb := datatype.MaxGolombParFor(ct)
	if fp.GolombPar < 1 || fp.GolombPar > maxGolomb {
		return cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("golomb_par %d out of range [1,%d] for %s", fp.GolombPar, maxGolomb, ct))
	}
	if ct.IsImagette() && fp.Spill > 0xFF {
		return cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("spill %d does not fit the imagette trailer's 1-byte field", fp.Spill))
	}

	return nil
}

func buildTrailer(ct datatype.ChunkType, p *Params) (entity.Trailer, error) {
	if ct.IsImagette() {
		if len(p.FieldParams) == 0 {
			return entity.Trailer{}, cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("imagette requires one field param"))
		}
		fp := p.FieldParams[0]
		if err := validateFieldParams(ct, fp); err != nil {
			return entity.Trailer{}, err
		}
		if p.Adaptive {
			if len(p.FieldParams) < 3 {
				return entity.Trailer{}, cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("adaptive imagette requires three field params"))
			}
			ap1, ap2 := p.FieldParams[1], p.FieldParams[2]
			if err := validateFieldParams(ct, ap1); err != nil {
				return entity.Trailer{}, err
			}
			if err := validateFieldParams(ct, ap2); err != nil {
				return entity.Trailer{}, err
			}
			return entity.Trailer{Kind: entity.TrailerAdaptiveImagette, Adaptive: entity.AdaptiveImagetteParams{
				Spill: uint8(fp.Spill), GolombPar: uint8(fp.GolombPar),
				Ap1Spill: uint8(ap1.Spill), Ap1GolombPar: uint8(ap1.GolombPar),
				Ap2Spill: uint8(ap2.Spill), Ap2GolombPar: uint8(ap2.GolombPar),
			}}, nil
		}

		return entity.Trailer{Kind: entity.TrailerImagette, Imagette: entity.ImagetteParams{
			Spill: uint8(fp.Spill), GolombPar: uint8(fp.GolombPar),
		}}, nil
	}

	need := ct.ParamSlots()
	if len(p.FieldParams) < need {
		return entity.Trailer{}, cmperrs.Wrap(cmperrs.KindParSpecific, fmt.Errorf("%s requires %d field params, got %d", ct, need, len(p.FieldParams)))
	}
	for _, fp := range p.FieldParams[:need] {
		if err := validateFieldParams(ct, fp); err != nil {
			return entity.Trailer{}, err
		}
	}

	return entity.Trailer{Kind: entity.TrailerNonImagette, NonImag: p.FieldParams[:need]}, nil
}

func paramsFromTrailer(ct datatype.ChunkType, t entity.Trailer) []datatype.FieldParams {
	switch t.Kind {
	case entity.TrailerImagette:
		return []datatype.FieldParams{{GolombPar: uint32(t.Imagette.GolombPar), Spill: uint32(t.Imagette.Spill)}}
	case entity.TrailerAdaptiveImagette:
		a := t.Adaptive
		return []datatype.FieldParams{
			{GolombPar: uint32(a.GolombPar), Spill: uint32(a.Spill)},
			{GolombPar: uint32(a.Ap1GolombPar), Spill: uint32(a.Ap1Spill)},
			{GolombPar: uint32(a.Ap2GolombPar), Spill: uint32(a.Ap2Spill)},
		}
	default:
		return t.NonImag
	}
}

// CompressChunk encodes one collection into a self-describing entity
// written to dst, returning the used slice of dst and, for MODEL_*
// modes, the updated model. model is required (and consulted per-field)
// when params selects a MODEL_* mode; it is ignored otherwise.
func CompressChunk(c Chunk, model collection.Samples, dst []byte, opts ...Option) ([]byte, collection.Samples, error) {
	p, err := NewParams(opts...)
	if err != nil {
		return nil, nil, err
	}

	ct, ok := datatype.ChunkTypeForSubservice(c.Header.Subservice)
	if !ok {
		return nil, nil, cmperrs.ErrColSubserviceUnsupported
	}

	firstField := ct.Fields()[0]
	numSamples := len(c.Samples[firstField])
	if numSamples == 0 {
		return nil, nil, cmperrs.ErrChunkTooSmall
	}

	var trailer entity.Trailer
	if p.Mode != datatype.ModeRaw {
		trailer, err = buildTrailer(ct, p)
		if err != nil {
			return nil, nil, err
		}
	} else {
		trailer = entity.Trailer{Kind: entity.TrailerImagette}
		if !ct.IsImagette() {
			trailer = entity.Trailer{Kind: entity.TrailerNonImagette, NonImag: make([]datatype.FieldParams, ct.ParamSlots())}
		}
	}

	headerSize, err := entity.HeaderSize(ct, trailer)
	if err != nil {
		return nil, nil, err
	}
	if len(dst) < headerSize {
		return nil, nil, cmperrs.ErrSmallBuf
	}

	h := entity.Header{
		VersionID:          p.VersionID,
		OriginalSize:       uint32(numSamples * bytesPerSample(ct)),
		DataType:           uint16(ct),
		RawMode:            p.Mode == datatype.ModeRaw,
		CmpMode:            p.Mode,
		ModelValue:         uint8(p.ModelValue),
		ModelID:            p.ModelID,
		ModelCounter:       p.ModelCounter,
		MaxUsedBitsVersion: p.Registry.Version,
	}
	if p.Adaptive {
		h.LossyCmpParUsed = 1
	}

	if _, err := entity.WriteHeader(dst, h, ct, trailer); err != nil {
		return nil, nil, err
	}

	encIn := chunk.EncodeInput{
		Mode:       p.Mode,
		Params:     p.FieldParams,
		MaxBits:    p.Registry,
		ModelValue: p.ModelValue,
		Collections: []chunk.Collection{
			{Header: c.Header, NumSamples: numSamples, Samples: c.Samples, Model: model},
		},
	}

	payloadLen, result, err := chunk.Encode(dst[headerSize:], encIn)
	if err != nil {
		return nil, nil, err
	}

	total := headerSize + payloadLen
	if err := entity.SetSize(dst, uint32(total)); err != nil {
		return nil, nil, err
	}

	var updated collection.Samples
	if p.Mode.IsModel() && len(result.UpdatedModel) > 0 {
		updated = result.UpdatedModel[0]
	}

	return dst[:total], updated, nil
}

// DecompressCmpEntity decodes an entity produced by CompressChunk back
// into the original chunk. model is required (and consulted per-field)
// when the entity's cmp_mode is MODEL_*; it is ignored otherwise.
func DecompressCmpEntity(ent []byte, model collection.Samples, opts ...Option) (Chunk, collection.Samples, error) {
	p, err := NewParams(opts...)
	if err != nil {
		return Chunk{}, nil, err
	}

	ct, adaptive, err := entity.PeekKind(ent)
	if err != nil {
		return Chunk{}, nil, err
	}

	h, trailer, headerSize, err := entity.ParseHeader(ent, ct, adaptive)
	if err != nil {
		return Chunk{}, nil, err
	}
	if h.MaxUsedBitsVersion != p.Registry.Version {
		rtlog.Warn().
			Uint8("entity_registry_version", h.MaxUsedBitsVersion).
			Uint8("caller_registry_version", p.Registry.Version).
			Msg("max_used_bits registry generation mismatch")
		return Chunk{}, nil, cmperrs.ErrParMaxUsedBits
	}
	if int(h.Size) > len(ent) {
		return Chunk{}, nil, cmperrs.ErrEntityTooSmall
	}

	bps := bytesPerSample(ct)
	if bps == 0 || int(h.OriginalSize)%bps != 0 {
		return Chunk{}, nil, cmperrs.ErrEntityHeader
	}
	numSamples := int(h.OriginalSize) / bps

	decIn := chunk.DecodeInput{
		Mode:              h.CmpMode,
		Params:            paramsFromTrailer(ct, trailer),
		MaxBits:           p.Registry,
		ModelValue:        uint32(h.ModelValue),
		ExpectedChunkType: ct,
		NumSamples:        []int{numSamples},
	}
	if h.CmpMode.IsModel() {
		decIn.Model = []collection.Samples{model}
	}

	cols, _, err := chunk.Decode(ent[headerSize:h.Size], decIn)
	if err != nil {
		return Chunk{}, nil, err
	}
	if len(cols) != 1 {
		return Chunk{}, nil, cmperrs.ErrIntDecoder
	}

	return Chunk{Header: cols[0].Header, Samples: cols[0].Samples}, cols[0].UpdatedModel, nil
}

// CompressChunkSizeBound returns a conservative upper bound on the
// entity CompressChunk would produce for c under params — allocating a
// destination buffer of this size guarantees the encoder cannot fail
// with SMALL_BUF.
func CompressChunkSizeBound(c Chunk, opts ...Option) (int, error) {
	p, err := NewParams(opts...)
	if err != nil {
		return 0, err
	}

	ct, ok := datatype.ChunkTypeForSubservice(c.Header.Subservice)
	if !ok {
		return 0, cmperrs.ErrColSubserviceUnsupported
	}

	firstField := ct.Fields()[0]
	numSamples := len(c.Samples[firstField])

	var trailer entity.Trailer
	if p.Mode != datatype.ModeRaw {
		trailer, err = buildTrailer(ct, p)
		if err != nil {
			return 0, err
		}
	} else if ct.IsImagette() {
		trailer = entity.Trailer{Kind: entity.TrailerImagette}
	} else {
		trailer = entity.Trailer{Kind: entity.TrailerNonImagette, NonImag: make([]datatype.FieldParams, ct.ParamSlots())}
	}

	return sizebound.ChunkBound(ct, []sizebound.CollectionShape{{NumSamples: numSamples}}, p.Registry, p.Mode, p.FieldParams, trailer)
}

// CompressChunkPooled is CompressChunk without a caller-supplied
// destination: it draws a scratch buffer from the package-level entity
// pool sized to CompressChunkSizeBound, encodes into it, and returns the
// buffer so the caller can release it with bufpool.PutEntityBuffer once
// the encoded bytes (bb.Bytes()) have been consumed. Useful for
// high-throughput encode loops that would otherwise allocate a fresh
// destination slice per chunk.
func CompressChunkPooled(c Chunk, model collection.Samples, opts ...Option) (*bufpool.ByteBuffer, collection.Samples, error) {
	bound, err := CompressChunkSizeBound(c, opts...)
	if err != nil {
		return nil, nil, err
	}

	bb := bufpool.GetEntityBuffer()
	bb.SetLength(bound)

	ent, updated, err := CompressChunk(c, model, bb.Bytes(), opts...)
	if err != nil {
		bufpool.PutEntityBuffer(bb)
		return nil, nil, err
	}
	bb.SetLength(len(ent))

	return bb, updated, nil
}

// CompressChunksArchive compresses every chunk with CompressChunkPooled
// and packs the resulting entities into a single archive stream via
// package archive, suitable for ground-segment log rotation of many
// entities under one checksum. model, when non-nil, supplies the MODEL_*
// predictor base for every chunk in the batch, and opts apply to every
// chunk alike; there is no way to give one chunk a different model.
func CompressChunksArchive(chunks []Chunk, model collection.Samples, algo format.CompressionType, opts ...Option) ([]byte, error) {
	store := archive.NewEntityStore(algo)
	for _, c := range chunks {
		bb, _, err := CompressChunkPooled(c, model, opts...)
		if err != nil {
			return nil, err
		}
		store.Append(append([]byte(nil), bb.Bytes()...))
		bufpool.PutEntityBuffer(bb)
	}

	return store.Compressed()
}

// DecompressChunksArchive reverses CompressChunksArchive, decoding each
// stored entity with DecompressCmpEntity in append order.
func DecompressChunksArchive(stream []byte, algo format.CompressionType, model collection.Samples, opts ...Option) ([]Chunk, error) {
	entries, err := archive.OpenEntityStore(stream, algo)
	if err != nil {
		return nil, err
	}

	out := make([]Chunk, 0, len(entries))
	for _, ent := range entries {
		c, _, err := DecompressCmpEntity(ent, model, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, nil
}

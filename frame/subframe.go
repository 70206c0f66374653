package frame

import (
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// Pred specifies the prediction method used to decode a subframe's samples.
type Pred uint8

// Prediction methods.
const (
	// PredConstant: every sample in the subframe has the same value.
	PredConstant Pred = iota
	// PredVerbatim: samples are stored unencoded.
	PredVerbatim
	// PredFixed: samples are reconstructed with one of 5 fixed polynomial
	// predictors (order 0..4).
	PredFixed
	// PredLPC: samples are reconstructed with a quantized linear predictor of
	// order 1..32 whose coefficients are carried in the subframe.
	PredLPC
)

// SubHeader specifies the prediction method, order, and wasted-bits count of
// a subframe.
//
// ref: https://www.xiph.org/flac/format.html#subframe_header
type SubHeader struct {
	Pred   Pred
	Order  int
	Wasted uint
}

// Subframe holds the decoded samples from one channel of a frame.
//
// ref: https://www.xiph.org/flac/format.html#subframe
type Subframe struct {
	SubHeader
	Samples  []int32
	NSamples int
}

// parseSubframeHeader reads and parses a subframe header.
func parseSubframeHeader(br *bits.Reader) (SubHeader, error) {
	var h SubHeader

	pad, err := br.ReadUint(1)
	if err != nil {
		return h, err
	}
	if pad != 0 {
		return h, ferr.New(ferr.Unparseable, br.BitsRead(), "non-zero subframe padding bit")
	}

	code, err := br.ReadUint(6)
	if err != nil {
		return h, err
	}
	switch {
	case code == 0:
		h.Pred = PredConstant
	case code == 1:
		h.Pred = PredVerbatim
	case code < 8:
		return h, ferr.New(ferr.Unparseable, br.BitsRead(), "reserved subframe type %06b", code)
	case code < 16:
		order := int(code & 0x7)
		if order > 4 {
			return h, ferr.New(ferr.Unparseable, br.BitsRead(), "reserved fixed predictor order %06b", code)
		}
		h.Pred = PredFixed
		h.Order = order
	case code < 32:
		return h, ferr.New(ferr.Unparseable, br.BitsRead(), "reserved subframe type %06b", code)
	default:
		h.Pred = PredLPC
		h.Order = int(code&0x1F) + 1
	}

	hasWasted, err := br.ReadUint(1)
	if err != nil {
		return h, err
	}
	if hasWasted != 0 {
		count, err := br.ReadUnary()
		if err != nil {
			return h, err
		}
		h.Wasted = uint(count) + 1
	}

	return h, nil
}

// decodeSubframe reads and reconstructs one channel's worth of samples. bps
// is the frame's nominal bits-per-sample, already adjusted by the caller for
// the side-channel bonus bit (SPEC component E); it is further reduced here
// by any wasted-bits-per-sample this subframe declares.
func decodeSubframe(br *bits.Reader, blockSize int, bps uint) (*Subframe, error) {
	h, err := parseSubframeHeader(br)
	if err != nil {
		return nil, err
	}

	sf := &Subframe{SubHeader: h, NSamples: blockSize}
	effectiveBps := bps - h.Wasted

	switch h.Pred {
	case PredConstant:
		err = decodeConstant(br, sf, effectiveBps)
	case PredVerbatim:
		err = decodeVerbatim(br, sf, effectiveBps)
	case PredFixed:
		err = decodeFixed(br, sf, effectiveBps)
	case PredLPC:
		err = decodeLPC(br, sf, effectiveBps)
	}
	if err != nil {
		return nil, err
	}

	if h.Wasted > 0 {
		for i, s := range sf.Samples {
			sf.Samples[i] = s << h.Wasted
		}
	}
	return sf, nil
}

func decodeConstant(br *bits.Reader, sf *Subframe, bps uint) error {
	x, err := br.ReadInt(bps)
	if err != nil {
		return err
	}
	sample := int32(x)
	sf.Samples = make([]int32, sf.NSamples)
	for i := range sf.Samples {
		sf.Samples[i] = sample
	}
	return nil
}

func decodeVerbatim(br *bits.Reader, sf *Subframe, bps uint) error {
	sf.Samples = make([]int32, 0, sf.NSamples)
	for i := 0; i < sf.NSamples; i++ {
		x, err := br.ReadInt(bps)
		if err != nil {
			return err
		}
		sf.Samples = append(sf.Samples, int32(x))
	}
	return nil
}

func decodeFixed(br *bits.Reader, sf *Subframe, bps uint) error {
	samples := make([]int32, 0, sf.NSamples)
	for i := 0; i < sf.Order; i++ {
		x, err := br.ReadInt(bps)
		if err != nil {
			return err
		}
		samples = append(samples, int32(x))
	}

	samples, err := decodeResidual(br, samples, sf.NSamples, sf.Order)
	if err != nil {
		return err
	}
	if err := reconstructFixed(samples, sf.Order); err != nil {
		return err
	}
	sf.Samples = samples
	return nil
}

func decodeLPC(br *bits.Reader, sf *Subframe, bps uint) error {
	samples := make([]int32, 0, sf.NSamples)
	for i := 0; i < sf.Order; i++ {
		x, err := br.ReadInt(bps)
		if err != nil {
			return err
		}
		samples = append(samples, int32(x))
	}

	precCode, err := br.ReadUint(4)
	if err != nil {
		return err
	}
	if precCode == 0xF {
		return ferr.New(ferr.LostSync, br.BitsRead(), "invalid LPC coefficient precision code 1111")
	}
	qlpPrecision := uint(precCode) + 1

	shiftCode, err := br.ReadUint(5)
	if err != nil {
		return err
	}
	shift := int32(bits.SignExtend(shiftCode, 5))

	coeffs := make([]int32, sf.Order)
	for i := range coeffs {
		x, err := br.ReadInt(qlpPrecision)
		if err != nil {
			return err
		}
		coeffs[i] = int32(x)
	}

	samples, err = decodeResidual(br, samples, sf.NSamples, sf.Order)
	if err != nil {
		return err
	}
	if err := reconstructLPC(samples, sf.Order, coeffs, shift, bps, qlpPrecision); err != nil {
		return err
	}
	sf.Samples = samples
	return nil
}

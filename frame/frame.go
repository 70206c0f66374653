// Package frame implements parsing of FLAC audio frames: the frame header,
// one subframe per channel, inter-channel decorrelation, and the frame
// footer checksum.
//
// ref: https://www.xiph.org/flac/format.html#frame
package frame

import (
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// Frame holds the header and decoded subframes of an audio frame: the
// samples from one block (a short period of time) of the audio stream, one
// subframe per channel.
type Frame struct {
	Header
	Subframes []*Subframe
}

// Parse reads and parses one frame from br: its header, one subframe per
// channel, the inter-channel decorrelation (if any), and the footer CRC-16.
// br's CRC-16 accumulator is reset at the start of the call, since the
// footer checksum covers exactly the bytes of this frame.
//
// Parse returns a *ferr.Error wrapping ferr.UnexpectedEnd when br's
// underlying byte source is exhausted at a frame boundary, signalling a
// graceful end of stream to callers that treat that kind specially (the
// Stream Driver in the root package does).
func Parse(br *bits.Reader) (*Frame, error) {
	br.ResetCRC16()
	br.ResetCRC8()

	hdr, err := parseHeader(br)
	if err != nil {
		return nil, err
	}

	frame := &Frame{Header: *hdr}
	frame.Subframes = make([]*Subframe, hdr.Channels.Count())
	for ch := range frame.Subframes {
		bps := uint(hdr.BitsPerSample) + hdr.Channels.sideChannelBonus(ch)
		sf, err := decodeSubframe(br, int(hdr.BlockSize), bps)
		if err != nil {
			return nil, err
		}
		frame.Subframes[ch] = sf
	}

	frame.correlateChannels()

	if pad := br.BitsLeftForByteAlignment(); pad > 0 {
		x, err := br.ReadUint(pad)
		if err != nil {
			return nil, err
		}
		if x != 0 {
			return nil, ferr.New(ferr.Unparseable, br.BitsRead(), "non-zero frame padding")
		}
	}

	// The CRC-16 covers the frame up to the start of the footer; take it
	// before reading the footer folds its bytes into the accumulator too.
	got := uint64(br.CRC16())
	want, err := br.ReadUint(16)
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, ferr.New(ferr.BadFrameCRC, br.BitsRead(), "CRC-16 mismatch; expected %#04x, got %#04x", want, got)
	}

	return frame, nil
}

// correlateChannels reverts any inter-channel decorrelation applied by the
// encoder, in place, over the two channel buffers of a 2-channel
// decorrelated frame. No-op for INDEPENDENT channel assignments or channel
// counts other than 2.
func (frame *Frame) correlateChannels() {
	if frame.Channels.Count() != 2 {
		return
	}
	frame.Channels.correlate(frame.Subframes[0].Samples, frame.Subframes[1].Samples)
}

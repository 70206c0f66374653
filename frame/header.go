package frame

import (
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// SyncCode is the 14-bit pattern that begins every audio frame.
const SyncCode = 0x3FFE

// Header holds the basic properties of an audio frame: its block size,
// sample rate, channel layout, and sample depth. Every frame header begins
// with SyncCode so a driver resynchronizing mid-stream can locate the next
// frame by scanning for it.
//
// ref: https://www.xiph.org/flac/format.html#frame_header
type Header struct {
	// HasFixedBlockSize reports whether the stream uses a fixed block size
	// (Num is then a frame number) or a variable one (Num is a sample
	// number).
	HasFixedBlockSize bool
	// BlockSize is the number of inter-channel samples in each subframe.
	BlockSize uint16
	// SampleRate in Hz; 0 means "use StreamInfo's sample rate".
	SampleRate uint32
	// Channels specifies the channel layout and any inter-channel
	// decorrelation in use.
	Channels ChannelAssignment
	// BitsPerSample; 0 means "use StreamInfo's bits-per-sample".
	BitsPerSample uint8
	// Num is the frame number (fixed block size) or the first sample number
	// in the frame (variable block size).
	Num uint64
}

// SampleNumber returns the first sample number contained within the frame.
func (h *Header) SampleNumber() uint64 {
	if h.HasFixedBlockSize {
		return h.Num * uint64(h.BlockSize)
	}
	return h.Num
}

// parseHeader reads and parses a frame header from br, which must be
// positioned at a sync code. CRC-8 accumulation must already be reset by the
// caller immediately before the first bit is read.
func parseHeader(br *bits.Reader) (*Header, error) {
	start := br.BitsRead()

	sync, err := br.ReadUint(14)
	if err != nil {
		return nil, err
	}
	if sync != SyncCode {
		return nil, ferr.New(ferr.LostSync, start, "invalid sync code %014b", sync)
	}

	reserved, err := br.ReadUint(1)
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, ferr.New(ferr.LostSync, br.BitsRead(), "non-zero reserved bit in frame header")
	}

	blockingStrategy, err := br.ReadUint(1)
	if err != nil {
		return nil, err
	}

	hdr := &Header{HasFixedBlockSize: blockingStrategy == 0}

	blockSizeCode, err := br.ReadUint(4)
	if err != nil {
		return nil, err
	}
	sampleRateCode, err := br.ReadUint(4)
	if err != nil {
		return nil, err
	}

	channelCode, err := br.ReadUint(4)
	if err != nil {
		return nil, err
	}
	if channelCode > uint64(ChannelsMidSide) {
		return nil, ferr.New(ferr.LostSync, br.BitsRead(), "reserved channel assignment %04b", channelCode)
	}
	hdr.Channels = ChannelAssignment(channelCode)

	if err := parseBitsPerSample(br, hdr); err != nil {
		return nil, err
	}

	reserved, err = br.ReadUint(1)
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, ferr.New(ferr.LostSync, br.BitsRead(), "non-zero reserved bit in frame header")
	}

	num, err := br.ReadUTF8Int()
	if err != nil {
		return nil, err
	}
	if num == ^uint64(0) {
		return nil, ferr.New(ferr.LostSync, br.BitsRead(), "malformed UTF-8 coded frame/sample number")
	}
	hdr.Num = num

	if err := parseBlockSize(br, hdr, blockSizeCode); err != nil {
		return nil, err
	}
	if err := parseSampleRate(br, hdr, sampleRateCode); err != nil {
		return nil, err
	}

	// The CRC-8 covers the header up to, not including, the CRC byte; take it
	// before reading that byte folds it into the accumulator too.
	got := uint64(br.CRC8())
	want, err := br.ReadUint(8)
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, ferr.New(ferr.BadHeaderCRC, br.BitsRead(), "CRC-8 mismatch; expected %#02x, got %#02x", want, got)
	}

	return hdr, nil
}

func parseBitsPerSample(br *bits.Reader, hdr *Header) error {
	x, err := br.ReadUint(3)
	if err != nil {
		return err
	}
	switch x {
	case 0x0:
		// unknown; fall back to StreamInfo.
	case 0x1:
		hdr.BitsPerSample = 8
	case 0x2:
		hdr.BitsPerSample = 12
	case 0x4:
		hdr.BitsPerSample = 16
	case 0x5:
		hdr.BitsPerSample = 20
	case 0x6:
		hdr.BitsPerSample = 24
	default:
		return ferr.New(ferr.LostSync, br.BitsRead(), "reserved sample size %03b", x)
	}
	return nil
}

func parseBlockSize(br *bits.Reader, hdr *Header, code uint64) error {
	switch {
	case code == 0x0:
		return ferr.New(ferr.LostSync, br.BitsRead(), "reserved block size code 0000")
	case code == 0x1:
		hdr.BlockSize = 192
	case code >= 0x2 && code <= 0x5:
		hdr.BlockSize = 576 * (1 << (code - 2))
	case code == 0x6:
		x, err := br.ReadUint(8)
		if err != nil {
			return err
		}
		hdr.BlockSize = uint16(x + 1)
	case code == 0x7:
		x, err := br.ReadUint(16)
		if err != nil {
			return err
		}
		hdr.BlockSize = uint16(x + 1)
	default:
		hdr.BlockSize = 256 * (1 << (code - 8))
	}
	return nil
}

func parseSampleRate(br *bits.Reader, hdr *Header, code uint64) error {
	switch code {
	case 0x0:
		// unknown; fall back to StreamInfo.
	case 0x1:
		hdr.SampleRate = 88200
	case 0x2:
		hdr.SampleRate = 176400
	case 0x3:
		hdr.SampleRate = 192000
	case 0x4:
		hdr.SampleRate = 8000
	case 0x5:
		hdr.SampleRate = 16000
	case 0x6:
		hdr.SampleRate = 22050
	case 0x7:
		hdr.SampleRate = 24000
	case 0x8:
		hdr.SampleRate = 32000
	case 0x9:
		hdr.SampleRate = 44100
	case 0xA:
		hdr.SampleRate = 48000
	case 0xB:
		hdr.SampleRate = 96000
	case 0xC:
		x, err := br.ReadUint(8)
		if err != nil {
			return err
		}
		hdr.SampleRate = uint32(x) * 1000
	case 0xD:
		x, err := br.ReadUint(16)
		if err != nil {
			return err
		}
		hdr.SampleRate = uint32(x)
	case 0xE:
		x, err := br.ReadUint(16)
		if err != nil {
			return err
		}
		hdr.SampleRate = uint32(x) * 10
	case 0xF:
		return ferr.New(ferr.LostSync, br.BitsRead(), "invalid sample rate code 1111")
	}
	return nil
}

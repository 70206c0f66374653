package meta

import (
	"crypto/md5"

	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// StreamInfo contains the basic properties of a FLAC audio stream: its
// sample rate, channel count, bit depth, and total sample count. It is the
// only mandatory metadata block and must be present, and first, in every
// FLAC stream. Once parsed it is immutable for the stream's lifetime.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_streaminfo
type StreamInfo struct {
	// Minimum block size (in samples) used in the stream.
	BlockSizeMin uint16
	// Maximum block size (in samples) used in the stream.
	BlockSizeMax uint16
	// Minimum frame size in bytes; 0 means unknown.
	FrameSizeMin uint32
	// Maximum frame size in bytes; 0 means unknown.
	FrameSizeMax uint32
	// Sample rate in Hz; between 1 and 655350 Hz.
	SampleRate uint32
	// Number of channels; between 1 and 8.
	NChannels uint8
	// Sample size in bits-per-sample; between 4 and 32 bits.
	BitsPerSample uint8
	// Total number of inter-channel samples in the stream; 0 means unknown.
	NSamples uint64
	// MD5 checksum of the unencoded (decoded) audio data.
	MD5sum [md5.Size]byte
}

// parseStreamInfo reads and parses a STREAMINFO block body.
func parseStreamInfo(br *bits.Reader) (*StreamInfo, error) {
	si := new(StreamInfo)

	x, err := br.ReadUint(16)
	if err != nil {
		return nil, err
	}
	si.BlockSizeMin = uint16(x)

	x, err = br.ReadUint(16)
	if err != nil {
		return nil, err
	}
	si.BlockSizeMax = uint16(x)
	if si.BlockSizeMax < si.BlockSizeMin {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "max block size (%d) < min block size (%d)", si.BlockSizeMax, si.BlockSizeMin)
	}

	x, err = br.ReadUint(24)
	if err != nil {
		return nil, err
	}
	si.FrameSizeMin = uint32(x)

	x, err = br.ReadUint(24)
	if err != nil {
		return nil, err
	}
	si.FrameSizeMax = uint32(x)

	x, err = br.ReadUint(20)
	if err != nil {
		return nil, err
	}
	if x == 0 {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "invalid sample rate (0)")
	}
	si.SampleRate = uint32(x)

	x, err = br.ReadUint(3)
	if err != nil {
		return nil, err
	}
	// x holds (channel count) - 1.
	si.NChannels = uint8(x) + 1

	x, err = br.ReadUint(5)
	if err != nil {
		return nil, err
	}
	// x holds (bits-per-sample) - 1.
	si.BitsPerSample = uint8(x) + 1

	x, err = br.ReadUint(36)
	if err != nil {
		return nil, err
	}
	si.NSamples = x

	md5buf, err := br.ReadByteBlockAligned(md5.Size)
	if err != nil {
		return nil, err
	}
	copy(si.MD5sum[:], md5buf)

	return si, nil
}

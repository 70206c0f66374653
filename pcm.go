package flac

import (
	"github.com/go-audio/audio"

	"github.com/flacio/flac/frame"
)

// formatter packs the decoded, de-correlated samples of a frame into
// interleaved little-endian PCM bytes at the frame's own bits-per-sample,
// reusing a single growable buffer across frames so steady-state decoding
// does no per-frame allocation.
type formatter struct {
	buf []byte
}

// bytesPerSample rounds bps up to the nearest whole byte width FLAC allows
// (8, 16, 24, or 32 bits).
func bytesPerSample(bps uint8) int {
	switch {
	case bps <= 8:
		return 1
	case bps <= 16:
		return 2
	case bps <= 24:
		return 3
	default:
		return 4
	}
}

// format interleaves f's subframes into little-endian PCM, growing and
// reusing fmt's internal buffer. The returned slice is a view into that
// buffer and is only valid until the next call to format.
func (fm *formatter) format(f *frame.Frame) []byte {
	width := bytesPerSample(f.BitsPerSample)
	nch := len(f.Subframes)
	n := int(f.BlockSize) * nch * width
	if cap(fm.buf) < n {
		fm.buf = make([]byte, n)
	}
	buf := fm.buf[:n]

	i := 0
	for s := 0; s < int(f.BlockSize); s++ {
		for ch := 0; ch < nch; ch++ {
			putLE(buf[i:i+width], f.Subframes[ch].Samples[s], width)
			i += width
		}
	}
	return buf
}

// putLE writes the low width*8 bits of x into dst, little-endian.
func putLE(dst []byte, x int32, width int) {
	u := uint32(x)
	for i := 0; i < width; i++ {
		dst[i] = byte(u)
		u >>= 8
	}
}

// getLE is putLE's inverse: it sign-extends the little-endian two's
// complement integer occupying all of b back to an int32.
func getLE(b []byte) int32 {
	var u uint32
	for i := len(b) - 1; i >= 0; i-- {
		u = u<<8 | uint32(b[i])
	}
	shift := uint(32 - len(b)*8)
	return int32(u<<shift) >> shift
}

// IntBuffer unpacks interleaved little-endian PCM bytes, as produced by the
// formatter and delivered to a Processor's OnPCM, into a
// go-audio/audio.IntBuffer for callers already working in that ecosystem.
func IntBuffer(samples []byte, nchannels, bitsPerSample, sampleRate int) *audio.IntBuffer {
	width := bytesPerSample(uint8(bitsPerSample))
	data := make([]int, len(samples)/width)
	for i := range data {
		data[i] = int(getLE(samples[i*width : (i+1)*width]))
	}
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: nchannels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: bitsPerSample,
	}
}

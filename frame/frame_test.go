package frame_test

import (
	"bytes"
	"testing"

	"github.com/flacio/flac/frame"
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// bitWriter builds a synthetic FLAC frame bitstream MSB-first, mirroring the
// bit layout internal/bits.Reader consumes, so tests can construct frames by
// hand without golden .flac fixtures.
type bitWriter struct {
	buf   []byte
	cur   byte
	nbits uint
}

func (w *bitWriter) writeUint(n uint, v uint64) {
	for i := int(n) - 1; i >= 0; i-- {
		bit := byte((v >> uint(i)) & 1)
		w.cur = w.cur<<1 | bit
		w.nbits++
		if w.nbits == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur, w.nbits = 0, 0
		}
	}
}

func (w *bitWriter) writeInt(n uint, v int64) {
	mask := uint64(1)<<n - 1
	w.writeUint(n, uint64(v)&mask)
}

// writeRice writes v Rice-coded with parameter k, via the same
// zigzag+unary+remainder layout internal/bits.Reader.ReadRiceSignedBlock
// decodes.
func (w *bitWriter) writeRice(v int32, k uint) {
	u := bits.ZigZagEncode(v)
	high := u >> k
	for i := uint64(0); i < high; i++ {
		w.writeUint(1, 0)
	}
	w.writeUint(1, 1)
	if k > 0 {
		w.writeUint(k, u&(uint64(1)<<k-1))
	}
}

// snapshot returns a copy of the whole bytes emitted so far; the caller must
// only call it while byte-aligned (nbits == 0).
func (w *bitWriter) snapshot() []byte {
	if w.nbits != 0 {
		panic("bitWriter: snapshot while not byte aligned")
	}
	cp := make([]byte, len(w.buf))
	copy(cp, w.buf)
	return cp
}

func (w *bitWriter) padToByte() {
	for w.nbits != 0 {
		w.writeUint(1, 0)
	}
}

func (w *bitWriter) bytes() []byte {
	w.padToByte()
	return w.buf
}

// crc8Of and crc16Of compute the checksums frame headers and frame footers
// carry, reusing internal/bits.Reader's own running accumulators so test
// fixtures check out against the exact algorithm the decoder uses.
func crc8Of(data []byte) byte {
	br := bits.NewReader(bytes.NewReader(data))
	for range data {
		br.ReadUint(8)
	}
	return br.CRC8()
}

func crc16Of(data []byte) uint16 {
	br := bits.NewReader(bytes.NewReader(data))
	for range data {
		br.ReadUint(8)
	}
	return br.CRC16()
}

// newFrameWriter writes the sync code, the fixed-block-size /
// non-variable frame-number flavor of header used by every fixture below,
// and returns the writer positioned right after the channel assignment so
// callers can add bits-per-sample, reserved bit, frame number, and any
// explicit block-size/sample-rate tails before sealing the header CRC.
func newFrameWriter(blockSizeCode, sampleRateCode, channelCode uint64) *bitWriter {
	w := &bitWriter{}
	w.writeUint(14, frame.SyncCode)
	w.writeUint(1, 0) // reserved
	w.writeUint(1, 0) // blocking strategy: fixed block size
	w.writeUint(4, blockSizeCode)
	w.writeUint(4, sampleRateCode)
	w.writeUint(4, channelCode)
	return w
}

// sealHeader writes bits-per-sample code, the header's reserved bit, frame
// number 0, any explicit block-size tail, and the CRC-8, leaving w
// byte-aligned at the start of the first subframe.
func sealHeader(w *bitWriter, bpsCode uint64, explicitBlockSize *uint64) {
	w.writeUint(3, bpsCode)
	w.writeUint(1, 0) // reserved
	w.writeUint(8, 0) // frame number 0, UTF-8 coded as a single byte
	if explicitBlockSize != nil {
		w.writeUint(8, *explicitBlockSize)
	}
	crc8 := crc8Of(w.snapshot())
	w.writeUint(8, uint64(crc8))
}

// sealFrame pads to a byte boundary and appends the footer CRC-16, returning
// the complete frame bytes.
func sealFrame(w *bitWriter) []byte {
	w.padToByte()
	crc16 := crc16Of(w.snapshot())
	w.writeUint(16, uint64(crc16))
	return w.bytes()
}

func writeSubframeHeader(w *bitWriter, typeCode uint64) {
	w.writeUint(1, 0) // no padding bit
	w.writeUint(6, typeCode)
	w.writeUint(1, 0) // no wasted bits
}

const (
	typeConstant  = 0
	typeFixedOrd1 = 8 + 1
	typeLPCOrd2   = 32 + 1 // (order-1) = 1
)

// TestFrameConstantStereo mirrors scenario S1: a stereo (independent
// left/right) frame of blockSize=4096 whose subframes are both constant 0.
func TestFrameConstantStereo(t *testing.T) {
	w := newFrameWriter(0xC /* 4096 */, 0x9 /* 44100 Hz */, 1 /* ChannelsLR */)
	sealHeader(w, 0x4 /* 16 bps */, nil)

	for ch := 0; ch < 2; ch++ {
		writeSubframeHeader(w, typeConstant)
		w.writeInt(16, 0)
	}
	data := sealFrame(w)

	f, err := frame.Parse(bits.NewReader(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if int(f.BlockSize) != 4096 {
		t.Fatalf("block size = %d, want 4096", f.BlockSize)
	}
	if len(f.Subframes) != 2 {
		t.Fatalf("channels = %d, want 2", len(f.Subframes))
	}
	for ch, sf := range f.Subframes {
		if len(sf.Samples) != 4096 {
			t.Fatalf("ch %d: len(Samples) = %d, want 4096", ch, len(sf.Samples))
		}
		for i, s := range sf.Samples {
			if s != 0 {
				t.Fatalf("ch %d sample %d = %d, want 0", ch, i, s)
			}
		}
	}
}

// TestFrameMidSide mirrors scenario S2: a MID_SIDE frame of blockSize=8 with
// mid subframe constant +4 and side subframe constant -2; reconstructed left
// and right must both come out constant (3, 5) for every sample.
func TestFrameMidSide(t *testing.T) {
	explicitBlockSize := uint64(7) // blockSize = 7+1 = 8
	w := newFrameWriter(0x6, 0x9, 0xA /* ChannelsMidSide */)
	sealHeader(w, 0x4, &explicitBlockSize)

	writeSubframeHeader(w, typeConstant)
	w.writeInt(16, 4) // mid, bps 16 (no side-channel bonus on channel 0)

	writeSubframeHeader(w, typeConstant)
	w.writeInt(17, -2) // side, bps 17 (side-channel bonus on channel 1)

	data := sealFrame(w)

	f, err := frame.Parse(bits.NewReader(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	left, right := f.Subframes[0].Samples, f.Subframes[1].Samples
	if len(left) != 8 || len(right) != 8 {
		t.Fatalf("unexpected sample counts: left=%d right=%d", len(left), len(right))
	}
	for i := range left {
		if left[i] != 3 {
			t.Errorf("left[%d] = %d, want 3", i, left[i])
		}
		if right[i] != 5 {
			t.Errorf("right[%d] = %d, want 5", i, right[i])
		}
	}
}

// TestFrameFixedOrder1 mirrors scenario S3: a mono FIXED order-1 subframe,
// bps=16, blockSize=4, warmup=[100], residual=[1,1,1] -> [100,101,102,103].
func TestFrameFixedOrder1(t *testing.T) {
	data := fixedOrder1Frame(t)

	f, err := frame.Parse(bits.NewReader(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int32{100, 101, 102, 103}
	got := f.Subframes[0].Samples
	if len(got) != len(want) {
		t.Fatalf("len(Samples) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func fixedOrder1Frame(t *testing.T) []byte {
	t.Helper()
	explicitBlockSize := uint64(3) // blockSize = 3+1 = 4
	w := newFrameWriter(0x6, 0x9, 0 /* ChannelsMono */)
	sealHeader(w, 0x4, &explicitBlockSize)

	writeSubframeHeader(w, typeFixedOrd1)
	w.writeInt(16, 100) // warmup sample

	w.writeUint(2, 0) // residual coding method 0: 4-bit partition params
	w.writeUint(4, 0) // partition order 0: a single partition
	w.writeUint(4, 0) // Rice parameter k=0
	for i := 0; i < 3; i++ {
		w.writeRice(1, 0)
	}

	return sealFrame(w)
}

// TestFrameLPCOrder2 mirrors scenario S4: a mono LPC order-2 subframe,
// bps=16, coefficients=[2,-1], shift=0, warmup=[10,20], residual=[0,0] ->
// [10,20,30,40] via the arithmetic-progression recurrence 2*prev - prev2.
func TestFrameLPCOrder2(t *testing.T) {
	explicitBlockSize := uint64(3) // blockSize = 3+1 = 4
	w := newFrameWriter(0x6, 0x9, 0)
	sealHeader(w, 0x4, &explicitBlockSize)

	writeSubframeHeader(w, typeLPCOrd2)
	w.writeInt(16, 10) // warmup[0]
	w.writeInt(16, 20) // warmup[1]
	w.writeUint(4, 3)  // precision code: qlpPrecision = 3+1 = 4 bits
	w.writeInt(5, 0)   // shift = 0
	w.writeInt(4, 2)   // coefficient 0 = 2
	w.writeInt(4, -1)  // coefficient 1 = -1

	w.writeUint(2, 0) // residual coding method 0
	w.writeUint(4, 0) // partition order 0
	w.writeUint(4, 0) // Rice parameter k=0
	w.writeRice(0, 0)
	w.writeRice(0, 0)

	data := sealFrame(w)

	f, err := frame.Parse(bits.NewReader(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int32{10, 20, 30, 40}
	got := f.Subframes[0].Samples
	if len(got) != len(want) {
		t.Fatalf("len(Samples) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

// TestFrameFooterCRCMismatch mirrors scenario S5: flipping a single bit of
// the footer CRC must be reported as BadFrameCRC.
func TestFrameFooterCRCMismatch(t *testing.T) {
	data := fixedOrder1Frame(t)
	data[len(data)-1] ^= 0x01

	_, err := frame.Parse(bits.NewReader(bytes.NewReader(data)))
	if err == nil {
		t.Fatal("expected error for corrupted footer CRC")
	}
	fe, ok := err.(*ferr.Error)
	if !ok || fe.Kind != ferr.BadFrameCRC {
		t.Fatalf("got error %v, want *ferr.Error{Kind: BadFrameCRC}", err)
	}
}

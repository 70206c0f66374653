package meta_test

import (
	"bytes"
	"crypto/md5"
	"testing"

	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/meta"
)

func blockHeader(isLast bool, typ meta.Type, length uint32) []byte {
	first := byte(typ) & 0x7F
	if isLast {
		first |= 0x80
	}
	return []byte{first, byte(length >> 16), byte(length >> 8), byte(length)}
}

func be32(x uint32) []byte {
	return []byte{byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x)}
}

func le32(x uint32) []byte {
	return []byte{byte(x), byte(x >> 8), byte(x >> 16), byte(x >> 24)}
}

func TestReadBlockStreamInfo(t *testing.T) {
	sum := md5.Sum([]byte("hello"))
	body := []byte{
		0x10, 0x00, // BlockSizeMin = 4096
		0x10, 0x00, // BlockSizeMax = 4096
		0x00, 0x00, 0x00, // FrameSizeMin = 0
		0x00, 0x00, 0x00, // FrameSizeMax = 0
	}
	// 20 bits SampleRate=44100, 3 bits channels-1=1, 5 bits bps-1=15,
	// 36 bits NSamples=8 packed across 8 bytes.
	body = append(body, 0x0a, 0xc4, 0x42, 0xf0, 0x00, 0x00, 0x00, 0x08)
	body = append(body, sum[:]...)

	data := append(blockHeader(true, meta.TypeStreamInfo, uint32(len(body))), body...)
	br := bits.NewReader(bytes.NewReader(data))

	block, err := meta.ReadBlock(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !block.IsLast {
		t.Fatal("expected IsLast")
	}
	si, ok := block.Body.(*meta.StreamInfo)
	if !ok {
		t.Fatalf("expected *meta.StreamInfo, got %T", block.Body)
	}
	if si.BlockSizeMin != 4096 || si.BlockSizeMax != 4096 {
		t.Errorf("block size mismatch: %+v", si)
	}
	if si.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", si.SampleRate)
	}
	if si.NChannels != 2 {
		t.Errorf("channels = %d, want 2", si.NChannels)
	}
	if si.BitsPerSample != 16 {
		t.Errorf("bits per sample = %d, want 16", si.BitsPerSample)
	}
	if si.NSamples != 8 {
		t.Errorf("n samples = %d, want 8", si.NSamples)
	}
	if si.MD5sum != sum {
		t.Errorf("md5 mismatch: %x vs %x", si.MD5sum, sum)
	}
}

func TestReadBlockStreamInfoZeroSampleRate(t *testing.T) {
	body := make([]byte, 34)
	body[0], body[1] = 0x10, 0x00
	body[2], body[3] = 0x10, 0x00
	data := append(blockHeader(true, meta.TypeStreamInfo, uint32(len(body))), body...)
	br := bits.NewReader(bytes.NewReader(data))
	if _, err := meta.ReadBlock(br); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestReadBlockPadding(t *testing.T) {
	body := make([]byte, 10)
	data := append(blockHeader(true, meta.TypePadding, uint32(len(body))), body...)
	br := bits.NewReader(bytes.NewReader(data))
	block, err := meta.ReadBlock(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block.Body != nil {
		t.Errorf("expected nil body for padding, got %#v", block.Body)
	}
}

func TestReadBlockPaddingNonZero(t *testing.T) {
	body := []byte{0x00, 0x01}
	data := append(blockHeader(true, meta.TypePadding, uint32(len(body))), body...)
	br := bits.NewReader(bytes.NewReader(data))
	if _, err := meta.ReadBlock(br); err == nil {
		t.Fatal("expected error for non-zero padding byte")
	}
}

func TestReadBlockApplication(t *testing.T) {
	body := append(be32(0x66616b65), []byte("payload")...)
	data := append(blockHeader(false, meta.TypeApplication, uint32(len(body))), body...)
	br := bits.NewReader(bytes.NewReader(data))
	block, err := meta.ReadBlock(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	app, ok := block.Body.(*meta.Application)
	if !ok {
		t.Fatalf("expected *meta.Application, got %T", block.Body)
	}
	if app.ID != 0x66616b65 {
		t.Errorf("ID = %#x, want 0x66616b65", app.ID)
	}
	if string(app.Data) != "payload" {
		t.Errorf("Data = %q, want %q", app.Data, "payload")
	}
}

func seekPoint(sampleNum, offset uint64, nsamples uint16) []byte {
	buf := be32(uint32(sampleNum >> 32))
	buf = append(buf, be32(uint32(sampleNum))...)
	buf = append(buf, be32(uint32(offset>>32))...)
	buf = append(buf, be32(uint32(offset))...)
	buf = append(buf, byte(nsamples>>8), byte(nsamples))
	return buf
}

func TestReadBlockSeekTable(t *testing.T) {
	body := append(seekPoint(0, 0, 4096), seekPoint(4096, 0x1234, 4096)...)
	data := append(blockHeader(false, meta.TypeSeekTable, uint32(len(body))), body...)
	br := bits.NewReader(bytes.NewReader(data))
	block, err := meta.ReadBlock(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, ok := block.Body.(*meta.SeekTable)
	if !ok {
		t.Fatalf("expected *meta.SeekTable, got %T", block.Body)
	}
	if len(st.Points) != 2 {
		t.Fatalf("len(Points) = %d, want 2", len(st.Points))
	}
	if st.Points[1].SampleNum != 4096 || st.Points[1].Offset != 0x1234 {
		t.Errorf("unexpected second seek point: %+v", st.Points[1])
	}
}

func TestReadBlockSeekTableOutOfOrder(t *testing.T) {
	body := append(seekPoint(4096, 0, 4096), seekPoint(0, 0, 4096)...)
	data := append(blockHeader(false, meta.TypeSeekTable, uint32(len(body))), body...)
	br := bits.NewReader(bytes.NewReader(data))
	if _, err := meta.ReadBlock(br); err == nil {
		t.Fatal("expected error for out-of-order seek points")
	}
}

func vorbisCommentBody(vendor string, tags [][2]string) []byte {
	body := le32(uint32(len(vendor)))
	body = append(body, vendor...)
	body = append(body, le32(uint32(len(tags)))...)
	for _, tag := range tags {
		s := tag[0] + "=" + tag[1]
		body = append(body, le32(uint32(len(s)))...)
		body = append(body, s...)
	}
	return body
}

func TestReadBlockVorbisComment(t *testing.T) {
	body := vorbisCommentBody("ref libFLAC 1.2.1", [][2]string{{"ARTIST", "qubodup"}, {"YEAR", "2008"}})
	data := append(blockHeader(true, meta.TypeVorbisComment, uint32(len(body))), body...)
	br := bits.NewReader(bytes.NewReader(data))
	block, err := meta.ReadBlock(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vc, ok := block.Body.(*meta.VorbisComment)
	if !ok {
		t.Fatalf("expected *meta.VorbisComment, got %T", block.Body)
	}
	if vc.Vendor != "ref libFLAC 1.2.1" {
		t.Errorf("Vendor = %q", vc.Vendor)
	}
	if len(vc.Tags) != 2 || vc.Tags[0] != [2]string{"ARTIST", "qubodup"} {
		t.Errorf("Tags = %+v", vc.Tags)
	}
}

func TestReadBlockVorbisCommentMissingEquals(t *testing.T) {
	body := le32(1)
	body = append(body, 'x')
	body = append(body, le32(1)...)
	body = append(body, le32(6)...)
	body = append(body, "nosign"...)
	data := append(blockHeader(true, meta.TypeVorbisComment, uint32(len(body))), body...)
	br := bits.NewReader(bytes.NewReader(data))
	if _, err := meta.ReadBlock(br); err == nil {
		t.Fatal("expected error for tag missing '='")
	}
}

func TestReadBlockVorbisCommentDeclaredTooBig(t *testing.T) {
	// Vendor = "x", then a tag count claiming ~4 billion entries despite the
	// block only having a handful of bytes left.
	body := le32(1)
	body = append(body, 'x')
	body = append(body, le32(0xFFFFFFF0)...)
	data := append(blockHeader(true, meta.TypeVorbisComment, uint32(len(body))), body...)
	br := bits.NewReader(bytes.NewReader(data))
	if _, err := meta.ReadBlock(br); err == nil {
		t.Fatal("expected error for implausible tag count")
	}
}

func TestReadBlockReservedTypeSkipped(t *testing.T) {
	body := []byte("ignored-bytes")
	data := append(blockHeader(true, meta.Type(10), uint32(len(body))), body...)
	data = append(data, 0xFF) // trailing byte that would desync if skip misbehaves
	br := bits.NewReader(bytes.NewReader(data))
	block, err := meta.ReadBlock(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block.Body != nil {
		t.Errorf("expected nil body for reserved type, got %#v", block.Body)
	}
	x, err := br.ReadUint(8)
	if err != nil || x != 0xFF {
		t.Errorf("reader not positioned after skipped block: x=%#x err=%v", x, err)
	}
}

func TestReadBlockInvalidType(t *testing.T) {
	data := blockHeader(true, meta.Type(127), 0)
	br := bits.NewReader(bytes.NewReader(data))
	if _, err := meta.ReadBlock(br); err == nil {
		t.Fatal("expected error for invalid block type 127")
	}
}

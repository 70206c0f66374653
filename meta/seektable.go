package meta

import (
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// SeekTable contains one or more precalculated audio frame seek points.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_seektable
type SeekTable struct {
	// One or more seek points.
	Points []SeekPoint
}

// A SeekPoint specifies the byte offset and initial sample number of a given
// target frame.
//
// ref: https://www.xiph.org/flac/format.html#seekpoint
type SeekPoint struct {
	// Sample number of the first sample in the target frame, or
	// 0xFFFFFFFFFFFFFFFF for a placeholder point.
	SampleNum uint64
	// Offset in bytes from the first byte of the first frame header to the
	// first byte of the target frame's header.
	Offset uint64
	// Number of samples in the target frame.
	NSamples uint16
}

// PlaceholderPoint is the sample number reserved for placeholder seek
// points.
const PlaceholderPoint = 0xFFFFFFFFFFFFFFFF

// seekPointSize is the on-disk size, in bytes, of one SeekPoint: 8 bytes
// sample number, 8 bytes byte offset, 2 bytes frame sample count.
const seekPointSize = 18

// parseSeekTable reads and parses the body of a SEEKTABLE metadata block.
func parseSeekTable(br *bits.Reader, length uint32) (*SeekTable, error) {
	n := int(length) / seekPointSize
	if n < 1 {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "seek table requires at least one seek point")
	}

	table := &SeekTable{Points: make([]SeekPoint, n)}
	var prev uint64
	for i := range table.Points {
		point := &table.Points[i]

		sampleNum, err := br.ReadUint(64)
		if err != nil {
			return nil, err
		}
		point.SampleNum = sampleNum

		offset, err := br.ReadUint(64)
		if err != nil {
			return nil, err
		}
		point.Offset = offset

		nsamples, err := br.ReadUint(16)
		if err != nil {
			return nil, err
		}
		point.NSamples = uint16(nsamples)

		// Seek points within a table must be sorted by ascending sample
		// number, and unique except for placeholder points.
		if i != 0 && sampleNum != PlaceholderPoint {
			switch {
			case sampleNum < prev:
				return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "seek point out of order; sample number %d < previous %d", sampleNum, prev)
			case sampleNum == prev:
				return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "duplicate seek point sample number %d", sampleNum)
			}
		}
		prev = sampleNum
	}

	return table, nil
}

package meta

import (
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// A CueSheet describes how tracks are laid out within a FLAC stream.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_cuesheet
type CueSheet struct {
	// Media catalog number.
	MCN string
	// Number of lead-in samples. This field only has meaning for CD-DA cue
	// sheets; for other uses it should be 0. Refer to the spec for additional
	// information.
	NLeadInSamples uint64
	// Specifies if the cue sheet corresponds to a Compact Disc.
	IsCompactDisc bool
	// One or more tracks. The last track of a cue sheet is always the lead-out
	// track.
	Tracks []CueSheetTrack
}

// CueSheetTrack contains the start offset of a track and other track specific
// metadata.
type CueSheetTrack struct {
	// Track offset in samples, relative to the beginning of the FLAC audio
	// stream.
	Offset uint64
	// Track number; never 0, always unique.
	Num uint8
	// International Standard Recording Code; empty string if not present.
	//
	// ref: http://isrc.ifpi.org/
	ISRC string
	// Specifies if the track contains audio or data.
	IsAudio bool
	// Specifies if the track has been recorded with pre-emphasis
	HasPreEmphasis bool
	// Every track has one or more track index points, except for the lead-out
	// track which has zero. Each index point specifies a position within the
	// track.
	Indicies []CueSheetTrackIndex
}

// A CueSheetTrackIndex specifies a position within a track.
type CueSheetTrackIndex struct {
	// Index point offset in samples, relative to the track offset.
	Offset uint64
	// Index point number; subsequently incrementing by 1 and always unique
	// within a track.
	Num uint8
}

// leadOutCDDA and leadOutNonCDDA are the mandated track numbers of a cue
// sheet's final (lead-out) track.
const (
	leadOutCDDA    = 170
	leadOutNonCDDA = 255
)

// parseCueSheet reads and parses the body of a CUESHEET metadata block.
func parseCueSheet(br *bits.Reader) (*CueSheet, error) {
	mcnBuf, err := br.ReadByteBlockAligned(128)
	if err != nil {
		return nil, err
	}
	cs := &CueSheet{MCN: stringFromSZ(string(mcnBuf))}

	nLeadIn, err := br.ReadUint(64)
	if err != nil {
		return nil, err
	}
	cs.NLeadInSamples = nLeadIn

	flags, err := br.ReadUint(1)
	if err != nil {
		return nil, err
	}
	cs.IsCompactDisc = flags != 0

	// 7 reserved bits, then 258 reserved bytes; both must be zero.
	reserved, err := br.ReadUint(7)
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "non-zero reserved bits in cue sheet header")
	}
	if err := verifyZeroBytes(br, 258); err != nil {
		return nil, err
	}

	ntracks, err := br.ReadUint(8)
	if err != nil {
		return nil, err
	}
	if ntracks < 1 {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "cue sheet requires at least one track")
	}
	if cs.IsCompactDisc && ntracks > 100 {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "CD-DA cue sheet has %d tracks, exceeds 100", ntracks)
	}

	cs.Tracks = make([]CueSheetTrack, ntracks)
	seen := make(map[uint8]bool, ntracks)
	for i := range cs.Tracks {
		isLeadOut := i == len(cs.Tracks)-1
		if err := parseCueSheetTrack(br, cs, &cs.Tracks[i], isLeadOut, seen); err != nil {
			return nil, err
		}
	}

	return cs, nil
}

func parseCueSheetTrack(br *bits.Reader, cs *CueSheet, track *CueSheetTrack, isLeadOut bool, seen map[uint8]bool) error {
	offset, err := br.ReadUint(64)
	if err != nil {
		return err
	}
	track.Offset = offset
	if cs.IsCompactDisc && offset%588 != 0 {
		return ferr.New(ferr.BadMetadata, br.BitsRead(), "CD-DA track offset %d not a multiple of 588", offset)
	}

	num, err := br.ReadUint(8)
	if err != nil {
		return err
	}
	track.Num = uint8(num)
	if track.Num == 0 {
		return ferr.New(ferr.BadMetadata, br.BitsRead(), "invalid track number 0")
	}
	if seen[track.Num] {
		return ferr.New(ferr.BadMetadata, br.BitsRead(), "duplicate track number %d", track.Num)
	}
	seen[track.Num] = true

	if cs.IsCompactDisc {
		switch {
		case isLeadOut && track.Num != leadOutCDDA:
			return ferr.New(ferr.BadMetadata, br.BitsRead(), "CD-DA lead-out track number must be %d, got %d", leadOutCDDA, track.Num)
		case !isLeadOut && track.Num >= 100:
			return ferr.New(ferr.BadMetadata, br.BitsRead(), "CD-DA track number %d exceeds 99", track.Num)
		}
	} else if isLeadOut && track.Num != leadOutNonCDDA {
		return ferr.New(ferr.BadMetadata, br.BitsRead(), "lead-out track number must be %d, got %d", leadOutNonCDDA, track.Num)
	}

	isrcBuf, err := br.ReadByteBlockAligned(12)
	if err != nil {
		return err
	}
	track.ISRC = stringFromSZ(string(isrcBuf))

	flags, err := br.ReadUint(8)
	if err != nil {
		return err
	}
	track.IsAudio = flags&0x80 == 0
	track.HasPreEmphasis = flags&0x40 != 0
	if flags&0x3F != 0 {
		return ferr.New(ferr.BadMetadata, br.BitsRead(), "non-zero reserved bits in cue sheet track flags")
	}
	if err := verifyZeroBytes(br, 13); err != nil {
		return err
	}

	nidx, err := br.ReadUint(8)
	if err != nil {
		return err
	}
	if nidx < 1 {
		if isLeadOut {
			return nil
		}
		return ferr.New(ferr.BadMetadata, br.BitsRead(), "track %d requires at least one index point", track.Num)
	}

	track.Indicies = make([]CueSheetTrackIndex, nidx)
	for i := range track.Indicies {
		idx := &track.Indicies[i]
		offset, err := br.ReadUint(64)
		if err != nil {
			return err
		}
		idx.Offset = offset

		num, err := br.ReadUint(8)
		if err != nil {
			return err
		}
		idx.Num = uint8(num)

		if err := verifyZeroBytes(br, 3); err != nil {
			return err
		}
	}

	return nil
}

// verifyZeroBytes reads n bytes and returns ferr.BadMetadata if any is
// non-zero; used for the reserved padding regions embedded throughout the
// cue sheet block.
func verifyZeroBytes(br *bits.Reader, n int) error {
	buf, err := br.ReadByteBlockAligned(n)
	if err != nil {
		return err
	}
	for _, b := range buf {
		if b != 0 {
			return ferr.New(ferr.BadMetadata, br.BitsRead(), "non-zero reserved byte in cue sheet")
		}
	}
	return nil
}

// Package meta implements parsing of FLAC metadata blocks.
//
// A FLAC stream opens with a 4-byte "fLaC" marker followed by one or more
// metadata blocks; the first is always STREAMINFO. Each block is a header
// (type, body length in bytes, last-block flag) followed by a type-specific
// body. Six optional block types may follow STREAMINFO: PADDING,
// APPLICATION, SEEKTABLE, VORBIS_COMMENT, CUESHEET, and PICTURE.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block
package meta

import (
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// Type identifies the body layout of a metadata block.
type Type uint8

// Metadata block body types.
const (
	TypeStreamInfo Type = iota
	TypePadding
	TypeApplication
	TypeSeekTable
	TypeVorbisComment
	TypeCueSheet
	TypePicture
)

func (t Type) String() string {
	switch t {
	case TypeStreamInfo:
		return "stream info"
	case TypePadding:
		return "padding"
	case TypeApplication:
		return "application"
	case TypeSeekTable:
		return "seek table"
	case TypeVorbisComment:
		return "vorbis comment"
	case TypeCueSheet:
		return "cue sheet"
	case TypePicture:
		return "picture"
	default:
		return "reserved"
	}
}

// Header precedes every metadata block body and tells a reader how many
// bytes the body occupies and whether more blocks follow.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_header
type Header struct {
	// Type of the block body.
	Type Type
	// Length of the block body in bytes.
	Length uint32
	// IsLast reports whether this is the final metadata block before the
	// first audio frame.
	IsLast bool
}

// Block holds a parsed metadata block header and its type-specific body:
// *StreamInfo, *Application, *SeekTable, *VorbisComment, *CueSheet,
// *Picture, or nil for PADDING and any reserved block type.
type Block struct {
	Header
	Body interface{}
}

// invalidType is the one block type value (127) the format forbids
// outright, as distinct from the merely reserved range 7..126.
const invalidType = 127

// ReadBlock reads and parses one metadata block header and body from br,
// which must sit at the start of a block: immediately after the "fLaC"
// marker, or immediately after a previously read block's body.
func ReadBlock(br *bits.Reader) (*Block, error) {
	hdr, err := parseHeader(br)
	if err != nil {
		return nil, err
	}
	block := &Block{Header: hdr}

	switch hdr.Type {
	case TypeStreamInfo:
		block.Body, err = parseStreamInfo(br)
	case TypePadding:
		err = verifyPadding(br, hdr.Length)
	case TypeApplication:
		block.Body, err = parseApplication(br, hdr.Length)
	case TypeSeekTable:
		block.Body, err = parseSeekTable(br, hdr.Length)
	case TypeVorbisComment:
		block.Body, err = parseVorbisComment(br, hdr.Length)
	case TypeCueSheet:
		block.Body, err = parseCueSheet(br)
	case TypePicture:
		block.Body, err = parsePicture(br)
	default:
		// Reserved block type (7..126): skip its body, nothing to parse.
		err = br.SkipBitsNoCRC(uint64(hdr.Length) * 8)
	}
	if err != nil {
		return nil, err
	}
	return block, nil
}

func parseHeader(br *bits.Reader) (Header, error) {
	var hdr Header

	last, err := br.ReadUint(1)
	if err != nil {
		return hdr, err
	}
	hdr.IsLast = last != 0

	typ, err := br.ReadUint(7)
	if err != nil {
		return hdr, err
	}
	if typ == invalidType {
		return hdr, ferr.New(ferr.BadMetadata, br.BitsRead(), "invalid metadata block type 127")
	}
	hdr.Type = Type(typ)

	length, err := br.ReadUint(24)
	if err != nil {
		return hdr, err
	}
	hdr.Length = uint32(length)

	return hdr, nil
}

// readLE32 reads a 32-bit little-endian integer from a byte-aligned
// position. Only the VORBIS_COMMENT block departs from FLAC's otherwise
// uniform big-endian encoding, inheriting little-endian length prefixes from
// the Ogg Vorbis comment format it embeds verbatim.
func readLE32(br *bits.Reader) (uint32, error) {
	buf, err := br.ReadByteBlockAligned(4)
	if err != nil {
		return 0, err
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, nil
}

// stringFromSZ returns the prefix of s up to (but excluding) its first NUL
// byte, or s unchanged if it contains none. Used for fixed-width
// NUL-padded string fields (CueSheet's MCN and track ISRC).
func stringFromSZ(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return s[:i]
		}
	}
	return s
}

package meta

import (
	"strings"

	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// VorbisComment contains a list of name-value pairs.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_vorbis_comment
type VorbisComment struct {
	// Vendor name.
	Vendor string
	// A list of tags, each represented by a name-value pair.
	Tags [][2]string
}

// parseVorbisComment reads and parses the body of a VORBIS_COMMENT metadata
// block. Unlike every other FLAC metadata body, this one is little-endian
// throughout, since it embeds the Ogg Vorbis comment format verbatim.
//
// length bounds every declared length-prefixed field against the block's own
// size: a malformed or adversarial stream can claim a vendor string or tag
// count far larger than the block could possibly contain, which would
// otherwise drive an allocation sized off attacker-controlled input before a
// single byte of it is read.
func parseVorbisComment(br *bits.Reader, length uint32) (*VorbisComment, error) {
	if length < 8 {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "vorbis comment block too small (%d bytes)", length)
	}
	remaining := int64(length) - 4

	vendorLen, err := readLE32(br)
	if err != nil {
		return nil, err
	}
	if int64(vendorLen) > remaining {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "vorbis comment vendor length %d exceeds block size", vendorLen)
	}
	remaining -= int64(vendorLen)
	vendorBuf, err := br.ReadByteBlockAligned(int(vendorLen))
	if err != nil {
		return nil, err
	}

	vc := &VorbisComment{Vendor: string(vendorBuf)}

	if remaining < 4 {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "vorbis comment block too small for tag count")
	}
	ntags, err := readLE32(br)
	if err != nil {
		return nil, err
	}
	remaining -= 4
	// Every tag needs at least 4 bytes (its own length prefix), so a
	// declared count exceeding the remaining bytes divided by 4 can never be
	// satisfied and is rejected up front rather than attempted.
	if int64(ntags) > remaining/4 {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "vorbis comment declares %d tags, more than the block could hold", ntags)
	}
	if ntags == 0 {
		return vc, nil
	}

	vc.Tags = make([][2]string, ntags)
	for i := range vc.Tags {
		if remaining < 4 {
			return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "vorbis comment block truncated before tag %d", i)
		}
		tagLen, err := readLE32(br)
		if err != nil {
			return nil, err
		}
		remaining -= 4
		if int64(tagLen) > remaining {
			return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "vorbis comment tag %d length %d exceeds block size", i, tagLen)
		}
		remaining -= int64(tagLen)
		tagBuf, err := br.ReadByteBlockAligned(int(tagLen))
		if err != nil {
			return nil, err
		}

		tag := string(tagBuf)
		pos := strings.IndexByte(tag, '=')
		if pos == -1 {
			return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "vorbis comment tag %q missing '='", tag)
		}
		vc.Tags[i][0] = tag[:pos]
		vc.Tags[i][1] = tag[pos+1:]
	}

	return vc, nil
}

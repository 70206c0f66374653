package meta

import (
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// A Picture metadata block stores an image associated with the stream, most
// commonly cover art. A stream may carry more than one.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_picture
type Picture struct {
	// The picture type according to the ID3v2 APIC frame:
	//    0 - Other
	//    1 - 32x32 pixels 'file icon' (PNG only)
	//    2 - Other file icon
	//    3 - Cover (front)
	//    4 - Cover (back)
	//    5 - Leaflet page
	//    6 - Media (e.g. label side of CD)
	//    7 - Lead artist/lead performer/soloist
	//    8 - Artist/performer
	//    9 - Conductor
	//    10 - Band/Orchestra
	//    11 - Composer
	//    12 - Lyricist/text writer
	//    13 - Recording Location
	//    14 - During recording
	//    15 - During performance
	//    16 - Movie/video screen capture
	//    17 - A bright coloured fish
	//    18 - Illustration
	//    19 - Band/artist logotype
	//    20 - Publisher/Studio logotype
	//
	// Others are reserved. Only one picture each of type 1 and 2 may appear.
	Type uint32
	// MIME type string, in printable ASCII 0x20-0x7e. "-->" signifies that
	// Data is a URL of the picture rather than the picture itself.
	MIME string
	// Description of the picture, in UTF-8.
	Desc string
	// Width of the picture in pixels.
	Width uint32
	// Height of the picture in pixels.
	Height uint32
	// Color depth of the picture in bits-per-pixel.
	ColorDepth uint32
	// Number of colors used for indexed-color pictures (e.g. GIF), or 0 for
	// non-indexed pictures.
	ColorCount uint32
	// Binary picture data.
	Data []byte
}

// parsePicture reads and parses the body of a PICTURE metadata block.
func parsePicture(br *bits.Reader) (*Picture, error) {
	pic := new(Picture)

	typ, err := br.ReadUint(32)
	if err != nil {
		return nil, err
	}
	if typ > 20 {
		return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "reserved picture type %d", typ)
	}
	pic.Type = uint32(typ)

	mimeLen, err := br.ReadUint(32)
	if err != nil {
		return nil, err
	}
	mimeBuf, err := br.ReadByteBlockAligned(int(mimeLen))
	if err != nil {
		return nil, err
	}
	pic.MIME = stringFromSZ(string(mimeBuf))
	for i := 0; i < len(pic.MIME); i++ {
		if c := pic.MIME[i]; c < 0x20 || c > 0x7E {
			return nil, ferr.New(ferr.BadMetadata, br.BitsRead(), "invalid character 0x%02X in MIME type", c)
		}
	}

	descLen, err := br.ReadUint(32)
	if err != nil {
		return nil, err
	}
	descBuf, err := br.ReadByteBlockAligned(int(descLen))
	if err != nil {
		return nil, err
	}
	pic.Desc = stringFromSZ(string(descBuf))

	width, err := br.ReadUint(32)
	if err != nil {
		return nil, err
	}
	pic.Width = uint32(width)

	height, err := br.ReadUint(32)
	if err != nil {
		return nil, err
	}
	pic.Height = uint32(height)

	depth, err := br.ReadUint(32)
	if err != nil {
		return nil, err
	}
	pic.ColorDepth = uint32(depth)

	ncolors, err := br.ReadUint(32)
	if err != nil {
		return nil, err
	}
	pic.ColorCount = uint32(ncolors)

	dataLen, err := br.ReadUint(32)
	if err != nil {
		return nil, err
	}
	if dataLen == 0 {
		return pic, nil
	}
	data, err := br.ReadByteBlockAligned(int(dataLen))
	if err != nil {
		return nil, err
	}
	pic.Data = data

	return pic, nil
}

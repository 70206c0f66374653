package meta

import (
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// verifyPadding reads the body of a PADDING metadata block and verifies that
// it contains only zero bytes.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_padding
func verifyPadding(br *bits.Reader, length uint32) error {
	buf, err := br.ReadByteBlockAligned(int(length))
	if err != nil {
		return err
	}
	for _, b := range buf {
		if b != 0 {
			return ferr.New(ferr.BadMetadata, br.BitsRead(), "non-zero byte in padding block")
		}
	}
	return nil
}

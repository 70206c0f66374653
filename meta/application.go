package meta

import "github.com/flacio/flac/internal/bits"

// Application contains third party application specific data.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_application
type Application struct {
	// Registered application ID.
	//
	// ref: https://www.xiph.org/flac/id.html
	ID uint32
	// Application data.
	Data []byte
}

// parseApplication reads and parses the body of an APPLICATION metadata
// block.
func parseApplication(br *bits.Reader, length uint32) (*Application, error) {
	app := new(Application)

	id, err := br.ReadUint(32)
	if err != nil {
		return nil, err
	}
	app.ID = uint32(id)

	if length == 4 {
		return app, nil
	}

	data, err := br.ReadByteBlockAligned(int(length - 4))
	if err != nil {
		return nil, err
	}
	app.Data = data

	return app, nil
}

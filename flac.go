// Package flac provides a streaming FLAC (Free Lossless Audio Codec)
// decoder.
//
// A FLAC stream opens with a 32-bit signature ("fLaC"), followed by one or
// more metadata blocks (the first always STREAMINFO), and then one or more
// audio frames. Decode drives a small state machine over a byte source:
// locate the signature, consume every metadata block, then repeatedly
// locate and decode frames, handing each frame's StreamInfo and PCM bytes to
// a Registry of Processors as they become available.
//
// Please refer to the documentation of the meta and frame packages for a
// brief introduction of their respective formats.
//
//	ref: https://www.xiph.org/flac/format.html#stream
package flac

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/flacio/flac/frame"
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/bufseekio"
	"github.com/flacio/flac/internal/ferr"
	"github.com/flacio/flac/meta"
)

// state names the Stream Driver's position in the decode state machine.
type state int

// Driver states, in the order a well-formed stream passes through them.
const (
	stateSearchForMetadata state = iota
	stateReadMetadata
	stateSearchForFrameSync
	stateReadFrame
	stateEndOfStream
	stateAborted
)

// flacSignature marks the beginning of a FLAC stream.
var flacSignature = []byte("fLaC")

// Stream drives the decode of a single FLAC bitstream: its metadata blocks
// and, on demand, its audio frames. Construct one with Open, New, or NewSeek.
type Stream struct {
	// Info is the stream's StreamInfo metadata block, populated once the
	// mandatory first block has been parsed.
	Info *meta.StreamInfo
	// Blocks holds every metadata block encountered, Info's block included,
	// in stream order.
	Blocks []*meta.Block

	// Registry dispatches StreamInfo/PCM callbacks to registered Processors
	// as the stream is decoded.
	Registry Registry

	// source is the buffered byte source frames and metadata are read
	// through; br wraps it for bit-level access. Resync additionally uses
	// source directly, via Peek, to scan for the next frame sync without
	// disturbing br's CRC accumulators until a candidate is confirmed.
	source *bufio.Reader
	br     *bits.Reader
	state  state
	fmt    formatter

	// seeker is non-nil only for a Stream built by NewSeek: the seekable
	// byte source source buffers from, kept so Seek can reposition it
	// directly and then discard source's now-stale read-ahead buffer.
	seeker     io.ReadSeeker
	audioStart int64
	// pending holds a frame already decoded by Seek's linear scan, to be
	// returned by the next nextFrame call instead of re-decoded.
	pending *frame.Frame

	closer io.Closer
}

// Open opens the named FLAC file and prepares a Stream for it. Since an
// *os.File is seekable, the returned Stream supports Seek. The caller must
// call Close when finished.
func Open(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "flac: open %q", path)
	}
	s, err := NewSeek(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// New creates a Stream for r: it verifies the FLAC signature and reads every
// metadata block up to (and including) the last one, leaving r positioned at
// the first frame.
//
// A Stream built with New cannot Seek; use NewSeek for a source that
// supports it.
func New(r io.Reader) (*Stream, error) {
	s := &Stream{source: bufio.NewReader(r), state: stateSearchForMetadata}
	s.br = bits.NewReader(s.source)
	if err := s.readSignatureAndMetadata(); err != nil {
		s.state = stateAborted
		return nil, err
	}
	return s, nil
}

// NewSeek creates a Stream for the seekable source rs, exactly as New does,
// but additionally buffers rs through internal/bufseekio.ReadSeeker (which
// keeps the read-ahead buffer valid across Seek/Read intermixing) and
// remembers where the audio data begins so the resulting Stream's Seek
// method can later rewind to it.
func NewSeek(rs io.ReadSeeker) (*Stream, error) {
	bs := bufseekio.NewReadSeeker(rs)
	s := &Stream{source: bufio.NewReader(bs), seeker: bs, state: stateSearchForMetadata}
	s.br = bits.NewReader(s.source)
	if err := s.readSignatureAndMetadata(); err != nil {
		s.state = stateAborted
		return nil, err
	}
	s.audioStart = int64(s.br.BitsRead() / 8)
	return s, nil
}

// Close releases any resources opened by Open; a no-op for a Stream
// constructed with New.
func (s *Stream) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Seek repositions the stream at the frame containing sampleNum, for a
// subsequent Decode call to resume from. Only a Stream constructed with
// NewSeek can Seek.
//
// There is no seek table shortcut: Seek rewinds to the start of the audio
// data and decodes frame headers forward until it reaches sampleNum, the
// same linear scan Decode would have done anyway, just starting from the
// beginning rather than wherever the stream currently sits.
func (s *Stream) Seek(sampleNum uint64) error {
	if s.seeker == nil {
		return errors.New("flac: Seek requires a Stream constructed with NewSeek")
	}
	if _, err := s.seeker.Seek(s.audioStart, io.SeekStart); err != nil {
		return errors.Wrap(err, "flac: seek")
	}
	s.source.Reset(s.seeker)
	s.br = bits.NewReader(s.source)
	s.pending = nil
	s.state = stateSearchForFrameSync

	for {
		f, err := s.nextFrame()
		if err != nil {
			return err
		}
		if f.SampleNumber()+uint64(f.BlockSize) > sampleNum {
			s.pending = f
			return nil
		}
	}
}

func (s *Stream) readSignatureAndMetadata() error {
	sig, err := s.br.ReadByteBlockAligned(len(flacSignature))
	if err != nil {
		return err
	}
	if !bytes.Equal(sig, flacSignature) {
		return ferr.New(ferr.BadMagic, s.br.BitsRead(), "invalid FLAC signature %q", sig)
	}

	s.state = stateReadMetadata
	for {
		block, err := meta.ReadBlock(s.br)
		if err != nil {
			return err
		}
		s.Blocks = append(s.Blocks, block)
		if si, ok := block.Body.(*meta.StreamInfo); ok {
			s.Info = si
		}
		if block.IsLast {
			break
		}
	}
	if s.Info == nil {
		return ferr.New(ferr.BadMetadata, s.br.BitsRead(), "stream has no STREAMINFO block")
	}

	s.Registry.fireStreamInfo(s.Info)
	s.state = stateSearchForFrameSync
	return nil
}

// Decode drives the stream to completion: it repeatedly reads and decodes
// frames, packs each into interleaved PCM via the PCM Formatter, and fires
// Registry callbacks, until the byte source is exhausted, a Processor
// requests a stop, or an unrecoverable error occurs.
//
// A recoverable error within a frame (BadHeaderCRC, BadFrameCRC, LostSync)
// does not abort the stream: Decode resynchronizes to the next frame's sync
// code and continues. A graceful end of stream, or a stop requested by a
// Processor, ends the call with a nil error; any other error is returned.
func (s *Stream) Decode() error {
	for {
		f, err := s.nextFrame()
		if err != nil {
			if err == io.EOF {
				s.state = stateEndOfStream
				return nil
			}
			s.state = stateAborted
			return err
		}

		samples := s.fmt.format(f)
		if s.Registry.firePCM(samples) {
			s.state = stateAborted
			return nil
		}
	}
}

// nextFrame reads and decodes one frame, resynchronizing past recoverable
// errors as needed. It returns io.EOF once the byte source is exhausted at a
// frame boundary.
func (s *Stream) nextFrame() (*frame.Frame, error) {
	if f := s.pending; f != nil {
		s.pending = nil
		s.state = stateSearchForFrameSync
		return f, nil
	}
	for {
		s.state = stateReadFrame
		f, err := frame.Parse(s.br)
		if err == nil {
			s.state = stateSearchForFrameSync
			return f, nil
		}
		if isUnexpectedEnd(err) {
			return nil, io.EOF
		}

		fe, ok := err.(*ferr.Error)
		if !ok || !fe.Kind.Recoverable() {
			return nil, err
		}

		s.state = stateSearchForFrameSync
		if err := s.resync(); err != nil {
			return nil, err
		}
	}
}

func isUnexpectedEnd(err error) bool {
	fe, ok := err.(*ferr.Error)
	return ok && fe.Kind == ferr.UnexpectedEnd
}

// resync discards any partially-consumed byte left over from the aborted
// frame, then scans source for the next occurrence of the 14-bit frame sync
// pattern (0x3FFE, seen byte-aligned as 0xFF followed by 0xF8..0xFB). The scan only Peeks, never consumes, so the byte pair it
// leaves behind on a match is still there for br's own fill to pick up.
// br and source must agree on position down to the bit; a sync byte
// consumed directly through source would desync the two. Returns io.EOF if
// the byte source ends before a candidate is found.
func (s *Stream) resync() error {
	if pad := s.br.BitsLeftForByteAlignment(); pad > 0 {
		if _, err := s.br.ReadUint(pad); err != nil {
			if isUnexpectedEnd(err) {
				return io.EOF
			}
			return err
		}
	}

	for {
		win, _ := s.source.Peek(2)
		if len(win) < 2 {
			return io.EOF
		}
		if win[0] == 0xFF && win[1]&0xFC == 0xF8 {
			return nil
		}
		if _, err := s.source.Discard(1); err != nil {
			return io.EOF
		}
	}
}

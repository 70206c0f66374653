// flac2wav is a tool which converts FLAC files to WAV files, driving the
// flac package's Stream Driver through a single Processor that forwards
// each frame's PCM bytes into a go-audio/wav encoder.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/flacio/flac"
	"github.com/flacio/flac/meta"
)

// flagForce specifies if file overwriting should be forced, when a WAV file
// of the same name already exists.
var flagForce bool

func init() {
	flag.BoolVar(&flagForce, "f", false, "force overwrite")
}

func main() {
	flag.Parse()
	for _, path := range flag.Args() {
		if err := flac2wav(path); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

// trimExt returns path with its final extension removed.
func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// flac2wav converts the FLAC file at path to a WAV file of the same name.
func flac2wav(path string) error {
	stream, err := flac.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open FLAC file %q", path)
	}
	defer stream.Close()

	wavPath := trimExt(path) + ".wav"
	if !flagForce {
		if _, err := os.Stat(wavPath); err == nil {
			return errors.Errorf("the file %q exists already", wavPath)
		} else if !os.IsNotExist(err) {
			return errors.WithStack(err)
		}
	}
	fw, err := os.Create(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer fw.Close()

	const pcmAudioFormat = 1
	enc := wav.NewEncoder(fw, int(stream.Info.SampleRate), int(stream.Info.BitsPerSample), int(stream.Info.NChannels), pcmAudioFormat)
	defer enc.Close()

	p := &wavProcessor{
		enc:           enc,
		bitsPerSample: int(stream.Info.BitsPerSample),
		nchannels:     int(stream.Info.NChannels),
		sampleRate:    int(stream.Info.SampleRate),
	}
	stream.Registry.Add(p)

	if err := stream.Decode(); err != nil {
		return errors.Wrapf(err, "decode %q", path)
	}
	if p.err != nil {
		return errors.Wrapf(p.err, "encode %q", wavPath)
	}
	fmt.Printf("%s -> %s\n", path, wavPath)
	return nil
}

// wavProcessor forwards decoded PCM bytes to a go-audio/wav encoder, one
// frame at a time, stopping the decode early if a write ever fails.
type wavProcessor struct {
	enc           *wav.Encoder
	bitsPerSample int
	nchannels     int
	sampleRate    int
	err           error
}

func (p *wavProcessor) OnStreamInfo(info *meta.StreamInfo) {}

func (p *wavProcessor) OnPCM(samples []byte) (stop bool) {
	buf := flac.IntBuffer(samples, p.nchannels, p.bitsPerSample, p.sampleRate)
	if err := p.enc.Write(buf); err != nil {
		p.err = err
		return true
	}
	return false
}

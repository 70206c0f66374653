package frame

import (
	"github.com/flacio/flac/internal/bits"
	"github.com/flacio/flac/internal/ferr"
)

// decodeResidual reads the residual coding method and populates dst (which
// must already contain order warmup samples) with blockSize-order decoded
// residual values, appended starting at index order.
//
// ref: https://www.xiph.org/flac/format.html#residual
func decodeResidual(br *bits.Reader, dst []int32, blockSize, order int) ([]int32, error) {
	method, err := br.ReadUint(2)
	if err != nil {
		return dst, err
	}
	switch method {
	case 0x0:
		return decodeRicePartitions(br, dst, blockSize, order, 4)
	case 0x1:
		return decodeRicePartitions(br, dst, blockSize, order, 5)
	default:
		return dst, ferr.New(ferr.Unparseable, br.BitsRead(), "reserved residual coding method %02b", method)
	}
}

// decodeRicePartitions decodes a partitioned Rice residual, where each
// partition's Rice parameter is paramSize bits wide (4 for method 0, 5 for
// method 1).
//
// ref: https://www.xiph.org/flac/format.html#partitioned_rice
func decodeRicePartitions(br *bits.Reader, dst []int32, blockSize, order int, paramSize uint) ([]int32, error) {
	partOrderBits, err := br.ReadUint(4)
	if err != nil {
		return dst, err
	}
	partOrder := uint(partOrderBits)
	nparts := 1 << partOrder

	if blockSize%nparts != 0 {
		return dst, ferr.New(ferr.Unparseable, br.BitsRead(), "block size %d not divisible by %d partitions", blockSize, nparts)
	}

	escape := uint64(1)<<paramSize - 1

	for i := 0; i < nparts; i++ {
		param, err := br.ReadUint(paramSize)
		if err != nil {
			return dst, err
		}

		var nsamples int
		switch {
		case partOrder == 0:
			nsamples = blockSize - order
		case i != 0:
			nsamples = blockSize / nparts
		default:
			nsamples = blockSize/nparts - order
		}

		if param == escape {
			width, err := br.ReadUint(5)
			if err != nil {
				return dst, err
			}
			for j := 0; j < nsamples; j++ {
				v, err := br.ReadInt(uint(width))
				if err != nil {
					return dst, err
				}
				dst = append(dst, int32(v))
			}
			continue
		}

		dst, err = br.ReadRiceSignedBlock(dst, nsamples, uint(param))
		if err != nil {
			return dst, err
		}
	}

	return dst, nil
}

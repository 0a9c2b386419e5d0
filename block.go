package sqpack

import (
	"encoding/binary"
	"fmt"
	"io"
)

// rawSentinel marks a block body as stored verbatim rather than deflated.
const rawSentinel = 32000

// blockHeader is the 16-byte header that precedes every block body.
type blockHeader struct {
	size             uint32
	_                uint32
	compressedSize   uint32
	uncompressedSize uint32
}

func readBlockHeader(r io.ReaderAt, off int64) (blockHeader, error) {
	var buf [16]byte
	if _, err := r.ReadAt(buf[:], off); err != nil {
		return blockHeader{}, fmt.Errorf("%w: block header: %v", ErrInvalidDat, err)
	}
	return blockHeader{
		size:             binary.LittleEndian.Uint32(buf[0:4]),
		compressedSize:   binary.LittleEndian.Uint32(buf[8:12]),
		uncompressedSize: binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

// decompressBlock reads one on-disk block starting at off (its own 16-byte
// header followed by the body) and writes its decompressed bytes into dst,
// which must have length >= uncompressedSize. It returns the number of
// bytes written.
func decompressBlock(r io.ReaderAt, off int64, dst []byte) (int, error) {
	hdr, err := readBlockHeader(r, off)
	if err != nil {
		return 0, err
	}
	bodyOff := off + 16

	if hdr.compressedSize == rawSentinel {
		n := int(hdr.uncompressedSize)
		if n > len(dst) {
			return 0, fmt.Errorf("%w: raw block exceeds destination", ErrInvalidDat)
		}
		if _, err := r.ReadAt(dst[:n], bodyOff); err != nil {
			return 0, fmt.Errorf("%w: raw block read: %v", ErrInvalidDat, err)
		}
		return n, nil
	}

	body := io.NewSectionReader(r, bodyOff, int64(hdr.compressedSize))
	fr, err := getFlateReader(body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
	}
	defer putFlateReader(fr)

	n := int(hdr.uncompressedSize)
	if n > len(dst) {
		return 0, fmt.Errorf("%w: decompressed block exceeds destination", ErrInvalidDat)
	}
	if _, err := io.ReadFull(fr, dst[:n]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
	}
	return n, nil
}

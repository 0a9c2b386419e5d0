package sqpack

import (
	"encoding/binary"
	"fmt"
	"io"
)

const datHeaderFixedSize = 24 // header_size, kind, raw_uncompressed_size, unknown, unknown2, block_count

// datHeader is the fixed preamble at every dat block_offset.
type datHeader struct {
	headerSize          uint32
	kind                FileKind
	rawUncompressedSize uint32
	unknown             uint32
	unknown2            uint32
	blockCount          uint32
}

func readDatHeader(r io.ReaderAt, base int64) (datHeader, error) {
	var buf [datHeaderFixedSize]byte
	if _, err := r.ReadAt(buf[:], base); err != nil {
		return datHeader{}, fmt.Errorf("%w: header: %v", ErrInvalidDat, err)
	}
	h := datHeader{
		headerSize:          binary.LittleEndian.Uint32(buf[0:4]),
		kind:                FileKind(binary.LittleEndian.Uint32(buf[4:8])),
		rawUncompressedSize: binary.LittleEndian.Uint32(buf[8:12]),
		unknown:             binary.LittleEndian.Uint32(buf[12:16]),
		unknown2:            binary.LittleEndian.Uint32(buf[16:20]),
		blockCount:          binary.LittleEndian.Uint32(buf[20:24]),
	}
	if h.kind == FileKindEmpty {
		return h, fmt.Errorf("%w: empty file kind", ErrInvalidDat)
	}
	return h, nil
}

// readFile reconstructs the decompressed payload for the file whose dat
// header starts at base, dispatching on the header's declared kind.
func readFile(r io.ReaderAt, base int64) ([]byte, error) {
	hdr, err := readDatHeader(r, base)
	if err != nil {
		return nil, err
	}

	var out []byte
	switch hdr.kind {
	case FileKindStandard:
		out, err = reconstructStandard(r, base, hdr)
	case FileKindModel:
		out, err = reconstructModel(r, base, hdr)
	case FileKindTexture:
		out, err = reconstructTexture(r, base, hdr)
	default:
		return nil, fmt.Errorf("%w: unsupported file kind %d", ErrInvalidDat, hdr.kind)
	}
	if err != nil {
		return nil, err
	}
	if uint32(len(out)) != hdr.rawUncompressedSize {
		return nil, fmt.Errorf("%w: reconstructed %d bytes, want %d", ErrInvalidDat, len(out), hdr.rawUncompressedSize)
	}
	return out, nil
}

// standardBlockDescriptor is one 8-byte entry in a standard file's block
// table: byte offset of the block (relative to header_size), and its
// compressed/uncompressed sizes. The sizes are parsed but not used; each
// read is sized from the block's own header.
type standardBlockDescriptor struct {
	offset           uint32
	compressedSize   uint16
	uncompressedSize uint16
}

func reconstructStandard(r io.ReaderAt, base int64, hdr datHeader) ([]byte, error) {
	tableOff := base + datHeaderFixedSize
	descs := make([]standardBlockDescriptor, hdr.blockCount)
	raw := make([]byte, hdr.blockCount*8)
	if _, err := r.ReadAt(raw, tableOff); err != nil {
		return nil, fmt.Errorf("%w: block table: %v", ErrInvalidDat, err)
	}
	for i := range descs {
		b := raw[i*8:]
		descs[i] = standardBlockDescriptor{
			offset:           binary.LittleEndian.Uint32(b[0:4]),
			compressedSize:   binary.LittleEndian.Uint16(b[4:6]),
			uncompressedSize: binary.LittleEndian.Uint16(b[6:8]),
		}
	}

	out := make([]byte, hdr.rawUncompressedSize)
	cursor := 0
	for _, d := range descs {
		blockOff := base + int64(hdr.headerSize) + int64(d.offset)
		n, err := decompressBlock(r, blockOff, out[cursor:])
		if err != nil {
			return nil, err
		}
		cursor += n
	}
	return out[:cursor], nil
}

// modelSectionCount is the number of (blockOffset, blockCount) entries in a
// model file's section table. The sections are concatenated in table order;
// this reader does not distinguish what each section holds.
const modelSectionCount = 11

// modelLeaderSize is the size of the synthetic leader this reader emits
// ahead of the reconstructed section data, carrying the header's numeric
// fields verbatim for downstream model decoders that expect them inline.
const modelLeaderSize = 0x44

type modelSectionRange struct {
	blockOffset uint32 // relative to header end
	blockCount  uint32
}

func reconstructModel(r io.ReaderAt, base int64, hdr datHeader) ([]byte, error) {
	tableOff := base + datHeaderFixedSize
	raw := make([]byte, modelSectionCount*8)
	if _, err := r.ReadAt(raw, tableOff); err != nil {
		return nil, fmt.Errorf("%w: model section table: %v", ErrInvalidDat, err)
	}
	sections := make([]modelSectionRange, modelSectionCount)
	for i := range sections {
		b := raw[i*8:]
		sections[i] = modelSectionRange{
			blockOffset: binary.LittleEndian.Uint32(b[0:4]),
			blockCount:  binary.LittleEndian.Uint32(b[4:8]),
		}
	}

	leader := make([]byte, modelLeaderSize)
	binary.LittleEndian.PutUint32(leader[0:4], hdr.headerSize)
	binary.LittleEndian.PutUint32(leader[4:8], uint32(hdr.kind))
	binary.LittleEndian.PutUint32(leader[8:12], hdr.rawUncompressedSize)
	binary.LittleEndian.PutUint32(leader[12:16], hdr.unknown)
	binary.LittleEndian.PutUint32(leader[16:20], hdr.unknown2)
	binary.LittleEndian.PutUint32(leader[20:24], hdr.blockCount)
	for i, s := range sections {
		off := 24 + i*4
		if off+4 > len(leader) {
			break
		}
		binary.LittleEndian.PutUint32(leader[off:off+4], s.blockCount)
	}

	headerEnd := base + int64(hdr.headerSize)
	out := make([]byte, 0, hdr.rawUncompressedSize)
	out = append(out, leader...)

	scratch := make([]byte, 64*1024)
	for _, s := range sections {
		blockOff := headerEnd + int64(s.blockOffset)
		for i := uint32(0); i < s.blockCount; i++ {
			n, err := decompressBlock(r, blockOff, scratch)
			if err != nil {
				return nil, err
			}
			out = append(out, scratch[:n]...)
			blockHdr, err := readBlockHeader(r, blockOff)
			if err != nil {
				return nil, err
			}
			blockOff += 16 + alignUp16(blockHdr.compressedSizeOnDisk())
		}
	}
	return out, nil
}

func (h blockHeader) compressedSizeOnDisk() int64 {
	if h.compressedSize == rawSentinel {
		return int64(h.uncompressedSize)
	}
	return int64(h.compressedSize)
}

func alignUp16(n int64) int64 {
	return (n + 15) &^ 15
}

type mipmapEntry struct {
	blockOffset uint32 // relative to header end
	blockCount  uint32
}

// textureHeaderRegionSize is the size of the fixed texture-format header
// that is copied verbatim ahead of the reconstructed mipmap data.
const textureHeaderRegionSize = 0x50

func reconstructTexture(r io.ReaderAt, base int64, hdr datHeader) ([]byte, error) {
	tableOff := base + datHeaderFixedSize
	raw := make([]byte, hdr.blockCount*8)
	if _, err := r.ReadAt(raw, tableOff); err != nil {
		return nil, fmt.Errorf("%w: mipmap table: %v", ErrInvalidDat, err)
	}
	mips := make([]mipmapEntry, hdr.blockCount)
	for i := range mips {
		b := raw[i*8:]
		mips[i] = mipmapEntry{
			blockOffset: binary.LittleEndian.Uint32(b[0:4]),
			blockCount:  binary.LittleEndian.Uint32(b[4:8]),
		}
	}

	headerEnd := base + int64(hdr.headerSize)
	texHeader := make([]byte, textureHeaderRegionSize)
	if _, err := r.ReadAt(texHeader, headerEnd); err != nil {
		return nil, fmt.Errorf("%w: texture header region: %v", ErrInvalidDat, err)
	}

	out := make([]byte, 0, hdr.rawUncompressedSize)
	out = append(out, texHeader...)

	scratch := make([]byte, 64*1024)
	for _, m := range mips {
		blockOff := headerEnd + int64(m.blockOffset)
		for i := uint32(0); i < m.blockCount; i++ {
			n, err := decompressBlock(r, blockOff, scratch)
			if err != nil {
				return nil, err
			}
			out = append(out, scratch[:n]...)
			blockHdr, err := readBlockHeader(r, blockOff)
			if err != nil {
				return nil, err
			}
			blockOff += 16 + alignUp16(blockHdr.compressedSizeOnDisk())
		}
	}
	return out, nil
}

package sqpack

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
)

// deflateBytes raw-DEFLATE-compresses contents, matching the codec every
// non-stored block body uses on disk.
func deflateBytes(contents []byte) []byte {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(contents); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// buildIndexHeader hand-assembles the >=1024 byte .index/.index2 header with
// data_offset and data_size set at their fixed positions, mirroring how a
// real shard's header is laid out for this reader.
func buildIndexHeader(dataOffset, dataSize uint32) []byte {
	h := make([]byte, indexHeaderMinSize)
	binary.LittleEndian.PutUint32(h[0x08:0x0C], dataOffset)
	binary.LittleEndian.PutUint32(h[0x0C:0x10], dataSize)
	return h
}

type twoHashRec struct {
	fileHash, folderHash uint32
	datIndex             uint32
	blockOffsetScaled    uint32 // already block_offset/128
}

func encodeLocator(datIndex, blockOffsetScaled uint32) uint32 {
	return (datIndex&0x7)<<1 | (blockOffsetScaled << 4)
}

// buildTwoHashIndexFile assembles a complete .index file's bytes from a list
// of (file_hash, folder_hash, dat_index, block_offset) records.
func buildTwoHashIndexFile(recs []twoHashRec) []byte {
	dataSize := uint32(len(recs) * indexEntrySize)
	out := buildIndexHeader(indexHeaderMinSize, dataSize)
	for _, r := range recs {
		var rec [indexEntrySize]byte
		binary.LittleEndian.PutUint32(rec[0:4], r.fileHash)
		binary.LittleEndian.PutUint32(rec[4:8], r.folderHash)
		binary.LittleEndian.PutUint32(rec[8:12], encodeLocator(r.datIndex, r.blockOffsetScaled))
		out = append(out, rec[:]...)
	}
	return out
}

type singleHashRec struct {
	fullHash          uint32
	datIndex          uint32
	blockOffsetScaled uint32
}

// buildSingleHashIndexFile assembles a complete .index2 file's bytes.
func buildSingleHashIndexFile(recs []singleHashRec) []byte {
	dataSize := uint32(len(recs) * index2EntrySize)
	out := buildIndexHeader(indexHeaderMinSize, dataSize)
	for _, r := range recs {
		var rec [index2EntrySize]byte
		binary.LittleEndian.PutUint32(rec[0:4], r.fullHash)
		binary.LittleEndian.PutUint32(rec[4:8], encodeLocator(r.datIndex, r.blockOffsetScaled))
		out = append(out, rec[:]...)
	}
	return out
}

// buildStandardDatFile assembles a complete standard-kind dat payload
// starting at byte 0: header, one block table entry, and one raw (stored)
// block carrying contents verbatim.
func buildStandardDatFile(contents []byte) []byte {
	const headerSize = datHeaderFixedSize + 8 // fixed header + one 8-byte block descriptor, padded to 16
	paddedHeaderSize := uint32(32)

	hdr := make([]byte, datHeaderFixedSize)
	binary.LittleEndian.PutUint32(hdr[0:4], paddedHeaderSize)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(FileKindStandard))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(contents)))
	binary.LittleEndian.PutUint32(hdr[20:24], 1) // block_count

	desc := make([]byte, 8)
	binary.LittleEndian.PutUint32(desc[0:4], 0) // offset relative to header_size
	binary.LittleEndian.PutUint16(desc[4:6], uint16(len(contents)))
	binary.LittleEndian.PutUint16(desc[6:8], uint16(len(contents)))

	pad := make([]byte, int(paddedHeaderSize)-datHeaderFixedSize-8)

	blockHdr := make([]byte, 16)
	binary.LittleEndian.PutUint32(blockHdr[0:4], 16)
	binary.LittleEndian.PutUint32(blockHdr[8:12], rawSentinel)
	binary.LittleEndian.PutUint32(blockHdr[12:16], uint32(len(contents)))

	out := append([]byte{}, hdr...)
	out = append(out, desc...)
	out = append(out, pad...)
	out = append(out, blockHdr...)
	out = append(out, contents...)
	return out
}

// buildStandardDatFileDeflate mirrors buildStandardDatFile but stores its
// one block DEFLATE-compressed rather than raw, exercising decompressBlock's
// non-sentinel branch end to end.
func buildStandardDatFileDeflate(contents []byte) []byte {
	compressed := deflateBytes(contents)

	const headerSize = datHeaderFixedSize + 8
	paddedHeaderSize := uint32(32)

	hdr := make([]byte, datHeaderFixedSize)
	binary.LittleEndian.PutUint32(hdr[0:4], paddedHeaderSize)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(FileKindStandard))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(contents)))
	binary.LittleEndian.PutUint32(hdr[20:24], 1)

	desc := make([]byte, 8)
	binary.LittleEndian.PutUint32(desc[0:4], 0)
	binary.LittleEndian.PutUint16(desc[4:6], uint16(len(compressed)))
	binary.LittleEndian.PutUint16(desc[6:8], uint16(len(contents)))

	pad := make([]byte, int(paddedHeaderSize)-datHeaderFixedSize-8)

	blockHdr := make([]byte, 16)
	binary.LittleEndian.PutUint32(blockHdr[0:4], 16)
	binary.LittleEndian.PutUint32(blockHdr[8:12], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(blockHdr[12:16], uint32(len(contents)))

	out := append([]byte{}, hdr...)
	out = append(out, desc...)
	out = append(out, pad...)
	out = append(out, blockHdr...)
	out = append(out, compressed...)
	return out
}

// buildModelDatFile assembles a minimal model-kind dat payload: the fixed
// 11-entry section table with all block counts zero except the first, and
// one raw (stored) block backing that first section.
func buildModelDatFile(contents []byte) []byte {
	const tableSize = modelSectionCount * 8
	headerSize := uint32(datHeaderFixedSize + tableSize)

	hdr := make([]byte, datHeaderFixedSize)
	binary.LittleEndian.PutUint32(hdr[0:4], headerSize)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(FileKindModel))
	binary.LittleEndian.PutUint32(hdr[8:12], modelLeaderSize+uint32(len(contents)))
	binary.LittleEndian.PutUint32(hdr[20:24], 7) // blockCount, echoed into the leader only

	table := make([]byte, tableSize)
	binary.LittleEndian.PutUint32(table[0:4], 0) // section 0 blockOffset
	binary.LittleEndian.PutUint32(table[4:8], 1) // section 0 blockCount
	// sections 1..10 stay zeroed: blockOffset 0, blockCount 0.

	blockHdr := make([]byte, 16)
	binary.LittleEndian.PutUint32(blockHdr[0:4], 16)
	binary.LittleEndian.PutUint32(blockHdr[8:12], rawSentinel)
	binary.LittleEndian.PutUint32(blockHdr[12:16], uint32(len(contents)))

	out := append([]byte{}, hdr...)
	out = append(out, table...)
	out = append(out, blockHdr...)
	out = append(out, contents...)
	return out
}

// buildTextureDatFile assembles a minimal texture-kind dat payload: a fixed
// 0x50-byte header region copied verbatim, a one-entry mipmap table, and one
// raw (stored) block backing that entry.
func buildTextureDatFile(headerRegion [textureHeaderRegionSize]byte, contents []byte) []byte {
	const tableSize = 8 // one mipmap entry
	headerSize := uint32(datHeaderFixedSize + tableSize)

	hdr := make([]byte, datHeaderFixedSize)
	binary.LittleEndian.PutUint32(hdr[0:4], headerSize)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(FileKindTexture))
	binary.LittleEndian.PutUint32(hdr[8:12], textureHeaderRegionSize+uint32(len(contents)))
	binary.LittleEndian.PutUint32(hdr[20:24], 1) // blockCount == mip entry count

	table := make([]byte, tableSize)
	binary.LittleEndian.PutUint32(table[0:4], textureHeaderRegionSize) // blockOffset, right after the header region
	binary.LittleEndian.PutUint32(table[4:8], 1)                       // blockCount

	blockHdr := make([]byte, 16)
	binary.LittleEndian.PutUint32(blockHdr[0:4], 16)
	binary.LittleEndian.PutUint32(blockHdr[8:12], rawSentinel)
	binary.LittleEndian.PutUint32(blockHdr[12:16], uint32(len(contents)))

	out := append([]byte{}, hdr...)
	out = append(out, table...)
	out = append(out, headerRegion[:]...)
	out = append(out, blockHdr...)
	out = append(out, contents...)
	return out
}

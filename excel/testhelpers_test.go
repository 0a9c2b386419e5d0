package excel

import (
	"encoding/binary"
	"errors"
)

var errNotFoundForTest = errors.New("fakeSource: file not found")

// buildHeaderFile hand-assembles a big-endian .exh payload from the given
// pages and languages, mirroring how a real schema file is laid out.
func buildHeaderFile(rowSize uint16, variant SheetVariant, pages []PageDefinition, languages []Language) []byte {
	var rowCount uint32
	for _, p := range pages {
		rowCount += p.RowCount
	}

	out := make([]byte, headerFixedSize)
	copy(out[0:4], headerMagic)
	binary.BigEndian.PutUint16(out[4:6], 3)
	binary.BigEndian.PutUint16(out[6:8], rowSize)
	binary.BigEndian.PutUint16(out[8:10], 0) // column count: unused by these tests
	binary.BigEndian.PutUint16(out[10:12], uint16(len(pages)))
	binary.BigEndian.PutUint16(out[12:14], uint16(len(languages)))
	binary.BigEndian.PutUint16(out[16:18], uint16(variant))
	binary.BigEndian.PutUint32(out[20:24], rowCount)

	for _, p := range pages {
		var b [8]byte
		binary.BigEndian.PutUint32(b[0:4], p.StartID)
		binary.BigEndian.PutUint32(b[4:8], p.RowCount)
		out = append(out, b[:]...)
	}
	for _, l := range languages {
		var b [2]byte
		binary.BigEndian.PutUint16(b[0:2], uint16(l))
		out = append(out, b[:]...)
	}
	return out
}

// buildPageFile hand-assembles a big-endian .exd payload with one row per
// entry in rowIDs, each carrying the same rowBytes payload.
func buildPageFile(rowIDs []uint32, rowBytes []byte) []byte {
	indexSize := uint32(len(rowIDs) * pageIndexEntrySize)

	// First pass: compute offsets sequentially.
	offsets := make([]uint32, len(rowIDs))
	cursor := uint32(pageHeaderFixedSize) + indexSize
	for i := range rowIDs {
		offsets[i] = cursor
		cursor += uint32(rowPreambleSize) + uint32(len(rowBytes))
	}
	dataSize := cursor - (uint32(pageHeaderFixedSize) + indexSize)

	out := make([]byte, pageHeaderFixedSize)
	copy(out[0:4], pageMagic)
	binary.BigEndian.PutUint16(out[4:6], 2)
	binary.BigEndian.PutUint32(out[8:12], indexSize)
	binary.BigEndian.PutUint32(out[12:16], dataSize)

	for i, id := range rowIDs {
		var b [pageIndexEntrySize]byte
		binary.BigEndian.PutUint32(b[0:4], id)
		binary.BigEndian.PutUint32(b[4:8], offsets[i])
		out = append(out, b[:]...)
	}

	for range rowIDs {
		var preamble [rowPreambleSize]byte
		binary.BigEndian.PutUint32(preamble[0:4], uint32(len(rowBytes)))
		binary.BigEndian.PutUint16(preamble[4:6], 1)
		out = append(out, preamble[:]...)
		out = append(out, rowBytes...)
	}

	return out
}

// fakeSource is an in-memory FileSource backed by a plain map, used to drive
// Sheet/Module without touching a real Pack.
type fakeSource struct {
	files map[string][]byte
}

func (f *fakeSource) GetFileContents(path string) ([]byte, error) {
	if data, ok := f.files[path]; ok {
		return data, nil
	}
	return nil, errNotFoundForTest
}

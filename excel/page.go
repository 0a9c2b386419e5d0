package excel

import (
	"encoding/binary"
	"fmt"
)

const (
	pageMagic          = "EXDF"
	pageHeaderFixedSize = 32
	pageIndexEntrySize  = 8
	rowPreambleSize     = 6
)

// pageIndexEntry is one (row_id, offset) record from an .exd file's offset
// table, sorted ascending on RowID (invariant I3).
type pageIndexEntry struct {
	RowID  uint32
	Offset uint32
}

// Page holds one loaded .exd file: the row-offset table and the raw bytes
// the offsets address into.
//
// rowToIndex is built only for rows whose id deviates from startID+i ("holes"
// in the id sequence); rows that follow the expected sequence are found via
// the direct index arithmetic in find without consulting the map.
type Page struct {
	startID    uint32
	indexes    []pageIndexEntry
	raw        []byte
	dataStart  int64
	rowToIndex map[uint32]int
}

// ParsePage decodes a big-endian .exd payload. startID is the page
// definition's StartID from the owning sheet's header, used to determine
// which rows are "holes" requiring the auxiliary index.
func ParsePage(data []byte, startID uint32) (*Page, error) {
	if len(data) < pageHeaderFixedSize {
		return nil, fmt.Errorf("%w: page header truncated", ErrCorruptExcel)
	}
	if string(data[0:4]) != pageMagic {
		return nil, fmt.Errorf("%w: bad page magic", ErrCorruptExcel)
	}

	indexSize := binary.BigEndian.Uint32(data[8:12])
	dataSize := binary.BigEndian.Uint32(data[12:16])

	count := int(indexSize / pageIndexEntrySize)
	tableOff := pageHeaderFixedSize
	dataStart := int64(tableOff) + int64(indexSize)

	if len(data) < tableOff+int(indexSize)+int(dataSize) {
		return nil, fmt.Errorf("%w: page data truncated", ErrCorruptExcel)
	}

	indexes := make([]pageIndexEntry, count)
	for i := 0; i < count; i++ {
		b := data[tableOff+i*pageIndexEntrySize:]
		indexes[i] = pageIndexEntry{
			RowID:  binary.BigEndian.Uint32(b[0:4]),
			Offset: binary.BigEndian.Uint32(b[4:8]),
		}
	}

	rowToIndex := make(map[uint32]int)
	for i, e := range indexes {
		if e.RowID != startID+uint32(i) {
			rowToIndex[e.RowID] = i
		}
	}

	return &Page{
		startID:    startID,
		indexes:    indexes,
		raw:        data,
		dataStart:  dataStart,
		rowToIndex: rowToIndex,
	}, nil
}

// find resolves rowID to its index-table position using the direct-index
// fast path first, falling back to the hole map.
func (p *Page) find(rowID uint32) (int, bool) {
	if rowID >= p.startID {
		i := int(rowID - p.startID)
		if i < len(p.indexes) && p.indexes[i].RowID == rowID {
			return i, true
		}
	}
	i, ok := p.rowToIndex[rowID]
	return i, ok
}

// rowAt returns the sub-row count and raw row bytes for the index-table
// entry at position i.
func (p *Page) rowAt(i int) (subRowCount uint16, rowBytes []byte, err error) {
	if i < 0 || i >= len(p.indexes) {
		return 0, nil, ErrInvalidPageIndex
	}
	e := p.indexes[i]
	pos := int64(e.Offset)
	if pos < 0 || pos+rowPreambleSize > int64(len(p.raw)) {
		return 0, nil, fmt.Errorf("%w: row preamble out of bounds", ErrCorruptExcel)
	}
	dataSize := binary.BigEndian.Uint32(p.raw[pos : pos+4])
	rowCount := binary.BigEndian.Uint16(p.raw[pos+4 : pos+6])

	start := pos + rowPreambleSize
	end := start + int64(dataSize)
	if end > int64(len(p.raw)) {
		return 0, nil, fmt.Errorf("%w: row bytes out of bounds", ErrCorruptExcel)
	}
	return rowCount, p.raw[start:end], nil
}

// rowCount returns the number of entries in the page's index table.
func (p *Page) rowCount() int { return len(p.indexes) }

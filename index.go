package sqpack

import (
	"encoding/binary"
	"fmt"
	"slices"

	"golang.org/x/exp/mmap"
)

// dataLocator is the packed on-disk locator: bit 0 is a synonym flag, bits
// 1..3 hold the dat index, and bits 4..31 hold block_offset >> 7 (the
// 128-byte on-disk scale factor).
type dataLocator uint32

func (d dataLocator) datIndex() int {
	return int((d >> 1) & 0x7)
}

func (d dataLocator) blockOffset() int64 {
	return int64(d>>4) * 128
}

// indexEntry is the resolved (dat_index, block_offset) pair for one hash key.
type indexEntry struct {
	datIndex    int
	blockOffset int64
}

const (
	indexHeaderMinSize = 1024
	indexEntrySize     = 16 // u32 file_hash, u32 folder_hash, u32 locator, u32 pad
	index2EntrySize    = 8  // u32 full_hash, u32 locator
)

// twoHashIndex is a parsed .index shard: entries keyed by the combined
// (folder_hash<<32|file_hash) key, sorted ascending so lookups are a binary
// search exactly like a git pack index's sorted OID table.
type twoHashIndex struct {
	r       *mmap.ReaderAt
	keys    []uint64
	entries []indexEntry
}

// singleHashIndex is a parsed .index2 shard: entries keyed by the single
// full-path hash.
type singleHashIndex struct {
	r       *mmap.ReaderAt
	keys    []uint32
	entries []indexEntry
}

func (idx *twoHashIndex) find(folderHash, fileHash uint32) (indexEntry, bool) {
	key := combineHash(folderHash, fileHash)
	i, ok := slices.BinarySearch(idx.keys, key)
	if !ok {
		return indexEntry{}, false
	}
	return idx.entries[i], true
}

func (idx *singleHashIndex) find(fullHash uint32) (indexEntry, bool) {
	i, ok := slices.BinarySearch(idx.keys, fullHash)
	if !ok {
		return indexEntry{}, false
	}
	return idx.entries[i], true
}

func (idx *twoHashIndex) Close() error {
	if idx.r == nil {
		return nil
	}
	return idx.r.Close()
}

func (idx *singleHashIndex) Close() error {
	if idx.r == nil {
		return nil
	}
	return idx.r.Close()
}

// indexHeader carries the fields this reader needs from the ≥1024 byte
// header: the byte offset and length of the fixed-width entry table.
type indexHeader struct {
	dataOffset int64
	dataSize   int64
}

func readIndexHeader(r *mmap.ReaderAt) (indexHeader, error) {
	if r.Len() < indexHeaderMinSize {
		return indexHeader{}, fmt.Errorf("%w: header truncated", ErrInvalidIndex)
	}
	buf := make([]byte, 8)
	// data_offset lives at 0x08, data_size at 0x0C in the fixed header.
	if _, err := r.ReadAt(buf, 0x08); err != nil {
		return indexHeader{}, fmt.Errorf("%w: %v", ErrInvalidIndex, err)
	}
	return indexHeader{
		dataOffset: int64(binary.LittleEndian.Uint32(buf[0:4])),
		dataSize:   int64(binary.LittleEndian.Uint32(buf[4:8])),
	}, nil
}

// parseTwoHashIndex reads a .index shard.
func parseTwoHashIndex(r *mmap.ReaderAt) (*twoHashIndex, error) {
	hdr, err := readIndexHeader(r)
	if err != nil {
		return nil, err
	}
	count := int(hdr.dataSize / indexEntrySize)
	if count < 0 || hdr.dataOffset < 0 || hdr.dataOffset+hdr.dataSize > int64(r.Len()) {
		return nil, fmt.Errorf("%w: data table out of bounds", ErrInvalidIndex)
	}

	raw := make([]byte, hdr.dataSize)
	if _, err := r.ReadAt(raw, hdr.dataOffset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIndex, err)
	}

	type rec struct {
		key   uint64
		entry indexEntry
	}
	recs := make([]rec, count)
	for i := 0; i < count; i++ {
		b := raw[i*indexEntrySize:]
		fileHash := binary.LittleEndian.Uint32(b[0:4])
		folderHash := binary.LittleEndian.Uint32(b[4:8])
		locator := dataLocator(binary.LittleEndian.Uint32(b[8:12]))
		recs[i] = rec{
			key: combineHash(folderHash, fileHash),
			entry: indexEntry{
				datIndex:    locator.datIndex(),
				blockOffset: locator.blockOffset(),
			},
		}
	}
	slices.SortFunc(recs, func(a, b rec) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		default:
			return 0
		}
	})

	keys := make([]uint64, count)
	entries := make([]indexEntry, count)
	for i, rv := range recs {
		keys[i] = rv.key
		entries[i] = rv.entry
	}

	return &twoHashIndex{r: r, keys: keys, entries: entries}, nil
}

// parseSingleHashIndex reads a .index2 shard.
func parseSingleHashIndex(r *mmap.ReaderAt) (*singleHashIndex, error) {
	hdr, err := readIndexHeader(r)
	if err != nil {
		return nil, err
	}
	count := int(hdr.dataSize / index2EntrySize)
	if count < 0 || hdr.dataOffset < 0 || hdr.dataOffset+hdr.dataSize > int64(r.Len()) {
		return nil, fmt.Errorf("%w: data table out of bounds", ErrInvalidIndex)
	}

	raw := make([]byte, hdr.dataSize)
	if _, err := r.ReadAt(raw, hdr.dataOffset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIndex, err)
	}

	type rec struct {
		key   uint32
		entry indexEntry
	}
	recs := make([]rec, count)
	for i := 0; i < count; i++ {
		b := raw[i*index2EntrySize:]
		fullHash := binary.LittleEndian.Uint32(b[0:4])
		locator := dataLocator(binary.LittleEndian.Uint32(b[4:8]))
		recs[i] = rec{
			key: fullHash,
			entry: indexEntry{
				datIndex:    locator.datIndex(),
				blockOffset: locator.blockOffset(),
			},
		}
	}
	slices.SortFunc(recs, func(a, b rec) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		default:
			return 0
		}
	})

	keys := make([]uint32, count)
	entries := make([]indexEntry, count)
	for i, rv := range recs {
		keys[i] = rv.key
		entries[i] = rv.entry
	}

	return &singleHashIndex{r: r, keys: keys, entries: entries}, nil
}

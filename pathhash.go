package sqpack

import (
	"strings"

	"github.com/snksoft/crc"
)

// crc32Table implements the same reflected CRC-32 that every sqpack shard on
// disk was built with: polynomial 0xEDB88320 in reflected form (0x04C11DB7
// unreflected), seeded to all-ones, with both input and output reflected and
// a final XOR of all-ones. This is numerically identical to hash/crc32's
// IEEE table; it is declared as data here, through the parameterized CRC
// engine, rather than assumed from a stdlib constant.
var crc32Table = crc.NewTable(&crc.Parameters{
	Width:      32,
	Polynomial: 0x04C11DB7,
	ReflectIn:  true,
	Init:       0xFFFFFFFF,
	ReflectOut: true,
	FinalXor:   0xFFFFFFFF,
})

// lowerASCII lowercases only the ASCII range, leaving every other byte (and
// any multi-byte UTF-8 continuation byte) untouched, exactly as the wire
// format's hash input is defined.
func lowerASCII(s string) string {
	needsLower := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return btostr(b)
}

// crc32Hash returns the sqpack path hash of the given bytes, which must
// already be lowercased by the caller.
func crc32Hash(s string) uint32 {
	h := crc.NewHashWithTable(crc32Table)
	h.Write([]byte(s))
	return h.CRC32()
}

// hashPath returns the single full-path hash used by the .index2 scheme.
func hashPath(path string) uint32 {
	return crc32Hash(lowerASCII(path))
}

// splitHash returns the folder and file-name half hashes used by the
// two-hash .index scheme. A path with no '/' yields an empty folder half.
func splitHash(path string) (folderHash, fileHash uint32) {
	lowered := lowerASCII(path)
	idx := strings.LastIndexByte(lowered, '/')
	if idx < 0 {
		return crc32Hash(""), crc32Hash(lowered)
	}
	return crc32Hash(lowered[:idx]), crc32Hash(lowered[idx+1:])
}

// combineHash packs a two-hash index key into the 64-bit lookup form used
// internally: folder hash in the high 32 bits, file hash in the low 32 bits.
func combineHash(folderHash, fileHash uint32) uint64 {
	return uint64(folderHash)<<32 | uint64(fileHash)
}

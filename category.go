package sqpack

// CategoryID is the 8-bit category identifier that forms the "HH" byte of a
// shard filename.
type CategoryID uint8

// Fixed name -> id table for the 15 top-level path segments this package
// recognises; any other first segment is ErrUnknownCategory. Values
// match the on-disk shard layout; they are not derivable from anything else
// in this package and must be preserved verbatim.
const (
	CategoryCommon     CategoryID = 0x00
	CategoryBGCommon   CategoryID = 0x01
	CategoryBG         CategoryID = 0x02
	CategoryCut        CategoryID = 0x03
	CategoryChara      CategoryID = 0x04
	CategoryShader     CategoryID = 0x05
	CategoryUI         CategoryID = 0x06
	CategorySound      CategoryID = 0x07
	CategoryVFX        CategoryID = 0x08
	CategoryUIScript   CategoryID = 0x09
	CategoryEXD        CategoryID = 0x0A
	CategoryGameScript CategoryID = 0x0B
	CategoryMusic      CategoryID = 0x0C
	CategorySqpackTest CategoryID = 0x12
	CategoryDebug      CategoryID = 0x13
)

var categoryByName = map[string]CategoryID{
	"common":      CategoryCommon,
	"bgcommon":    CategoryBGCommon,
	"bg":          CategoryBG,
	"cut":         CategoryCut,
	"chara":       CategoryChara,
	"shader":      CategoryShader,
	"ui":          CategoryUI,
	"sound":       CategorySound,
	"vfx":         CategoryVFX,
	"ui_script":   CategoryUIScript,
	"exd":         CategoryEXD,
	"game_script": CategoryGameScript,
	"music":       CategoryMusic,
	"sqpack_test": CategorySqpackTest,
	"debug":       CategoryDebug,
}

// resolveCategory looks up the first path segment in the fixed name table.
func resolveCategory(segment string) (CategoryID, error) {
	id, ok := categoryByName[segment]
	if !ok {
		return 0, ErrUnknownCategory
	}
	return id, nil
}

// chunkForCategory returns the fixed chunk id for a given category and its
// path's second segment. Most categories are single-chunk (chunk 0); the
// per-category exceptions that the real archive layout relies on are
// expressed here as an explicit table rather than inferred from the path,
// per the reference behaviour this package preserves.
func chunkForCategory(cat CategoryID, secondSegment string) uint8 {
	switch cat {
	case CategoryBG, CategoryCut, CategoryChara, CategorySound, CategoryVFX:
		// These categories shard further by the numeric prefix of their
		// second segment (e.g. "e0436" -> chunk 4) when present; a second
		// segment with no digit selects chunk 0.
		if n := leadingChunkDigits(secondSegment); n >= 0 {
			return uint8(n)
		}
		return 0
	default:
		return 0
	}
}

// leadingChunkDigits extracts the chunk selector from strings of the form
// "e0436", "w0001", etc: the first two digits of the numeric suffix, taken
// as a decimal number (e.g. "e0436" -> "04" -> 4). Returns -1 when no digit
// is present.
func leadingChunkDigits(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			v := int(s[i] - '0')
			if i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				v = v*10 + int(s[i+1]-'0')
			}
			return v
		}
	}
	return -1
}

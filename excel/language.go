package excel

// Language is one of the fixed set of language tags a sheet's header can
// list, including the language-agnostic sentinel None.
type Language uint8

const (
	LanguageNone Language = 0
	LanguageJA   Language = 1
	LanguageEN   Language = 2
	LanguageDE   Language = 3
	LanguageFR   Language = 4
	LanguageCHS  Language = 5
	LanguageCHT  Language = 6
	LanguageKO   Language = 7
)

var languageTags = map[Language]string{
	LanguageNone: "",
	LanguageJA:   "ja",
	LanguageEN:   "en",
	LanguageDE:   "de",
	LanguageFR:   "fr",
	LanguageCHS:  "chs",
	LanguageCHT:  "cht",
	LanguageKO:   "ko",
}

func (l Language) tag() string { return languageTags[l] }

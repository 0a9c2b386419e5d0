package excel

import "errors"

var (
	ErrInvalidPageIndex = errors.New("excel: invalid page index")
	ErrRowNotFound      = errors.New("excel: row not found")
	ErrLanguageNotFound = errors.New("excel: language not found")
	ErrCorruptExcel     = errors.New("excel: corrupt data")
)

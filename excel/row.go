package excel

// Row is a non-owning view over one row's bytes. Its backing slice is
// borrowed from the page that produced it; the view must not outlive that
// page (which, in turn, lives as long as its owning Sheet).
type Row struct {
	Sheet       *Sheet
	RowID       uint32
	SubRowCount uint16
	Bytes       []byte
}

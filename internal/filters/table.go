package filters

// NewDefaultTable builds the standard filter registry wired into
// internal/render's default pipeline.
func NewDefaultTable() Registry {
	r := Registry{}
	registerStrings(r)
	registerNumeric(r)
	registerArrays(r)
	registerMisc(r)
	return r
}

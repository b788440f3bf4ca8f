package pagination

// ListMeta describes a bounded list in JSON output. Truncated is set when the
// list filled its limit, meaning older entries may exist.
type ListMeta struct {
	Count     int  `json:"count"     yaml:"count"`
	Limit     int  `json:"limit"     yaml:"limit"`
	Truncated bool `json:"truncated" yaml:"truncated"`
}

// NewListMeta builds metadata for count items returned under limit.
func NewListMeta(count, limit int) ListMeta {
	return ListMeta{Count: count, Limit: limit, Truncated: limit > 0 && count >= limit}
}

package meta

// APIPathPrefix is the path, relative to a Buildbot master's web root, under
// which version 2 of the Buildbot data API is served.
const APIPathPrefix = "api/v2"

// ListMeta is metadata for collections of resources as returned by the
// Buildbot data API.
type ListMeta struct {
	// Total, when non-nil, is the number of resources matching a query,
	// irrespective of any limit or offset that was applied to it.
	Total *int64 `json:"total,omitempty"`
}

// RemainingItemCount returns how many matching resources lie beyond the
// window described by offset and count. It returns zero when the server did
// not report a total.
func (l ListMeta) RemainingItemCount(offset, count int) int64 {
	if l.Total == nil {
		return 0
	}
	remaining := *l.Total - int64(offset+count)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// internal/api/types/response.go
package types

// PaginatedResponse is a page of T plus the paging window it was cut from.
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"total_count"`
	HasMore    bool  `json:"has_more"`
}

// NewPaginatedResponse builds a page. A nil data slice is encoded as [].
func NewPaginatedResponse[T any](data []T, limit, offset int, total int64) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{
		Data:       data,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
		HasMore:    int64(offset+len(data)) < total,
	}
}

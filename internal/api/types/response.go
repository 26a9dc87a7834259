// internal/api/types/response.go
package types

// PaginatedResponse is the envelope for listing endpoints that page through results.
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"total_count"`
}

// NewPaginatedResponse builds a page. A nil slice is reported as an empty list so the
// JSON body always carries an array.
func NewPaginatedResponse[T any](data []T, limit, offset int, totalCount int64) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{
		Data:       data,
		Limit:      limit,
		Offset:     offset,
		TotalCount: totalCount,
	}
}

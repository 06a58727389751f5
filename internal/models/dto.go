package models

// PaginatedResponse wraps one page of a list endpoint.
type PaginatedResponse struct {
	Content       interface{} `json:"content"`
	TotalElements int64       `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
	Size          int         `json:"size"`
	Page          int         `json:"page"`
	First         bool        `json:"first"`
	Last          bool        `json:"last"`
}

func NewPaginatedResponse(content interface{}, total int64, page, size int) PaginatedResponse {
	if size <= 0 {
		size = 10
	}
	if page < 1 {
		page = 1
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return PaginatedResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Page:          page,
		First:         page == 1,
		Last:          page >= totalPages,
	}
}

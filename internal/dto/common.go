package dto

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListResponse wraps a page of items with the token for the next page.
type ListResponse[T any] struct {
	Items     []T    `json:"items"`
	NextToken string `json:"nextToken,omitempty"`
}

// ListQuery carries the paging parameters of list endpoints.
type ListQuery struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	NextToken string `form:"nextToken"`
}

// HealthResponse reports which backend serves requests and whether it answers.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Healthy bool   `json:"healthy"`
}

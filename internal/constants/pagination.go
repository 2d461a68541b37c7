package constants

// Pagination Query Parameters
const (
	QueryParamPage   = "page"
	QueryParamLimit  = "limit"
	QueryParamSearch = "search"
)

// Default Pagination Values (as strings for query parsing)
const (
	DefaultPage   = "1"
	DefaultLimit  = "10"
	DefaultSearch = ""
)

// Pagination Limits (as integers for validation)
const (
	MinPage  = 1
	MinLimit = 1
	MaxLimit = 100
)

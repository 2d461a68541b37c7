package constants

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Response Envelope Field Keys
const (
	ResponseFieldStatus  = "status"
	ResponseFieldMessage = "message"
	ResponseFieldData    = "data"
	ResponseFieldMeta    = "meta"
	ResponseFieldError   = "error"

	ResponseStatusSuccess = "success"
	ResponseStatusError   = "error"
)

// PaginationParams holds parsed pagination query parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
	Search string
}

// ParsePaginationParams parses page, limit and search query parameters
func ParsePaginationParams(c *gin.Context) PaginationParams {
	pageStr := c.DefaultQuery(QueryParamPage, DefaultPage)
	limitStr := c.DefaultQuery(QueryParamLimit, DefaultLimit)
	search := c.DefaultQuery(QueryParamSearch, DefaultSearch)

	page, _ := strconv.Atoi(pageStr)
	limit, _ := strconv.Atoi(limitStr)

	if page < MinPage {
		page = MinPage
	}
	if limit < MinLimit {
		limit = MinLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
		Search: search,
	}
}

// BuildSuccessResponse wraps a payload in the standard success envelope
func BuildSuccessResponse(message string, data any) map[string]any {
	response := map[string]any{
		ResponseFieldStatus:  ResponseStatusSuccess,
		ResponseFieldMessage: message,
	}

	if data != nil {
		response[ResponseFieldData] = data
	}

	return response
}

// BuildListResponse wraps a paginated payload with meta information
func BuildListResponse(message string, data any, total int64, page, pageTotal int) map[string]any {
	response := BuildSuccessResponse(message, data)
	response[ResponseFieldMeta] = map[string]any{
		"total":      total,
		"page":       page,
		"page_total": pageTotal,
	}
	return response
}

// BuildErrorResponse wraps an error in the standard error envelope
func BuildErrorResponse(message, code string, details any) map[string]any {
	errBody := map[string]any{
		"code": code,
	}
	if details != nil {
		errBody["details"] = details
	}

	return map[string]any{
		ResponseFieldStatus:  ResponseStatusError,
		ResponseFieldMessage: message,
		ResponseFieldError:   errBody,
	}
}

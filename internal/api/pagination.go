package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParsePagination reads skip/limit query parameters and clamps them to the
// configured bounds.
func ParsePagination(c *gin.Context, defaultLimit, maxLimit int) (offset, limit int, err error) {
	offsetStr := c.DefaultQuery("skip", "0")
	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("skip must be a non-negative integer")
	}

	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultLimit))
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		return 0, 0, fmt.Errorf("limit must be a positive integer")
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return offset, limit, nil
}

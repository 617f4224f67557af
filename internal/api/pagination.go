package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// pageParams is the parsed page-based pagination request. Limit overrides
// the configured default page size.
type pageParams struct {
	Page  int
	Limit int
}

func (p pageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

func parsePageParams(c *gin.Context, defaultLimit int) (pageParams, bool) {
	p := pageParams{Page: 1, Limit: defaultLimit}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": "page must be a positive integer"})
			return p, false
		}
		p.Page = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": "limit must be a positive integer"})
			return p, false
		}
		p.Limit = n
	}
	return p, true
}

// paginatedBody wraps one page of results in the standard envelope with
// absolute next/previous links.
func paginatedBody(c *gin.Context, count int64, p pageParams, results interface{}) gin.H {
	return gin.H{
		"count":    count,
		"next":     pageLink(c, p, count, p.Page+1),
		"previous": pageLink(c, p, count, p.Page-1),
		"results":  results,
	}
}

func pageLink(c *gin.Context, p pageParams, count int64, page int) *string {
	if page < 1 || int64((page-1)*p.Limit) >= count {
		return nil
	}

	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	link := scheme + "://" + c.Request.Host + u.String()
	return &link
}

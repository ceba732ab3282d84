package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// orgScope returns the organization the request is scoped to, if any.
// Candidate routes work without it; the invite token itself carries the
// organization and Resolve enforces the match when the header is present.
func orgScope(c *gin.Context) string {
	return c.GetHeader("X-Org-ID")
}

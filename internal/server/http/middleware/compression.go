package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/paperdesk/internal/server/http/dto"
)

// DecompressRequest inflates gzip request bodies. The inflated body is capped
// at maxBytes so a small archive cannot expand past the upload limit; a
// non-positive maxBytes disables the cap.
func DecompressRequest(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch encoding := strings.ToLower(strings.TrimSpace(c.GetHeader("Content-Encoding"))); encoding {
		case "", "identity":
			c.Next()
			return
		case "gzip", "x-gzip":
		default:
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType,
				dto.ErrorResponse{Error: "unsupported content encoding " + encoding})
			return
		}

		compressed := c.Request.Body
		inflated, err := gzip.NewReader(compressed)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "request body is not valid gzip"})
			return
		}
		defer compressed.Close()
		defer inflated.Close()

		c.Request.Body = inflated
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, inflated, maxBytes)
		}
		c.Request.Header.Del("Content-Encoding")
		c.Request.ContentLength = -1
		c.Next()
	}
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ErrorTemplate = "error.html"

	// ContextPageDataKey holds a gin.H merged into every rendered page.
	ContextPageDataKey = "page_data"
)

// Page renders the named template with data plus any request-wide page data.
func Page(c *gin.Context, status int, name string, data gin.H) {
	merged := gin.H{}
	if shared, ok := c.Get(ContextPageDataKey); ok {
		if h, ok := shared.(gin.H); ok {
			for k, v := range h {
				merged[k] = v
			}
		}
	}
	for k, v := range data {
		merged[k] = v
	}
	c.HTML(status, name, merged)
}

// Form re-renders a form page with a user-visible message. Status stays 200.
func Form(c *gin.Context, name, message string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Error"] = message
	Page(c, http.StatusOK, name, data)
}

func Error(c *gin.Context, status int, message string) {
	Page(c, status, ErrorTemplate, gin.H{
		"Status":     status,
		"StatusText": http.StatusText(status),
		"Message":    message,
	})
}

func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

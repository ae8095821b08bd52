package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"online-shopping/internal/app"
	"online-shopping/internal/transport/http/response"
)

var formMessages = []struct {
	err     error
	message string
}{
	{app.ErrUsernameRequired, "Username is required."},
	{app.ErrPasswordRequired, "Password is required."},
	{app.ErrTitleRequired, "Title is required."},
	{app.ErrCardRequired, "Credit card is required."},
	{app.ErrInvalidCredential, "Incorrect username or password."},
}

// formMessage returns the text shown above a form for a validation error.
func formMessage(err error) (string, bool) {
	for _, m := range formMessages {
		if errors.Is(err, m.err) {
			return m.message, true
		}
	}
	return "", false
}

// fail renders the status page for errors no form can recover from.
func fail(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, app.ErrPostNotFound):
		response.Error(c, http.StatusNotFound, fmt.Sprintf("Post id %s doesn't exist.", c.Param("id")))
	case errors.Is(err, app.ErrForbidden):
		response.Error(c, http.StatusForbidden, "You can only change your own posts.")
	default:
		log.Printf("%s failed: %v", action, err)
		response.Error(c, http.StatusInternalServerError, action+" failed")
	}
}

func postIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, app.ErrPostNotFound, "parse post id")
		return 0, false
	}
	return uint(id), true
}

package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"online-shopping/internal/app"
	"online-shopping/internal/transport/http/middleware"
	"online-shopping/internal/transport/http/response"
)

const (
	registerTemplate = "register.html"
	loginTemplate    = "login.html"
)

type AuthHandler struct {
	authService *app.AuthService
	cookie      middleware.SessionCookie
}

func NewAuthHandler(authService *app.AuthService, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

func (h *AuthHandler) RegisterPage(c *gin.Context) {
	response.Page(c, http.StatusOK, registerTemplate, nil)
}

func (h *AuthHandler) Register(c *gin.Context) {
	username := c.PostForm("username")
	_, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Username: username,
		Password: c.PostForm("password"),
	})
	if err != nil {
		form := gin.H{"Username": username}
		if msg, ok := formMessage(err); ok {
			response.Form(c, registerTemplate, msg, form)
			return
		}
		if errors.Is(err, app.ErrUsernameExists) {
			msg := fmt.Sprintf("User %s is already registered.", strings.TrimSpace(username))
			response.Form(c, registerTemplate, msg, form)
			return
		}
		fail(c, err, "register")
		return
	}

	response.Redirect(c, middleware.LoginPath)
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	response.Page(c, http.StatusOK, loginTemplate, nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Username: username,
		Password: c.PostForm("password"),
	})
	if err != nil {
		if msg, ok := formMessage(err); ok {
			response.Form(c, loginTemplate, msg, gin.H{"Username": username})
			return
		}
		fail(c, err, "login")
		return
	}

	// Drop whatever session the browser held before issuing the new one.
	h.endSession(c)
	h.cookie.Set(c, result.Token, result.ExpiresAt)
	response.Redirect(c, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.endSession(c)
	h.cookie.Clear(c)
	response.Redirect(c, "/")
}

func (h *AuthHandler) endSession(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity.Claims == nil {
		return
	}
	if err := h.authService.EndSession(c.Request.Context(), identity.Claims); err != nil {
		log.Printf("end session for user %d failed: %v", identity.Claims.UserID, err)
	}
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"online-shopping/internal/app"
	"online-shopping/internal/model"
	"online-shopping/internal/transport/http/middleware"
	"online-shopping/internal/transport/http/response"
)

const (
	indexTemplate  = "index.html"
	searchTemplate = "search.html"
	createTemplate = "create.html"
	updateTemplate = "update.html"

	PaymentPath = "/auth/payment"
)

type BlogHandler struct {
	blogService *app.BlogService
}

func NewBlogHandler(blogService *app.BlogService) *BlogHandler {
	return &BlogHandler{blogService: blogService}
}

func (h *BlogHandler) Index(c *gin.Context) {
	posts, err := h.blogService.ListPosts(c.Request.Context())
	if err != nil {
		fail(c, err, "list posts")
		return
	}
	response.Page(c, http.StatusOK, indexTemplate, gin.H{"Posts": posts})
}

// IndexSubmit handles both index forms: the search box (which posts an
// "action" field) and the sold-out selection list.
func (h *BlogHandler) IndexSubmit(c *gin.Context) {
	if _, isSearch := c.GetPostForm("action"); isSearch {
		h.search(c)
		return
	}
	middleware.RequireUser(h.markSoldOut)(c)
}

func (h *BlogHandler) search(c *gin.Context) {
	post, err := h.blogService.Search(c.Request.Context(), c.PostForm("search_word"))
	if err != nil {
		fail(c, err, "search posts")
		return
	}
	if post == nil {
		response.Redirect(c, "/")
		return
	}
	response.Page(c, http.StatusOK, searchTemplate, gin.H{"Post": post})
}

func (h *BlogHandler) markSoldOut(c *gin.Context, user *model.User) {
	var ids []uint
	for _, raw := range c.PostFormArray("selected_posts") {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
	}

	if _, err := h.blogService.MarkSoldOut(c.Request.Context(), user.ID, ids); err != nil {
		fail(c, err, "mark sold out")
		return
	}
	response.Redirect(c, PaymentPath)
}

func (h *BlogHandler) CreatePage(c *gin.Context, _ *model.User) {
	response.Page(c, http.StatusOK, createTemplate, nil)
}

func (h *BlogHandler) Create(c *gin.Context, user *model.User) {
	title, body := c.PostForm("title"), c.PostForm("body")
	_, err := h.blogService.CreatePost(c.Request.Context(), app.CreatePostInput{
		AuthorID: user.ID,
		Title:    title,
		Body:     body,
	})
	if err != nil {
		if msg, ok := formMessage(err); ok {
			response.Form(c, createTemplate, msg, gin.H{"Title": title, "Body": body})
			return
		}
		fail(c, err, "create post")
		return
	}
	response.Redirect(c, "/")
}

func (h *BlogHandler) UpdatePage(c *gin.Context, user *model.User) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	post, err := h.blogService.GetPost(c.Request.Context(), id, user.ID, true)
	if err != nil {
		fail(c, err, "load post")
		return
	}
	response.Page(c, http.StatusOK, updateTemplate, gin.H{"Post": post})
}

func (h *BlogHandler) Update(c *gin.Context, user *model.User) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	title, body := c.PostForm("title"), c.PostForm("body")
	err := h.blogService.UpdatePost(c.Request.Context(), app.UpdatePostInput{
		PostID: id,
		UserID: user.ID,
		Title:  title,
		Body:   body,
	})
	if err != nil {
		if msg, ok := formMessage(err); ok {
			response.Form(c, updateTemplate, msg, gin.H{
				"Post": &model.PostView{ID: id, AuthorID: user.ID, Title: title, Body: body},
			})
			return
		}
		fail(c, err, "update post")
		return
	}
	response.Redirect(c, "/")
}

func (h *BlogHandler) Delete(c *gin.Context, user *model.User) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	if err := h.blogService.DeletePost(c.Request.Context(), id, user.ID); err != nil {
		fail(c, err, "delete post")
		return
	}
	response.Redirect(c, "/")
}

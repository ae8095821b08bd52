package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"online-shopping/internal/app"
	"online-shopping/internal/model"
	"online-shopping/internal/transport/http/response"
)

const (
	creditCardTemplate = "credit_card.html"
	paymentTemplate    = "payment.html"

	CreditCardPath = "/auth/credit_card"
)

type PaymentHandler struct {
	paymentService *app.PaymentService
}

func NewPaymentHandler(paymentService *app.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) CreditCardPage(c *gin.Context, _ *model.User) {
	response.Page(c, http.StatusOK, creditCardTemplate, nil)
}

func (h *PaymentHandler) SaveCreditCard(c *gin.Context, user *model.User) {
	_, err := h.paymentService.SaveCard(c.Request.Context(), app.SaveCardInput{
		UserID:         user.ID,
		CardNumber:     c.PostForm("card_number"),
		ExpirationDate: c.PostForm("expiration_date"),
		SecurityCode:   c.PostForm("security_code"),
	})
	if err != nil {
		if msg, ok := formMessage(err); ok {
			response.Form(c, creditCardTemplate, msg, gin.H{"ExpirationDate": c.PostForm("expiration_date")})
			return
		}
		fail(c, err, "save credit card")
		return
	}
	response.Redirect(c, "/")
}

// Payment shows the stored card. Users without one are sent to enter it first.
func (h *PaymentHandler) Payment(c *gin.Context, user *model.User) {
	card, err := h.paymentService.GetCard(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, app.ErrCardNotFound) {
			response.Redirect(c, CreditCardPath)
			return
		}
		fail(c, err, "load credit card")
		return
	}

	response.Page(c, http.StatusOK, paymentTemplate, gin.H{
		"CardNumber":     card.MaskedNumber(),
		"ExpirationDate": card.ExpirationDate,
	})
}

func (h *PaymentHandler) ConfirmPayment(c *gin.Context, _ *model.User) {
	response.Redirect(c, "/")
}

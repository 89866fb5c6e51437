package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type setupIntentBody struct {
	Email string `json:"email" binding:"required,email"`
}

// Create a setup intent for saving a payment method
// (POST /payment/setup-intent)
func (impl *ServerImpl) PostPaymentSetupIntent(c *gin.Context) {
	const op = "PostPaymentSetupIntent"
	var body setupIntentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a valid email address."})
		return
	}
	intent, err := impl.payments.CreateSetupIntent(c.Request.Context(), body.Email)
	if err != nil {
		slog.Error("Fail to create setup intent", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Payment provider is unavailable, please try again"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"clientSecret": intent.ClientSecret,
		"customerId":   intent.CustomerID,
	})
}

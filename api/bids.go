package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"silentbid/bidding"
)

// dollarsToCents 將以元為單位的金額轉換為分
func dollarsToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// centsToDollars 將以分為單位的金額轉換為元
func centsToDollars(cents int64) float64 {
	return float64(cents) / 100
}

type placeBidBody struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Amount        float64 `json:"amount"`
	AcceptedTerms bool    `json:"acceptedTerms"`
}

// Place a bid on an auction item
// (POST /items/{itemID}/bids)
func (impl *ServerImpl) PostItemBid(c *gin.Context) {
	const op = "PostItemBid"
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation failed",
			"errors":  gin.H{"itemId": "Item ID is required."},
		})
		return
	}
	var body placeBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	// 欄位驗證、詐欺檢查與交易提交都由出價服務負責，
	// 這裡只做金額單位轉換和錯誤對應
	receipt, err := impl.bidService.PlaceBid(c.Request.Context(), bidding.PlaceBidRequest{
		ItemID:        itemID,
		BidderName:    body.Name,
		BidderEmail:   body.Email,
		Amount:        dollarsToCents(body.Amount),
		AcceptedTerms: body.AcceptedTerms,
	})
	if err != nil {
		impl.renderBidError(c, err)
		return
	}

	// 廣播出價事件給所有訂閱者
	if err := impl.producer.Publish(BidEvent{
		ItemID:    itemID,
		Bidder:    receipt.Bid.Name,
		Amount:    receipt.Bid.Amount,
		CreatedAt: receipt.Bid.CreatedAt,
	}); err != nil {
		slog.Error("Fail to publish bid event", slog.String("op", op), slog.Any("error", err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": receipt.Message,
		"bid": gin.H{
			"id":     receipt.Bid.ID,
			"amount": centsToDollars(receipt.Bid.Amount),
			"time":   receipt.Bid.CreatedAt,
		},
	})
}

// renderBidError 將出價服務的錯誤對應到HTTP回應
func (impl *ServerImpl) renderBidError(c *gin.Context, err error) {
	var (
		validationErr *bidding.ValidationError
		tooLowErr     *bidding.BidTooLowError
		incrementErr  *bidding.InvalidIncrementError
		fraudErr      *bidding.FraudRejectedError
		transientErr  *bidding.TransientError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation failed",
			"errors":  validationErr.Fields,
		})
	case errors.Is(err, bidding.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Auction item not found"})
	case errors.Is(err, bidding.ErrItemNotBiddable):
		c.JSON(http.StatusForbidden, gin.H{"message": "Bidding is paused for this item"})
	case errors.As(err, &tooLowErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"message":    "Your bid must be higher than the current bid.",
			"currentBid": centsToDollars(tooLowErr.CurrentBid),
		})
	case errors.As(err, &incrementErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"message":        "Your bid does not meet the minimum increment.",
			"currentBid":     centsToDollars(incrementErr.CurrentBid),
			"minimumNextBid": centsToDollars(incrementErr.MinimumNext),
		})
	case errors.As(err, &fraudErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "Bid rejected by fraud check",
			"reason":  fraudErr.Reason,
		})
	case errors.Is(err, bidding.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": "Another bid was placed first, please refresh and try again"})
	case errors.As(err, &transientErr):
		slog.Error("Bid failed on a transient error", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Service temporarily unavailable, please try again"})
	default:
		slog.Error("Bid failed on an unexpected error", slog.Any("error", err))
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"silentbid/models"
)

type createItemBody struct {
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	ImageURL     string  `json:"imageUrl"`
	StartingBid  float64 `json:"startingBid" binding:"required,gt=0"`
	MinIncrement float64 `json:"minIncrement" binding:"required,gt=0"`
}

// itemView 是拍賣品的公開視圖，金額以元為單位，不包含出價者信箱
type itemView struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	ImageURL          string    `json:"imageUrl"`
	StartingBid       float64   `json:"startingBid"`
	MinIncrement      float64   `json:"minIncrement"`
	CurrentBid        float64   `json:"currentBid"`
	HighestBidderName *string   `json:"highestBidderName"`
	Active            bool      `json:"active"`
}

func newItemView(item models.AuctionItem) itemView {
	return itemView{
		ID:                item.ID,
		Name:              item.Name,
		Description:       item.Description,
		ImageURL:          item.ImageURL,
		StartingBid:       centsToDollars(item.StartingBid),
		MinIncrement:      centsToDollars(item.MinIncrement),
		CurrentBid:        centsToDollars(item.CurrentBid),
		HighestBidderName: item.HighestBidderName,
		Active:            item.Active,
	}
}

// Add a new auction item
// (POST /admin/items)
func (impl *ServerImpl) PostAdminItem(c *gin.Context) {
	const op = "PostAdminItem"
	if _, ok := impl.requireAdmin(c); !ok {
		return
	}
	var body createItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	// 處理拍賣描述
	body.Description = impl.htmlChecker.Sanitize(body.Description)
	// 儲存拍賣品，目前價格從起標價開始
	item := models.AuctionItem{
		Name:         body.Name,
		Description:  body.Description,
		ImageURL:     body.ImageURL,
		StartingBid:  dollarsToCents(body.StartingBid),
		MinIncrement: dollarsToCents(body.MinIncrement),
		CurrentBid:   dollarsToCents(body.StartingBid),
		Active:       true,
	}
	if result := impl.db.Create(&item); result.Error != nil {
		slog.Error("Fail to create auction item", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Header("Location", item.ID.String())
	c.JSON(http.StatusCreated, newItemView(item))
}

// List open auction items
// (GET /items)
func (impl *ServerImpl) GetItems(c *gin.Context) {
	const op = "GetItems"
	var items []models.AuctionItem
	if result := impl.db.Where("active = ?", true).Order("name").Find(&items); result.Error != nil {
		slog.Error("Fail to list auction items", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	output := make([]itemView, len(items))
	for i, item := range items {
		output[i] = newItemView(item)
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"items": output,
	})
}

// Get auction item details
// (GET /items/{itemID})
func (impl *ServerImpl) GetItem(c *gin.Context) {
	const op = "GetItem"
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid item id"})
		return
	}
	item := models.AuctionItem{ID: itemID}
	if result := impl.db.
		Preload(
			"BidRecords",
			func(db *gorm.DB) *gorm.DB {
				return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
			}).
		First(&item); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Fail to find auction item", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	// 取得所有出價紀錄，公開視圖不包含出價者信箱
	bidRecords := make([]BidEventView, len(item.BidRecords))
	for i, bid := range item.BidRecords {
		bidRecords[i] = BidEventView{
			Bidder: bid.Name,
			Amount: centsToDollars(bid.Amount),
			Time:   bid.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"item":       newItemView(item),
		"bidRecords": bidRecords,
	})
}

// List auction items with bidder contacts
// (GET /admin/items)
func (impl *ServerImpl) GetAdminItems(c *gin.Context) {
	const op = "GetAdminItems"
	if _, ok := impl.requireAdmin(c); !ok {
		return
	}
	var items []models.AuctionItem
	if result := impl.db.Order("name").Find(&items); result.Error != nil {
		slog.Error("Fail to list auction items", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	output := make([]struct {
		itemView
		HighestBidderEmail *string `json:"highestBidderEmail"`
	}, len(items))
	for i, item := range items {
		output[i].itemView = newItemView(item)
		output[i].HighestBidderEmail = item.HighestBidderEmail
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"items": output,
	})
}

type toggleActiveBody struct {
	Active *bool `json:"active" binding:"required"`
}

// Pause or resume bidding on an auction item
// (PATCH /admin/items/{itemID}/active)
func (impl *ServerImpl) PatchAdminItemActive(c *gin.Context) {
	const op = "PatchAdminItemActive"
	if _, ok := impl.requireAdmin(c); !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid item id"})
		return
	}
	var body toggleActiveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "active is required"})
		return
	}
	result := impl.db.Model(&models.AuctionItem{}).Where("id = ?", itemID).Update("active", *body.Active)
	if result.Error != nil {
		slog.Error("Fail to update auction item", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": *body.Active})
}

// Pause or resume bidding on all auction items at once
// (POST /admin/gala)
func (impl *ServerImpl) PostAdminGala(c *gin.Context) {
	const op = "PostAdminGala"
	if _, ok := impl.requireAdmin(c); !ok {
		return
	}
	var body toggleActiveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "active is required"})
		return
	}
	result := impl.db.
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.AuctionItem{}).
		Update("active", *body.Active)
	if result.Error != nil {
		slog.Error("Fail to update auction items", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	slog.Info("Gala status toggled", slog.Bool("active", *body.Active), slog.Int64("items", result.RowsAffected))
	c.JSON(http.StatusOK, gin.H{
		"active":  *body.Active,
		"updated": result.RowsAffected,
	})
}

// List current leaders across all auction items
// (GET /leaderboard)
func (impl *ServerImpl) GetLeaderboard(c *gin.Context) {
	const op = "GetLeaderboard"
	var items []models.AuctionItem
	if result := impl.db.
		Where("highest_bidder_email IS NOT NULL").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "current_bid"}, Desc: true}).
		Find(&items); result.Error != nil {
		slog.Error("Fail to list leaders", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	output := make([]struct {
		ItemID     uuid.UUID `json:"itemId"`
		ItemName   string    `json:"itemName"`
		Bidder     string    `json:"bidder"`
		CurrentBid float64   `json:"currentBid"`
	}, len(items))
	for i, item := range items {
		output[i].ItemID = item.ID
		output[i].ItemName = item.Name
		if item.HighestBidderName != nil {
			output[i].Bidder = *item.HighestBidderName
		}
		output[i].CurrentBid = centsToDollars(item.CurrentBid)
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(items),
		"leaders": output,
	})
}

// Export winners as CSV
// (GET /admin/export/winners)
func (impl *ServerImpl) GetAdminExportWinners(c *gin.Context) {
	const op = "GetAdminExportWinners"
	if _, ok := impl.requireAdmin(c); !ok {
		return
	}
	var items []models.AuctionItem
	if result := impl.db.Order("name").Find(&items); result.Error != nil {
		slog.Error("Fail to list auction items", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=winners-%s.csv", time.Now().Format("2006-01-02")))
	if err := writeWinnersCSV(c.Writer, items); err != nil {
		slog.Error("Fail to write winners csv", slog.String("op", op), slog.Any("error", err))
	}
}

// writeWinnersCSV 將有領先者的拍賣品寫成CSV
// 沒有任何人出價的拍賣品不會出現在匯出結果中
func writeWinnersCSV(w io.Writer, items []models.AuctionItem) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ItemName", "WinnerName", "WinnerEmail", "WinningBid"}); err != nil {
		return fmt.Errorf("fail to write csv header, err=%w", err)
	}
	for _, item := range items {
		if !item.HasLeader() {
			continue
		}
		var winnerName string
		if item.HighestBidderName != nil {
			winnerName = *item.HighestBidderName
		}
		record := []string{
			item.Name,
			winnerName,
			*item.HighestBidderEmail,
			fmt.Sprintf("%.2f", centsToDollars(item.CurrentBid)),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("fail to write csv record, err=%w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

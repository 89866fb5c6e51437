package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"silentbid/models"
)

// BidEvent 是寫入出價事件串流的跨節點訊息，金額以分為單位
type BidEvent struct {
	ItemID    uuid.UUID `msgpack:"itemID"`
	Bidder    string    `msgpack:"bidder"`
	Amount    int64     `msgpack:"amount"`
	CreatedAt time.Time `msgpack:"createdAt"`
}

// BidEventView 是推送給瀏覽器的出價事件，金額以元為單位
type BidEventView struct {
	Bidder string    `json:"bidder"`
	Amount float64   `json:"amount"`
	Time   time.Time `json:"time"`
}

// Track auction item events
// (GET /items/{itemID}/events)
func (impl *ServerImpl) GetItemEvents(c *gin.Context) {
	const op = "GetItemEvents"
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid item id"})
		return
	}
	// 檢查拍賣品是否存在
	item := models.AuctionItem{ID: itemID}
	if result := impl.db.First(&item); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Fail to find auction item", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	// 檢查拍賣品是否開放出價
	if !item.Active {
		c.JSON(http.StatusForbidden, gin.H{"message": "Bidding is paused"})
		return
	}
	// SSE請求合法，開始初始化串流
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Transfer-Encoding", "chunked")
	ch, err := impl.sseManager.Subscribe(itemID.String())
	if err != nil {
		slog.Error(fmt.Sprintf("[%s] Fail to subscribe to item events", op), slog.Any("error", err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
LOOP:
	for {
		select {
		case <-w.CloseNotify():
			impl.sseManager.Unsubscribe(itemID.String(), ch)
			break LOOP
		case event := <-ch:
			c.SSEvent("bid", event)
			w.Flush()
		// 30秒沒有事件就發送一個空行，確保瀏覽器和Cloudflare不會斷開連線
		case <-time.After(30 * time.Second):
			w.WriteString("\n\n")
			w.Flush()
		}
	}
}

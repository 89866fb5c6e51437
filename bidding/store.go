package bidding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"silentbid/models"
)

// GormStore 以關聯式資料庫的交易實作 ItemStore
// 拍賣品資料列是唯一的共享可變資源，正確性完全依賴
// 交易內的列鎖與帶條件的更新，不做任何跨請求的快取
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetItem(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error) {
	const op = "GetItem"
	item := models.AuctionItem{ID: id}
	if result := s.db.WithContext(ctx).First(&item); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find auction item, err=%w", op, result.Error)
	}
	return &item, nil
}

// PlaceBid 在單一交易內完成鎖定讀取、重新驗證與寫入
// 更新同時以讀到的 current_bid 作為條件，若影響列數為 0
// 代表資料列在鎖定讀取後仍被改動，以 ErrConflict 中止
func (s *GormStore) PlaceBid(ctx context.Context, id uuid.UUID, decide DecideFunc) (*models.Bid, error) {
	const op = "PlaceBid"
	var accepted *models.Bid
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item := models.AuctionItem{ID: id}
		if result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("[%s] Fail to find auction item, err=%w", op, result.Error)
		}
		observed := item.CurrentBid

		bid, err := decide(&item)
		if err != nil {
			return err
		}

		result := tx.Model(&models.AuctionItem{}).
			Where("id = ? AND current_bid = ?", item.ID, observed).
			Updates(map[string]any{
				"current_bid":          bid.Amount,
				"highest_bidder_name":  bid.Name,
				"highest_bidder_email": bid.Email,
			})
		if result.Error != nil {
			return fmt.Errorf("[%s] Fail to update auction item, err=%w", op, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		if result := tx.Create(bid); result.Error != nil {
			return fmt.Errorf("[%s] Fail to create bid record, err=%w", op, result.Error)
		}
		accepted = bid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bid 代表一筆被接受的出價紀錄
// 只會由成功的出價交易建立，建立後不會被修改或刪除
type Bid struct {
	gorm.Model

	ID            uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	AuctionItemID uuid.UUID `gorm:"type:uuid;not null;<-:create"`
	Name          string    `gorm:"type:varchar(255);not null;<-:create"`
	Email         string    `gorm:"type:varchar(255);not null;<-:create"`
	Amount        int64     `gorm:"type:bigint;not null;<-:create"`

	// 外鍵關聯
	AuctionItem AuctionItem
}

package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuctionItem 代表無聲拍賣中的一件拍賣品
// 包含展示資訊、起標價、最低加價幅度與目前領先出價等資訊
// CurrentBid 建立時等於 StartingBid，之後只會單調遞增
type AuctionItem struct {
	gorm.Model

	ID                 uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	Name               string    `gorm:"type:varchar(255);not null"`
	Description        string    `gorm:"type:text;not null"`
	ImageURL           string    `gorm:"type:text;not null"`
	StartingBid        int64     `gorm:"type:bigint;not null;<-:create"`
	MinIncrement       int64     `gorm:"type:bigint;not null;<-:create"`
	CurrentBid         int64     `gorm:"type:bigint;not null"`
	HighestBidderName  *string   `gorm:"type:varchar(255)"`
	HighestBidderEmail *string   `gorm:"type:varchar(255)"`
	Active             bool      `gorm:"type:boolean;not null;default:true"`

	// 外鍵關聯
	BidRecords []Bid `gorm:"foreignKey:AuctionItemID"`
}

// HasLeader 判斷是否已經有人出價成功
func (item *AuctionItem) HasLeader() bool {
	return item.HighestBidderEmail != nil
}

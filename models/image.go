package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image 代表拍賣品圖片的上傳紀錄
// 用來追蹤每位管理員的上傳次數以實施速率限制
type Image struct {
	gorm.Model

	ID         uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null;<-:create"`
	Url        string    `gorm:"type:text;not null;<-:create"`

	Uploader *Admin `gorm:"foreignKey:UploaderID"`
}

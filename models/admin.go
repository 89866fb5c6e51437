package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin 代表可以管理拍賣的管理員
// 包含基本的管理員資訊，如顯示名稱
type Admin struct {
	gorm.Model

	ID   uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	Name string    `gorm:"type:varchar(255);not null;<-:create"`
}

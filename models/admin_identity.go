package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminIdentity 代表管理員在外部身份驗證服務上的身份
// Identity 是身份提供者核發的 subject，用來關聯回本地的管理員帳號
type AdminIdentity struct {
	gorm.Model

	ID       uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	AdminID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_admin_identity_identity,where:deleted_at IS NULL;not null;<-:create"`
	Identity string    `gorm:"type:text;uniqueIndex:idx_admin_identity_identity,where:deleted_at IS NULL;not null;<-:create"`

	Admin *Admin `gorm:"foreignKey:AdminID"`
}

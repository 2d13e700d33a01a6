package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Photo 用户上传的原图
type Photo struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_photos_user_created,priority:1" json:"user_id"`
	FileURL     string    `gorm:"size:512;not null;uniqueIndex" json:"file_url"`
	QRURL       *string   `gorm:"size:512" json:"qr_url"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"index;index:idx_photos_user_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// DescriptionLower 描述的小写副本，用于不区分大小写的关键字搜索
	DescriptionLower *string `gorm:"type:text" json:"-"`

	Owner *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Photo) TableName() string {
	return "photos"
}

// BeforeSave 同步小写描述，SQLite 的 LOWER 只处理 ASCII
func (p *Photo) BeforeSave(tx *gorm.DB) error {
	p.DescriptionLower = LowerDescription(p.Description)
	return nil
}

// LowerDescription 返回 Unicode 小写后的描述，nil 保持 nil
func LowerDescription(description *string) *string {
	if description == nil {
		return nil
	}
	lower := strings.ToLower(*description)
	return &lower
}

// PhotoURL 由原图变换生成的派生资源
type PhotoURL struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PhotoID   uint      `gorm:"not null;index" json:"photo_id"`
	FileURL   string    `gorm:"size:512;not null;uniqueIndex" json:"file_url"`
	QRURL     *string   `gorm:"size:512" json:"qr_url"`
	CreatedAt time.Time `json:"created_at"`

	Photo *Photo `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (PhotoURL) TableName() string {
	return "photo_urls"
}

package models

// Tag 规范化后的标签，名称全局唯一
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name"`
}

func (Tag) TableName() string {
	return "tags"
}

// PhotoTag 照片与标签的关联，复合主键保证同一对只存在一行
type PhotoTag struct {
	PhotoID uint `gorm:"primaryKey" json:"photo_id"`
	TagID   uint `gorm:"primaryKey;index" json:"tag_id"`

	Photo *Photo `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Tag   *Tag   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (PhotoTag) TableName() string {
	return "photo_tags"
}

// All 返回需要迁移的全部模型，按外键依赖排序
func All() []interface{} {
	return []interface{}{
		&User{},
		&Photo{},
		&Tag{},
		&PhotoTag{},
		&PhotoURL{},
	}
}

package objects

import (
	"time"
)

// ArticleTag 对应托管库的 Tags 表
type ArticleTag struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// 创建时间
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Tag   string `gorm:"type:varchar(64);not null" json:"tag"`
	Color string `gorm:"type:varchar(32)" json:"color"`
}

// TableName 指定表名
func (ArticleTag) TableName() string {
	return "Tags"
}

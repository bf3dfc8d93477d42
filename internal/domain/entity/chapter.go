package entity

import "time"

// Chapter 章节实体，页面挂在章节之下
type Chapter struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID    string    `json:"book_id" gorm:"type:uuid;index;not null"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Summary   string    `json:"summary,omitempty" gorm:"type:text"`
	OrderKey  string    `json:"order_key" gorm:"type:varchar(64);index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

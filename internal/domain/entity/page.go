package entity

import (
	"time"

	"github.com/lib/pq"
)

// Page 章节下的一页正文，按 OrderKey 字典序排列
type Page struct {
	ID              string         `json:"id" gorm:"type:uuid;primaryKey"`
	BookID          string         `json:"book_id" gorm:"type:uuid;index;not null"`
	ChapterID       string         `json:"chapter_id" gorm:"type:uuid;index:idx_pages_chapter_order,priority:1;not null"`
	OrderKey        string         `json:"order_key" gorm:"type:varchar(64);index:idx_pages_chapter_order,priority:2;not null"`
	Title           string         `json:"title" gorm:"type:varchar(255)"`
	KeyPoints       pq.StringArray `json:"key_points" gorm:"type:text[]"`
	ContentMarkdown string         `json:"content_markdown" gorm:"type:text"`
	ContentHTML     string         `json:"content_html" gorm:"type:text"`
	PlainText       string         `json:"plain_text" gorm:"type:text"`
	WordCount       int            `json:"word_count" gorm:"default:0"`
	CreatedBy       string         `json:"created_by" gorm:"type:varchar(128);not null"`
	CreatedAt       time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Page) TableName() string {
	return "pages"
}

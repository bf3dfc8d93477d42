package entity

import "time"

// PageQuota 用户的页面配额计数
type PageQuota struct {
	UserID    string    `json:"user_id" gorm:"type:varchar(128);primaryKey"`
	Used      int       `json:"used" gorm:"not null;default:0"`
	Max       int       `json:"max" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (PageQuota) TableName() string {
	return "page_quotas"
}

// Remaining 剩余可用单位
func (q *PageQuota) Remaining() int {
	if q == nil {
		return 0
	}
	if r := q.Max - q.Used; r > 0 {
		return r
	}
	return 0
}

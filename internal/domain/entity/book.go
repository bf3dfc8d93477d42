package entity

import "time"

// MemberRole 书籍协作者角色
type MemberRole string

const (
	MemberRoleEditor MemberRole = "editor"
	MemberRoleViewer MemberRole = "viewer"
)

// Book 书籍实体，owner 决定检索分区
type Book struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID   string    `json:"owner_id" gorm:"type:varchar(128);index;not null"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// IsOwner 判断是否为书籍所有者
func (b *Book) IsOwner(userID string) bool {
	return b != nil && userID != "" && b.OwnerID == userID
}

// BookMember 书籍协作者
type BookMember struct {
	BookID    string     `json:"book_id" gorm:"type:uuid;primaryKey"`
	UserID    string     `json:"user_id" gorm:"type:varchar(128);primaryKey"`
	Role      MemberRole `json:"role" gorm:"type:varchar(16);not null;default:'editor'"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (BookMember) TableName() string {
	return "book_members"
}

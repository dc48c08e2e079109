package models

import "time"

// ForumPost is a discussion thread started by a user.
type ForumPost struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	LikeCount  int64     `gorm:"-" json:"like_count"`
	ReplyCount int64     `gorm:"-" json:"reply_count"`
	// Top-level replies with nested children, assembled in memory.
	Replies []*ForumReply `gorm:"-" json:"replies,omitempty"`
}

// ForumReply is a reply on a post. ParentID is nil for top-level replies;
// replies form a tree of unbounded depth.
type ForumReply struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ForumPostID uint      `gorm:"index;not null" json:"forum_post_id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	ParentID    *uint     `gorm:"index" json:"parent_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Replies     []*ForumReply `gorm:"-" json:"replies"`
}

// ForumLike records that a user currently likes a post. Row existence is the
// like state; the unique pair index turns a toggle race into a constraint
// violation instead of silent double rows.
type ForumLike struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ForumPostID uint      `gorm:"not null;index:idx_forum_likes_post_user,unique" json:"forum_post_id"`
	UserID      uint      `gorm:"not null;index:idx_forum_likes_post_user,unique" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

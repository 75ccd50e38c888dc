package model

import "time"

type Post struct {
	ID             int64     `json:"id"`
	AuthorUsername string    `json:"username"`
	DisplayName    string    `json:"displayName"`
	Content        string    `json:"content"`
	ImageURL       string    `json:"imageUrl"`
	Likes          []string  `json:"likes"`
	Comments       []Comment `json:"comments"`
	Timestamp      time.Time `json:"timestamp"`
	Hashtags       []string  `json:"hashtags"`
}

// Comment живёт только в памяти процесса (см. service.CommentStore).
type Comment struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Engagement — метрика тренда: лайки + комментарии.
func (p Post) Engagement() int { return len(p.Likes) + len(p.Comments) }

type PostInput struct {
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

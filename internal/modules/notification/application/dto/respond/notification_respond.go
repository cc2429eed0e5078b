package respond

import "time"

type NotificationItem struct {
	Id         int64          `json:"id"`
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	RelatedRef string         `json:"relatedEventId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	IsRead     bool           `json:"isRead"`
	ReadAt     *time.Time     `json:"readAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

type NotificationListRespond struct {
	List     []NotificationItem `json:"list"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

type UnreadCountRespond struct {
	Count int64 `json:"count"`
}

type ReadRespond struct {
	Updated int64 `json:"updated"`
}

package request

type ListNotificationRequest struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	UnreadOnly bool `json:"unreadOnly"`
}

type ReadNotificationRequest struct {
	Ids []int64 `json:"ids" binding:"required,min=1"`
}

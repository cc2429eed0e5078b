package request

type SharedTargetRequest struct {
	OfficeId     string   `json:"officeId"`
	DepartmentId string   `json:"departmentId"`
	Positions    []string `json:"positions"`
}

// ListEventsRequest 时间为本地时间 (2006-01-02T15:04:05) 或日期, 带时区的时间会被换算
type ListEventsRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SearchEventsRequest struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit"`
}

type CreateEventRequest struct {
	Title         string                `json:"title"`
	Content       string                `json:"content"`
	StartTime     string                `json:"startTime"`
	EndTime       string                `json:"endTime"`
	Priority      string                `json:"priority"`
	AlertEnabled  *bool                 `json:"alertEnabled"`
	RemindOffsets []int                 `json:"remindOffsets"`
	SharedTargets []SharedTargetRequest `json:"sharedTargets"`
}

// UpdateEventRequest 未传的字段保持不变, SharedTargets 传空数组表示清空
type UpdateEventRequest struct {
	Id            string                 `json:"id"`
	Title         *string                `json:"title"`
	Content       *string                `json:"content"`
	StartTime     *string                `json:"startTime"`
	EndTime       *string                `json:"endTime"`
	Priority      *string                `json:"priority"`
	AlertEnabled  *bool                  `json:"alertEnabled"`
	RemindOffsets *[]int                 `json:"remindOffsets"`
	SharedTargets *[]SharedTargetRequest `json:"sharedTargets"`
}

type EventIdRequest struct {
	Id string `json:"id"`
}

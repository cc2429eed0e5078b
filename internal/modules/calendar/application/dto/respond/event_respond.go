package respond

type SharedTargetRespond struct {
	OfficeId     string   `json:"officeId"`
	DepartmentId string   `json:"departmentId,omitempty"`
	Positions    []string `json:"positions,omitempty"`
}

// EventRespond 一次性事件、物化实例和展开出的系列实例共用
type EventRespond struct {
	Ref              string                `json:"ref"`
	Id               string                `json:"id,omitempty"`
	SeriesId         string                `json:"seriesId,omitempty"`
	OccurrenceDate   string                `json:"occurrenceDate,omitempty"`
	Title            string                `json:"title"`
	Content          string                `json:"content"`
	StartTime        string                `json:"startTime"`
	EndTime          string                `json:"endTime"`
	Status           string                `json:"status"` // OVERDUE 覆盖库内状态
	CompletedAt      string                `json:"completedAt,omitempty"`
	Priority         string                `json:"priority"`
	AlertEnabled     bool                  `json:"alertEnabled"`
	RemindOffsets    []int                 `json:"remindOffsets,omitempty"`
	CreatorId        string                `json:"creatorId"`
	DepartmentId     string                `json:"departmentId"`
	OfficeId         string                `json:"officeId"`
	DivisionId       string                `json:"divisionId"`
	IsException      bool                  `json:"isException"`
	IsGenerated      bool                  `json:"isGenerated"`
	OriginalSeriesId string                `json:"originalSeriesId,omitempty"`
	IsOverdue        bool                  `json:"isOverdue"`
	IsDueSoon        bool                  `json:"isDueSoon"`
	IsShared         bool                  `json:"isShared"` // 仅通过共享可见
	CanEdit          bool                  `json:"canEdit"`
	SharedTargets    []SharedTargetRespond `json:"sharedTargets"`
}

type SearchRespond struct {
	Events []EventRespond  `json:"events"`
	Series []SeriesRespond `json:"series"`
}

// DeletedRespond 删除操作返回被删除实体的引用
type DeletedRespond struct {
	Ref string `json:"ref"`
}

package respond

type ExceptionRespond struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type SeriesRespond struct {
	Ref                 string                `json:"ref"`
	Id                  string                `json:"id"`
	Title               string                `json:"title"`
	Content             string                `json:"content"`
	RecurrenceUnit      string                `json:"recurrenceUnit"`
	RecurrenceInterval  int                   `json:"recurrenceInterval"`
	RecurrenceEndDate   string                `json:"recurrenceEndDate,omitempty"`
	FirstOccurrenceDate string                `json:"firstOccurrenceDate"`
	StartClock          string                `json:"startClock"`
	EndClock            string                `json:"endClock"`
	DurationDays        int                   `json:"durationDays"`
	Status              string                `json:"status"`
	CompletedAt         string                `json:"completedAt,omitempty"`
	Priority            string                `json:"priority"`
	AlertEnabled        bool                  `json:"alertEnabled"`
	RemindOffsets       []int                 `json:"remindOffsets,omitempty"`
	CreatorId           string                `json:"creatorId"`
	DepartmentId        string                `json:"departmentId"`
	OfficeId            string                `json:"officeId"`
	DivisionId          string                `json:"divisionId"`
	CanEdit             bool                  `json:"canEdit"`
	SharedTargets       []SharedTargetRespond `json:"sharedTargets"`
	Exceptions          []ExceptionRespond    `json:"exceptions,omitempty"`
}

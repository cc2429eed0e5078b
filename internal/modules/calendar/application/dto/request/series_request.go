package request

// CreateSeriesRequest 日期格式 2006-01-02, 时刻格式 15:04
type CreateSeriesRequest struct {
	Title               string                `json:"title"`
	Content             string                `json:"content"`
	RecurrenceUnit      string                `json:"recurrenceUnit"`
	RecurrenceInterval  int                   `json:"recurrenceInterval"`
	RecurrenceEndDate   string                `json:"recurrenceEndDate"`
	FirstOccurrenceDate string                `json:"firstOccurrenceDate"`
	StartClock          string                `json:"startClock"`
	EndClock            string                `json:"endClock"`
	DurationDays        int                   `json:"durationDays"`
	Priority            string                `json:"priority"`
	AlertEnabled        *bool                 `json:"alertEnabled"`
	RemindOffsets       []int                 `json:"remindOffsets"`
	SharedTargets       []SharedTargetRequest `json:"sharedTargets"`
}

// UpdateSeriesRequest RecurrenceEndDate 传空字符串表示不再有结束日期
type UpdateSeriesRequest struct {
	Id                  string                 `json:"id"`
	Title               *string                `json:"title"`
	Content             *string                `json:"content"`
	RecurrenceUnit      *string                `json:"recurrenceUnit"`
	RecurrenceInterval  *int                   `json:"recurrenceInterval"`
	RecurrenceEndDate   *string                `json:"recurrenceEndDate"`
	FirstOccurrenceDate *string                `json:"firstOccurrenceDate"`
	StartClock          *string                `json:"startClock"`
	EndClock            *string                `json:"endClock"`
	DurationDays        *int                   `json:"durationDays"`
	Priority            *string                `json:"priority"`
	AlertEnabled        *bool                  `json:"alertEnabled"`
	RemindOffsets       *[]int                 `json:"remindOffsets"`
	SharedTargets       *[]SharedTargetRequest `json:"sharedTargets"`
}

type SeriesIdRequest struct {
	Id string `json:"id"`
}

// OccurrenceRequest 定位系列中的某一次实例
type OccurrenceRequest struct {
	SeriesId string `json:"seriesId"`
	Date     string `json:"date"`
}

type UpdateOccurrenceRequest struct {
	SeriesId      string  `json:"seriesId"`
	Date          string  `json:"date"`
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	StartTime     *string `json:"startTime"`
	EndTime       *string `json:"endTime"`
	Priority      *string `json:"priority"`
	AlertEnabled  *bool   `json:"alertEnabled"`
	RemindOffsets *[]int  `json:"remindOffsets"`
}

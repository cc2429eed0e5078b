package respond

type CheckNowRespond struct {
	Targets   int   `json:"targets"`
	Scheduled int   `json:"scheduled"`
	Purged    int64 `json:"purged"`
}

type ReminderJobRespond struct {
	JobKey        string `json:"jobKey"`
	TriggerType   string `json:"triggerType"`
	OffsetMinutes int    `json:"offsetMinutes"`
	ScheduledAt   string `json:"scheduledAt"` // RFC3339 UTC
	Status        string `json:"status"`
	RetryCount    int    `json:"retryCount"`
	LastError     string `json:"lastError,omitempty"`
}

package request

type ListJobsRequest struct {
	Ref string `json:"ref"`
}

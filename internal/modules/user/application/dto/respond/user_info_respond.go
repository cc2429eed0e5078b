package respond

// UserInfoRespond 当前用户在目录中的资料, 以及决定可见范围的组织身份
type UserInfoRespond struct {
	Uuid         string `json:"uuid"`
	Username     string `json:"username"`
	Nickname     string `json:"nickname"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Position     string `json:"position"`
	ScopeBreadth string `json:"scopeBreadth"`
	DepartmentId string `json:"departmentId"`
	OfficeId     string `json:"officeId"`
	DivisionId   string `json:"divisionId"`
	IsLeader     bool   `json:"isLeader"`
	CreatedAt    string `json:"createdAt"`
}

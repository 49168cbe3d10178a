package dto

// PopulateDTO 按需拉取一份画像报告
type PopulateDTO struct {
	SourceAccountRef string `json:"sourceAccountRef" validate:"required,max=64"`
	ExternalUserID   string `json:"externalUserId" validate:"required,max=128"`
	Platform         string `json:"platform" validate:"required"`
	Priority         *int   `json:"priority" validate:"omitempty,min=0,max=100"`
	Reason           string `json:"reason" validate:"max=200"`
}

type PriorityDTO struct {
	Priority *int `json:"priority" validate:"required,min=0,max=100"`
}

// TriggerJobDTO 手动触发刷新任务
type TriggerJobDTO struct {
	Reason string `json:"reason" validate:"required,max=200"`
}

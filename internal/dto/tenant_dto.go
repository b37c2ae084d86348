package dto

import "docchat-be/internal/model"

type TenantSettingsResponse struct {
	AssistantName       string  `json:"assistant_name"`
	ContactEmail        string  `json:"contact_email"`
	RateLimitPerHour    int     `json:"rate_limit_per_hour"`
	MaxDocuments        int     `json:"max_documents"`
	MaxFileSizeMB       int     `json:"max_file_size_mb"`
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

type UpdateTenantSettingsRequest struct {
	AssistantName       *string  `json:"assistant_name,omitempty" validate:"omitempty,max=255"`
	ContactEmail        *string  `json:"contact_email,omitempty" validate:"omitempty,email"`
	RateLimitPerHour    *int     `json:"rate_limit_per_hour,omitempty" validate:"omitempty,min=1,max=100000"`
	MaxDocuments        *int     `json:"max_documents,omitempty" validate:"omitempty,min=1,max=10000"`
	MaxFileSizeMB       *int     `json:"max_file_size_mb,omitempty" validate:"omitempty,min=1,max=100"`
	TopK                *int     `json:"top_k,omitempty" validate:"omitempty,min=1,max=20"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty" validate:"omitempty,min=0,max=1"`
}

type NotificationResponse struct {
	Notifications []model.Notification `json:"notifications"`
	Total         int64                `json:"total"`
	UnreadCount   int64                `json:"unread_count"`
}

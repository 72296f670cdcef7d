package models

import "time"

// ConsultRequest is the body of POST /api/consult
type ConsultRequest struct {
	CNPJ string `json:"cnpj" example:"11.222.333/0001-81"`
}

// ChallengeResponse is returned when the portal demands a human check
type ChallengeResponse struct {
	Error          string    `json:"error" example:"Challenge required"`
	Message        string    `json:"message" example:"The portal requires a captcha to be solved"`
	Code           string    `json:"code" example:"CHALLENGE_REQUIRED"`
	ChallengeImage string    `json:"challenge_image,omitempty" example:"iVBORw0KGgo..."`
	ContentType    string    `json:"content_type,omitempty" example:"image/png"`
	RequestID      string    `json:"request_id,omitempty"`
	Timestamp      time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Path           string    `json:"path" example:"/api/consult"`
}

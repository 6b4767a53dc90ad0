package models

// Requests for insight HTTP endpoints. Defined in domain for consistency and reuse.

type InsightsRequest struct {
	Days    int    `query:"days" json:"days" default:"90" validate:"gte=1,lte=730"`
	Target  string `query:"target" json:"target" default:"readiness_score" validate:"oneof=readiness_score sleep_score activity_score"`
	Refresh bool   `query:"refresh" json:"refresh"`
}

type BaselinesRequest struct {
	Days int `query:"days" json:"days" default:"90" validate:"gte=1,lte=730"`
}

type AnomaliesRequest struct {
	Days   int     `query:"days" json:"days" default:"90" validate:"gte=1,lte=730"`
	Metric string  `query:"metric" json:"metric" default:"readiness_score" validate:"oneof=readiness_score sleep_score activity_score"`
	Sigma  float64 `query:"sigma" json:"sigma" default:"2" validate:"gt=0,lte=10"`
}

type ForecastRequest struct {
	Days   int    `query:"days" json:"days" default:"90" validate:"gte=1,lte=730"`
	Target string `query:"target" json:"target" default:"readiness_score" validate:"oneof=readiness_score sleep_score activity_score"`
}

type RecordsRequest struct {
	From  string `query:"from" json:"from"`
	To    string `query:"to" json:"to"`
	Limit int    `query:"limit" json:"limit" default:"365" validate:"gte=1,lte=3650"`
}

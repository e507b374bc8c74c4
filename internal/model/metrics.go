package model

import "time"

// PerformanceMetrics summarizes post-publication performance of a rendered video
type PerformanceMetrics struct {
	VideoID          string    `json:"video_id" db:"video_id"`
	Views            int64     `json:"views" db:"views"`
	Likes            int64     `json:"likes" db:"likes"`
	Comments         int64     `json:"comments" db:"comments"`
	Shares           int64     `json:"shares" db:"shares"`
	Impressions      int64     `json:"impressions" db:"impressions"`
	Clicks           int64     `json:"clicks" db:"clicks"`
	AverageWatchTime float64   `json:"average_watch_time" db:"average_watch_time"` // seconds
	VideoDuration    float64   `json:"video_duration" db:"video_duration"`         // seconds
	CompletionRate   float64   `json:"completion_rate" db:"completion_rate"`
	EngagementRate   float64   `json:"engagement_rate" db:"engagement_rate"`
	ClickThroughRate *float64  `json:"click_through_rate,omitempty" db:"click_through_rate"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// TelemetrySnapshot is one periodic counter reading for a published video
type TelemetrySnapshot struct {
	VideoID          string    `json:"video_id"`
	Views            int64     `json:"views"`
	Likes            int64     `json:"likes"`
	Comments         int64     `json:"comments"`
	Shares           int64     `json:"shares"`
	Impressions      int64     `json:"impressions,omitempty"`
	Clicks           int64     `json:"clicks,omitempty"`
	AverageWatchTime float64   `json:"average_watch_time"`
	VideoDuration    float64   `json:"video_duration"`
	ObservedAt       time.Time `json:"observed_at"`
}

// AccountSummary aggregates metrics over a set of videos
type AccountSummary struct {
	Videos            int     `json:"videos"`
	TotalViews        int64   `json:"total_views"`
	TotalLikes        int64   `json:"total_likes"`
	TotalComments     int64   `json:"total_comments"`
	TotalShares       int64   `json:"total_shares"`
	AvgViews          float64 `json:"avg_views"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	AvgCompletionRate float64 `json:"avg_completion_rate"`
}

// PerformanceReport covers the videos whose metrics were last updated in [From, To)
type PerformanceReport struct {
	From      time.Time            `json:"from"`
	To        time.Time            `json:"to"`
	Summary   AccountSummary       `json:"summary"`
	TopVideos []PerformanceMetrics `json:"top_videos"`
}

// TemplatePerformance ranks a template by the engagement of videos rendered with it
type TemplatePerformance struct {
	TemplateID        string  `json:"template_id"`
	Videos            int     `json:"videos"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
}

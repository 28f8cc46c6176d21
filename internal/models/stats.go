package models

import "time"

// DashboardStats aggregates the coach dashboard headline numbers.
type DashboardStats struct {
	ActiveStudents    int       `json:"active_students"`
	Programs          int       `json:"programs"`
	DietPlans         int       `json:"diet_plans"`
	ActiveAssignments int       `json:"active_assignments"`
	UnreadMessages    int       `json:"unread_messages"`
	UpcomingEvents    int       `json:"upcoming_events"`
	GeneratedAt       time.Time `json:"generated_at"`
	ServedFromCache   bool      `json:"served_from_cache"`
}

// SystemMetrics is a lightweight runtime snapshot exposed alongside stats.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

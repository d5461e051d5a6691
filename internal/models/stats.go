package models

import "time"

type Stats struct {
	TotalTasks       int
	TasksByStatus    map[string]int
	TotalSubmissions int
	Members          []*MemberStats
}

type MemberStats struct {
	UserID          int64
	Username        string
	Submissions     int
	Files           int
	LastSubmittedAt *time.Time
}

package models

import "time"

// Submission is a member's delivery for a task. There is at most one
// per (TaskID, UserID).
type Submission struct {
	TaskID        int64
	UserID        int64
	Username      string
	SubmittedAt   time.Time
	FileReference *string
}

func (s *Submission) HasFile() bool {
	return s.FileReference != nil && *s.FileReference != ""
}

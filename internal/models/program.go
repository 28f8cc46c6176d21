package models

import "time"

// Program represents a workout program authored by a coach.
type Program struct {
	ID          string    `db:"id" json:"id"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	Name        string    `db:"name" json:"name"`
	Goal        string    `db:"goal" json:"goal"`
	Level       string    `db:"level" json:"level"`
	Weeks       int       `db:"weeks" json:"weeks"`
	DaysPerWeek int       `db:"days_per_week" json:"days_per_week"`
	Notes       string    `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ProgramDetail enriches a program with its derived student membership.
// AssignedStudentIDs is reconstructed from active assignment rows at
// fetch time; program rows never persist it.
type ProgramDetail struct {
	Program
	AssignedStudentIDs []string `json:"assigned_student_ids"`
}

// ProgramFilter narrows down program listings.
type ProgramFilter struct {
	Search    string
	Goal      string
	Level     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

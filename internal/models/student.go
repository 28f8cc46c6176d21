package models

import "time"

// Student represents a coached student's roster entry.
type Student struct {
	ID        string     `db:"id" json:"id"`
	CoachID   string     `db:"coach_id" json:"coach_id"`
	FullName  string     `db:"full_name" json:"full_name"`
	Email     string     `db:"email" json:"email"`
	Phone     string     `db:"phone" json:"phone"`
	Goal      string     `db:"goal" json:"goal"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentDetail is the student row joined with its current assignment
// relations. The assigned ids are derived from the assignments table at
// fetch time, the reciprocal view of ProgramDetail.AssignedStudentIDs.
type StudentDetail struct {
	Student
	AssignedProgramID  *string `db:"assigned_program_id" json:"assigned_program_id,omitempty"`
	AssignedProgram    *string `db:"assigned_program_name" json:"assigned_program_name,omitempty"`
	AssignedDietPlanID *string `db:"assigned_diet_plan_id" json:"assigned_diet_plan_id,omitempty"`
	AssignedDietPlan   *string `db:"assigned_diet_plan_name" json:"assigned_diet_plan_name,omitempty"`
}

// StudentFilter narrows down roster listings.
type StudentFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

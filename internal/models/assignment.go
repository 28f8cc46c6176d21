package models

import "time"

// RelationStatus tags the lifecycle state of one side of an assignment row.
// Pausing preserves the foreign key so history survives unassignment.
type RelationStatus string

const (
	RelationActive RelationStatus = "ACTIVE"
	RelationPaused RelationStatus = "PAUSED"
)

// Assignment is the single row linking a coach's student to their current
// program and diet plan. The (coach_id, student_id) pair is unique: both
// relations live on the same row, each with its own status tag.
type Assignment struct {
	ID            string         `db:"id" json:"id"`
	CoachID       string         `db:"coach_id" json:"coach_id"`
	StudentID     string         `db:"student_id" json:"student_id"`
	ProgramID     *string        `db:"program_id" json:"program_id,omitempty"`
	ProgramStatus RelationStatus `db:"program_status" json:"program_status"`
	DietPlanID    *string        `db:"diet_plan_id" json:"diet_plan_id,omitempty"`
	DietStatus    RelationStatus `db:"diet_status" json:"diet_status"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ProgramActive reports whether the row carries a live program relation.
func (a Assignment) ProgramActive() bool {
	return a.ProgramID != nil && a.ProgramStatus == RelationActive
}

// DietActive reports whether the row carries a live diet relation.
func (a Assignment) DietActive() bool {
	return a.DietPlanID != nil && a.DietStatus == RelationActive
}

// Membership is the derived view of assignment rows grouped per entity.
// It is always a reconstruction from the assignments table, never stored
// on program or diet plan rows.
type Membership struct {
	ProgramStudents  map[string][]string
	DietPlanStudents map[string][]string
}

// StudentRelations is the reciprocal derived view from the student side.
type StudentRelations struct {
	ProgramID  *string
	DietPlanID *string
}

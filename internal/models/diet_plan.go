package models

import "time"

// DietPlan represents a nutrition plan authored by a coach.
type DietPlan struct {
	ID           string    `db:"id" json:"id"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	Name         string    `db:"name" json:"name"`
	Goal         string    `db:"goal" json:"goal"`
	Calories     int       `db:"calories" json:"calories"`
	ProteinGrams float64   `db:"protein_grams" json:"protein_grams"`
	CarbsGrams   float64   `db:"carbs_grams" json:"carbs_grams"`
	FatGrams     float64   `db:"fat_grams" json:"fat_grams"`
	MealsPerDay  int       `db:"meals_per_day" json:"meals_per_day"`
	Notes        string    `db:"notes" json:"notes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DietPlanDetail enriches a plan with its derived student membership.
type DietPlanDetail struct {
	DietPlan
	AssignedStudentIDs []string `json:"assigned_student_ids"`
}

// DietPlanFilter narrows down diet plan listings.
type DietPlanFilter struct {
	Search    string
	Goal      string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

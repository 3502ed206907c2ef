package models

import "time"

// Team mirrors one entry of the FPL bootstrap "teams" array. Rows are
// replaced wholesale on every sync, keyed by the upstream team id.
type Team struct {
	ID                  uint      `gorm:"primaryKey" json:"id"` // FPL team id
	Name                string    `gorm:"not null" json:"name"`
	ShortName           string    `gorm:"size:8" json:"short_name"`
	StrengthOverallHome int       `json:"strength_overall_home"`
	StrengthOverallAway int       `json:"strength_overall_away"`
	StrengthAttackHome  int       `json:"strength_attack_home"`
	StrengthAttackAway  int       `json:"strength_attack_away"`
	StrengthDefenceHome int       `json:"strength_defence_home"`
	StrengthDefenceAway int       `json:"strength_defence_away"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Team) TableName() string {
	return "teams"
}

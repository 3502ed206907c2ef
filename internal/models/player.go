package models

import "time"

// Player mirrors one entry of the FPL bootstrap "elements" array. The
// upstream API serves several stats as string decimals; the sync stage
// parses them into float64 columns so feature queries stay numeric.
type Player struct {
	ID          uint   `gorm:"primaryKey" json:"id"` // FPL element id
	TeamID      uint   `gorm:"index;not null" json:"team_id"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	WebName     string `json:"web_name"`
	Position    string `gorm:"size:4" json:"position"` // GKP, DEF, MID, FWD
	NowCost     int    `json:"now_cost"`               // tenths of a million
	TotalPoints int    `json:"total_points"`
	Minutes     int    `json:"minutes"`
	GoalsScored int    `json:"goals_scored"`
	Assists     int    `json:"assists"`

	Form                     float64 `json:"form"`
	ICTIndex                 float64 `json:"ict_index"`
	ExpectedGoals            float64 `json:"expected_goals"`
	ExpectedAssists          float64 `json:"expected_assists"`
	ExpectedGoalInvolvements float64 `json:"expected_goal_involvements"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Player) TableName() string {
	return "players"
}

package models

import "time"

// Outcome labels used across predictions and fixture results.
const (
	OutcomeHomeWin = "home_win"
	OutcomeDraw    = "draw"
	OutcomeAwayWin = "away_win"
)

// Prediction is an append-only record of one model inference for a fixture.
// Newer rows for the same fixture supersede older ones; rows are never
// updated in place so historical outputs stay attributable to the model
// version that produced them.
type Prediction struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	FixtureID        uint      `gorm:"index;not null" json:"fixture_id"`
	HomeTeamID       uint      `gorm:"not null" json:"home_team_id"`
	AwayTeamID       uint      `gorm:"not null" json:"away_team_id"`
	HomeWinProb      float64   `json:"home_win_prob"`
	DrawProb         float64   `json:"draw_prob"`
	AwayWinProb      float64   `json:"away_win_prob"`
	PredictedOutcome string    `gorm:"size:16" json:"predicted_outcome"`
	Confidence       float64   `json:"confidence"` // max of the three probabilities
	ModelVersion     string    `gorm:"size:32;index" json:"model_version"`
	FeatureSet       string    `gorm:"size:32" json:"feature_set"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Prediction) TableName() string {
	return "predictions"
}

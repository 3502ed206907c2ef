package models

import "time"

// Fixture is one scheduled or completed match. Scores stay nil until the
// match finishes; Finished=true always comes with both scores set.
type Fixture struct {
	ID             uint      `gorm:"primaryKey" json:"id"` // FPL fixture id
	Event          int       `gorm:"index" json:"event"`   // gameweek number
	HomeTeamID     uint      `gorm:"index;not null" json:"home_team_id"`
	AwayTeamID     uint      `gorm:"index;not null" json:"away_team_id"`
	HomeScore      *int      `json:"home_score"`
	AwayScore      *int      `json:"away_score"`
	Finished       bool      `gorm:"index" json:"finished"`
	KickoffTime    time.Time `json:"kickoff_time"`
	HomeDifficulty int       `json:"home_difficulty"`
	AwayDifficulty int       `json:"away_difficulty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Fixture) TableName() string {
	return "fixtures"
}

// Result returns the outcome label for a finished fixture, or "" when the
// fixture has no recorded result yet.
func (f *Fixture) Result() string {
	if !f.Finished || f.HomeScore == nil || f.AwayScore == nil {
		return ""
	}
	switch {
	case *f.HomeScore > *f.AwayScore:
		return OutcomeHomeWin
	case *f.HomeScore < *f.AwayScore:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}

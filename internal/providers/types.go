package providers

import "time"

// FPL API response structures. Field sets are trimmed to what the sync and
// feature pipelines actually consume.

type BootstrapResponse struct {
	Events   []EventEntry   `json:"events"`
	Teams    []TeamEntry    `json:"teams"`
	Elements []ElementEntry `json:"elements"`
}

type EventEntry struct {
	ID        int  `json:"id"`
	IsCurrent bool `json:"is_current"`
	IsNext    bool `json:"is_next"`
	Finished  bool `json:"finished"`
}

type TeamEntry struct {
	ID                  uint   `json:"id"`
	Name                string `json:"name"`
	ShortName           string `json:"short_name"`
	StrengthOverallHome int    `json:"strength_overall_home"`
	StrengthOverallAway int    `json:"strength_overall_away"`
	StrengthAttackHome  int    `json:"strength_attack_home"`
	StrengthAttackAway  int    `json:"strength_attack_away"`
	StrengthDefenceHome int    `json:"strength_defence_home"`
	StrengthDefenceAway int    `json:"strength_defence_away"`
}

type ElementEntry struct {
	ID          uint   `json:"id"`
	Team        uint   `json:"team"`
	ElementType int    `json:"element_type"` // 1 GKP, 2 DEF, 3 MID, 4 FWD
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	WebName     string `json:"web_name"`
	NowCost     int    `json:"now_cost"`
	TotalPoints int    `json:"total_points"`
	Minutes     int    `json:"minutes"`
	GoalsScored int    `json:"goals_scored"`
	Assists     int    `json:"assists"`

	// Served as string decimals upstream.
	Form                     string `json:"form"`
	ICTIndex                 string `json:"ict_index"`
	ExpectedGoals            string `json:"expected_goals"`
	ExpectedAssists          string `json:"expected_assists"`
	ExpectedGoalInvolvements string `json:"expected_goal_involvements"`
}

// PositionName maps the FPL element type to its short position label.
func (e ElementEntry) PositionName() string {
	switch e.ElementType {
	case 1:
		return "GKP"
	case 2:
		return "DEF"
	case 3:
		return "MID"
	case 4:
		return "FWD"
	default:
		return "UNK"
	}
}

type FixtureEntry struct {
	ID                   uint       `json:"id"`
	Event                int        `json:"event"`
	TeamH                uint       `json:"team_h"`
	TeamA                uint       `json:"team_a"`
	TeamHScore           *int       `json:"team_h_score"`
	TeamAScore           *int       `json:"team_a_score"`
	Finished             bool       `json:"finished"`
	KickoffTime          *time.Time `json:"kickoff_time"`
	TeamHDifficulty      int        `json:"team_h_difficulty"`
	TeamADifficulty      int        `json:"team_a_difficulty"`
}

package models

import (
	"time"
)

const (
	ResultWhiteWin = "white_win"
	ResultBlackWin = "black_win"
	ResultDraw     = "draw"
	ResultOngoing  = "ongoing"
)

const (
	ColorWhite   = "white"
	ColorBlack   = "black"
	ColorUnknown = "unknown"
)

const (
	TimeClassUltraBullet = "ultrabullet"
	TimeClassBullet      = "bullet"
	TimeClassBlitz       = "blitz"
	TimeClassRapid       = "rapid"
	TimeClassClassical   = "classical"
	TimeClassDaily       = "daily"
)

const (
	AnalysisStatusPending   = "pending"
	AnalysisStatusCompleted = "completed"
	AnalysisStatusSkipped   = "skipped"
)

// Game is one normalized game record imported from an external platform.
// The (platform, external_id) pair is unique; re-importing the same game is
// a no-op. Rows are hard-deleted only, a soft-delete marker would keep the
// unique index occupied and block re-import.
type Game struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index" json:"user_id"`
	LinkedAccountID uint      `gorm:"index" json:"linked_account_id"`
	Platform        string    `gorm:"index:idx_platform_external_id,unique;type:varchar(50)" json:"platform"`
	ExternalID      string    `gorm:"index:idx_platform_external_id,unique;type:varchar(191)" json:"external_id"`
	URL             string    `gorm:"type:varchar(255)" json:"url"`
	PGN             string    `gorm:"type:mediumtext" json:"pgn"`
	WhiteUsername   string    `gorm:"type:varchar(191)" json:"white_username"`
	BlackUsername   string    `gorm:"type:varchar(191)" json:"black_username"`
	WhiteRating     int       `gorm:"type:int" json:"white_rating"`
	BlackRating     int       `gorm:"type:int" json:"black_rating"`
	UserColor       string    `gorm:"type:varchar(10)" json:"user_color"`
	Result          string    `gorm:"type:varchar(20)" json:"result"`
	Termination     string    `gorm:"type:varchar(50)" json:"termination"`
	TimeControl     string    `gorm:"type:varchar(50)" json:"time_control"`
	TimeClass       string    `gorm:"type:varchar(20);index" json:"time_class"`
	Rated           bool      `gorm:"default:false" json:"rated"`
	Variant         string    `gorm:"type:varchar(50)" json:"variant"`
	ECOCode         string    `gorm:"type:varchar(10)" json:"eco_code"`
	OpeningName     string    `gorm:"type:varchar(191)" json:"opening_name"`
	PlayedAt        time.Time `gorm:"type:timestamp;index" json:"played_at"`
	Event           string    `gorm:"type:varchar(191)" json:"event"`
	Site            string    `gorm:"type:varchar(191)" json:"site"`
	AnalysisStatus  string    `gorm:"type:varchar(20);default:'pending'" json:"analysis_status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// WinnerColor returns the color that won, or empty for draws and
// unfinished games.
func (g *Game) WinnerColor() string {
	switch g.Result {
	case ResultWhiteWin:
		return ColorWhite
	case ResultBlackWin:
		return ColorBlack
	}
	return ""
}

// UserWon reports whether the owning user's side won the game.
func (g *Game) UserWon() bool {
	winner := g.WinnerColor()
	return winner != "" && winner == g.UserColor
}

package domain

import "time"

// RewardDownloadCredits is how many download units a completed survey
// refunds. The credit is applied by decrementing the consumed counter, which
// may go negative; allowance stays a single `count < ceiling` comparison.
const RewardDownloadCredits = 5

// SurveyRecord marks a one-time survey reward. At most one row exists per
// user; the row's existence is the double-redemption guard.
type SurveyRecord struct {
	ID        int64     `json:"-"`
	UserID    int64     `json:"userId"`
	Payload   string    `json:"surveyData"`
	CreatedAt time.Time `json:"createdAt"`
}

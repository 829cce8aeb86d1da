package domain

import "time"

// Subject identifies who a ledger row belongs to: a registered user or an
// anonymous guest. Exactly one of the two fields is set. A guest's usage is
// not merged into a user row when they later sign in; the guest row is
// simply abandoned (documented policy, see DESIGN.md).
type Subject struct {
	UserID  int64  `json:"userId,omitempty"`
	GuestID string `json:"guestId,omitempty"`
}

// IsUser reports whether the subject is a registered user.
func (s Subject) IsUser() bool { return s.UserID != 0 }

// IsZero reports whether no identity was supplied at all.
func (s Subject) IsZero() bool { return s.UserID == 0 && s.GuestID == "" }

// UsageRecord is one subject's consumption ledger for the current billing
// period (a calendar month).
type UsageRecord struct {
	ID              int64      `json:"-"`
	UserID          int64      `json:"userId,omitempty"`
	GuestID         string     `json:"guestId,omitempty"`
	Plan            Plan       `json:"plan"`
	DownloadCount   int        `json:"downloadCount"`
	ExtractionCount int        `json:"extractionCount"`
	SummaryCount    int        `json:"summaryCount"`
	LastResetMonth  int        `json:"lastResetMonth"`
	LastResetYear   int        `json:"lastResetYear"`
	ExpireTime      *time.Time `json:"expireTime,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Count returns the consumed units for one action. Reward credits can drive
// a counter negative; negative just means more remaining allowance.
func (r *UsageRecord) Count(action Action) int {
	switch action {
	case ActionDownload:
		return r.DownloadCount
	case ActionExtract:
		return r.ExtractionCount
	case ActionSummary:
		return r.SummaryCount
	}
	return 0
}

// NewUsageRecord returns a fresh FREE record for the current period.
func NewUsageRecord(subject Subject, now time.Time) *UsageRecord {
	return &UsageRecord{
		UserID:         subject.UserID,
		GuestID:        subject.GuestID,
		Plan:           PlanFree,
		LastResetMonth: int(now.Month()),
		LastResetYear:  now.Year(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NormalizeResult reports which lazy mutations a record needs before it may
// be read or consumed. Rollover and demotion are applied as two separate
// updates, in that order.
type NormalizeResult struct {
	Rollover bool // counters reset for a new calendar month
	Demote   bool // paid plan expired, drop to FREE
}

// Normalize brings a record up to date for the given instant, mutating it in
// place and reporting what changed. It is pure with respect to everything
// but the record itself; persistence is the caller's job. There is no
// background job — every read path runs both checks.
func Normalize(r *UsageRecord, now time.Time) NormalizeResult {
	var res NormalizeResult

	if r.LastResetMonth != int(now.Month()) || r.LastResetYear != now.Year() {
		// New billing period: counters reset, plan and expiry carry forward.
		r.DownloadCount = 0
		r.ExtractionCount = 0
		r.SummaryCount = 0
		r.LastResetMonth = int(now.Month())
		r.LastResetYear = now.Year()
		res.Rollover = true
	}

	if r.Plan != PlanFree && r.ExpireTime != nil && r.ExpireTime.Before(now) {
		r.Plan = PlanFree
		r.ExpireTime = nil
		res.Demote = true
	}

	return res
}

// Allowance is the answer to a quota check.
type Allowance struct {
	Allowed bool         `json:"allowed"`
	Usage   *UsageRecord `json:"usage"`
}

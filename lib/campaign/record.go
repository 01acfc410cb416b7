package campaign

import (
	"encoding/json"
	"time"
)

type DataSource string

const (
	SourcePublicPage DataSource = "public_about_page"
	SourceMock       DataSource = "mock"
)

// Record is a snapshot of a creator's public campaign statistics. Every
// extracted field is optional since the page may only carry some of them.
type Record struct {
	PatronCount        *int              `json:"patron_count,omitempty"`
	PaidMemberCount    *int              `json:"paid_member_count,omitempty"`
	CreationCount      *int              `json:"creation_count,omitempty"`
	PledgeSumCents     *int              `json:"pledge_sum_cents,omitempty"`
	PledgeSum          *float64          `json:"pledge_sum,omitempty"`
	CampaignName       *string           `json:"campaign_name,omitempty"`
	Currency           *string           `json:"currency,omitempty"`
	EarningsVisibility *string           `json:"earnings_visibility,omitempty"`
	Goals              []json.RawMessage `json:"goals,omitempty"`
	AvatarUrl          *string           `json:"avatar_url,omitempty"`
	CoverPhotoUrl      *string           `json:"cover_photo_url,omitempty"`
	IsMonthly          *bool             `json:"is_monthly,omitempty"`
	ExtractedAt        time.Time         `json:"-"`
	DataSource         DataSource        `json:"data_source"`
}

type recordJSON Record

// MarshalJSON writes extracted_at as unix seconds.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		recordJSON
		ExtractedAt int64 `json:"extracted_at"`
	}{
		recordJSON:  recordJSON(r),
		ExtractedAt: r.ExtractedAt.Unix(),
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var decoded struct {
		recordJSON
		ExtractedAt int64 `json:"extracted_at"`
	}
	err := json.Unmarshal(data, &decoded)
	if err != nil {
		return err
	}
	*r = Record(decoded.recordJSON)
	r.ExtractedAt = time.Unix(decoded.ExtractedAt, 0)
	return nil
}

// SetPledgeSumCents sets both the cents value and its decimal currency form.
func (r *Record) SetPledgeSumCents(cents int) {
	r.PledgeSumCents = &cents
	sum := float64(cents) / 100
	r.PledgeSum = &sum
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func (r Record) Patrons() int {
	return intOr(r.PatronCount, 0)
}

func (r Record) PaidMembers() int {
	return intOr(r.PaidMemberCount, 0)
}

func (r Record) Creations() int {
	return intOr(r.CreationCount, 0)
}

// Income is the pledge sum in decimal currency units, 0 when hidden.
func (r Record) Income() float64 {
	if r.PledgeSum == nil {
		return 0
	}
	return *r.PledgeSum
}

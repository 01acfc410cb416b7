package patreon

import (
	"fmt"
	"hash/crc32"
	"time"

	"goalietron/lib/campaign"
)

func usernameHash(username string) uint32 {
	return crc32.ChecksumIEEE([]byte(username))
}

// mockRecord synthesizes campaign data for offline mode, the same username
// always yields the same statistics.
func mockRecord(username string, now time.Time) campaign.Record {
	base := int(usernameHash(username) % 100)

	patrons := 100 + base
	members := 50 + base%50
	posts := 25 + base%75
	name := fmt.Sprintf("Mock Campaign (%s)", username)
	currency := "USD"
	visibility := "public"
	monthly := true

	record := campaign.Record{
		PatronCount:        &patrons,
		PaidMemberCount:    &members,
		CreationCount:      &posts,
		CampaignName:       &name,
		Currency:           &currency,
		EarningsVisibility: &visibility,
		IsMonthly:          &monthly,
		ExtractedAt:        now,
		DataSource:         campaign.SourceMock,
	}
	record.SetPledgeSumCents((500 + base*10) * 100)
	return record
}

func mockUserId(username string) int64 {
	return 1_000_000 + int64(usernameHash(username)%9_000_000)
}

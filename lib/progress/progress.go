package progress

import (
	"math"
	"time"

	"goalietron/lib/campaign"
	"goalietron/lib/goalstore"
)

type GoalProgress struct {
	GoalId                string             `json:"goal_id"`
	Title                 string             `json:"title"`
	Type                  goalstore.GoalType `json:"type"`
	Target                float64            `json:"target"`
	Current               float64            `json:"current"`
	Percentage            float64            `json:"progress_percentage"`
	Completed             bool               `json:"completed"`
	CampaignDataTimestamp time.Time          `json:"campaign_data_timestamp"`
}

// CurrentValue picks the statistic a goal of `goalType` is measured against,
// missing statistics count as 0.
func CurrentValue(goalType goalstore.GoalType, record campaign.Record) float64 {
	switch goalType {
	case goalstore.TypePatrons:
		return float64(record.Patrons())
	case goalstore.TypeMembers:
		return float64(record.PaidMembers())
	case goalstore.TypePosts:
		return float64(record.Creations())
	case goalstore.TypeIncome:
		return record.Income()
	}
	return 0
}

// Percentage is current/target as a percentage rounded to 2 decimals and
// capped at 100, a non-positive target yields 0.
func Percentage(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	percentage := math.Round(current/target*100*100) / 100
	return math.Min(100, percentage)
}

func Compute(goal goalstore.Goal, record campaign.Record) GoalProgress {
	current := CurrentValue(goal.Type, record)
	percentage := Percentage(current, goal.Target)
	return GoalProgress{
		GoalId:                goal.Id,
		Title:                 goal.Title,
		Type:                  goal.Type,
		Target:                goal.Target,
		Current:               current,
		Percentage:            percentage,
		Completed:             percentage >= 100,
		CampaignDataTimestamp: record.ExtractedAt,
	}
}

func ComputeAll(goals map[string]goalstore.Goal, record campaign.Record) map[string]GoalProgress {
	out := make(map[string]GoalProgress, len(goals))
	for id, goal := range goals {
		out[id] = Compute(goal, record)
	}
	return out
}

package patreon

import (
	"context"
	"encoding/json"
	"fmt"

	"goalietron/lib/campaign"
	"goalietron/lib/goalstore"
	"goalietron/lib/progress"
)

type CampaignWithGoals struct {
	campaign.Record
	CustomGoals    map[string]progress.GoalProgress `json:"custom_goals"`
	HasCustomGoals bool                             `json:"has_custom_goals"`
}

// MarshalJSON flattens the record next to the goal fields, the embedded
// record's own MarshalJSON would otherwise swallow them.
func (c CampaignWithGoals) MarshalJSON() ([]byte, error) {
	record, err := c.Record.MarshalJSON()
	if err != nil {
		return nil, err
	}
	goals, err := json.Marshal(struct {
		CustomGoals    map[string]progress.GoalProgress `json:"custom_goals"`
		HasCustomGoals bool                             `json:"has_custom_goals"`
	}{c.CustomGoals, c.HasCustomGoals})
	if err != nil {
		return nil, err
	}
	// both are non-empty json objects
	merged := append(record[:len(record)-1], ',')
	return append(merged, goals[1:]...), nil
}

// CampaignDataWithGoals returns the campaign data of `username` together with
// the progress of every custom goal against it.
func (c *Client) CampaignDataWithGoals(ctx context.Context, username string, useCache bool) (CampaignWithGoals, error) {
	ctx, span := tracer.Start(ctx, "CampaignDataWithGoals")
	defer span.End()

	record, err := c.PublicCampaignData(ctx, username, useCache)
	if err != nil {
		return CampaignWithGoals{}, err
	}
	goals := progress.ComputeAll(c.goals.List(), record)
	return CampaignWithGoals{
		Record:         record,
		CustomGoals:    goals,
		HasCustomGoals: len(goals) > 0,
	}, nil
}

// GoalProgress computes the progress of a single custom goal.
func (c *Client) GoalProgress(ctx context.Context, username, goalId string, useCache bool) (progress.GoalProgress, error) {
	ctx, span := tracer.Start(ctx, "GoalProgress")
	defer span.End()

	goal, ok := c.goals.Get(goalId)
	if !ok {
		return progress.GoalProgress{}, fmt.Errorf("%w: %s", ErrGoalNotFound, goalId)
	}
	record, err := c.PublicCampaignData(ctx, username, useCache)
	if err != nil {
		return progress.GoalProgress{}, err
	}
	return progress.Compute(goal, record), nil
}

func (c *Client) CreateCustomGoal(id string, goalType goalstore.GoalType, target float64, title string) error {
	return c.goals.Create(id, goalType, target, title)
}

func (c *Client) RemoveCustomGoal(id string) bool {
	return c.goals.Remove(id)
}

func (c *Client) CustomGoals() map[string]goalstore.Goal {
	return c.goals.List()
}

func (c *Client) LoadCustomGoalsFromFile(path string) (goalstore.LoadResult, error) {
	return c.goals.LoadFromFile(path)
}

func (c *Client) SaveCustomGoalsToFile(path string) error {
	return c.goals.SaveToFile(path)
}

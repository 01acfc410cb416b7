package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"goalietron/lib/campaign"
	"goalietron/lib/chrono"
	"goalietron/lib/goalstore"
	"goalietron/lib/patreon"
	"goalietron/lib/progress"
	"goalietron/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	err          error
	userIdCalls  int
	lastUseCache bool
	lastGoalId   string
	lastUsername string
	goals        map[string]goalstore.Goal
}

func (f *fakeClient) PublicCampaignData(ctx context.Context, username string, useCache bool) (campaign.Record, error) {
	f.lastUsername = username
	f.lastUseCache = useCache
	if f.err != nil {
		return campaign.Record{}, f.err
	}
	patrons := 42
	return campaign.Record{PatronCount: &patrons, ExtractedAt: time.Unix(100, 0), DataSource: campaign.SourcePublicPage}, nil
}

func (f *fakeClient) CampaignDataWithGoals(ctx context.Context, username string, useCache bool) (patreon.CampaignWithGoals, error) {
	record, err := f.PublicCampaignData(ctx, username, useCache)
	if err != nil {
		return patreon.CampaignWithGoals{}, err
	}
	goals := progress.ComputeAll(f.goals, record)
	return patreon.CampaignWithGoals{Record: record, CustomGoals: goals, HasCustomGoals: len(goals) > 0}, nil
}

func (f *fakeClient) GoalProgress(ctx context.Context, username, goalId string, useCache bool) (progress.GoalProgress, error) {
	f.lastGoalId = goalId
	goal, ok := f.goals[goalId]
	if !ok {
		return progress.GoalProgress{}, fmt.Errorf("%w: %s", patreon.ErrGoalNotFound, goalId)
	}
	record, err := f.PublicCampaignData(ctx, username, useCache)
	if err != nil {
		return progress.GoalProgress{}, err
	}
	return progress.Compute(goal, record), nil
}

func (f *fakeClient) UserIdFromUsername(ctx context.Context, username string) (int64, error) {
	f.userIdCalls++
	if f.err != nil {
		return 0, f.err
	}
	return 12345, nil
}

func (f *fakeClient) CustomGoals() map[string]goalstore.Goal {
	return f.goals
}

func get(t *testing.T, handler http.Handler, path string, out any) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil {
		err := json.Unmarshal(rec.Body.Bytes(), out)
		require.NoError(t, err, rec.Body.String())
	}
	return rec.Code
}

func TestGetCampaign(t *testing.T) {
	client := &fakeClient{}
	handler := NewServer(client).Handler()

	var fields map[string]any
	status := get(t, handler, "/v1/campaigns/alice", &fields)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, float64(42), fields["patron_count"])
	require.Equal(t, float64(100), fields["extracted_at"])
	require.Equal(t, "alice", client.lastUsername)
	require.True(t, client.lastUseCache)

	get(t, handler, "/v1/campaigns/alice?cache=false", nil)
	require.False(t, client.lastUseCache)
}

func TestErrorStatus(t *testing.T) {
	testCases := []struct {
		err    error
		expect int
	}{
		{err: patreon.ErrEmptyUsername, expect: http.StatusBadRequest},
		{err: fmt.Errorf("%w: 503", patreon.ErrFetchFailed), expect: http.StatusBadGateway},
		{err: campaign.ErrNoCampaignData, expect: http.StatusBadGateway},
		{err: patreon.ErrCreatorIdNotFound, expect: http.StatusNotFound},
		{err: fmt.Errorf("disk on fire"), expect: http.StatusInternalServerError},
	}

	for _, test := range testCases {
		handler := NewServer(&fakeClient{err: test.err}).Handler()
		var res errorResponse
		status := get(t, handler, "/v1/campaigns/alice", &res)
		require.Equal(t, test.expect, status)
		require.Equal(t, test.err.Error(), res.Error)
		require.NotEmpty(t, res.RequestId)
	}
}

func TestRequestId(t *testing.T) {
	handler := NewServer(&fakeClient{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/goals", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))

	req = httptest.NewRequest(http.MethodGet, "/v1/goals", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Len(t, rec.Header().Get("X-Request-Id"), 36)

	var res errorResponse
	status := get(t, NewServer(&fakeClient{err: patreon.ErrEmptyUsername}).Handler(), "/v1/campaigns/alice", &res)
	require.Equal(t, http.StatusBadRequest, status)
	require.Len(t, res.RequestId, 36)
}

func TestGetCampaignGoals(t *testing.T) {
	client := &fakeClient{goals: map[string]goalstore.Goal{
		"patrons-100": {Id: "patrons-100", Type: goalstore.TypePatrons, Target: 100, Title: "100 patrons"},
	}}
	handler := NewServer(client).Handler()

	var res struct {
		PatronCount    int                              `json:"patron_count"`
		CustomGoals    map[string]progress.GoalProgress `json:"custom_goals"`
		HasCustomGoals bool                             `json:"has_custom_goals"`
	}
	status := get(t, handler, "/v1/campaigns/alice/goals", &res)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 42, res.PatronCount)
	require.True(t, res.HasCustomGoals)
	require.Equal(t, float64(42), res.CustomGoals["patrons-100"].Percentage)
	require.False(t, res.CustomGoals["patrons-100"].Completed)

	var single progress.GoalProgress
	status = get(t, handler, "/v1/campaigns/alice/goals/patrons-100", &single)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "patrons-100", single.GoalId)

	var missing errorResponse
	status = get(t, handler, "/v1/campaigns/alice/goals/unknown", &missing)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "unknown", client.lastGoalId)

	var goals map[string]goalstore.Goal
	status = get(t, handler, "/v1/goals", &goals)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, goals, "patrons-100")
}

func TestCreatorIdIsMemoized(t *testing.T) {
	client := &fakeClient{}
	handler := NewServer(client).Handler()

	for _, path := range []string{"/v1/creators/alice/id", "/v1/creators/@alice/id", "/v1/creators/alice/id"} {
		var res creatorIdResponse
		status := get(t, handler, path, &res)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, creatorIdResponse{Username: "alice", UserId: 12345}, res)
	}
	require.Equal(t, 1, client.userIdCalls)

	failing := &fakeClient{err: patreon.ErrCreatorIdNotFound}
	handler = NewServer(failing).Handler()
	for i := 0; i < 2; i++ {
		status := get(t, handler, "/v1/creators/nobody/id", nil)
		require.Equal(t, http.StatusNotFound, status)
	}
	require.Equal(t, 2, failing.userIdCalls)
}

func TestOfflineClient(t *testing.T) {
	opts := patreon.DefaultOptions()
	opts.Offline = true
	opts.Clock = chrono.NewFixedImpl(time.Unix(1700000000, 0))
	opts.Tel = telemetry.NewRecordingAPI()
	client, err := patreon.NewClient(opts)
	require.NoError(t, err)
	defer client.Close()

	handler := NewServer(client).Handler()

	var record campaign.Record
	status := get(t, handler, "/v1/campaigns/alice", &record)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, campaign.SourceMock, record.DataSource)
	require.Equal(t, "Mock Campaign (alice)", *record.CampaignName)

	var res creatorIdResponse
	status = get(t, handler, "/v1/creators/alice/id", &res)
	require.Equal(t, http.StatusOK, status)
	require.GreaterOrEqual(t, res.UserId, int64(1_000_000))
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"goalietron/lib/campaign"
	"goalietron/lib/goalstore"
	"goalietron/lib/patreon"
	"goalietron/lib/progress"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("goalietron.cmd.server")

// DataClient is the part of patreon.Client the server reads from.
type DataClient interface {
	PublicCampaignData(ctx context.Context, username string, useCache bool) (campaign.Record, error)
	CampaignDataWithGoals(ctx context.Context, username string, useCache bool) (patreon.CampaignWithGoals, error)
	GoalProgress(ctx context.Context, username, goalId string, useCache bool) (progress.GoalProgress, error)
	UserIdFromUsername(ctx context.Context, username string) (int64, error)
	CustomGoals() map[string]goalstore.Goal
}

type Server struct {
	client DataClient
	// username -> creator id, kept for a day
	creatorIds *expirable.LRU[string, int64]
}

func NewServer(client DataClient) Server {
	return Server{
		client:     client,
		creatorIds: expirable.NewLRU[string, int64](1024, nil, time.Hour*24),
	}
}

func (s Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/campaigns/{username}", s.getCampaign)
	mux.HandleFunc("GET /v1/campaigns/{username}/goals", s.getCampaignGoals)
	mux.HandleFunc("GET /v1/campaigns/{username}/goals/{goal}", s.getCampaignGoal)
	mux.HandleFunc("GET /v1/creators/{username}/id", s.getCreatorId)
	mux.HandleFunc("GET /v1/goals", s.getGoals)
	return withRequestId(mux)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestId string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, patreon.ErrEmptyUsername):
		return http.StatusBadRequest
	case errors.Is(err, patreon.ErrCreatorIdNotFound),
		errors.Is(err, patreon.ErrGoalNotFound):
		return http.StatusNotFound
	case errors.Is(err, patreon.ErrFetchFailed),
		errors.Is(err, campaign.ErrNoCampaignData):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, statusOf(err), errorResponse{
		Error:     err.Error(),
		RequestId: requestIdFromContext(r.Context()),
	})
}

// useCache is true unless the request asks for fresh data with ?cache=false.
func useCache(r *http.Request) bool {
	value := r.URL.Query().Get("cache")
	if value == "" {
		return true
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return true
	}
	return parsed
}

func (s Server) getCampaign(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "getCampaign")
	defer span.End()

	record, err := s.client.PublicCampaignData(ctx, r.PathValue("username"), useCache(r))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get campaign data")
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s Server) getCampaignGoals(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "getCampaignGoals")
	defer span.End()

	data, err := s.client.CampaignDataWithGoals(ctx, r.PathValue("username"), useCache(r))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get campaign data with goals")
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s Server) getCampaignGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "getCampaignGoal")
	defer span.End()

	res, err := s.client.GoalProgress(ctx, r.PathValue("username"), r.PathValue("goal"), useCache(r))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get goal progress")
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type creatorIdResponse struct {
	Username string `json:"username"`
	UserId   int64  `json:"user_id"`
}

func (s Server) getCreatorId(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "getCreatorId")
	defer span.End()

	username := strings.TrimLeft(r.PathValue("username"), "@")
	id, ok := s.creatorIds.Get(username)
	if !ok {
		var err error
		id, err = s.client.UserIdFromUsername(ctx, username)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to resolve creator id")
			writeError(w, r, err)
			return
		}
		s.creatorIds.Add(username, id)
	}
	writeJSON(w, http.StatusOK, creatorIdResponse{Username: username, UserId: id})
}

func (s Server) getGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.client.CustomGoals())
}

package patreon

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const creatorIdMarker = `"creator_id": `

// parseCreatorId finds the first creator id embedded in a profile page.
func parseCreatorId(html string) (int64, bool) {
	start := strings.Index(html, creatorIdMarker)
	if start < 0 {
		return 0, false
	}
	rest := html[start+len(creatorIdMarker):]

	end := strings.IndexAny(rest, "\n}")
	if end < 0 {
		return 0, false
	}
	token := strings.TrimRight(strings.TrimSpace(rest[:end]), ",")
	token = strings.TrimSpace(token)

	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// UserIdFromUsername resolves the numeric creator id behind `username` from
// their profile page.
func (c *Client) UserIdFromUsername(ctx context.Context, username string) (int64, error) {
	ctx, span := tracer.Start(ctx, "UserIdFromUsername")
	defer span.End()

	username, err := normalizeUsername(username)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.String("custom.username", username))

	if c.IsOfflineMode() {
		return mockUserId(username), nil
	}

	html, err := c.fetchPage(ctx, c.pageUrl(username))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch profile page")
		return 0, err
	}

	id, ok := parseCreatorId(html)
	if !ok {
		c.tel.ReportWarning(report_client_user_id, ErrCreatorIdNotFound, username)
		span.SetStatus(codes.Error, ErrCreatorIdNotFound.Error())
		return 0, ErrCreatorIdNotFound
	}
	return id, nil
}

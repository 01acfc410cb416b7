package patreon

import (
	"context"
	"errors"
	"fmt"

	"goalietron/lib/campaign"
	"goalietron/lib/campaigncache"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// PublicCampaignData returns the campaign statistics of `username`. A fresh
// cached record is returned directly when `useCache` is set. Otherwise the
// about page is fetched and extracted, and if that fails whatever is cached
// for the user is served instead, however old.
func (c *Client) PublicCampaignData(ctx context.Context, username string, useCache bool) (campaign.Record, error) {
	ctx, span := tracer.Start(ctx, "PublicCampaignData")
	defer span.End()

	username, err := normalizeUsername(username)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return campaign.Record{}, err
	}
	key := cacheKey(username)
	span.SetAttributes(
		attribute.String("custom.username", username),
		attribute.Bool("custom.use_cache", useCache),
	)

	if useCache {
		entry, err := c.cache.Get(ctx, key)
		if err == nil && c.cache.IsFresh(entry, c.CacheTimeout()) {
			cacheHits.Add(ctx, 1)
			c.tel.ReportDebug("cache hit", key)
			return entry.Value, nil
		}
		if err != nil && !errors.Is(err, campaigncache.ErrNotFound) {
			c.tel.ReportBroken(report_client_cache_read, err, key)
		}
		cacheMisses.Add(ctx, 1)
	}

	var record campaign.Record
	if c.IsOfflineMode() {
		record = mockRecord(username, c.clock.Now())
	} else {
		record, err = c.fetchCampaign(ctx, username)
		if err != nil {
			span.RecordError(err)
			return c.staleFallback(ctx, key, err)
		}
	}

	err = c.cache.Put(ctx, key, record)
	if err != nil {
		c.tel.ReportBroken(report_client_cache_write, err, key)
	}
	return record, nil
}

func (c *Client) fetchCampaign(ctx context.Context, username string) (campaign.Record, error) {
	html, err := c.fetchPage(ctx, c.pageUrl(username, "about"))
	if err != nil {
		return campaign.Record{}, err
	}
	record, err := campaign.Extract(html, c.clock.Now())
	if err != nil {
		c.tel.ReportBroken(report_client_extract, err, username)
		return campaign.Record{}, err
	}
	return record, nil
}

// fetchPage GETs `link` within the fetch timeout, any non-2xx status is a
// failure.
func (c *Client) fetchPage(ctx context.Context, link string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.FetchTimeout())
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		fetchFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "transport")))
		c.tel.ReportBroken(report_client_fetch_page, err, link)
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if !res.IsSuccess() {
		fetchFailures.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", res.StatusCode())))
		err := fmt.Errorf("%w: %s returned %s", ErrFetchFailed, link, res.Status())
		c.tel.ReportBroken(report_client_fetch_page, err)
		return "", err
	}
	return res.String(), nil
}

func (c *Client) staleFallback(ctx context.Context, key string, cause error) (campaign.Record, error) {
	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		return campaign.Record{}, cause
	}
	staleFallbacks.Add(ctx, 1)
	c.tel.ReportWarning(report_client_stale_fallback, key, entry.Timestamp, cause)
	return entry.Value, nil
}

// ClearCache forgets the cached campaign data of `username`.
func (c *Client) ClearCache(ctx context.Context, username string) error {
	username, err := normalizeUsername(username)
	if err != nil {
		return err
	}
	return c.cache.Clear(ctx, cacheKey(username))
}

func (c *Client) ClearAllCache(ctx context.Context) error {
	return c.cache.ClearAll(ctx)
}

func (c *Client) CacheInfo(ctx context.Context) ([]campaigncache.EntryInfo, error) {
	return c.cache.Info(ctx, c.CacheTimeout())
}

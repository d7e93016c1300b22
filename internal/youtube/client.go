// Package youtube collects channel and video metadata from the YouTube Data
// API with per-channel and per-video checkpointing.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

const (
	// RateLimit caps request frequency against the Data API. Quota is the
	// real bound; this just keeps bursts polite.
	RateLimit = 5.0

	// searchPageSize is the page size for upload listing.
	searchPageSize = 25
)

// channelParts are the response parts requested for channel statistics.
var channelParts = []string{
	"snippet", "brandingSettings", "contentDetails", "statistics", "topicDetails", "status",
}

// videoParts are the response parts requested for video details.
var videoParts = []string{
	"contentDetails", "id", "liveStreamingDetails", "localizations",
	"player", "recordingDetails", "snippet", "statistics",
	"status", "topicDetails",
}

// API is the slice of the YouTube Data API the collector consumes. Raw
// responses are kept as JSON so the aggregate checkpoint preserves
// everything the API returned.
type API interface {
	// ChannelStatistics fetches channel-level aggregate data.
	ChannelStatistics(ctx context.Context, channelID string) (json.RawMessage, error)

	// ChannelUploads lists the channel's video IDs, newest first.
	ChannelUploads(ctx context.Context, channelID string) ([]string, error)

	// Video fetches full metadata for one video.
	Video(ctx context.Context, videoID string) (json.RawMessage, error)
}

// Client is a rate-limited YouTube Data API client bound to one credential.
type Client struct {
	svc     *youtubeapi.Service
	limiter *rate.Limiter
}

// NewClient creates a client authenticated with the given API key.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	svc, err := youtubeapi.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(RateLimit), 1),
	}, nil
}

// ChannelStatistics fetches channel-level statistics and returns the raw
// API response.
func (c *Client) ChannelStatistics(ctx context.Context, channelID string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.svc.Channels.List(channelParts).Id(channelID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching statistics for channel %s: %w", channelID, err)
	}

	return json.Marshal(resp)
}

// ChannelUploads pages through the channel's uploads in reverse
// chronological order and returns the video IDs. A channel with no videos
// returns an empty list, not an error.
func (c *Client) ChannelUploads(ctx context.Context, channelID string) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := c.svc.Search.List([]string{"snippet", "id"}).
			ChannelId(channelID).
			Order("date").
			MaxResults(searchPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing uploads for channel %s: %w", channelID, err)
		}

		for _, item := range resp.Items {
			if item.Id != nil && item.Id.Kind == "youtube#video" {
				ids = append(ids, item.Id.VideoId)
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return ids, nil
}

// Video fetches full metadata for one video and returns the raw API
// response.
func (c *Client) Video(ctx context.Context, videoID string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.svc.Videos.List(videoParts).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching video %s: %w", videoID, err)
	}

	return json.Marshal(resp)
}

// VideoCategories fetches the category id → name lookup for a region.
func (c *Client) VideoCategories(ctx context.Context, regionCode string) (map[string]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.svc.VideoCategories.List([]string{"snippet"}).RegionCode(regionCode).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching video categories for %s: %w", regionCode, err)
	}

	categories := make(map[string]string, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet != nil {
			categories[item.Id] = item.Snippet.Title
		}
	}
	return categories, nil
}

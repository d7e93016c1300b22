package flatten

import (
	"encoding/json"
	"fmt"
	"sort"

	youtubeapi "google.golang.org/api/youtube/v3"

	"github.com/qgr-lab/qgr/internal/youtube"
)

// BuildTables flattens the aggregate collection data into channel and video
// tables. Channels are emitted in channel-ID order so identical input always
// produces identical tables; duplicate video IDs keep the first occurrence.
// Rows whose raw responses are missing the expected items are skipped with a
// diagnostic; the inputs are never mutated.
func BuildTables(data map[string]*youtube.ChannelData, trending map[string][]TrendingVideo, categories map[string]string) (channels []ChannelRow, videos []VideoRow, diags []string) {
	seenVideo := make(map[string]bool)

	channelIDs := make([]string, 0, len(data))
	for id := range data {
		channelIDs = append(channelIDs, id)
	}
	sort.Strings(channelIDs)

	for _, channelID := range channelIDs {
		channelData := data[channelID]

		row, err := channelRow(channelID, channelData.Statistics)
		if err != nil {
			diags = append(diags, fmt.Sprintf("channel %s: %v", channelID, err))
			continue
		}
		channels = append(channels, *row)

		for i, rawVideo := range channelData.Videos {
			vrow, err := videoRow(rawVideo, categories)
			if err != nil {
				diags = append(diags, fmt.Sprintf("channel %s video %d: %v", channelID, i, err))
				continue
			}
			if seenVideo[vrow.VideoID] {
				continue
			}
			seenVideo[vrow.VideoID] = true
			videos = append(videos, *vrow)
		}
	}

	applyTrending(channels, videos, trending)
	return channels, videos, diags
}

// channelRow extracts one channel table row from a raw statistics response.
func channelRow(channelID string, raw json.RawMessage) (*ChannelRow, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no statistics fetched")
	}

	var resp youtubeapi.ChannelListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parsing statistics response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("statistics response has no items")
	}

	info := resp.Items[0]
	row := &ChannelRow{ChannelID: channelID}

	if info.Snippet != nil {
		row.ChannelTitle = info.Snippet.Title
		row.Description = info.Snippet.Description
		row.PublishedAt = info.Snippet.PublishedAt
		row.Country = info.Snippet.Country
		row.CustomURL = info.Snippet.CustomUrl
	}
	if info.Statistics != nil {
		row.VideoCount = info.Statistics.VideoCount
		row.ViewCount = info.Statistics.ViewCount
		row.SubscriberCount = info.Statistics.SubscriberCount
	}
	if info.TopicDetails != nil {
		row.TopicCategories = info.TopicDetails.TopicCategories
	}
	if info.Status != nil {
		row.MadeForKids = info.Status.MadeForKids
	}
	if info.BrandingSettings != nil && info.BrandingSettings.Channel != nil {
		row.Keywords = info.BrandingSettings.Channel.Keywords
	}

	return row, nil
}

// videoRow extracts one video table row from a raw video response, joining
// the category-name lookup.
func videoRow(raw json.RawMessage, categories map[string]string) (*VideoRow, error) {
	var resp youtubeapi.VideoListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parsing video response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video response has no items")
	}

	info := resp.Items[0]
	row := &VideoRow{VideoID: info.Id}

	if info.Snippet != nil {
		row.Title = info.Snippet.Title
		row.Description = info.Snippet.Description
		row.PublishedAt = info.Snippet.PublishedAt
		row.ChannelID = info.Snippet.ChannelId
		row.CategoryID = info.Snippet.CategoryId
		row.Category = categories[info.Snippet.CategoryId]
		row.Tags = info.Snippet.Tags
		row.ChannelTitle = info.Snippet.ChannelTitle
		if info.Snippet.Thumbnails != nil && info.Snippet.Thumbnails.Default != nil {
			row.ThumbnailURL = info.Snippet.Thumbnails.Default.Url
		}
	}
	if info.Statistics != nil {
		row.ViewCount = info.Statistics.ViewCount
		row.LikeCount = info.Statistics.LikeCount
		row.CommentCount = info.Statistics.CommentCount
		row.FavoriteCount = info.Statistics.FavoriteCount
	}
	if info.ContentDetails != nil {
		row.Duration = info.ContentDetails.Duration
		row.Dimension = info.ContentDetails.Dimension
		row.Definition = info.ContentDetails.Definition
		row.Caption = info.ContentDetails.Caption
		row.LicensedContent = info.ContentDetails.LicensedContent
		row.Projection = info.ContentDetails.Projection
	}
	if info.Status != nil {
		row.UploadStatus = info.Status.UploadStatus
		row.PrivacyStatus = info.Status.PrivacyStatus
		row.License = info.Status.License
		row.Embeddable = info.Status.Embeddable
		row.PublicStatsViewable = info.Status.PublicStatsViewable
		row.MadeForKids = info.Status.MadeForKids
	}
	if info.TopicDetails != nil {
		row.TopicCategories = info.TopicDetails.TopicCategories
	}

	return row, nil
}

// applyTrending marks trending videos and counts them per channel.
func applyTrending(channels []ChannelRow, videos []VideoRow, trending map[string][]TrendingVideo) {
	if len(trending) == 0 {
		return
	}

	trendingVideos := make(map[string]bool)
	trendingPerChannel := make(map[string]int)
	for channelID, list := range trending {
		for _, tv := range list {
			trendingVideos[tv.VideoID] = true
		}
		trendingPerChannel[channelID] = len(list)
	}

	for i := range channels {
		if n, ok := trendingPerChannel[channels[i].ChannelID]; ok && n > 0 {
			channels[i].HasVideoTrending = true
			channels[i].NumberVideoTrending = n
		}
	}
	for i := range videos {
		if trendingVideos[videos[i].VideoID] {
			videos[i].IsTrending = true
		}
	}
}

package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qgr-lab/qgr/internal/checkpoint"
)

// Channel tracks one channel's fetch state in the channel checkpoint file.
// Lifecycle: created from a seed list, flags set as stages complete, never
// deleted.
type Channel struct {
	ChannelID         string `json:"channelID"`
	FetchedStatistics bool   `json:"fetched_statistics"`
	FetchedVideos     bool   `json:"fetched_videos"`
}

// VideoFlag tracks one video's fetch state in a per-channel checkpoint file.
type VideoFlag struct {
	VideoID      string `json:"videoId"`
	FetchedVideo bool   `json:"fetched_video"`
}

// ChannelData is the aggregate output for one channel: the raw statistics
// response and the raw per-video responses.
type ChannelData struct {
	Statistics json.RawMessage   `json:"statistics"`
	Videos     []json.RawMessage `json:"videos"`
}

// Options configure a collection run.
type Options struct {
	ChannelsPath string // channel checkpoint file (seed list with flags)
	DataPath     string // aggregate output JSON keyed by channelID
	VideoListDir string // directory of per-channel video checkpoints
	MaxChannels  int    // per-run channel bound; 0 = no bound
	Logf         func(format string, args ...any)
}

// Stats summarizes a collection run.
type Stats struct {
	ChannelsProcessed int `json:"channels_processed"`
	StatisticsFetched int `json:"statistics_fetched"`
	VideosFetched     int `json:"videos_fetched"`
}

// Collector advances channels through UNFETCHED → STATISTICS_FETCHED →
// VIDEOS_FETCHED, checkpointing after every fetch so a quota abort loses
// nothing.
type Collector struct {
	api  API
	opts Options
}

// NewCollector creates a collector over the given API.
func NewCollector(api API, opts Options) *Collector {
	if opts.Logf == nil {
		opts.Logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return &Collector{api: api, opts: opts}
}

// Run processes channels until the seed list or the per-run bound is
// exhausted. Quota exhaustion propagates out and ends the run; re-invoking
// with a fresh credential resumes from the checkpoints.
func (c *Collector) Run(ctx context.Context) (*Stats, error) {
	var channels []Channel
	ok, err := checkpoint.Load(c.opts.ChannelsPath, &channels)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("channel list %s not found (run 'qgr yt seed' first)", c.opts.ChannelsPath)
	}

	data := make(map[string]*ChannelData)
	if _, err := checkpoint.Load(c.opts.DataPath, &data); err != nil {
		return nil, err
	}

	stats := &Stats{}
	for i := range channels {
		if c.opts.MaxChannels > 0 && stats.ChannelsProcessed >= c.opts.MaxChannels {
			break
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ch := &channels[i]
		if ch.FetchedStatistics && ch.FetchedVideos {
			continue
		}

		if err := c.processChannel(ctx, ch, channels, data, stats); err != nil {
			return stats, err
		}
		stats.ChannelsProcessed++
	}

	return stats, nil
}

// processChannel advances one channel through its remaining stages.
func (c *Collector) processChannel(ctx context.Context, ch *Channel, channels []Channel, data map[string]*ChannelData, stats *Stats) error {
	if !ch.FetchedStatistics {
		raw, err := c.api.ChannelStatistics(ctx, ch.ChannelID)
		if err != nil {
			return err
		}

		entry := data[ch.ChannelID]
		if entry == nil {
			entry = &ChannelData{Videos: []json.RawMessage{}}
			data[ch.ChannelID] = entry
		}
		entry.Statistics = raw
		ch.FetchedStatistics = true

		if err := c.saveProgress(channels, data); err != nil {
			return err
		}
		stats.StatisticsFetched++
	}

	if !ch.FetchedVideos {
		if err := c.fetchVideos(ctx, ch, channels, data, stats); err != nil {
			return err
		}
	}

	return nil
}

// fetchVideos materializes the channel's video list checkpoint and fetches
// every still-unfetched video. A video-level failure other than quota
// exhaustion is logged and skipped; the channel stays short of
// VIDEOS_FETCHED so a later run retries it.
func (c *Collector) fetchVideos(ctx context.Context, ch *Channel, channels []Channel, data map[string]*ChannelData, stats *Stats) error {
	listPath := filepath.Join(c.opts.VideoListDir, ch.ChannelID+".json")

	var videos []VideoFlag
	ok, err := checkpoint.Load(listPath, &videos)
	if err != nil {
		return err
	}
	if !ok {
		ids, err := c.api.ChannelUploads(ctx, ch.ChannelID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			c.opts.Logf("no videos found for channel %s", ch.ChannelID)
		}
		videos = make([]VideoFlag, len(ids))
		for i, id := range ids {
			videos[i] = VideoFlag{VideoID: id}
		}
		if err := checkpoint.Save(listPath, videos); err != nil {
			return err
		}
	}

	entry := data[ch.ChannelID]
	if entry == nil {
		entry = &ChannelData{Videos: []json.RawMessage{}}
		data[ch.ChannelID] = entry
	}

	allFetched := true
	for i := range videos {
		v := &videos[i]
		if v.FetchedVideo {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := c.api.Video(ctx, v.VideoID)
		if err != nil {
			if IsQuotaExceeded(err) {
				return err
			}
			c.opts.Logf("failed to fetch video %s for channel %s: %v", v.VideoID, ch.ChannelID, err)
			allFetched = false
			continue
		}

		entry.Videos = append(entry.Videos, raw)
		v.FetchedVideo = true
		stats.VideosFetched++

		if err := checkpoint.Save(c.opts.DataPath, data); err != nil {
			return err
		}
		if err := checkpoint.Save(listPath, videos); err != nil {
			return err
		}
	}

	if allFetched {
		ch.FetchedVideos = true
		if err := checkpoint.Save(c.opts.ChannelsPath, channels); err != nil {
			return err
		}
	}

	return nil
}

// saveProgress persists the aggregate data and channel checkpoint together.
func (c *Collector) saveProgress(channels []Channel, data map[string]*ChannelData) error {
	if err := checkpoint.Save(c.opts.DataPath, data); err != nil {
		return err
	}
	return checkpoint.Save(c.opts.ChannelsPath, channels)
}

// SeedChannels appends new channel IDs to the checkpoint list. IDs already
// present keep their position and fetch flags; duplicates in ids are added
// once.
func SeedChannels(ids []string, existing []Channel) []Channel {
	known := make(map[string]bool, len(existing))
	for _, ch := range existing {
		known[ch.ChannelID] = true
	}

	out := append([]Channel(nil), existing...)
	for _, id := range ids {
		if known[id] {
			continue
		}
		known[id] = true
		out = append(out, Channel{ChannelID: id})
	}
	return out
}

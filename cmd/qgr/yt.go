package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/qgr-lab/qgr/internal/checkpoint"
	"github.com/qgr-lab/qgr/internal/config"
	"github.com/qgr-lab/qgr/internal/flatten"
	"github.com/qgr-lab/qgr/internal/youtube"
	"github.com/spf13/cobra"
)

var (
	ytSeedCSV      string
	ytFetchMax     int
	ytTrendingPath string
	ytRegionCode   string
	ytChannelsOut  string
	ytVideosOut    string
	ytTopOut       string
	ytSkipEnrich   bool
)

func init() {
	rootCmd.AddCommand(ytCmd)
	ytCmd.AddCommand(ytSeedCmd)
	ytCmd.AddCommand(ytFetchCmd)
	ytCmd.AddCommand(ytFlattenCmd)
	ytCmd.AddCommand(ytMergeCmd)
	ytCmd.AddCommand(ytTopCmd)

	ytSeedCmd.Flags().StringVar(&ytSeedCSV, "csv", "", "CSV file whose first column holds channel IDs")
	ytFetchCmd.Flags().IntVar(&ytFetchMax, "max", 0, "Process at most this many channels (0 = no bound)")
	ytFlattenCmd.Flags().StringVar(&ytTrendingPath, "trending", "", "JSON file of trending videos keyed by channel ID")
	ytFlattenCmd.Flags().StringVar(&ytRegionCode, "region", "", "Fetch category names for this region code (e.g. US)")
	ytFlattenCmd.Flags().StringVar(&ytChannelsOut, "channels-out", "channels.xlsx", "Channel table output path")
	ytFlattenCmd.Flags().StringVar(&ytVideosOut, "videos-out", "videos.xlsx", "Video table output path")
	ytFlattenCmd.Flags().BoolVar(&ytSkipEnrich, "skip-enrich", false, "Skip mean/std and ratio enrichment")
	ytTopCmd.Flags().StringVar(&ytTopOut, "out", "top_videos.xlsx", "Output path")
}

var ytCmd = &cobra.Command{
	Use:   "yt",
	Short: "Collect and flatten YouTube channel data",
	Long: `Collect YouTube channel statistics and video metadata through the
YouTube Data API, checkpointing every fetch so quota exhaustion never
loses work, then flatten the raw responses into xlsx tables.`,
}

// SeedResponse is the response for yt seed.
type SeedResponse struct {
	Status   string `json:"status"`
	Channels int    `json:"channels"`
	Added    int    `json:"added"`
}

var ytSeedCmd = &cobra.Command{
	Use:   "seed [channel-id...]",
	Short: "Seed the channel checkpoint with channel IDs",
	Long: `Add channel IDs to the channel checkpoint file. IDs already present
keep their fetch state. IDs can be given as arguments or read from the
first column of a CSV file with --csv.`,
	RunE: runYtSeed,
}

func runYtSeed(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()

	ids := args
	if ytSeedCSV != "" {
		csvIDs, err := readChannelCSV(ytSeedCSV)
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", ytSeedCSV, err)
		}
		ids = append(ids, csvIDs...)
	}
	if len(ids) == 0 {
		exitWithError(ExitError, "no channel IDs given (pass IDs or --csv)")
	}

	channelsPath := config.ChannelsPath(root)
	var existing []youtube.Channel
	if _, err := checkpoint.Load(channelsPath, &existing); err != nil {
		exitWithError(ExitDataError, "loading channel checkpoint: %v", err)
	}

	channels := youtube.SeedChannels(ids, existing)
	if err := checkpoint.Save(channelsPath, channels); err != nil {
		exitWithError(ExitError, "saving channel checkpoint: %v", err)
	}

	if humanOutput {
		fmt.Printf("Channel checkpoint has %d channels (%d added)\n", len(channels), len(channels)-len(existing))
	} else {
		outputJSON(SeedResponse{
			Status:   "seeded",
			Channels: len(channels),
			Added:    len(channels) - len(existing),
		})
	}
	return nil
}

// readChannelCSV reads channel IDs from the first column of a CSV file.
// A header cell named channelId (any case) is skipped.
func readChannelCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var ids []string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}
		id := strings.TrimSpace(record[0])
		if id == "" || strings.EqualFold(id, "channelId") {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var ytFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch channel statistics and video metadata",
	Long: `Fetch statistics and video metadata for every seeded channel.

Every fetch is checkpointed, so an interrupted run resumes where it left
off. When an API key exhausts its quota the run continues with the next
configured key; when all keys are exhausted the run stops with the
checkpoints intact.`,
	RunE: runYtFetch,
}

func runYtFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()

	godotenv.Load()
	keys := config.GetYouTubeAPIKeys()
	if len(keys) == 0 {
		exitWithError(ExitConfigError, "no YouTube API key configured\n\nSet youtube_api_keys in %s or the YOUTUBE_API_KEY environment variable.", config.GlobalConfigPath())
	}

	opts := youtube.Options{
		ChannelsPath: config.ChannelsPath(root),
		DataPath:     config.APIDataPath(root),
		VideoListDir: config.VideoListPath(root),
		MaxChannels:  ytFetchMax,
	}

	total := &youtube.Stats{}
	for i, key := range keys {
		client, err := youtube.NewClient(ctx, key)
		if err != nil {
			exitWithError(ExitError, "creating YouTube client: %v", err)
		}

		stats, err := youtube.NewCollector(client, opts).Run(ctx)
		if stats != nil {
			total.ChannelsProcessed += stats.ChannelsProcessed
			total.StatisticsFetched += stats.StatisticsFetched
			total.VideosFetched += stats.VideosFetched
		}
		if err == nil {
			break
		}
		if !youtube.IsQuotaExceeded(err) {
			exitWithError(ExitError, "fetching: %v", err)
		}
		if i == len(keys)-1 {
			if humanOutput {
				fmt.Fprintln(os.Stderr, "All API keys exhausted their quota; progress is checkpointed.")
			} else {
				outputJSON(map[string]any{"error": "quota exhausted on all keys", "stats": total})
			}
			os.Exit(ExitQuotaError)
		}
		fmt.Fprintf(os.Stderr, "API key %d exhausted its quota, rotating to the next key\n", i+1)
	}

	if humanOutput {
		fmt.Printf("Processed %d channels: %d statistics, %d videos fetched\n",
			total.ChannelsProcessed, total.StatisticsFetched, total.VideosFetched)
	} else {
		outputJSON(total)
	}
	return nil
}

// FlattenResponse is the response for yt flatten.
type FlattenResponse struct {
	Status      string   `json:"status"`
	Channels    int      `json:"channels"`
	Videos      int      `json:"videos"`
	ChannelsOut string   `json:"channels_out"`
	VideosOut   string   `json:"videos_out"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

var ytFlattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Flatten collected data into xlsx tables",
	Long: `Flatten the collected raw API responses into a channel table and a
video table, enrich them with per-channel mean/std statistics and
per-video count-to-average ratios, and write both as xlsx workbooks.

A trending-video file joins trending flags onto both tables. With
--region the video category names for that region are fetched from the
API and joined onto the video table.`,
	RunE: runYtFlatten,
}

func runYtFlatten(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()

	var data map[string]*youtube.ChannelData
	ok, err := checkpoint.Load(config.APIDataPath(root), &data)
	if err != nil {
		exitWithError(ExitDataError, "loading collected data: %v", err)
	}
	if !ok || len(data) == 0 {
		exitWithError(ExitDataError, "no collected data found; run 'qgr yt fetch' first")
	}

	var trending map[string][]flatten.TrendingVideo
	if ytTrendingPath != "" {
		if _, err := checkpoint.Load(ytTrendingPath, &trending); err != nil {
			exitWithError(ExitDataError, "loading trending videos: %v", err)
		}
	}

	var categories map[string]string
	if ytRegionCode != "" {
		categories = fetchCategories(ctx, ytRegionCode)
	}

	channels, videos, diags := flatten.BuildTables(data, trending, categories)
	if !ytSkipEnrich {
		channels, videos = flatten.Enrich(channels, videos)
	}

	if err := flatten.WriteChannelTable(ytChannelsOut, channels); err != nil {
		exitWithError(ExitError, "writing channel table: %v", err)
	}
	if err := flatten.WriteVideoTable(ytVideosOut, videos); err != nil {
		exitWithError(ExitError, "writing video table: %v", err)
	}

	if humanOutput {
		fmt.Printf("Wrote %d channels to %s and %d videos to %s\n",
			len(channels), ytChannelsOut, len(videos), ytVideosOut)
		for _, d := range diags {
			fmt.Printf("  %s\n", d)
		}
	} else {
		outputJSON(FlattenResponse{
			Status:      "flattened",
			Channels:    len(channels),
			Videos:      len(videos),
			ChannelsOut: ytChannelsOut,
			VideosOut:   ytVideosOut,
			Diagnostics: diags,
		})
	}
	return nil
}

// fetchCategories fetches video category names, rotating keys on quota
// exhaustion. Missing keys or API failures degrade to numeric category IDs.
func fetchCategories(ctx context.Context, region string) map[string]string {
	godotenv.Load()
	for _, key := range config.GetYouTubeAPIKeys() {
		client, err := youtube.NewClient(ctx, key)
		if err != nil {
			continue
		}
		categories, err := client.VideoCategories(ctx, region)
		if err == nil {
			return categories
		}
		if !youtube.IsQuotaExceeded(err) {
			fmt.Fprintf(os.Stderr, "fetching categories: %v\n", err)
			return nil
		}
	}
	return nil
}

var ytMergeCmd = &cobra.Command{
	Use:   "merge <first.xlsx> <second.xlsx> <out.xlsx>",
	Short: "Merge two xlsx tables with the same columns",
	Args:  cobra.ExactArgs(3),
	RunE:  runYtMerge,
}

func runYtMerge(cmd *cobra.Command, args []string) error {
	if err := flatten.MergeTables(args[0], args[1], args[2]); err != nil {
		exitWithError(ExitError, "merging: %v", err)
	}

	if humanOutput {
		fmt.Printf("Merged %s and %s into %s\n", args[0], args[1], args[2])
	} else {
		outputJSON(StatusResponse{Status: "merged", Path: args[2]})
	}
	return nil
}

// TopResponse is the response for yt top.
type TopResponse struct {
	Status     string `json:"status"`
	PerChannel int    `json:"per_channel"`
	Videos     int    `json:"videos"`
	Path       string `json:"path"`
}

var ytTopCmd = &cobra.Command{
	Use:   "top <n>",
	Short: "Write the n most-viewed videos per channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runYtTop,
}

func runYtTop(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()

	var n int
	if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n <= 0 {
		exitWithError(ExitError, "invalid count: %s", args[0])
	}

	var data map[string]*youtube.ChannelData
	ok, err := checkpoint.Load(config.APIDataPath(root), &data)
	if err != nil {
		exitWithError(ExitDataError, "loading collected data: %v", err)
	}
	if !ok || len(data) == 0 {
		exitWithError(ExitDataError, "no collected data found; run 'qgr yt fetch' first")
	}

	_, videos, _ := flatten.BuildTables(data, nil, nil)
	top := flatten.TopVideos(videos, n)

	if err := flatten.WriteVideoTable(ytTopOut, top); err != nil {
		exitWithError(ExitError, "writing top videos: %v", err)
	}

	if humanOutput {
		fmt.Printf("Wrote top %d videos per channel (%d rows) to %s\n", n, len(top), ytTopOut)
	} else {
		outputJSON(TopResponse{Status: "written", PerChannel: n, Videos: len(top), Path: ytTopOut})
	}
	return nil
}

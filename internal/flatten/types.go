// Package flatten turns the collector's nested per-channel JSON into flat
// channel and video tables, joins trending and category lookups, and derives
// per-channel aggregate statistics and per-video engagement ratios.
package flatten

// ChannelRow is one row of the channel table.
type ChannelRow struct {
	ChannelID           string
	ChannelTitle        string
	Description         string
	PublishedAt         string
	VideoCount          uint64
	ViewCount           uint64
	SubscriberCount     uint64
	Country             string
	CustomURL           string
	TopicCategories     []string
	MadeForKids         bool
	Keywords            string
	HasVideoTrending    bool
	NumberVideoTrending int

	// Enrichment: per-channel mean and standard deviation of the video
	// counts, populated by Enrich.
	ViewCountMean     float64
	ViewCountStd      float64
	LikeCountMean     float64
	LikeCountStd      float64
	CommentCountMean  float64
	CommentCountStd   float64
	FavoriteCountMean float64
	FavoriteCountStd  float64
}

// VideoRow is one row of the video table.
type VideoRow struct {
	VideoID             string
	Title               string
	Description         string
	PublishedAt         string
	ChannelID           string
	CategoryID          string
	Category            string
	ViewCount           uint64
	LikeCount           uint64
	CommentCount        uint64
	FavoriteCount       uint64
	Tags                []string
	ChannelTitle        string
	ThumbnailURL        string
	IsTrending          bool
	Duration            string
	Dimension           string
	Definition          string
	Caption             string
	LicensedContent     bool
	Projection          string
	UploadStatus        string
	PrivacyStatus       string
	License             string
	Embeddable          bool
	PublicStatsViewable bool
	MadeForKids         bool
	TopicCategories     []string

	// Enrichment: ratio of this video's counts to its channel's mean
	// counts, populated by Enrich.
	ViewCountRatio     float64
	LikeCountRatio     float64
	CommentCountRatio  float64
	FavoriteCountRatio float64
}

// TrendingVideo is one entry of the trending lookup, keyed by channel.
type TrendingVideo struct {
	VideoID string `json:"video_id"`
}

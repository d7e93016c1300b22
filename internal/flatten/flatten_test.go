package flatten

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/qgr-lab/qgr/internal/youtube"
)

// channelJSON builds a raw channel statistics response.
func channelJSON(title string, views, subs uint64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"kind": "youtube#channelListResponse",
		"items": [{
			"kind": "youtube#channel",
			"snippet": {"title": %q, "country": "US"},
			"statistics": {"viewCount": "%d", "subscriberCount": "%d", "videoCount": "2"}
		}]
	}`, title, views, subs))
}

// videoJSON builds a raw video response.
func videoJSON(id, channelID, categoryID string, views, likes uint64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"kind": "youtube#videoListResponse",
		"items": [{
			"kind": "youtube#video",
			"id": %q,
			"snippet": {"title": "video %s", "channelId": %q, "categoryId": %q},
			"statistics": {"viewCount": "%d", "likeCount": "%d", "commentCount": "1", "favoriteCount": "0"},
			"contentDetails": {"duration": "PT5M", "definition": "hd"}
		}]
	}`, id, id, channelID, categoryID, views, likes))
}

func sampleData() map[string]*youtube.ChannelData {
	return map[string]*youtube.ChannelData{
		"ch1": {
			Statistics: channelJSON("Channel One", 1000, 50),
			Videos: []json.RawMessage{
				videoJSON("v1", "ch1", "27", 100, 10),
				videoJSON("v2", "ch1", "27", 300, 30),
			},
		},
		"ch2": {
			Statistics: channelJSON("Channel Two", 2000, 80),
			Videos: []json.RawMessage{
				videoJSON("v3", "ch2", "28", 500, 5),
			},
		},
	}
}

func TestBuildTables(t *testing.T) {
	categories := map[string]string{"27": "Education", "28": "Science & Technology"}

	channels, videos, diags := BuildTables(sampleData(), nil, categories)

	if len(diags) != 0 {
		t.Errorf("diags = %v, want none", diags)
	}
	if len(channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(channels))
	}
	if len(videos) != 3 {
		t.Fatalf("got %d videos, want 3", len(videos))
	}

	if channels[0].ChannelID != "ch1" || channels[1].ChannelID != "ch2" {
		t.Errorf("channel order = %s, %s; want ch1, ch2", channels[0].ChannelID, channels[1].ChannelID)
	}
	for i, want := range []string{"v1", "v2", "v3"} {
		if videos[i].VideoID != want {
			t.Errorf("videos[%d] = %s, want %s", i, videos[i].VideoID, want)
		}
	}

	byID := make(map[string]ChannelRow)
	for _, c := range channels {
		byID[c.ChannelID] = c
	}
	ch1 := byID["ch1"]
	if ch1.ChannelTitle != "Channel One" || ch1.ViewCount != 1000 || ch1.SubscriberCount != 50 {
		t.Errorf("ch1 row = %+v", ch1)
	}
	if ch1.Country != "US" || ch1.VideoCount != 2 {
		t.Errorf("ch1 snippet/statistics fields = %+v", ch1)
	}

	videoByID := make(map[string]VideoRow)
	for _, v := range videos {
		videoByID[v.VideoID] = v
	}
	v1 := videoByID["v1"]
	if v1.ChannelID != "ch1" || v1.ViewCount != 100 || v1.LikeCount != 10 {
		t.Errorf("v1 row = %+v", v1)
	}
	if v1.Category != "Education" {
		t.Errorf("v1 category = %q, want joined name", v1.Category)
	}
	if v1.Duration != "PT5M" || v1.Definition != "hd" {
		t.Errorf("v1 content details = %+v", v1)
	}
	if videoByID["v3"].Category != "Science & Technology" {
		t.Errorf("v3 category = %q", videoByID["v3"].Category)
	}
}

func TestBuildTablesOrderIsDeterministic(t *testing.T) {
	var firstChannels, firstVideos []string
	for run := 0; run < 25; run++ {
		channels, videos, _ := BuildTables(sampleData(), nil, nil)

		var chOrder, vidOrder []string
		for _, c := range channels {
			chOrder = append(chOrder, c.ChannelID)
		}
		for _, v := range videos {
			vidOrder = append(vidOrder, v.VideoID)
		}

		if run == 0 {
			firstChannels, firstVideos = chOrder, vidOrder
			continue
		}
		if !slicesEqual(chOrder, firstChannels) {
			t.Fatalf("run %d channel order %v differs from first run %v", run, chOrder, firstChannels)
		}
		if !slicesEqual(vidOrder, firstVideos) {
			t.Fatalf("run %d video order %v differs from first run %v", run, vidOrder, firstVideos)
		}
	}
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildTablesDeduplicatesVideos(t *testing.T) {
	data := map[string]*youtube.ChannelData{
		"ch1": {
			Statistics: channelJSON("Channel One", 1000, 50),
			Videos: []json.RawMessage{
				videoJSON("v1", "ch1", "27", 100, 10),
				videoJSON("v1", "ch1", "27", 100, 10),
			},
		},
	}

	_, videos, _ := BuildTables(data, nil, nil)
	if len(videos) != 1 {
		t.Errorf("got %d videos, want 1 after dedupe", len(videos))
	}
}

func TestBuildTablesSkipsBadEntries(t *testing.T) {
	data := map[string]*youtube.ChannelData{
		"ch1": {
			Statistics: channelJSON("Channel One", 1000, 50),
			Videos: []json.RawMessage{
				json.RawMessage(`{"items": []}`),
				videoJSON("v1", "ch1", "27", 100, 10),
			},
		},
		"ch2": {}, // no statistics fetched
	}

	channels, videos, diags := BuildTables(data, nil, nil)
	if len(channels) != 1 {
		t.Errorf("got %d channels, want 1", len(channels))
	}
	if len(videos) != 1 {
		t.Errorf("got %d videos, want 1", len(videos))
	}
	if len(diags) != 2 {
		t.Errorf("diags = %v, want 2 entries", diags)
	}
}

func TestBuildTablesTrendingJoin(t *testing.T) {
	trending := map[string][]TrendingVideo{
		"ch1": {{VideoID: "v1"}, {VideoID: "v2"}},
	}

	channels, videos, _ := BuildTables(sampleData(), trending, nil)

	for _, c := range channels {
		switch c.ChannelID {
		case "ch1":
			if !c.HasVideoTrending || c.NumberVideoTrending != 2 {
				t.Errorf("ch1 trending = %+v", c)
			}
		case "ch2":
			if c.HasVideoTrending || c.NumberVideoTrending != 0 {
				t.Errorf("ch2 trending = %+v", c)
			}
		}
	}

	for _, v := range videos {
		wantTrending := v.VideoID == "v1" || v.VideoID == "v2"
		if v.IsTrending != wantTrending {
			t.Errorf("video %s IsTrending = %v, want %v", v.VideoID, v.IsTrending, wantTrending)
		}
	}
}

func TestEnrich(t *testing.T) {
	channels := []ChannelRow{{ChannelID: "ch1"}}
	videos := []VideoRow{
		{VideoID: "v1", ChannelID: "ch1", ViewCount: 100, LikeCount: 10, CommentCount: 4},
		{VideoID: "v2", ChannelID: "ch1", ViewCount: 300, LikeCount: 30, CommentCount: 4},
	}

	outChannels, outVideos := Enrich(channels, videos)

	// Inputs are not mutated.
	if channels[0].ViewCountMean != 0 || videos[0].ViewCountRatio != 0 {
		t.Error("Enrich mutated its inputs")
	}

	c := outChannels[0]
	if c.ViewCountMean != 200 {
		t.Errorf("ViewCountMean = %v, want 200", c.ViewCountMean)
	}
	// Sample standard deviation of {100, 300}.
	if got, want := c.ViewCountStd, 141.4213562373095; !closeTo(got, want) {
		t.Errorf("ViewCountStd = %v, want %v", got, want)
	}
	if c.CommentCountMean != 4 || c.CommentCountStd != 0 {
		t.Errorf("CommentCount mean/std = %v/%v, want 4/0", c.CommentCountMean, c.CommentCountStd)
	}

	if got := outVideos[0].ViewCountRatio; !closeTo(got, 0.5) {
		t.Errorf("v1 ViewCountRatio = %v, want 0.5", got)
	}
	if got := outVideos[1].ViewCountRatio; !closeTo(got, 1.5) {
		t.Errorf("v2 ViewCountRatio = %v, want 1.5", got)
	}
	// Channel favorite counts are all zero, so ratios degrade to zero.
	if outVideos[0].FavoriteCountRatio != 0 {
		t.Errorf("FavoriteCountRatio = %v, want 0", outVideos[0].FavoriteCountRatio)
	}
}

func TestEnrichChannelWithoutVideos(t *testing.T) {
	channels := []ChannelRow{{ChannelID: "lonely"}}

	outChannels, _ := Enrich(channels, nil)
	if outChannels[0].ViewCountMean != 0 || outChannels[0].ViewCountStd != 0 {
		t.Errorf("channel without videos enriched: %+v", outChannels[0])
	}
}

func TestTopVideos(t *testing.T) {
	videos := []VideoRow{
		{VideoID: "a1", ChannelID: "ch1", ViewCount: 10},
		{VideoID: "a2", ChannelID: "ch1", ViewCount: 50},
		{VideoID: "a3", ChannelID: "ch1", ViewCount: 30},
		{VideoID: "b1", ChannelID: "ch2", ViewCount: 5},
		{VideoID: "b2", ChannelID: "ch2", ViewCount: 7},
	}

	top := TopVideos(videos, 2)

	if len(top) != 4 {
		t.Fatalf("got %d videos, want 4 (2 per channel)", len(top))
	}
	wantOrder := []string{"a2", "a3", "b2", "b1"}
	for i, want := range wantOrder {
		if top[i].VideoID != want {
			t.Errorf("top[%d] = %s, want %s", i, top[i].VideoID, want)
		}
	}
}

func TestTopVideosSmallChannel(t *testing.T) {
	videos := []VideoRow{{VideoID: "only", ChannelID: "ch1", ViewCount: 1}}

	top := TopVideos(videos, 5)
	if len(top) != 1 {
		t.Errorf("got %d videos, want the single available one", len(top))
	}
	if TopVideos(videos, 0) != nil {
		t.Error("TopVideos with n=0 should yield nothing")
	}
}

// closeTo reports whether two floats agree to within a small tolerance.
func closeTo(got, want float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}

package flatten

import "math"

// channelStats holds running aggregates for one channel's videos.
type channelStats struct {
	views, likes, comments, favorites []float64
}

// Enrich computes per-channel mean and standard deviation of the video
// counts and per-video count-to-channel-mean ratios. The inputs are not
// modified; enriched copies are returned.
func Enrich(channels []ChannelRow, videos []VideoRow) ([]ChannelRow, []VideoRow) {
	byChannel := make(map[string]*channelStats)
	for _, v := range videos {
		st := byChannel[v.ChannelID]
		if st == nil {
			st = &channelStats{}
			byChannel[v.ChannelID] = st
		}
		st.views = append(st.views, float64(v.ViewCount))
		st.likes = append(st.likes, float64(v.LikeCount))
		st.comments = append(st.comments, float64(v.CommentCount))
		st.favorites = append(st.favorites, float64(v.FavoriteCount))
	}

	outChannels := make([]ChannelRow, len(channels))
	copy(outChannels, channels)
	for i := range outChannels {
		st := byChannel[outChannels[i].ChannelID]
		if st == nil {
			continue
		}
		outChannels[i].ViewCountMean, outChannels[i].ViewCountStd = meanStd(st.views)
		outChannels[i].LikeCountMean, outChannels[i].LikeCountStd = meanStd(st.likes)
		outChannels[i].CommentCountMean, outChannels[i].CommentCountStd = meanStd(st.comments)
		outChannels[i].FavoriteCountMean, outChannels[i].FavoriteCountStd = meanStd(st.favorites)
	}

	outVideos := make([]VideoRow, len(videos))
	copy(outVideos, videos)
	for i := range outVideos {
		st := byChannel[outVideos[i].ChannelID]
		if st == nil {
			continue
		}
		viewMean, _ := meanStd(st.views)
		likeMean, _ := meanStd(st.likes)
		commentMean, _ := meanStd(st.comments)
		favoriteMean, _ := meanStd(st.favorites)

		outVideos[i].ViewCountRatio = ratio(float64(outVideos[i].ViewCount), viewMean)
		outVideos[i].LikeCountRatio = ratio(float64(outVideos[i].LikeCount), likeMean)
		outVideos[i].CommentCountRatio = ratio(float64(outVideos[i].CommentCount), commentMean)
		outVideos[i].FavoriteCountRatio = ratio(float64(outVideos[i].FavoriteCount), favoriteMean)
	}

	return outChannels, outVideos
}

// meanStd returns the mean and sample standard deviation of values. A
// single-element sample has zero deviation.
func meanStd(values []float64) (mean, std float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / n

	if n < 2 {
		return mean, 0
	}

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / (n - 1))
}

// ratio divides value by mean, degrading to zero when the mean is zero.
func ratio(value, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return value / mean
}

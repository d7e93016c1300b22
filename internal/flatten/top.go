package flatten

import "sort"

// TopVideos returns the n highest-viewed videos per channel, ordered by
// channel and then descending view count. The input is not modified.
func TopVideos(videos []VideoRow, n int) []VideoRow {
	if n <= 0 {
		return nil
	}

	byChannel := make(map[string][]VideoRow)
	var order []string
	for _, v := range videos {
		if _, ok := byChannel[v.ChannelID]; !ok {
			order = append(order, v.ChannelID)
		}
		byChannel[v.ChannelID] = append(byChannel[v.ChannelID], v)
	}

	var out []VideoRow
	for _, channelID := range order {
		group := byChannel[channelID]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ViewCount > group[j].ViewCount
		})
		if len(group) > n {
			group = group[:n]
		}
		out = append(out, group...)
	}
	return out
}

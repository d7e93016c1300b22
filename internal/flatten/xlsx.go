package flatten

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names used in the output workbooks.
const (
	ChannelSheet = "Channels"
	VideoSheet   = "Videos"
)

var channelHeader = []any{
	"channelId", "channelTitle", "description", "publishedAt", "videoCount",
	"viewCount", "subscriberCount", "country", "customUrl", "topicCategories",
	"madeForKids", "keywords", "hasVideoTrending", "numberVideoTrending",
	"viewCount_mean", "viewCount_std", "likeCount_mean", "likeCount_std",
	"commentCount_mean", "commentCount_std", "favoriteCount_mean", "favoriteCount_std",
}

var videoHeader = []any{
	"videoId", "title", "description", "publishedAt", "channelId", "categoryId",
	"category", "viewCount", "likeCount", "commentCount", "favoriteCount",
	"tags", "channelTitle", "thumbnail", "isTrending", "duration", "dimension",
	"definition", "caption", "licensedContent", "projection", "uploadStatus",
	"privacyStatus", "license", "embeddable", "publicStatsViewable",
	"madeForKids", "topicCategories",
	"viewCount_to_avg_ratio", "likeCount_to_avg_ratio",
	"commentCount_to_avg_ratio", "favoriteCount_to_avg_ratio",
}

// WriteChannelTable writes the channel table to an xlsx file.
func WriteChannelTable(path string, channels []ChannelRow) error {
	rows := make([][]any, 0, len(channels))
	for _, c := range channels {
		rows = append(rows, []any{
			c.ChannelID, c.ChannelTitle, c.Description, c.PublishedAt, c.VideoCount,
			c.ViewCount, c.SubscriberCount, c.Country, c.CustomURL, strings.Join(c.TopicCategories, ", "),
			c.MadeForKids, c.Keywords, c.HasVideoTrending, c.NumberVideoTrending,
			c.ViewCountMean, c.ViewCountStd, c.LikeCountMean, c.LikeCountStd,
			c.CommentCountMean, c.CommentCountStd, c.FavoriteCountMean, c.FavoriteCountStd,
		})
	}
	return writeSheet(path, ChannelSheet, channelHeader, rows)
}

// WriteVideoTable writes the video table to an xlsx file.
func WriteVideoTable(path string, videos []VideoRow) error {
	rows := make([][]any, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []any{
			v.VideoID, v.Title, v.Description, v.PublishedAt, v.ChannelID, v.CategoryID,
			v.Category, v.ViewCount, v.LikeCount, v.CommentCount, v.FavoriteCount,
			strings.Join(v.Tags, ", "), v.ChannelTitle, v.ThumbnailURL, v.IsTrending,
			v.Duration, v.Dimension, v.Definition, v.Caption, v.LicensedContent,
			v.Projection, v.UploadStatus, v.PrivacyStatus, v.License, v.Embeddable,
			v.PublicStatsViewable, v.MadeForKids, strings.Join(v.TopicCategories, ", "),
			v.ViewCountRatio, v.LikeCountRatio, v.CommentCountRatio, v.FavoriteCountRatio,
		})
	}
	return writeSheet(path, VideoSheet, videoHeader, rows)
}

// writeSheet writes a header row and data rows to a single-sheet workbook.
func writeSheet(path, sheet string, header []any, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("computing cell for row %d: %w", i, err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// MergeTables appends the data rows of the second workbook to the first and
// writes the result. Both inputs must share the same column structure.
func MergeTables(path1, path2, outPath string) error {
	sheet1, rows1, err := readFirstSheet(path1)
	if err != nil {
		return err
	}
	_, rows2, err := readFirstSheet(path2)
	if err != nil {
		return err
	}

	if len(rows1) == 0 {
		return fmt.Errorf("%s has no header row", path1)
	}

	merged := make([][]string, 0, len(rows1)+len(rows2))
	merged = append(merged, rows1...)
	if len(rows2) > 1 {
		merged = append(merged, rows2[1:]...) // skip the second header
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet1); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for i, row := range merged {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("computing cell for row %d: %w", i, err)
		}
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheet1, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(outPath); err != nil {
		return fmt.Errorf("saving %s: %w", outPath, err)
	}
	return nil
}

// readFirstSheet returns the name and all rows of a workbook's first sheet.
func readFirstSheet(path string) (string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return sheet, rows, nil
}

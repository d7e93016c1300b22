package flatten

import (
	"path/filepath"
	"testing"
)

func TestWriteVideoTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.xlsx")
	videos := []VideoRow{
		{VideoID: "v1", Title: "First", ChannelID: "ch1", ViewCount: 100},
		{VideoID: "v2", Title: "Second", ChannelID: "ch1", ViewCount: 200},
	}

	if err := WriteVideoTable(path, videos); err != nil {
		t.Fatalf("WriteVideoTable: %v", err)
	}

	sheet, rows, err := readFirstSheet(path)
	if err != nil {
		t.Fatalf("readFirstSheet: %v", err)
	}
	if sheet != VideoSheet {
		t.Errorf("sheet = %q, want %q", sheet, VideoSheet)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2 data rows", len(rows))
	}
	if rows[0][0] != "videoId" {
		t.Errorf("header starts with %q, want videoId", rows[0][0])
	}
	if rows[1][0] != "v1" || rows[2][0] != "v2" {
		t.Errorf("data rows = %v / %v", rows[1][0], rows[2][0])
	}
}

func TestWriteChannelTableHeaderWidth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.xlsx")
	channels := []ChannelRow{{ChannelID: "ch1", ChannelTitle: "One", ViewCount: 10}}

	if err := WriteChannelTable(path, channels); err != nil {
		t.Fatalf("WriteChannelTable: %v", err)
	}

	_, rows, err := readFirstSheet(path)
	if err != nil {
		t.Fatalf("readFirstSheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if len(rows[0]) != len(channelHeader) {
		t.Errorf("header has %d columns, want %d", len(rows[0]), len(channelHeader))
	}
}

func TestMergeTables(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.xlsx")
	second := filepath.Join(dir, "second.xlsx")
	out := filepath.Join(dir, "merged.xlsx")

	if err := WriteVideoTable(first, []VideoRow{{VideoID: "v1", ChannelID: "ch1"}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteVideoTable(second, []VideoRow{{VideoID: "v2", ChannelID: "ch2"}}); err != nil {
		t.Fatal(err)
	}

	if err := MergeTables(first, second, out); err != nil {
		t.Fatalf("MergeTables: %v", err)
	}

	_, rows, err := readFirstSheet(out)
	if err != nil {
		t.Fatalf("readFirstSheet: %v", err)
	}
	// One header plus one data row from each input; the second header is
	// dropped.
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[1][0] != "v1" || rows[2][0] != "v2" {
		t.Errorf("merged data rows = %v / %v", rows[1][0], rows[2][0])
	}
}

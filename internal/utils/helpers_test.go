package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseCutoff(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{"date only", "2020-10-04", time.Date(2020, 10, 4, 0, 0, 0, 0, time.UTC).UnixMilli(), false},
		{"date and time", "2020-10-04 12:30:00", time.Date(2020, 10, 4, 12, 30, 0, 0, time.UTC).UnixMilli(), false},
		{"rfc3339", "2020-10-04T12:30:00Z", time.Date(2020, 10, 4, 12, 30, 0, 0, time.UTC).UnixMilli(), false},
		{"padded", "  2020-10-04  ", time.Date(2020, 10, 4, 0, 0, 0, 0, time.UTC).UnixMilli(), false},
		{"empty", "", 0, true},
		{"garbage", "next tuesday", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCutoff(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCutoff(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCutoff(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatMs(t *testing.T) {
	if got := FormatMs(0); got != "unknown" {
		t.Errorf("FormatMs(0) = %q, want unknown", got)
	}
	ms := time.Date(2022, 2, 1, 23, 59, 0, 0, time.UTC).UnixMilli()
	if got := FormatMs(ms); got != "2022-02-01" {
		t.Errorf("FormatMs = %q, want 2022-02-01", got)
	}
}

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	content := "# feeds to crawl\nhttps://a.example.com/feed\n\n  https://b.example.com/feed  \n# trailing comment\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("ReadURLsFromFile: %v", err)
	}
	want := []string{"https://a.example.com/feed", "https://b.example.com/feed"}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestReadURLsFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("# only comments\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ReadURLsFromFile(path); err == nil {
		t.Error("expected error for file with no URLs")
	}
}

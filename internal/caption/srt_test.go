package caption

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExportSRTSingleItem(t *testing.T) {
	tr := NewTrack([]Item{
		{
			StartTime:      "00:00:01,000",
			EndTime:        "00:00:02,000",
			OriginalText:   "Hi",
			TranslatedText: "你好",
		},
	})

	want := "1\n00:00:01,000 --> 00:00:02,000\n你好\nHi\n"
	if got := ExportSRT(tr); got != want {
		t.Errorf("ExportSRT() = %q, want %q", got, want)
	}
}

func TestExportSRTBlankLineBetweenBlocks(t *testing.T) {
	tr := NewTrack([]Item{
		{StartTime: "00:00:01,000", EndTime: "00:00:02,000", OriginalText: "Hi", TranslatedText: "你好"},
		{StartTime: "00:00:03,000", EndTime: "00:00:04,000", OriginalText: "Bye", TranslatedText: "再见"},
	})

	want := "1\n00:00:01,000 --> 00:00:02,000\n你好\nHi\n" +
		"\n" +
		"2\n00:00:03,000 --> 00:00:04,000\n再见\nBye\n"
	if got := ExportSRT(tr); got != want {
		t.Errorf("ExportSRT() = %q, want %q", got, want)
	}
}

func TestExportSRTEmptyTrack(t *testing.T) {
	if got := ExportSRT(NewTrack(nil)); got != "" {
		t.Errorf("ExportSRT(empty) = %q, want empty string", got)
	}
}

func TestWriteFileAndParseSRTRoundTrip(t *testing.T) {
	tr := NewTrack([]Item{
		{StartTime: "00:00:01,000", EndTime: "00:00:02,500", OriginalText: "Hello there", TranslatedText: "你好"},
		{StartTime: "00:00:03,000", EndTime: "00:00:05,000", OriginalText: "How are you", TranslatedText: "你好吗"},
	})

	path := filepath.Join(t.TempDir(), "out", "captions.srt")
	if err := WriteFile(tr, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	parsed, err := ParseSRT(path)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(parsed.Items) != len(tr.Items) {
		t.Fatalf("parsed %d items, want %d", len(parsed.Items), len(tr.Items))
	}
	for i := range tr.Items {
		if parsed.Items[i] != tr.Items[i] {
			t.Errorf("item %d = %+v, want %+v", i, parsed.Items[i], tr.Items[i])
		}
	}
}

func TestParseSRTToleratesBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.srt")
	content := "\ufeff1\n00:00:01,000 --> 00:00:02,000\n你好\nHi\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tr, err := ParseSRT(path)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(tr.Items) != 1 {
		t.Fatalf("parsed %d items, want 1", len(tr.Items))
	}
	if tr.Items[0].TranslatedText != "你好" || tr.Items[0].OriginalText != "Hi" {
		t.Errorf("unexpected item: %+v", tr.Items[0])
	}
}

func TestParseSRTRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.srt")
	if err := os.WriteFile(path, []byte("not a subtitle file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseSRT(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

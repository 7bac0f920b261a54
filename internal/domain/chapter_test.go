package domain

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Vol. 1 Ch. 2", "Vol. 1 Ch. 2"},
		{"a/b\\c", "a_b_c"},
		{`what?: "yes" <no> | *`, `what__ _yes_ _no_ _ _`},
		{"  ..hidden..  ", "hidden"},
		{"tab\there", "tab_here"},
		{"日本語 タイトル", "日本語 タイトル"},
		{"", ""},
		{"...", ""},
	}

	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeName_Truncates(t *testing.T) {
	long := strings.Repeat("ä", 200) // 400 bytes
	got := SanitizeName(long)
	if len(got) > maxArchiveBaseBytes {
		t.Fatalf("len = %d, want <= %d", len(got), maxArchiveBaseBytes)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated name is not valid UTF-8: %q", got)
	}
}

func TestChapterRequest_ArchiveBase(t *testing.T) {
	tests := []struct {
		name string
		req  ChapterRequest
		want string
	}{
		{"uses display name", ChapterRequest{ChapterID: "abc", DisplayName: "Ch. 1"}, "Ch. 1"},
		{"falls back to id", ChapterRequest{ChapterID: "abc", DisplayName: ""}, "abc"},
		{"falls back when name sanitizes away", ChapterRequest{ChapterID: "abc", DisplayName: " . "}, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.ArchiveBase(); got != tt.want {
				t.Errorf("ArchiveBase() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseChapterRequest(t *testing.T) {
	tests := []struct {
		in      string
		want    ChapterRequest
		wantErr bool
	}{
		{"abc", ChapterRequest{ChapterID: "abc"}, false},
		{"abc=Chapter 1", ChapterRequest{ChapterID: "abc", DisplayName: "Chapter 1"}, false},
		{"  abc = Ch = 2 ", ChapterRequest{ChapterID: "abc", DisplayName: "Ch = 2"}, false},
		{"=name", ChapterRequest{}, true},
		{"   ", ChapterRequest{}, true},
		{"..", ChapterRequest{}, true},
		{". = Chapter 1", ChapterRequest{}, true},
	}
	for _, tt := range tests {
		got, err := ParseChapterRequest(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseChapterRequest(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseChapterRequest(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestChapterRequest_Validate(t *testing.T) {
	for _, id := range []string{"", ".", "..", " . ", "..."} {
		err := ChapterRequest{ChapterID: id, DisplayName: "Chapter 1"}.Validate()
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidRequest", id, err)
		}
	}
	if err := (ChapterRequest{ChapterID: "a1b2"}).Validate(); err != nil {
		t.Errorf("Validate(a1b2) = %v", err)
	}
}

func TestChapterResult_Flags(t *testing.T) {
	ok := ChapterResult{}
	if !ok.Archived() || ok.Partial() {
		t.Errorf("clean result: Archived=%v Partial=%v", ok.Archived(), ok.Partial())
	}
	partial := ChapterResult{FailedPages: []int{2}}
	if !partial.Archived() || !partial.Partial() {
		t.Errorf("partial result: Archived=%v Partial=%v", partial.Archived(), partial.Partial())
	}
	failed := ChapterResult{Err: errors.New("boom"), FailedPages: []int{1}}
	if failed.Archived() || failed.Partial() {
		t.Errorf("failed result: Archived=%v Partial=%v", failed.Archived(), failed.Partial())
	}
}

func TestSession_FrameURL(t *testing.T) {
	s := Session{
		BaseURL:   "https://node.example.net/token/",
		Hash:      "h4sh",
		Data:      []string{"full.png"},
		DataSaver: []string{"small.jpg"},
	}
	if got, want := s.FrameURL(QualityDataSaver, "small.jpg"), "https://node.example.net/token/data-saver/h4sh/small.jpg"; got != want {
		t.Errorf("FrameURL = %q, want %q", got, want)
	}
	if got := s.Filenames(QualityData); len(got) != 1 || got[0] != "full.png" {
		t.Errorf("Filenames(data) = %v", got)
	}
	if got := s.Filenames(QualityDataSaver); len(got) != 1 || got[0] != "small.jpg" {
		t.Errorf("Filenames(data-saver) = %v", got)
	}
}

func TestParseQuality(t *testing.T) {
	for in, want := range map[string]Quality{
		"data":       QualityData,
		"DATA":       QualityData,
		"data-saver": QualityDataSaver,
		"datasaver":  QualityDataSaver,
	} {
		got, err := ParseQuality(in)
		if err != nil || got != want {
			t.Errorf("ParseQuality(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseQuality("hd"); err == nil {
		t.Error("ParseQuality(hd) expected error")
	}
}

package stats

import (
	"strings"
	"testing"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Subject", "%", "Need"}
	rows := [][]string{
		{"ML", "92.31%", "0"},
		{"Statistik", "8.00%", "12"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Subject         %  Need" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "ML         92.31%     0" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Statistik   8.00%    12" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Subject", "Need"}, [][]string{
		{"数学", "3"},
		{"Art", "10"},
	}, map[int]bool{1: true})
	if lines[1] != "数学        3" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "Art        10" {
		t.Fatalf("unexpected row: %q", lines[2])
	}
}

func TestDisplayWidthIgnoresColor(t *testing.T) {
	if got := displayWidth("\x1b[31mdanger\x1b[0m"); got != 6 {
		t.Fatalf("expected width 6, got %d", got)
	}
}

func TestDisplayWidthIgnoresNonColorSequences(t *testing.T) {
	cases := map[string]int{
		"\x1b[1;31mdanger\x1b[0m": 6,
		"\x1b[2Kok":               2,
		"\x1b[3Cnext":             4,
	}
	for in, want := range cases {
		if got := displayWidth(in); got != want {
			t.Fatalf("displayWidth(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFormatTableAlignsStyledCells(t *testing.T) {
	lines := formatTable([]string{"Status", "Need"}, [][]string{
		{"\x1b[2K\x1b[31mdanger\x1b[0m", "4"},
		{"safe", "0"},
	}, map[int]bool{1: true})
	if lines[2] != "safe       0" {
		t.Fatalf("unexpected row: %q", lines[2])
	}
	if !strings.HasSuffix(lines[1], "danger\x1b[0m     4") {
		t.Fatalf("unexpected styled row: %q", lines[1])
	}
}

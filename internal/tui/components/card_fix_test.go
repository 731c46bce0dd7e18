package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/theirongolddev/tally/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	if shortLines >= tallLines {
		t.Fatal("Test setup error: short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Errorf("Joined height should match tallest card: got %d, want %d", len(lines), tallLines)
	}

	for i, line := range lines {
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("Line %d has NO ANSI codes - will show as black squares", i)
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	row := MetricCardRow([]Metric{
		{Label: "Spent", Value: "$750"},
		{Label: "Remaining", Value: "$250", Color: theme.Active.Green},
		{Label: "Budget", Value: "$1,000"},
	}, 90)

	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 90 {
			t.Errorf("line %d width = %d, want 90", i, w)
		}
	}
}

func TestShareChartLegend(t *testing.T) {
	theme.SetActive("flexoki-dark")

	out := ShareChart([]ShareSlice{
		{Name: "Food", Share: 0.6, Amount: "$120"},
		{Name: "Transport", Share: 0.4, Amount: "$80"},
	}, "$200", 40)

	for _, want := range []string{"Food", "Transport", "$120", "$80", "$200", "60.0%", "40.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("share chart missing %q", want)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey("u"); Tabs[got].Name != "Upload" {
		t.Fatalf("TabIdxByKey(u) = %d", got)
	}
	if got := TabIdxByKey("z"); got != -1 {
		t.Fatalf("TabIdxByKey(z) = %d, want -1", got)
	}
	if got := TabIdxByKey("ctrl+c"); got != -1 {
		t.Fatalf("TabIdxByKey(ctrl+c) = %d, want -1", got)
	}
}

func TestProgressBarClamps(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	defer lipgloss.SetColorProfile(termenv.TrueColor)

	if got := ProgressBar(120, 10); !strings.HasSuffix(got, "100%") || strings.Contains(got, "░") {
		t.Fatalf("ProgressBar(120) = %q", got)
	}
	if got := ProgressBar(-5, 10); !strings.HasSuffix(got, "0%") || strings.Contains(got, "█") {
		t.Fatalf("ProgressBar(-5) = %q", got)
	}
}

package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"buildtrend/src/buildstore"
)

func sampleEntries() []buildstore.Entry {
	return []buildstore.Entry{
		{Start: "2018-10-04T08:00:03", Record: buildstore.Record{Duration: 3000, PullRequest: 415, URI: "https://ci.example.com/pr/415/e2e-aws/3/"}},
		{Start: "2018-08-20T10:15:00", Record: buildstore.Record{Duration: 2400, PullRequest: 151, URI: "https://ci.example.com/pr/151/e2e-aws/1/"}},
		{Start: "2018-09-20T00:00:00", Record: buildstore.Record{Duration: 1800, PullRequest: 300, URI: "https://ci.example.com/pr/300/e2e-aws/9/"}},
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func starts(m BuildsModel) []string {
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Start)
	}
	return out
}

func Test_newBuildsModel(t *testing.T) {
	model := newBuildsModel(sampleEntries())

	if len(model.table.Rows()) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(model.table.Rows()))
	}
	if model.sortBy != SortByStart {
		t.Errorf("expected start order, got %v", model.sortBy)
	}

	want := "2018-08-20T10:15:00,2018-09-20T00:00:00,2018-10-04T08:00:03"
	if got := strings.Join(starts(model), ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}

	row := model.table.Rows()[0]
	if row[1] != "40.0" || row[2] != "#151" {
		t.Errorf("first row = %v, want minutes 40.0 and #151", row)
	}
}

func TestBuildsModel_ToggleSort(t *testing.T) {
	model := newBuildsModel(sampleEntries())

	updated, _ := model.Update(key("s"))
	model = updated.(BuildsModel)
	if model.sortBy != SortByDuration {
		t.Fatalf("expected duration order after 's', got %v", model.sortBy)
	}
	if got := strings.Join(starts(model), ","); got != "2018-10-04T08:00:03,2018-08-20T10:15:00,2018-09-20T00:00:00" {
		t.Errorf("duration order = %s", got)
	}
	if e, _ := model.Selected(); e.Duration != 3000 {
		t.Errorf("cursor should reset to the slowest build, got %+v", e)
	}

	updated, _ = model.Update(key("j"))
	model = updated.(BuildsModel)
	if e, _ := model.Selected(); e.PullRequest != 151 {
		t.Errorf("after moving down selected PR %d, want 151", e.PullRequest)
	}

	updated, _ = model.Update(key("s"))
	model = updated.(BuildsModel)
	if model.sortBy != SortByStart {
		t.Errorf("expected start order after second 's', got %v", model.sortBy)
	}
	if e, _ := model.Selected(); e.Start != "2018-08-20T10:15:00" {
		t.Errorf("cursor should reset to the first build, got %+v", e)
	}
}

func TestBuildsModel_DurationTiesKeepStartOrder(t *testing.T) {
	entries := []buildstore.Entry{
		{Start: "2018-10-02T00:00:00", Record: buildstore.Record{Duration: 60}},
		{Start: "2018-10-01T00:00:00", Record: buildstore.Record{Duration: 60}},
	}
	model := newBuildsModel(entries)
	updated, _ := model.Update(key("s"))
	model = updated.(BuildsModel)

	if got := strings.Join(starts(model), ","); got != "2018-10-01T00:00:00,2018-10-02T00:00:00" {
		t.Errorf("tie order = %s", got)
	}
}

func TestBuildsModel_Quit(t *testing.T) {
	for _, k := range []tea.KeyMsg{key("q"), {Type: tea.KeyCtrlC}} {
		model := newBuildsModel(sampleEntries())
		_, cmd := model.Update(k)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected tea.QuitMsg", k)
		}
	}
}

func TestBuildsModel_View(t *testing.T) {
	model := newBuildsModel(sampleEntries())
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	model = updated.(BuildsModel)

	view := model.View()
	for _, want := range []string{"3 builds", "sort: start", "2018-08-20T10:15:00", "PR #151"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	for i, line := range strings.Split(view, "\n") {
		if w := VisualWidth(ansi.Strip(line)); w > 60 {
			t.Errorf("line %d is %d columns wide, want <= 60: %q", i, w, ansi.Strip(line))
		}
	}
}

func TestBuildsModel_FooterAlignsDuration(t *testing.T) {
	model := newBuildsModel(sampleEntries())

	footer := ansi.Strip(model.renderFooter())
	if !strings.Contains(footer, "PR #151   2400s") {
		t.Errorf("renderFooter() = %q, want PR label padded before the duration", footer)
	}
}

func TestBuildsModel_Empty(t *testing.T) {
	model := newBuildsModel(nil)

	if _, ok := model.Selected(); ok {
		t.Error("Selected() on empty model should report false")
	}
	if !strings.Contains(model.View(), "no builds recorded") {
		t.Error("empty View() should say no builds are recorded")
	}
}

func TestHeader_Render(t *testing.T) {
	h := NewHeader(buildstore.Summarize(buildstore.New("").Entries()))
	if out := h.Render(80); !strings.Contains(out, "0 builds") {
		t.Errorf("Render() = %q, want build count", out)
	}

	h = NewHeader(buildstore.Stats{Count: 2, Min: 60, Max: 180, Mean: 120, Median: 120, First: "a", Last: "b"})
	h.SetSort(SortByDuration)
	out := ansi.Strip(h.Render(200))
	for _, want := range []string{"2 builds", "min 1.0m", "max 3.0m", "sort: duration"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q in %q", want, out)
		}
	}
}

package command

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want CommandMsg
	}{
		{"", CommandMsg{}},
		{"   ", CommandMsg{}},
		{"quit", CommandMsg{Name: "quit"}},
		{"History", CommandMsg{Name: "history"}},
		{"export yaml", CommandMsg{Name: "export", Arg: "yaml"}},
		{"start all Workout", CommandMsg{Name: "start all", Arg: "Workout"}},
		{"Pause ALL  Deep Work ", CommandMsg{Name: "pause all", Arg: "Deep Work"}},
		{"pause all", CommandMsg{Name: "pause all"}},
		{"reset all study", CommandMsg{Name: "reset all", Arg: "study"}},
	}

	for _, tt := range tests {
		got := Parse(tt.line)
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

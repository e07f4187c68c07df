package prompt

import "testing"

func TestCleanScript(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"plain text untouched",
			"Rise and shine. Today is yours.",
			"Rise and shine. Today is yours.",
		},
		{
			"emphasis markers stripped",
			"**Rise** and _shine_, champion!",
			"Rise and shine, champion!",
		},
		{
			"heading and list flattened",
			"# Morning\n\n- stretch\n- hydrate",
			"Morning stretch hydrate",
		},
		{
			"fenced code dropped",
			"Say it loud.\n\n```\nrm -rf /\n```\n\nYou got this.",
			"Say it loud. You got this.",
		},
		{
			"inline code keeps its text",
			"Type `go run .` and breathe.",
			"Type go run . and breathe.",
		},
		{
			"links keep their label",
			"Check [the plan](https://example.com) first.",
			"Check the plan first.",
		},
		{
			"soft line breaks become spaces",
			"One small step\nthen another.",
			"One small step then another.",
		},
		{
			"empty input",
			"",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanScript(tt.in); got != tt.want {
				t.Errorf("CleanScript(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

package translator

import (
	"errors"
	"testing"

	"github.com/d4l3k/messagediff"

	"github.com/spektr-org/campusmap/engine"
	"github.com/spektr-org/campusmap/schema"
)

func testParser() *Parser {
	controls := engine.Controls{
		States:     []string{"CA", "MA", "NY", "PR"},
		Attributes: engine.DefaultAttributes,
		Schemes:    engine.DefaultSchemes,
	}
	return NewParser(controls, schema.Default())
}

var start = engine.Selection{State: "CA", Attribute: "LOCALE", Scheme: "Red"}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    engine.Selection
		changed []string
	}{
		{
			name:    "bare tokens",
			input:   "ma necta blue",
			want:    engine.Selection{State: "MA", Attribute: "NECTA", Scheme: "Blue"},
			changed: []string{"state", "attribute", "scheme"},
		},
		{
			name:    "key value",
			input:   "state=ny attribute=cbsa",
			want:    engine.Selection{State: "NY", Attribute: "CBSA", Scheme: "Red"},
			changed: []string{"state", "attribute"},
		},
		{
			name:    "colon form and aliases",
			input:   "color:purple, attr:sldu",
			want:    engine.Selection{State: "CA", Attribute: "SLDU", Scheme: "Purple"},
			changed: []string{"attribute", "scheme"},
		},
		{
			name:    "json with display name",
			input:   "```json\n{\"state\": \"pr\", \"attribute\": \"Census Division\"}\n```",
			want:    engine.Selection{State: "PR", Attribute: "CD", Scheme: "Red"},
			changed: []string{"state", "attribute"},
		},
		{
			name:    "unknown explicit state is kept",
			input:   "state=zz",
			want:    engine.Selection{State: "ZZ", Attribute: "LOCALE", Scheme: "Red"},
			changed: []string{"state"},
		},
	}

	p := testParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Translate(tt.input, start)
			if err != nil {
				t.Fatalf("Translate(%q): %v", tt.input, err)
			}
			if got.Selection != tt.want {
				t.Errorf("selection = %+v, want %+v", got.Selection, tt.want)
			}
			if diff, equal := messagediff.PrettyDiff(tt.changed, got.Interpretation.Changed); !equal {
				t.Errorf("changed mismatch:\n%s", diff)
			}
			if got.Interpretation.Summary != Describe(tt.want) {
				t.Errorf("summary = %q", got.Interpretation.Summary)
			}
		})
	}
}

func TestTranslateErrors(t *testing.T) {
	p := testParser()
	tests := []struct {
		input string
		want  error
	}{
		{"", ErrUnrecognized},
		{"zipcode", ErrUnrecognized},
		{"size=10", ErrUnrecognized},
		{"attribute=ZIP", engine.ErrUnknownAttribute},
		{"scheme=orange", engine.ErrUnknownScheme},
		{"{\"state\": 5}", ErrUnrecognized},
		{"{not json", ErrUnrecognized},
	}
	for _, tt := range tests {
		_, err := p.Translate(tt.input, start)
		if !errors.Is(err, tt.want) {
			t.Errorf("Translate(%q) error = %v, want %v", tt.input, err, tt.want)
		}
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Verb: VerbShow}},
		{"show", Command{Verb: VerbShow, Args: []string{}}},
		{"EXIT", Command{Verb: VerbQuit, Args: []string{}}},
		{"?", Command{Verb: VerbHelp, Args: []string{}}},
		{"define NECTA", Command{Verb: VerbDefine, Args: []string{"NECTA"}}},
		{"export xlsx out.xlsx", Command{Verb: VerbExport, Args: []string{"xlsx", "out.xlsx"}}},
		{"set state=MA", Command{Verb: VerbSelect, Args: []string{"state=MA"}}},
		{"ma  blue", Command{Verb: VerbSelect, Args: []string{"ma blue"}}},
	}
	for _, tt := range tests {
		got := ParseCommand(tt.line)
		if diff, equal := messagediff.PrettyDiff(tt.want, got); !equal {
			t.Errorf("ParseCommand(%q) mismatch:\n%s", tt.line, diff)
		}
	}
}

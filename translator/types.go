package translator

import (
	"errors"

	"github.com/spektr-org/campusmap/engine"
)

// ============================================================================
// TRANSLATOR — Free-form input → engine.Selection
// ============================================================================
// The console, the HTTP query string and MCP tool arguments all arrive as
// loosely typed text: "ma necta blue", "state=MA attribute=NECTA", or a
// JSON object. The Translator resolves that text against the read-only
// controls (states, attributes, schemes) and returns a Selection the
// engine accepts. It never sees record values other than the state list.
// ============================================================================

// ErrUnrecognized is returned when a token matches no control value.
var ErrUnrecognized = errors.New("unrecognized input")

// Translator turns user input into a Selection.
type Translator interface {
	// Translate applies input on top of the current selection.
	Translate(input string, current engine.Selection) (*TranslateResult, error)
}

// TranslateResult contains the new Selection and what changed.
type TranslateResult struct {
	Selection      engine.Selection `json:"selection"`
	Interpretation Interpretation   `json:"interpretation"`
}

// Interpretation is the user-facing preview of a translation.
type Interpretation struct {
	Summary string   `json:"summary"`
	Changed []string `json:"changed,omitempty"` // "state", "attribute", "scheme"
}

// Command is one console instruction.
type Command struct {
	Verb string   `json:"verb"`
	Args []string `json:"args,omitempty"`
}

// Console verbs. Any other input is a selection change.
const (
	VerbShow       = "show"
	VerbStates     = "states"
	VerbAttributes = "attributes"
	VerbSchemes    = "schemes"
	VerbDefine     = "define"
	VerbExport     = "export"
	VerbRender     = "render"
	VerbHelp       = "help"
	VerbQuit       = "quit"
	VerbSelect     = "select"
)

// Verbs lists the console verbs for completion.
var Verbs = []string{
	VerbShow, VerbStates, VerbAttributes, VerbSchemes, VerbDefine,
	VerbExport, VerbRender, VerbHelp, VerbQuit,
}

// Package campusmap is a dashboard over the postsecondary school locations
// dataset: pick a state, a statistical identifier and a color scheme, and get
// a frequency chart of the identifier's codes, a nationwide density heatmap
// and a map of every school.
//
// Usage:
//
//	import "github.com/spektr-org/campusmap/engine"
//
//	dash, err := engine.Execute(engine.Selection{
//	    State: "MA", Attribute: "NECTA", Scheme: "Blue",
//	}, view, sch.EngineOptions()...)
//
// The engine takes a Selection and records (generic dimension/measure maps),
// and returns render-ready output: chart config, heatmap and scatter layers,
// frequency table and text. It never performs I/O.
//
// Loading (helpers, store), drawing (render), downloads (export) and the
// outer surfaces (web, mcp, cmd/campusmap) are separate packages.
package campusmap

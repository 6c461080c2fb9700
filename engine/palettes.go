package engine

// ============================================================================
// PALETTES & ATTRIBUTES — Built-in read-only lookup tables
// ============================================================================
// One lookup keyed by scheme name replaces per-visual if/else chains: the
// heatmap, scatter map, and bar chart all read the same Palette entry.
// schema.Config can override both lists; these are the defaults.
// ============================================================================

// DefaultAttributes are the statistical columns offered in the attribute control.
var DefaultAttributes = []string{"LOCALE", "CBSA", "CSA", "NECTA", "CD", "SLDL", "SLDU"}

// DefaultSchemes is the display order of the scheme control.
var DefaultSchemes = []string{"Red", "Green", "Blue", "Purple"}

// DefaultPalettes returns a fresh copy of the built-in palette table.
func DefaultPalettes() map[string]Palette {
	return map[string]Palette{
		"Red": {
			Name:    "Red",
			Ramp:    [4]RGB{{255, 123, 123}, {255, 83, 83}, {255, 42, 42}, {255, 0, 0}},
			Marker:  RGB{139, 0, 0},
			Tooltip: "pink",
			Bar:     "red",
		},
		"Green": {
			Name:    "Green",
			Ramp:    [4]RGB{{155, 232, 155}, {96, 179, 96}, {36, 134, 36}, {0, 128, 0}},
			Marker:  RGB{0, 128, 0},
			Tooltip: "lightgreen",
			Bar:     "green",
		},
		"Blue": {
			Name:    "Blue",
			Ramp:    [4]RGB{{123, 149, 255}, {85, 119, 255}, {44, 86, 255}, {0, 0, 255}},
			Marker:  RGB{0, 0, 255},
			Tooltip: "lightblue",
			Bar:     "blue",
		},
		"Purple": {
			Name:    "Purple",
			Ramp:    [4]RGB{{239, 183, 255}, {220, 102, 255}, {233, 158, 255}, {196, 0, 255}},
			Marker:  RGB{128, 0, 128},
			Tooltip: "thistle",
			Bar:     "purple",
		},
	}
}

// cssColors resolves the CSS names used by the built-in palettes.
var cssColors = map[string]RGB{
	"red":        {255, 0, 0},
	"green":      {0, 128, 0},
	"blue":       {0, 0, 255},
	"purple":     {128, 0, 128},
	"pink":       {255, 192, 203},
	"lightgreen": {144, 238, 144},
	"lightblue":  {173, 216, 230},
	"thistle":    {216, 191, 216},
	"magenta":    {255, 0, 255},
	"white":      {255, 255, 255},
	"black":      {0, 0, 0},
}

// ParseColor resolves a CSS color name or "#rrggbb" hex string.
func ParseColor(s string) (RGB, bool) {
	if c, ok := cssColors[s]; ok {
		return c, true
	}
	if len(s) == 7 && s[0] == '#' {
		var out RGB
		for i := 0; i < 3; i++ {
			hi, ok1 := hexDigit(s[1+2*i])
			lo, ok2 := hexDigit(s[2+2*i])
			if !ok1 || !ok2 {
				return RGB{}, false
			}
			out[i] = hi<<4 | lo
		}
		return out, true
	}
	return RGB{}, false
}

// Hex renders the color as "#rrggbb".
func (c RGB) Hex() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i := 0; i < 3; i++ {
		b[1+2*i] = digits[c[i]>>4]
		b[2+2*i] = digits[c[i]&0x0f]
	}
	return string(b)
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

package clics

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

const fallbackColor = "#000000"

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"lime":    "#00ff00",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"aqua":    "#00ffff",
	"magenta": "#ff00ff",
	"fuchsia": "#ff00ff",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"pink":    "#ffc0cb",
	"brown":   "#a52a2a",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"gold":    "#ffd700",
	"navy":    "#000080",
	"teal":    "#008080",
	"maroon":  "#800000",
	"olive":   "#808000",
	"violet":  "#ee82ee",
}

// parseColor normalizes a color to "#rrggbb". It accepts a color name,
// "#rgb", "#rgba", "#rrggbb", "#rrggbbaa", "0xrrggbb" and "0xaarrggbb".
// Alpha is dropped.
func parseColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if named, ok := namedColors[strings.ToLower(s)]; ok {
		return named, nil
	}

	var rgba uint32
	if strings.HasPrefix(s, "0x") {
		digits := strings.TrimPrefix(s, "0x")
		v, err := strconv.ParseUint(digits, 16, 32)
		if err != nil {
			return "", fmt.Errorf("invalid color %q: %w", s, err)
		}
		if len(digits) == 8 {
			rgba = bits.RotateLeft32(uint32(v), 8)
		} else {
			rgba = uint32(v)<<8 | 0xff
		}
	} else {
		digits := strings.TrimPrefix(s, "#")
		switch len(digits) {
		case 8:
		case 6:
			digits += "ff"
		case 3:
			digits = double(digits) + "ff"
		case 4:
			digits = double(digits)
		default:
			return "", fmt.Errorf("invalid color %q", s)
		}
		v, err := strconv.ParseUint(digits, 16, 32)
		if err != nil {
			return "", fmt.Errorf("invalid color %q: %w", s, err)
		}
		rgba = uint32(v)
	}
	return fmt.Sprintf("#%06x", rgba>>8), nil
}

func double(s string) string {
	var b strings.Builder
	for _, c := range s {
		b.WriteRune(c)
		b.WriteRune(c)
	}
	return b.String()
}

package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"
	"sync"
)

const (
	ClassicTheme   ColorTheme = "classic"   // Blue to red
	GrayscaleTheme ColorTheme = "grayscale" // Black to white
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white
	DefaultTheme   ColorTheme = "default"   // Black to blue to cyan to yellow to red

	DefaultColorMapSize = 256
)

// ColorTheme names a power-to-color scheme.
type ColorTheme string

var validColorThemes = map[ColorTheme]struct{}{
	ClassicTheme:   {},
	GrayscaleTheme: {},
	JungleTheme:    {},
	ThermalTheme:   {},
	MarineTheme:    {},
	DefaultTheme:   {},
}

// ParseColorTheme returns the theme with the given name; an empty name is the
// default theme.
func ParseColorTheme(name string) (ColorTheme, error) {
	if name == "" {
		return DefaultTheme, nil
	}
	theme := ColorTheme(strings.ToLower(name))
	if _, ok := validColorThemes[theme]; !ok {
		return "", fmt.Errorf("render.ColorTheme: unknown theme '%s'", name)
	}
	return theme, nil
}

// ColorThemes lists the known themes in name order.
func ColorThemes() []ColorTheme {
	themes := make([]ColorTheme, 0, len(validColorThemes))
	for t := range validColorThemes {
		themes = append(themes, t)
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i] < themes[j] })
	return themes
}

// InvalidPowerColor is used for cells without a return.
var InvalidPowerColor = color.RGBA{A: 0xff}

// ColorMapper maps power values onto a pre-computed gradient.
type ColorMapper struct {
	colorMap      []color.RGBA
	bounds        PowerBounds
	theme         func(float64) color.RGBA
	themeName     ColorTheme
	size          int
	powerPerIndex float64 // Power range per index step
	mu            sync.RWMutex
}

// NewColorMapper creates a mapper of size colors; a non-positive size uses
// DefaultColorMapSize.
func NewColorMapper(size int, theme ColorTheme, bounds PowerBounds) *ColorMapper {
	if size <= 1 {
		size = DefaultColorMapSize
	}
	cm := &ColorMapper{
		colorMap:  make([]color.RGBA, size),
		theme:     colorThemeFunc(theme),
		themeName: theme,
		size:      size,
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds sets the power range mapped onto the gradient.
func (cm *ColorMapper) UpdateBounds(bounds PowerBounds) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if bounds.Max <= bounds.Min {
		bounds.Max = bounds.Min + 1
	}
	cm.bounds = bounds
	cm.powerPerIndex = (bounds.Max - bounds.Min) / float64(cm.size-1)

	for i := 0; i < cm.size; i++ {
		cm.colorMap[i] = cm.theme(float64(i) / float64(cm.size-1))
	}
}

// Color returns the color of a power value. Values outside the bounds are
// clamped; nil gives InvalidPowerColor.
func (cm *ColorMapper) Color(power *float64) color.RGBA {
	if power == nil || math.IsNaN(*power) {
		return InvalidPowerColor
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()

	pwr := math.Max(cm.bounds.Min, math.Min(*power, cm.bounds.Max))
	index := int(math.Round((pwr - cm.bounds.Min) / cm.powerPerIndex))
	index = max(0, min(index, cm.size-1))

	return cm.colorMap[index]
}

// Palette samples n evenly spaced colors of the gradient, lowest power first.
func (cm *ColorMapper) Palette(n int) []color.RGBA {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if n < 2 {
		n = 2
	}
	out := make([]color.RGBA, n)
	for i := range out {
		out[i] = cm.colorMap[i*(cm.size-1)/(n-1)]
	}
	return out
}

// Bounds returns the current power bounds.
func (cm *ColorMapper) Bounds() PowerBounds {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.bounds
}

// Theme returns the theme name.
func (cm *ColorMapper) Theme() ColorTheme {
	return cm.themeName
}

// Hex formats a color as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// HSV represents a color in HSV color space
type HSV struct {
	H float64 // Hue [0-360]
	S float64 // Saturation [0-1]
	V float64 // Value [0-1]
}

// RGB converts HSV color space to RGB.
func (hsv HSV) RGB() color.RGBA {
	s := math.Max(0, math.Min(1, hsv.S))
	v := math.Max(0, math.Min(1, hsv.V))

	if s <= 0.0 {
		rgb := uint8(v * 255)
		return color.RGBA{R: rgb, G: rgb, B: rgb, A: 0xff}
	}

	h := math.Mod(hsv.H, 360)
	if h < 0 {
		h += 360
	}
	h /= 60
	i := math.Floor(h)
	f := h - i

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 0xff}
}

// enhanced gives better differentiation in the lower power ranges.
func enhanced(normalized float64) color.RGBA {
	power := math.Max(0, math.Min(1, normalized))
	boosted := math.Pow(power, 0.7)

	var hsv HSV
	switch {
	case power < 0.25: // Black -> Blue
		hsv = HSV{H: 240, S: 1.0, V: boosted * 4}
	case power < 0.5: // Blue -> Cyan
		hsv = HSV{H: 240 - ((power - 0.25) * 240), S: 1.0, V: boosted * 1.5}
	case power < 0.75: // Cyan -> Yellow
		p := (power - 0.5) * 4
		hsv = HSV{H: 180 - (p * 120), S: 1.0, V: math.Min(1.0, boosted*1.5)}
	default: // Yellow -> Red
		p := (power - 0.75) * 4
		hsv = HSV{H: 60 - (p * 60), S: 1.0, V: 1.0}
	}
	return hsv.RGB()
}

func colorThemeFunc(theme ColorTheme) func(float64) color.RGBA {
	switch theme {
	case ClassicTheme:
		return func(power float64) color.RGBA {
			return HSV{
				H: 240 - (power * 240),
				S: 0.9 + (power * 0.1),
				V: math.Pow(power, 0.7),
			}.RGB()
		}

	case GrayscaleTheme:
		return func(power float64) color.RGBA {
			v := uint8(math.Pow(power, 0.7) * 255)
			return color.RGBA{R: v, G: v, B: v, A: 0xff}
		}

	case JungleTheme:
		return func(power float64) color.RGBA {
			return HSV{
				H: 120 - (power * 60),
				S: 1.0,
				V: 0.3 + (math.Pow(power, 0.6) * 0.7),
			}.RGB()
		}

	case ThermalTheme:
		return func(power float64) color.RGBA {
			switch {
			case power < 0.33:
				return color.RGBA{R: uint8(power * 3 * 255), A: 0xff}
			case power < 0.66:
				return color.RGBA{R: 255, G: uint8((power - 0.33) * 3 * 255), A: 0xff}
			default:
				return color.RGBA{R: 255, G: 255, B: uint8(math.Min(1, (power-0.66)*3) * 255), A: 0xff}
			}
		}

	case MarineTheme:
		return func(power float64) color.RGBA {
			return HSV{
				H: 240 - (power * 60),
				S: 1.0 - (power * 0.8),
				V: 0.3 + (math.Pow(power, 0.6) * 0.7),
			}.RGB()
		}

	default:
		return enhanced
	}
}

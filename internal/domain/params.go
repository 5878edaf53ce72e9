package domain

import (
	"fmt"
	"strings"
)

// Preset defaults applied when the caller omits a field, matching the
// studio UI's initial slider and dropdown positions.
const (
	DefaultStylePreset      = "photorealistic"
	DefaultLightingPreset   = "studio"
	DefaultCompositionGuide = "rule-of-thirds"
	DefaultArtisticStyle    = 75
	DefaultCreativity       = 80
	DefaultMood             = 60

	SliderMin = 0
	SliderMax = 100
)

var stylePresets = map[string]struct{}{
	"photorealistic": {},
	"painterly":      {},
	"conceptual":     {},
	"fashion":        {},
	"portrait":       {},
	"concept":        {},
}

// Only a subset of style presets carries a descriptive suffix; the rest rely
// on the model's default rendering.
var styleSuffixes = map[string]string{
	"fashion":  ", professional fashion photography, high fashion, editorial style",
	"portrait": ", professional portrait photography, studio lighting",
	"concept":  ", conceptual art, artistic vision, creative composition",
}

var lightingPresets = map[string]string{
	"studio":   ", professional studio lighting, controlled lighting",
	"natural":  ", natural lighting, soft daylight",
	"dramatic": ", dramatic lighting, high contrast",
}

var compositionGuides = map[string]struct{}{
	"rule-of-thirds": {},
	"golden-ratio":   {},
	"centered":       {},
}

const qualitySuffix = ", high quality, professional, detailed, 8k resolution"

// GenerationParams is the bounded set of user-controlled style knobs on a
// submission. The zero value is not valid; Normalize fills defaults.
type GenerationParams struct {
	StylePreset      string `json:"style_preset"`
	LightingPreset   string `json:"lighting_preset"`
	CompositionGuide string `json:"composition_guide"`
	ArtisticStyle    int    `json:"artistic_style"`
	Creativity       int    `json:"creativity"`
	Mood             int    `json:"mood"`
}

// Normalize fills omitted fields with the studio defaults. Zero-valued
// sliders are treated as omitted; the client UI never submits 0.
func (p *GenerationParams) Normalize() {
	if strings.TrimSpace(p.StylePreset) == "" {
		p.StylePreset = DefaultStylePreset
	}
	if strings.TrimSpace(p.LightingPreset) == "" {
		p.LightingPreset = DefaultLightingPreset
	}
	if strings.TrimSpace(p.CompositionGuide) == "" {
		p.CompositionGuide = DefaultCompositionGuide
	}
	if p.ArtisticStyle == 0 {
		p.ArtisticStyle = DefaultArtisticStyle
	}
	if p.Creativity == 0 {
		p.Creativity = DefaultCreativity
	}
	if p.Mood == 0 {
		p.Mood = DefaultMood
	}
}

// Validate checks preset membership and slider bounds. Call Normalize first.
func (p GenerationParams) Validate() error {
	if _, ok := stylePresets[p.StylePreset]; !ok {
		return fmt.Errorf("%w: unknown style_preset %q", ErrValidation, p.StylePreset)
	}
	if _, ok := lightingPresets[p.LightingPreset]; !ok {
		return fmt.Errorf("%w: unknown lighting_preset %q", ErrValidation, p.LightingPreset)
	}
	if _, ok := compositionGuides[p.CompositionGuide]; !ok {
		return fmt.Errorf("%w: unknown composition_guide %q", ErrValidation, p.CompositionGuide)
	}
	for _, s := range []struct {
		name  string
		value int
	}{
		{"artistic_style", p.ArtisticStyle},
		{"creativity", p.Creativity},
		{"mood", p.Mood},
	} {
		if s.value < SliderMin || s.value > SliderMax {
			return fmt.Errorf("%w: %s %d out of range [%d,%d]", ErrValidation, s.name, s.value, SliderMin, SliderMax)
		}
	}
	return nil
}

// EnrichPrompt appends the style and lighting descriptive suffixes plus the
// fixed quality suffix to prompt. The transform is deterministic and keyed
// only by the preset values; unknown presets contribute nothing.
func EnrichPrompt(prompt string, p GenerationParams) string {
	var b strings.Builder
	b.WriteString(prompt)
	if suffix, ok := styleSuffixes[p.StylePreset]; ok {
		b.WriteString(suffix)
	}
	if suffix, ok := lightingPresets[p.LightingPreset]; ok {
		b.WriteString(suffix)
	}
	b.WriteString(qualitySuffix)
	return b.String()
}

package task

// Preset carries the per-language constants used when a config leaves the
// interpreter or container image unset.
type Preset struct {
	Interpreter string
	Image       string
	Extension   string
}

var presets = map[Language]Preset{
	LanguageR:      {Interpreter: "Rscript", Image: "r-base", Extension: ".R"},
	LanguagePython: {Interpreter: "python", Image: "python:3.12-alpine", Extension: ".py"},
	LanguageShell:  {Interpreter: "sh", Image: "alpine:3.20", Extension: ".sh"},
}

// PresetFor returns the preset for the given language, falling back to the
// R preset for unknown identifiers so defaulting stays total.
func PresetFor(lang Language) Preset {
	if preset, ok := presets[lang]; ok {
		return preset
	}
	return presets[LanguageR]
}

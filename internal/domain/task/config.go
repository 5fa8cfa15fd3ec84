package task

// TargetOS selects the path-separator and shell conventions used when the
// command line is rendered for the execution environment.
type TargetOS string

const (
	OSLinux   TargetOS = "linux"
	OSWindows TargetOS = "windows"
)

// Language identifies the interpreter preset used to fill unset config fields.
type Language string

const (
	LanguageR      Language = "r"
	LanguagePython Language = "python"
	LanguageShell  Language = "shell"
)

// Config describes a single scripted-task execution request.
//
// The zero value of every optional field means "use the preset default";
// defaults are resolved once by ApplyDefaults at the execution boundary and
// never re-evaluated mid-run.
type Config struct {
	ID       string
	Language Language

	// Script is the inline script content, not a path to a file.
	Script string

	// Interpreter is the command invoked with the staged script path appended.
	Interpreter string

	// ContainerImage is the image a containerized runner executes in.
	ContainerImage string

	// BeforeCommands run before the interpreter invocation, in order.
	BeforeCommands []string

	// InputFiles maps staging-relative paths to file contents.
	InputFiles map[string]string

	// OutputFiles lists glob patterns selecting produced files to capture.
	OutputFiles []string

	// WarningOnStdErr classifies a zero-exit run with non-empty stderr as a
	// warning instead of a plain success. It never turns an error into a
	// success or vice versa.
	WarningOnStdErr bool

	TargetOS TargetOS
	Vars     map[string]any
	Limits   RunLimits
}

// ApplyDefaults returns a copy of cfg with unset fields filled from the
// language preset. Explicitly supplied values are always preserved.
func ApplyDefaults(cfg Config) Config {
	if cfg.Language == "" {
		cfg.Language = LanguageR
	}

	preset := PresetFor(cfg.Language)
	if cfg.Interpreter == "" {
		cfg.Interpreter = preset.Interpreter
	}
	if cfg.ContainerImage == "" {
		cfg.ContainerImage = preset.Image
	}
	if cfg.TargetOS == "" {
		cfg.TargetOS = OSLinux
	}

	return cfg
}

// CommandSequence is an ordered list of shell-invocable command strings.
// It is built once per task run and treated as immutable afterward.
type CommandSequence []string

// NewCommandSequence builds the final command list: each before command in
// order, followed by the main invocation as the last element.
func NewCommandSequence(before []string, main string) CommandSequence {
	seq := make(CommandSequence, 0, len(before)+1)
	seq = append(seq, before...)
	seq = append(seq, main)
	return seq
}

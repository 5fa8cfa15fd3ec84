// Package taskdef loads task definitions from YAML files. The file surface
// mirrors the fields a flow author writes: script, containerImage,
// beforeCommands, outputFiles, warningOnStdErr and friends.
package taskdef

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"taskrun/internal/domain/task"
)

var validate = validator.New()

// Definition is the YAML shape of a task file.
type Definition struct {
	ID              string            `yaml:"id"`
	Language        string            `yaml:"language" default:"r" validate:"oneof=r python shell"`
	Script          string            `yaml:"script" validate:"required"`
	Interpreter     string            `yaml:"interpreter"`
	ContainerImage  string            `yaml:"containerImage"`
	BeforeCommands  []string          `yaml:"beforeCommands"`
	InputFiles      map[string]string `yaml:"inputFiles"`
	OutputFiles     []string          `yaml:"outputFiles"`
	WarningOnStdErr bool              `yaml:"warningOnStdErr"`
	TargetOS        string            `yaml:"targetOS" default:"linux" validate:"oneof=linux windows"`
	Vars            map[string]any    `yaml:"vars"`
	Timeout         string            `yaml:"timeout"`
	MemoryLimit     int64             `yaml:"memoryLimit" validate:"gte=0"`
}

// Load reads and parses a task definition file.
func Load(path string) (task.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return task.Config{}, fmt.Errorf("read task definition: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML task definition, applies struct-tag defaults and
// validates required fields.
func Parse(data []byte) (task.Config, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return task.Config{}, fmt.Errorf("parse task definition: %w", err)
	}

	if err := defaults.Set(&def); err != nil {
		return task.Config{}, fmt.Errorf("apply definition defaults: %w", err)
	}

	if err := validate.Struct(def); err != nil {
		return task.Config{}, configError(err)
	}

	limits, err := def.toLimits()
	if err != nil {
		return task.Config{}, err
	}

	return task.Config{
		ID:              def.ID,
		Language:        task.Language(def.Language),
		Script:          def.Script,
		Interpreter:     def.Interpreter,
		ContainerImage:  def.ContainerImage,
		BeforeCommands:  def.BeforeCommands,
		InputFiles:      def.InputFiles,
		OutputFiles:     def.OutputFiles,
		WarningOnStdErr: def.WarningOnStdErr,
		TargetOS:        task.TargetOS(def.TargetOS),
		Vars:            def.Vars,
		Limits:          limits,
	}, nil
}

func (d Definition) toLimits() (task.RunLimits, error) {
	var limits task.RunLimits
	if d.Timeout != "" {
		timeout, err := time.ParseDuration(d.Timeout)
		if err != nil {
			return task.RunLimits{}, &task.ConfigError{Field: "timeout", Reason: fmt.Sprintf("invalid duration %q", d.Timeout)}
		}
		limits.TimeLimit = timeout
	}
	limits.MemoryLimitBytes = d.MemoryLimit
	return limits, nil
}

func configError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return &task.ConfigError{
			Field:  first.Field(),
			Reason: fmt.Sprintf("failed %q validation", first.Tag()),
		}
	}
	return fmt.Errorf("validate task definition: %w", err)
}

// Package receipt runs print jobs described as YAML documents.
//
// A job is a list of steps. Each step is either a bare operation name or a
// mapping with exactly one key, the operation, whose value is its argument:
//
//	name: order-1042
//	steps:
//	  - init
//	  - align: center
//	  - bold: true
//	  - text: ACME Coffee
//	  - qr: {text: "https://example.com/o/1042", size: 6, level: high}
//	  - feed: 4
//	  - cut
//
// Steps are decoded when the job is parsed, so unknown operations and
// malformed arguments are reported before anything is printed.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nixxel-company-limited/escpos-go/printer"
)

// Job is a parsed print job.
type Job struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`

	// dir resolves relative graphic paths; set by Load.
	dir string
}

// Step is one decoded operation of a job.
type Step struct {
	Op   string
	Line int
	do   action
}

// ParseError reports a job document that could not be decoded.
type ParseError struct {
	File    string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// StepError reports the step at which a job stopped.
type StepError struct {
	Index int
	Op    string
	Line  int
	Err   error
}

func (e *StepError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("step %d (%s, line %d): %v", e.Index, e.Op, e.Line, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Parse decodes a job document.
func Parse(data []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, &ParseError{Message: "failed to parse job", Cause: err}
	}
	if len(job.Steps) == 0 {
		return nil, &ParseError{Message: "job must have at least one step"}
	}
	return &job, nil
}

// Load reads and parses the job at path. Relative graphic paths in the job
// are resolved against the job file's directory.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{File: path, Message: "failed to read job", Cause: err}
	}
	job, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}
	job.dir = filepath.Dir(path)
	return job, nil
}

// Run executes the job's steps in order against p and stops at the first
// failing step. Builder steps go through the printer's asynchronous
// operations with an already-resolved descriptor.
func Run(ctx context.Context, p *printer.Printer, job *Job) error {
	for i, s := range job.Steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Index: i, Op: s.Op, Line: s.Line, Err: err}
		}
		if s.do == nil {
			return &StepError{Index: i, Op: s.Op, Line: s.Line, Err: fmt.Errorf("operation %q was not decoded", s.Op)}
		}
		if err := s.do(ctx, p, job.dir); err != nil {
			return &StepError{Index: i, Op: s.Op, Line: s.Line, Err: err}
		}
	}
	return nil
}

// UnmarshalYAML decodes a step written as "op" or "op: argument".
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var (
		op    string
		value *yaml.Node
	)
	switch node.Kind {
	case yaml.ScalarNode:
		op = node.Value
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: step must name exactly one operation, got %d", node.Line, len(node.Content)/2)
		}
		op, value = node.Content[0].Value, node.Content[1]
	default:
		return fmt.Errorf("line %d: step must be an operation name or a single-key mapping", node.Line)
	}

	decode, ok := operations[op]
	if !ok {
		return fmt.Errorf("line %d: unknown operation %q", node.Line, op)
	}
	do, err := decode(value)
	if err != nil {
		return fmt.Errorf("line %d: %s: %w", node.Line, op, err)
	}

	s.Op, s.Line, s.do = op, node.Line, do
	return nil
}

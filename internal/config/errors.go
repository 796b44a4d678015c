package config

import "fmt"

// Stage names the startup step that rejected a configuration.
type Stage string

const (
	StageRead     Stage = "read"
	StageDecode   Stage = "decode"
	StageValidate Stage = "validate"
	StageCompile  Stage = "compile"
	StageProbe    Stage = "probe"
)

// Error is returned for any configuration that cannot be used. It is fatal:
// the picker never starts.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &Error{Stage: stage, Err: err}
}

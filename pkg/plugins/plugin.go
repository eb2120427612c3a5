// Package plugins defines the closed interface through which RenderQ turns
// a job submission into concrete Tasks, and a Task into an executable
// command line and progress reports. It is a tagged interface, not a
// reflection-driven one: every optional hook is a method on the interface
// that a plugin implementation either overrides meaningfully or inherits a
// no-op default for via BasePlugin, so the coordinator never needs
// hasattr-style introspection to decide what a plugin supports.
package plugins

import "github.com/ChenxingM/RenderQ/pkg/types"

// ParameterType is one of the value kinds a plugin parameter can declare.
type ParameterType string

const (
	ParamString ParameterType = "string"
	ParamInt    ParameterType = "int"
	ParamFloat  ParameterType = "float"
	ParamBool   ParameterType = "bool"
	ParamPath   ParameterType = "path"
	ParamChoice ParameterType = "choice"
)

// Parameter describes one entry of a plugin's parameter schema. The schema
// drives client-side form generation; the coordinator itself only reads it
// to report plugin introspection, never to validate (validation is the
// plugin's own job).
type Parameter struct {
	Name        string        `json:"name"`
	Type        ParameterType `json:"type"`
	Label       string        `json:"label"`
	Required    bool          `json:"required"`
	Default     any           `json:"default,omitempty"`
	Choices     []string      `json:"choices,omitempty"`
	Description string        `json:"description,omitempty"`
}

// FollowUp is a descriptor for a job the coordinator should create once the
// originating job completes.
type FollowUp struct {
	Name       string
	Plugin     string
	Priority   int
	Pool       string
	PluginData map[string]any
	Metadata   map[string]any
}

// Plugin is the contract every rendering plugin implements.
type Plugin interface {
	// Name is the unique, stable identifier used in Job.Plugin and
	// Worker.Capabilities.
	Name() string
	DisplayName() string
	Version() string
	Description() string
	Parameters() []Parameter

	// Validate is a pure predicate over a submission's plugin_data.
	Validate(parameters map[string]any) (bool, string)

	// CreateTasks partitions job into its constituent Tasks. Deterministic
	// given identical inputs. Command vectors may be left empty; they are
	// filled in by BuildCommand on the worker.
	CreateTasks(job *types.Job) ([]*types.Task, error)

	// BuildCommand constructs the argument vector a worker executes for
	// task. Called worker-side, using worker-local paths.
	BuildCommand(task *types.Task, job *types.Job) ([]string, error)

	// ParseProgress inspects one line of child-process output and returns
	// a progress estimate in [0,100], or ok=false if the line conveys none.
	ParseProgress(line string, task *types.Task) (progress float64, ok bool)

	// Hooks, all no-ops unless overridden.
	OnTaskStart(task *types.Task, job *types.Job)
	OnTaskComplete(task *types.Task, job *types.Job)
	OnTaskFail(task *types.Task, job *types.Job)
	OnJobComplete(job *types.Job)

	// GetEncodingJobs returns follow-up job descriptors for job, or nil if
	// this plugin defines none.
	GetEncodingJobs(job *types.Job) []FollowUp
}

// BasePlugin supplies no-op implementations of every optional hook so a
// concrete plugin need only embed it and override what it actually uses.
type BasePlugin struct{}

func (BasePlugin) OnTaskStart(*types.Task, *types.Job)    {}
func (BasePlugin) OnTaskComplete(*types.Task, *types.Job) {}
func (BasePlugin) OnTaskFail(*types.Task, *types.Job)     {}
func (BasePlugin) OnJobComplete(*types.Job)               {}
func (BasePlugin) GetEncodingJobs(*types.Job) []FollowUp  { return nil }

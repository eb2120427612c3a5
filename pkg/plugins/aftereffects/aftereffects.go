// Package aftereffects implements RenderQ's frame-chunking reference plugin:
// it partitions a frame range into one Task per chunk and parses aerender's
// "PROGRESS: ... (frame)" console output into a completion percentage.
package aftereffects

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChenxingM/RenderQ/pkg/plugins"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

const (
	Name = "aftereffects"

	defaultChunkSize = 50
)

// Plugin is the After Effects reference plugin: it submits project/comp
// renders to aerender, chunking the frame range across Tasks so a long
// render can be distributed across several workers.
type Plugin struct {
	plugins.BasePlugin

	// ExecutablePaths lists default search locations for aerender when a
	// submission doesn't override aerender_path. Resolved on the worker,
	// never on the coordinator.
	ExecutablePaths []string
}

// New constructs the After Effects plugin with its default executable
// search path.
func New() *Plugin {
	return &Plugin{
		ExecutablePaths: []string{
			`C:\Program Files\Adobe\Adobe After Effects 2024\Support Files\aerender.exe`,
			`C:\Program Files\Adobe\Adobe After Effects 2023\Support Files\aerender.exe`,
			"/Applications/Adobe After Effects 2024/aerender",
		},
	}
}

func (p *Plugin) Name() string        { return Name }
func (p *Plugin) DisplayName() string { return "After Effects" }
func (p *Plugin) Version() string     { return "1.0.0" }
func (p *Plugin) Description() string {
	return "Renders an After Effects composition via aerender, chunked across frame ranges."
}

func (p *Plugin) Parameters() []plugins.Parameter {
	return []plugins.Parameter{
		{Name: "project_path", Type: plugins.ParamPath, Label: "Project File", Required: true},
		{Name: "comp_name", Type: plugins.ParamString, Label: "Composition", Required: true},
		{Name: "output_path", Type: plugins.ParamPath, Label: "Output Path", Required: true},
		{Name: "output_formats", Type: plugins.ParamString, Label: "Output Formats", Default: "png",
			Description: "comma-separated list of encodes to follow up with, e.g. \"prores4444,mp4\"; \"png\" is a no-op"},
		{Name: "frame_start", Type: plugins.ParamInt, Label: "Start Frame", Required: true},
		{Name: "frame_end", Type: plugins.ParamInt, Label: "End Frame", Required: true},
		{Name: "chunk_size", Type: plugins.ParamInt, Label: "Chunk Size", Default: 0,
			Description: "0 selects an automatic chunk size (min(50, total frames))"},
		{Name: "aerender_path", Type: plugins.ParamPath, Label: "aerender Path", Required: false},
	}
}

func (p *Plugin) Validate(parameters map[string]any) (bool, string) {
	for _, required := range []string{"project_path", "comp_name", "output_path"} {
		if s, _ := parameters[required].(string); strings.TrimSpace(s) == "" {
			return false, fmt.Sprintf("%s is required", required)
		}
	}

	start, err := intParam(parameters, "frame_start")
	if err != nil {
		return false, err.Error()
	}
	end, err := intParam(parameters, "frame_end")
	if err != nil {
		return false, err.Error()
	}
	if start > end {
		return false, "frame_start must not be greater than frame_end"
	}
	return true, ""
}

func (p *Plugin) CreateTasks(job *types.Job) ([]*types.Task, error) {
	start, err := intParam(job.PluginData, "frame_start")
	if err != nil {
		return nil, err
	}
	end, err := intParam(job.PluginData, "frame_end")
	if err != nil {
		return nil, err
	}
	chunkSize, _ := intParam(job.PluginData, "chunk_size")

	totalFrames := end - start + 1
	if chunkSize <= 0 {
		chunkSize = min(defaultChunkSize, totalFrames)
	}
	if chunkSize <= 0 {
		chunkSize = 1
	}

	var tasks []*types.Task
	index := 0
	for chunkStart := start; chunkStart <= end; chunkStart += chunkSize {
		chunkEnd := chunkStart + chunkSize - 1
		if chunkEnd > end {
			chunkEnd = end
		}
		fs, fe := chunkStart, chunkEnd
		tasks = append(tasks, &types.Task{
			JobID:      job.ID,
			Index:      index,
			Status:     types.TaskPending,
			FrameStart: &fs,
			FrameEnd:   &fe,
		})
		index++
	}
	return tasks, nil
}

func (p *Plugin) BuildCommand(task *types.Task, job *types.Job) ([]string, error) {
	aerender, err := p.findExecutable(job.PluginData)
	if err != nil {
		return nil, err
	}

	projectPath, _ := job.PluginData["project_path"].(string)
	compName, _ := job.PluginData["comp_name"].(string)
	outputPath, _ := job.PluginData["output_path"].(string)

	if task.FrameStart == nil || task.FrameEnd == nil {
		return nil, fmt.Errorf("aftereffects: task %s has no frame range", task.ID)
	}

	return []string{
		aerender,
		"-project", projectPath,
		"-comp", compName,
		"-output", outputPath,
		"-s", strconv.Itoa(*task.FrameStart),
		"-e", strconv.Itoa(*task.FrameEnd),
	}, nil
}

func (p *Plugin) findExecutable(parameters map[string]any) (string, error) {
	if custom, _ := parameters["aerender_path"].(string); custom != "" {
		return custom, nil
	}
	if len(p.ExecutablePaths) > 0 {
		return p.ExecutablePaths[0], nil
	}
	return "", fmt.Errorf("aftereffects: no aerender executable configured")
}

var progressPattern = regexp.MustCompile(`PROGRESS:.*\((\d+)\)`)

func (p *Plugin) ParseProgress(line string, task *types.Task) (float64, bool) {
	if strings.Contains(line, "PROGRESS: Total Time Elapsed") {
		return 100.0, true
	}

	match := progressPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}

	frame, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	if task.FrameStart == nil || task.FrameEnd == nil {
		return 0, false
	}
	total := *task.FrameEnd - *task.FrameStart + 1
	if total <= 0 {
		return 0, false
	}

	progress := float64(frame-*task.FrameStart+1) / float64(total) * 100
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return progress, true
}

// GetEncodingJobs proposes one ffmpeg follow-up job per entry of the
// comma-separated output_formats list; "png" is a no-op since the rendered
// sequence is already on disk in that format.
func (p *Plugin) GetEncodingJobs(job *types.Job) []plugins.FollowUp {
	raw, _ := job.PluginData["output_formats"].(string)
	outputPath, _ := job.PluginData["output_path"].(string)

	var followUps []plugins.FollowUp
	for _, format := range strings.Split(raw, ",") {
		format = strings.TrimSpace(format)
		codec, ext, ok := encodeTarget(format)
		if !ok {
			continue
		}

		pluginData := map[string]any{
			"input_pattern": outputPath,
			"output_file":   strings.TrimSuffix(outputPath, ".png") + ext,
			"codec":         codec,
		}
		if codec == "prores_ks" {
			pluginData["profile"] = "4444"
		}
		followUps = append(followUps, plugins.FollowUp{
			Name:       fmt.Sprintf("%s (%s)", job.Name, format),
			Plugin:     "ffmpeg",
			Priority:   job.Priority,
			Pool:       job.Pool,
			PluginData: pluginData,
		})
	}
	return followUps
}

// encodeTarget maps a requested output format to the ffmpeg codec and file
// extension its follow-up job should use. ok is false for formats that need
// no further encode, e.g. "png".
func encodeTarget(format string) (codec, ext string, ok bool) {
	switch format {
	case "prores4444":
		return "prores_ks", ".mov", true
	case "mp4":
		return "libx264", ".mp4", true
	default:
		return "", "", false
	}
}

func intParam(parameters map[string]any, key string) (int, error) {
	value, ok := parameters[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}


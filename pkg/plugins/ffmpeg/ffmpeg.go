// Package ffmpeg implements RenderQ's single-task encode reference plugin:
// it wraps an image sequence or intermediate file into one ffmpeg
// invocation and parses ffmpeg's stderr chatter for completion.
package ffmpeg

import (
	"fmt"
	"strings"

	"github.com/ChenxingM/RenderQ/pkg/plugins"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

const Name = "ffmpeg"

// Plugin is the ffmpeg reference plugin: a whole encode is always a single
// Task, since ffmpeg itself has no useful way to subdivide one output file
// across workers.
type Plugin struct {
	plugins.BasePlugin

	// ExecutablePaths lists default search locations for the ffmpeg
	// binary, resolved on the worker.
	ExecutablePaths []string
}

// New constructs the ffmpeg plugin with its default executable search path.
func New() *Plugin {
	return &Plugin{
		ExecutablePaths: []string{"/usr/bin/ffmpeg", "/usr/local/bin/ffmpeg", "/opt/homebrew/bin/ffmpeg"},
	}
}

func (p *Plugin) Name() string        { return Name }
func (p *Plugin) DisplayName() string { return "FFmpeg" }
func (p *Plugin) Version() string     { return "1.0.0" }
func (p *Plugin) Description() string {
	return "Encodes an input (image sequence or file) to a single output file with ffmpeg."
}

func (p *Plugin) Parameters() []plugins.Parameter {
	return []plugins.Parameter{
		{Name: "input_pattern", Type: plugins.ParamPath, Label: "Input", Required: true},
		{Name: "output_file", Type: plugins.ParamPath, Label: "Output File", Required: true},
		{Name: "codec", Type: plugins.ParamChoice, Label: "Codec", Choices: []string{"prores_ks", "libx264", "libx265"}, Default: "libx264"},
		{Name: "profile", Type: plugins.ParamString, Label: "Profile", Required: false},
		{Name: "crf", Type: plugins.ParamInt, Label: "CRF", Default: 18},
		{Name: "preset", Type: plugins.ParamString, Label: "Preset", Default: "medium"},
		{Name: "frame_rate", Type: plugins.ParamFloat, Label: "Frame Rate", Required: false},
		{Name: "start_number", Type: plugins.ParamInt, Label: "Start Number", Default: 1},
		{Name: "pix_fmt", Type: plugins.ParamString, Label: "Pixel Format", Required: false},
		{Name: "audio_file", Type: plugins.ParamPath, Label: "Audio File", Required: false},
		{Name: "ffmpeg_path", Type: plugins.ParamPath, Label: "ffmpeg Path", Required: false},
		{Name: "extra_args", Type: plugins.ParamString, Label: "Extra Arguments", Required: false},
	}
}

func (p *Plugin) Validate(parameters map[string]any) (bool, string) {
	input, _ := parameters["input_pattern"].(string)
	if strings.TrimSpace(input) == "" {
		return false, "input_pattern is required"
	}
	output, _ := parameters["output_file"].(string)
	if strings.TrimSpace(output) == "" {
		return false, "output_file is required"
	}
	codec, _ := parameters["codec"].(string)
	if codec == "prores_ks" {
		if profile, _ := parameters["profile"].(string); strings.TrimSpace(profile) == "" {
			return false, "profile is required for prores_ks"
		}
	}
	return true, ""
}

// CreateTasks always produces exactly one Task: the whole encode.
func (p *Plugin) CreateTasks(job *types.Job) ([]*types.Task, error) {
	return []*types.Task{{
		JobID:  job.ID,
		Index:  0,
		Status: types.TaskPending,
	}}, nil
}

func (p *Plugin) BuildCommand(task *types.Task, job *types.Job) ([]string, error) {
	ffmpegPath, _ := job.PluginData["ffmpeg_path"].(string)
	if ffmpegPath == "" {
		if len(p.ExecutablePaths) == 0 {
			return nil, fmt.Errorf("ffmpeg: no ffmpeg executable configured")
		}
		ffmpegPath = p.ExecutablePaths[0]
	}

	input, _ := job.PluginData["input_pattern"].(string)
	output, _ := job.PluginData["output_file"].(string)
	codec, _ := job.PluginData["codec"].(string)
	if codec == "" {
		codec = "libx264"
	}

	args := []string{ffmpegPath, "-y"}

	if startNumber, ok := job.PluginData["start_number"]; ok {
		args = append(args, "-start_number", fmt.Sprintf("%v", startNumber))
	}
	if frameRate, ok := job.PluginData["frame_rate"]; ok {
		args = append(args, "-r", fmt.Sprintf("%v", frameRate))
	}
	args = append(args, "-i", input)

	if audioFile, _ := job.PluginData["audio_file"].(string); audioFile != "" {
		args = append(args, "-i", audioFile)
	}

	args = append(args, "-c:v", codec)
	switch codec {
	case "prores_ks":
		if profile, _ := job.PluginData["profile"].(string); profile != "" {
			args = append(args, "-profile:v", profile)
		}
	case "libx264", "libx265":
		crf := "18"
		if v, ok := job.PluginData["crf"]; ok {
			crf = fmt.Sprintf("%v", v)
		}
		preset := "medium"
		if v, ok := job.PluginData["preset"]; ok {
			preset = fmt.Sprintf("%v", v)
		}
		args = append(args, "-crf", crf, "-preset", preset)
	}

	if pixFmt, _ := job.PluginData["pix_fmt"].(string); pixFmt != "" {
		args = append(args, "-pix_fmt", pixFmt)
	}

	if extra, _ := job.PluginData["extra_args"].(string); extra != "" {
		args = append(args, strings.Fields(extra)...)
	}

	args = append(args, output)
	return args, nil
}

// ParseProgress has no reliable total-frame count to compute a fraction
// from for "frame=" progress lines, so it reports no progress until ffmpeg
// prints its final summary line.
func (p *Plugin) ParseProgress(line string, task *types.Task) (float64, bool) {
	if strings.Contains(line, "video:") && strings.Contains(line, "audio:") {
		return 100.0, true
	}
	return 0, false
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"shift/internal/history"
	"shift/internal/pipeline"
	"shift/internal/report"
	"shift/internal/tasks"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
)

// parseFormat validates a --format value.
func parseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatHuman:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want human, json or yaml)", s)
	}
}

var (
	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(lipgloss.Color("#EF4444")).
			Bold(true)
	headingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	taskNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// TaskInfo describes one registered task.
type TaskInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// TaskListResponse is the output of `shift run --tasks`.
type TaskListResponse struct {
	Tasks []TaskInfo `json:"tasks" yaml:"tasks"`
}

func newTaskListResponse(r *tasks.Registry) *TaskListResponse {
	resp := &TaskListResponse{Tasks: []TaskInfo{}}
	for _, d := range r.List() {
		resp.Tasks = append(resp.Tasks, TaskInfo{Name: d.Name, Description: d.Description})
	}
	return resp
}

// RunResponse is the output of `shift run`.
type RunResponse struct {
	Version string                `json:"version" yaml:"version"`
	RunID   string                `json:"runId,omitempty" yaml:"runId,omitempty"`
	DryRun  bool                  `json:"dryRun" yaml:"dryRun"`
	Result  pipeline.Result       `json:"result" yaml:"result"`
	Reports []pipeline.TaskReport `json:"reports" yaml:"reports"`
}

// HistoryResponse is the output of `shift history`.
type HistoryResponse struct {
	Runs []history.Run `json:"runs" yaml:"runs"`
}

// RunDetailResponse is the output of `shift history --run <id>`.
type RunDetailResponse struct {
	Run     *history.Run    `json:"run" yaml:"run"`
	Changes []report.Change `json:"changes" yaml:"changes"`
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *TaskListResponse:
		return formatTaskListHuman(v), nil
	case *RunResponse:
		return formatRunHuman(v), nil
	case pipeline.TaskReport:
		return formatTaskReportHuman(v), nil
	case *HistoryResponse:
		return formatHistoryHuman(v), nil
	case *RunDetailResponse:
		return formatRunDetailHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatTaskListHuman(resp *TaskListResponse) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Available tasks:") + "\n")

	width := 0
	for _, t := range resp.Tasks {
		if len(t.Name) > width {
			width = len(t.Name)
		}
	}
	for _, t := range resp.Tasks {
		name := taskNameStyle.Render(t.Name + strings.Repeat(" ", width-len(t.Name)))
		b.WriteString(fmt.Sprintf("  %s  %s\n", name, t.Description))
	}
	return b.String()
}

// formatTaskReportHuman renders one task's notes. A failing task is announced
// first, followed by the issues it found.
func formatTaskReportHuman(r pipeline.TaskReport) string {
	var b strings.Builder
	if r.Failed() {
		b.WriteString(failureStyle.Render("Failed to run task:") + " " + r.Task + "\n")
	}

	for _, e := range r.Entries {
		b.WriteString(e.Path + "\n")
		if e.Reference != "" {
			b.WriteString("Reference: " + e.Reference + "\n")
		}
		if len(e.Notes) > 0 {
			b.WriteString("\n")
		}
		for _, note := range e.Notes {
			b.WriteString("  - " + note + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatRunHuman(resp *RunResponse) string {
	var b strings.Builder
	for _, r := range resp.Reports {
		b.WriteString(formatTaskReportHuman(r))
	}
	b.WriteString(formatRunFooter(resp))
	return b.String()
}

func formatRunFooter(resp *RunResponse) string {
	if resp.DryRun {
		return mutedStyle.Render("Dry run: no files were written.") + "\n"
	}
	return ""
}

func formatHistoryHuman(resp *HistoryResponse) string {
	if len(resp.Runs) == 0 {
		return "No runs recorded yet.\n"
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Recent runs") + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	for _, run := range resp.Runs {
		b.WriteString(fmt.Sprintf("%s  %s  %-9s exit=%d  changes=%d  tasks=%s\n",
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			run.Status,
			run.ExitCode,
			run.Changes,
			strings.Join(run.Tasks, ",")))
	}
	return b.String()
}

func formatRunDetailHuman(resp *RunDetailResponse) string {
	var b strings.Builder
	run := resp.Run

	b.WriteString(headingStyle.Render("Run "+run.ID) + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(fmt.Sprintf("  Started: %s\n", run.StartedAt.Local().Format(time.DateTime)))
	if run.CompletedAt != nil {
		b.WriteString(fmt.Sprintf("  Completed: %s\n", run.CompletedAt.Local().Format(time.DateTime)))
	}
	status := fmt.Sprintf("%s (exit %d", run.Status, run.ExitCode)
	if run.FailedTask != "" {
		status += ", task " + run.FailedTask
	}
	b.WriteString("  Status: " + status + ")\n")
	if run.Error != "" {
		b.WriteString("  Error: " + run.Error + "\n")
	}
	b.WriteString("  Tasks: " + strings.Join(run.Tasks, ", ") + "\n")
	if run.RepoState != "" {
		b.WriteString("  Repo State: " + shortDigest(run.RepoState) + "\n")
	}

	b.WriteString("\n")
	if len(resp.Changes) == 0 {
		b.WriteString("No files were changed.\n")
		return b.String()
	}

	b.WriteString("Changes:\n")
	for _, c := range resp.Changes {
		b.WriteString(fmt.Sprintf("  %s [%s] %d instance(s)\n", c.Path, c.Task, c.Instances))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("    %s -> %s", shortDigest(c.BeforeDigest), shortDigest(c.AfterDigest))) + "\n")
		for _, note := range c.Notes {
			b.WriteString("    - " + note + "\n")
		}
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// Package local provides an in-process executor for development and tests:
// shell commands and file operations against a workspace directory, plain
// HTTP fetches for browsing. It is not a sandbox.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/skeinworks/skein/runtime/agent/event"
)

type (
	// Executor runs actions against a local workspace directory.
	Executor struct {
		root   string
		client *http.Client

		mu         sync.Mutex
		background map[string]*exec.Cmd
	}

	// Options configures New.
	Options struct {
		// Root is the workspace directory all file paths resolve under.
		// Required and must exist.
		Root string
		// HTTPClient serves browse actions. Defaults to http.DefaultClient.
		HTTPClient *http.Client
	}
)

// maxBrowseBytes bounds the page content returned by a browse action.
const maxBrowseBytes = 1 << 20

// New constructs a local executor rooted at the given workspace.
func New(opts Options) (*Executor, error) {
	if opts.Root == "" {
		return nil, errors.New("workspace root is required")
	}
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", opts.Root)
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Executor{
		root:       opts.Root,
		client:     client,
		background: make(map[string]*exec.Cmd),
	}, nil
}

// RunAction executes one action. Action-level failures come back as error
// observations; conversational actions produce null observations.
func (x *Executor) RunAction(ctx context.Context, action event.ActionPayload) (event.ObservationPayload, error) {
	switch a := action.(type) {
	case event.RunCommandAction:
		return x.runCommand(ctx, a)
	case event.KillCommandAction:
		return x.killCommand(a)
	case event.ReadFileAction:
		return x.readFile(a)
	case event.WriteFileAction:
		return x.writeFile(a)
	case event.EditFileAction:
		return x.editFile(a)
	case event.BrowseURLAction:
		return x.browse(ctx, a)
	case event.SystemMessageAction, event.MessageAction, event.ThinkAction, event.FinishAction:
		return event.NullObservation{}, nil
	}
	return event.ErrorObservation{
		Message: fmt.Sprintf("action %s is not supported by the local executor", action.Kind()),
	}, nil
}

func (x *Executor) runCommand(ctx context.Context, a event.RunCommandAction) (event.ObservationPayload, error) {
	if a.Background {
		cmd := exec.Command("sh", "-c", a.Command)
		cmd.Dir = x.root
		if err := cmd.Start(); err != nil {
			return event.ErrorObservation{Message: fmt.Sprintf("start command: %v", err)}, nil
		}
		id := uuid.NewString()
		x.mu.Lock()
		x.background[id] = cmd
		x.mu.Unlock()
		return event.CommandObservation{
			Command: a.Command,
			Output:  fmt.Sprintf("started in background with id %s", id),
		}, nil
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", a.Command)
	cmd.Dir = x.root
	out, err := cmd.CombinedOutput()
	obs := event.CommandObservation{Command: a.Command, Output: string(out)}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		obs.ExitCode = exitErr.ExitCode()
	default:
		return event.ErrorObservation{Message: fmt.Sprintf("run command: %v", err)}, nil
	}
	return obs, nil
}

func (x *Executor) killCommand(a event.KillCommandAction) (event.ObservationPayload, error) {
	x.mu.Lock()
	cmd, ok := x.background[a.CommandID]
	delete(x.background, a.CommandID)
	x.mu.Unlock()
	if !ok {
		return event.ErrorObservation{Message: fmt.Sprintf("no background command %s", a.CommandID)}, nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return event.ErrorObservation{Message: fmt.Sprintf("kill command %s: %v", a.CommandID, err)}, nil
	}
	return event.CommandObservation{Command: a.CommandID, Output: "killed"}, nil
}

func (x *Executor) readFile(a event.ReadFileAction) (event.ObservationPayload, error) {
	path, err := x.resolve(a.Path)
	if err != nil {
		return event.ErrorObservation{Message: err.Error()}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return event.ErrorObservation{Message: fmt.Sprintf("read %s: %v", a.Path, err)}, nil
	}
	return event.FileReadObservation{Path: a.Path, Content: string(data)}, nil
}

func (x *Executor) writeFile(a event.WriteFileAction) (event.ObservationPayload, error) {
	path, err := x.resolve(a.Path)
	if err != nil {
		return event.ErrorObservation{Message: err.Error()}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return event.ErrorObservation{Message: fmt.Sprintf("write %s: %v", a.Path, err)}, nil
	}
	if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
		return event.ErrorObservation{Message: fmt.Sprintf("write %s: %v", a.Path, err)}, nil
	}
	return event.FileWriteObservation{Path: a.Path}, nil
}

func (x *Executor) editFile(a event.EditFileAction) (event.ObservationPayload, error) {
	path, err := x.resolve(a.Path)
	if err != nil {
		return event.ErrorObservation{Message: err.Error()}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return event.ErrorObservation{Message: fmt.Sprintf("edit %s: %v", a.Path, err)}, nil
	}
	content := string(data)
	if !strings.Contains(content, a.OldText) {
		return event.ErrorObservation{Message: fmt.Sprintf("edit %s: old text not found", a.Path)}, nil
	}
	content = strings.Replace(content, a.OldText, a.NewText, 1)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return event.ErrorObservation{Message: fmt.Sprintf("edit %s: %v", a.Path, err)}, nil
	}
	return event.FileWriteObservation{Path: a.Path}, nil
}

func (x *Executor) browse(ctx context.Context, a event.BrowseURLAction) (event.ObservationPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return event.ErrorObservation{Message: fmt.Sprintf("browse %s: %v", a.URL, err)}, nil
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return event.ErrorObservation{Message: fmt.Sprintf("browse %s: %v", a.URL, err)}, nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBrowseBytes))
	if err != nil {
		return event.ErrorObservation{Message: fmt.Sprintf("browse %s: %v", a.URL, err)}, nil
	}
	return event.BrowserObservation{URL: a.URL, Content: string(body)}, nil
}

// resolve joins a workspace-relative path with the root, rejecting escapes.
func (x *Executor) resolve(rel string) (string, error) {
	if rel == "" {
		return "", errors.New("path is required")
	}
	path := filepath.Join(x.root, rel)
	if path != x.root && !strings.HasPrefix(path, x.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes the workspace", rel)
	}
	return path, nil
}

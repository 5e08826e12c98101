package event

import (
	"fmt"
	"sort"
	"strings"
)

// Text renders a payload as the plain text shown to the model. It is the
// single dispatcher over the full payload set; a payload outside the set is
// a programming error and panics.
func Text(p Payload) string {
	switch v := p.(type) {
	case SystemMessageAction:
		return v.Content
	case MessageAction:
		return v.Content
	case ThinkAction:
		return v.Thought
	case RunCommandAction:
		if v.Background {
			return fmt.Sprintf("Run command in background: %s", v.Command)
		}
		return fmt.Sprintf("Run command: %s", v.Command)
	case KillCommandAction:
		return fmt.Sprintf("Kill command %s", v.CommandID)
	case ReadFileAction:
		return fmt.Sprintf("Read file %s", v.Path)
	case WriteFileAction:
		return fmt.Sprintf("Write file %s:\n%s", v.Path, v.Content)
	case EditFileAction:
		return fmt.Sprintf("Edit file %s: replace %q with %q", v.Path, v.OldText, v.NewText)
	case BrowseURLAction:
		return fmt.Sprintf("Browse %s", v.URL)
	case BrowseInteractiveAction:
		return fmt.Sprintf("Browser commands:\n%s", v.Code)
	case RunCodeCellAction:
		return fmt.Sprintf("Run code cell:\n%s", v.Code)
	case DelegateAction:
		return fmt.Sprintf("Delegate to %s: %s", v.Agent, v.Task)
	case FinishAction:
		var b strings.Builder
		b.WriteString("Task finished.")
		if v.Thought != "" {
			fmt.Fprintf(&b, " %s", v.Thought)
		}
		if s := describeOutputs(v.Outputs); s != "" {
			fmt.Fprintf(&b, "\n%s", s)
		}
		return b.String()
	case CondensationAction:
		if v.HasSummary() {
			return fmt.Sprintf("Condensed history: %s", v.Summary)
		}
		return fmt.Sprintf("Condensed history: forgot %d events", len(v.ForgottenIDs()))
	case CommandObservation:
		return fmt.Sprintf("Command %q exited %d:\n%s", v.Command, v.ExitCode, v.Output)
	case FileReadObservation:
		return fmt.Sprintf("Content of %s:\n%s", v.Path, v.Content)
	case FileWriteObservation:
		return fmt.Sprintf("Wrote %s", v.Path)
	case BrowserObservation:
		return fmt.Sprintf("Page %s:\n%s", v.URL, v.Content)
	case CodeCellObservation:
		return fmt.Sprintf("Cell output:\n%s", v.Output)
	case DelegateObservation:
		if s := describeOutputs(v.Outputs); s != "" {
			return fmt.Sprintf("Delegate finished.\n%s", s)
		}
		return "Delegate finished."
	case ErrorObservation:
		return fmt.Sprintf("Error: %s", v.Message)
	case NullObservation:
		return ""
	case MaskedObservation:
		return v.Placeholder
	case SummaryObservation:
		return fmt.Sprintf("Summary of earlier events: %s", v.Summary)
	}
	panic(fmt.Sprintf("event: unhandled payload kind %q", p.Kind()))
}

func describeOutputs(outputs map[string]string) string {
	if len(outputs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, outputs[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

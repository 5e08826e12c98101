package event

// Action payload kinds.
const (
	KindSystemMessageAction     Kind = "system_message"
	KindMessageAction           Kind = "message"
	KindThinkAction             Kind = "think"
	KindRunCommandAction        Kind = "run_command"
	KindKillCommandAction       Kind = "kill_command"
	KindReadFileAction          Kind = "read_file"
	KindWriteFileAction         Kind = "write_file"
	KindEditFileAction          Kind = "edit_file"
	KindBrowseURLAction         Kind = "browse_url"
	KindBrowseInteractiveAction Kind = "browse_interactive"
	KindRunCodeCellAction       Kind = "run_code_cell"
	KindDelegateAction          Kind = "delegate"
	KindFinishAction            Kind = "finish"
	KindCondensationAction      Kind = "condensation"
)

type (
	// SystemMessageAction seeds the session with the agent's system prompt.
	// At most one per session, always first.
	SystemMessageAction struct {
		// Content is the system prompt text.
		Content string `json:"content"`
		// Tools lists the tool names advertised alongside the prompt.
		Tools []string `json:"tools,omitempty"`
	}

	// MessageAction is a conversational message from the user or the agent.
	MessageAction struct {
		// Content is the message text.
		Content string `json:"content"`
		// WaitForResponse indicates the sender expects a reply before the
		// session proceeds.
		WaitForResponse bool `json:"wait_for_response,omitempty"`
	}

	// ThinkAction records agent reasoning that produces no side effect. Also
	// the degraded form of an unparsable model response.
	ThinkAction struct {
		// Thought is the reasoning text.
		Thought string `json:"thought"`
	}

	// RunCommandAction executes a shell command in the workspace.
	RunCommandAction struct {
		// Command is the shell command line.
		Command string `json:"command"`
		// Background runs the command without waiting for completion.
		Background bool `json:"background,omitempty"`
	}

	// KillCommandAction terminates a background command.
	KillCommandAction struct {
		// CommandID identifies the command to terminate.
		CommandID string `json:"command_id"`
	}

	// ReadFileAction reads a workspace file.
	ReadFileAction struct {
		// Path is the workspace-relative file path.
		Path string `json:"path"`
	}

	// WriteFileAction creates or overwrites a workspace file.
	WriteFileAction struct {
		// Path is the workspace-relative file path.
		Path string `json:"path"`
		// Content is the full file content to write.
		Content string `json:"content"`
	}

	// EditFileAction applies a targeted edit to a workspace file.
	EditFileAction struct {
		// Path is the workspace-relative file path.
		Path string `json:"path"`
		// OldText is the exact text to replace.
		OldText string `json:"old_text"`
		// NewText is the replacement text.
		NewText string `json:"new_text"`
	}

	// BrowseURLAction fetches a web page.
	BrowseURLAction struct {
		// URL is the page to fetch.
		URL string `json:"url"`
	}

	// BrowseInteractiveAction drives a browser session with low-level
	// commands.
	BrowseInteractiveAction struct {
		// Code is the browser command script.
		Code string `json:"code"`
	}

	// RunCodeCellAction executes code in a notebook kernel.
	RunCodeCellAction struct {
		// Code is the cell source.
		Code string `json:"code"`
	}

	// DelegateAction hands a subtask to another agent.
	DelegateAction struct {
		// Agent names the delegate.
		Agent string `json:"agent"`
		// Task describes the subtask.
		Task string `json:"task"`
	}

	// FinishAction declares the task complete and ends the session loop.
	FinishAction struct {
		// Outputs carries named final results.
		Outputs map[string]string `json:"outputs,omitempty"`
		// Thought is the agent's closing remark.
		Thought string `json:"thought,omitempty"`
	}

	// CondensationAction records a forgetting decision. It names either an
	// explicit list of forgotten ids or an inclusive id range, and may carry
	// a summary to insert into subsequent views at SummaryOffset. It is
	// appended to the log like any other event and excluded from views
	// during replay.
	CondensationAction struct {
		// Forgotten lists forgotten event ids explicitly. Empty when the
		// range form is used.
		Forgotten []int64 `json:"forgotten,omitempty"`
		// ForgottenStart is the first id of the forgotten range, inclusive.
		ForgottenStart int64 `json:"forgotten_start,omitempty"`
		// ForgottenEnd is the last id of the forgotten range, inclusive.
		ForgottenEnd int64 `json:"forgotten_end,omitempty"`
		// Summary replaces the forgotten events in the view, when non-empty.
		Summary string `json:"summary,omitempty"`
		// SummaryOffset is the view index at which the summary is inserted.
		SummaryOffset int `json:"summary_offset,omitempty"`
	}
)

func (SystemMessageAction) Kind() Kind     { return KindSystemMessageAction }
func (MessageAction) Kind() Kind           { return KindMessageAction }
func (ThinkAction) Kind() Kind             { return KindThinkAction }
func (RunCommandAction) Kind() Kind        { return KindRunCommandAction }
func (KillCommandAction) Kind() Kind       { return KindKillCommandAction }
func (ReadFileAction) Kind() Kind          { return KindReadFileAction }
func (WriteFileAction) Kind() Kind         { return KindWriteFileAction }
func (EditFileAction) Kind() Kind          { return KindEditFileAction }
func (BrowseURLAction) Kind() Kind         { return KindBrowseURLAction }
func (BrowseInteractiveAction) Kind() Kind { return KindBrowseInteractiveAction }
func (RunCodeCellAction) Kind() Kind       { return KindRunCodeCellAction }
func (DelegateAction) Kind() Kind          { return KindDelegateAction }
func (FinishAction) Kind() Kind            { return KindFinishAction }
func (CondensationAction) Kind() Kind      { return KindCondensationAction }

func (SystemMessageAction) sealed()     {}
func (MessageAction) sealed()           {}
func (ThinkAction) sealed()             {}
func (RunCommandAction) sealed()        {}
func (KillCommandAction) sealed()       {}
func (ReadFileAction) sealed()          {}
func (WriteFileAction) sealed()         {}
func (EditFileAction) sealed()          {}
func (BrowseURLAction) sealed()         {}
func (BrowseInteractiveAction) sealed() {}
func (RunCodeCellAction) sealed()       {}
func (DelegateAction) sealed()          {}
func (FinishAction) sealed()            {}
func (CondensationAction) sealed()      {}

func (SystemMessageAction) isAction()     {}
func (MessageAction) isAction()           {}
func (ThinkAction) isAction()             {}
func (RunCommandAction) isAction()        {}
func (KillCommandAction) isAction()       {}
func (ReadFileAction) isAction()          {}
func (WriteFileAction) isAction()         {}
func (EditFileAction) isAction()          {}
func (BrowseURLAction) isAction()         {}
func (BrowseInteractiveAction) isAction() {}
func (RunCodeCellAction) isAction()       {}
func (DelegateAction) isAction()          {}
func (FinishAction) isAction()            {}
func (CondensationAction) isAction()      {}

// ForgottenIDs expands the action into the concrete set of forgotten ids,
// whichever form it uses.
func (a CondensationAction) ForgottenIDs() []int64 {
	if len(a.Forgotten) > 0 {
		return append([]int64(nil), a.Forgotten...)
	}
	if a.ForgottenEnd < a.ForgottenStart || a.ForgottenEnd == 0 {
		return nil
	}
	ids := make([]int64, 0, a.ForgottenEnd-a.ForgottenStart+1)
	for id := a.ForgottenStart; id <= a.ForgottenEnd; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Forgets reports whether the action forgets the given id.
func (a CondensationAction) Forgets(id int64) bool {
	if len(a.Forgotten) > 0 {
		for _, f := range a.Forgotten {
			if f == id {
				return true
			}
		}
		return false
	}
	return a.ForgottenEnd > 0 && id >= a.ForgottenStart && id <= a.ForgottenEnd
}

// HasSummary reports whether the action carries a summary to insert.
func (a CondensationAction) HasSummary() bool { return a.Summary != "" }

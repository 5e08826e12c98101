package event

// Observation payload kinds.
const (
	KindCommandObservation   Kind = "command_output"
	KindFileReadObservation  Kind = "file_read"
	KindFileWriteObservation Kind = "file_write"
	KindBrowserObservation   Kind = "browser_output"
	KindCodeCellObservation  Kind = "code_cell_output"
	KindDelegateObservation  Kind = "delegate_result"
	KindErrorObservation     Kind = "error"
	KindNullObservation      Kind = "null"
	KindMaskedObservation    Kind = "masked"
	KindSummaryObservation   Kind = "summary"
)

type (
	// CommandObservation reports the result of a shell command.
	CommandObservation struct {
		// Command echoes the executed command line.
		Command string `json:"command"`
		// Output is the combined stdout/stderr.
		Output string `json:"output"`
		// ExitCode is the process exit status.
		ExitCode int `json:"exit_code"`
	}

	// FileReadObservation returns the content of a read file.
	FileReadObservation struct {
		// Path is the file that was read.
		Path string `json:"path"`
		// Content is the file content.
		Content string `json:"content"`
	}

	// FileWriteObservation confirms a file write or edit.
	FileWriteObservation struct {
		// Path is the file that was written.
		Path string `json:"path"`
	}

	// BrowserObservation returns a fetched page.
	BrowserObservation struct {
		// URL is the page address.
		URL string `json:"url"`
		// Content is the page text.
		Content string `json:"content"`
	}

	// CodeCellObservation returns notebook cell output.
	CodeCellObservation struct {
		// Output is the cell output.
		Output string `json:"output"`
	}

	// DelegateObservation returns a delegate agent's result.
	DelegateObservation struct {
		// Outputs carries the delegate's named results.
		Outputs map[string]string `json:"outputs,omitempty"`
	}

	// ErrorObservation reports an execution failure as data. Executor
	// failures always cross the controller boundary in this form, never as
	// Go errors.
	ErrorObservation struct {
		// Message describes the failure.
		Message string `json:"message"`
	}

	// NullObservation is the empty acknowledgement for actions with no
	// environment effect.
	NullObservation struct{}

	// MaskedObservation stands in for an observation whose content was
	// masked by a condenser.
	MaskedObservation struct {
		// Placeholder is the text shown instead of the original content.
		Placeholder string `json:"placeholder"`
	}

	// SummaryObservation carries a condensation summary. It only ever
	// appears as the synthetic event inserted during view replay; it is
	// never appended to a log.
	SummaryObservation struct {
		// Summary is the condensed account of the forgotten events.
		Summary string `json:"summary"`
	}
)

func (CommandObservation) Kind() Kind   { return KindCommandObservation }
func (FileReadObservation) Kind() Kind  { return KindFileReadObservation }
func (FileWriteObservation) Kind() Kind { return KindFileWriteObservation }
func (BrowserObservation) Kind() Kind   { return KindBrowserObservation }
func (CodeCellObservation) Kind() Kind  { return KindCodeCellObservation }
func (DelegateObservation) Kind() Kind  { return KindDelegateObservation }
func (ErrorObservation) Kind() Kind     { return KindErrorObservation }
func (NullObservation) Kind() Kind      { return KindNullObservation }
func (MaskedObservation) Kind() Kind    { return KindMaskedObservation }
func (SummaryObservation) Kind() Kind   { return KindSummaryObservation }

func (CommandObservation) sealed()   {}
func (FileReadObservation) sealed()  {}
func (FileWriteObservation) sealed() {}
func (BrowserObservation) sealed()   {}
func (CodeCellObservation) sealed()  {}
func (DelegateObservation) sealed()  {}
func (ErrorObservation) sealed()     {}
func (NullObservation) sealed()      {}
func (MaskedObservation) sealed()    {}
func (SummaryObservation) sealed()   {}

func (CommandObservation) isObservation()   {}
func (FileReadObservation) isObservation()  {}
func (FileWriteObservation) isObservation() {}
func (BrowserObservation) isObservation()   {}
func (CodeCellObservation) isObservation()  {}
func (DelegateObservation) isObservation()  {}
func (ErrorObservation) isObservation()     {}
func (NullObservation) isObservation()      {}
func (MaskedObservation) isObservation()    {}
func (SummaryObservation) isObservation()   {}

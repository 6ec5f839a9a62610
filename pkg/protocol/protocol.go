// Package protocol defines the action/response model exchanged between the
// flitify server and a connected client.
//
// Every inbound message is one Action (command + payload) and every Action is
// answered by exactly one Response (type + payload), except for the kick
// directive which terminates the session instead of producing a response.
package protocol

// Command identifies a server-issued action. The vocabulary is closed: the
// dispatch table in pkg/client covers every constant below and anything else
// is answered with ResponseInvalidAction.
type Command string

const (
	CommandPing       Command = "ping"
	CommandGetStatus  Command = "get_status"
	CommandListDir    Command = "list_dir"
	CommandShell      Command = "shell_command"
	CommandGetFile    Command = "get_file"
	CommandUploadFile Command = "upload_file"
	CommandKick       Command = "kick"
)

// Commands returns the full command vocabulary.
func Commands() []Command {
	return []Command{
		CommandPing,
		CommandGetStatus,
		CommandListDir,
		CommandShell,
		CommandGetFile,
		CommandUploadFile,
		CommandKick,
	}
}

// ParseCommand reports whether s names a known command.
func ParseCommand(s string) (Command, bool) {
	c := Command(s)
	switch c {
	case CommandPing, CommandGetStatus, CommandListDir, CommandShell,
		CommandGetFile, CommandUploadFile, CommandKick:
		return c, true
	}
	return c, false
}

// ResponseType identifies the kind of a client response.
type ResponseType string

const (
	ResponsePong          ResponseType = "pong"
	ResponseStatus        ResponseType = "status"
	ResponseListDir       ResponseType = "list_dir"
	ResponseShellResult   ResponseType = "shell_result"
	ResponseFileSend      ResponseType = "file_send"
	ResponseFileUpload    ResponseType = "file_upload"
	ResponseInvalidAction ResponseType = "invalid_action"

	// ResponseShellResponse is the failure channel used when a shell_command
	// action arrives without a command field. It predates ResponseShellResult
	// and is kept for wire compatibility.
	ResponseShellResponse ResponseType = "shell_response"
)

// Payload status values shared across response kinds.
const (
	StatusOK         = "ok"
	StatusFailed     = "failed"
	StatusNotFound   = "not_found"
	StatusTimeout    = "timeout"
	StatusFileExists = "file_exists"
)

// Action is one inbound request: a command plus its loosely typed payload.
// Command may carry an unknown value; the router decides what is dispatchable.
type Action struct {
	Command Command
	Data    Payload
}

// Response is one outbound result for an Action.
type Response struct {
	Type ResponseType
	Data Payload
}

// Envelope is the symmetric wire shape used in both directions: one JSON
// object per message, the type field routing it on the receiving side.
type Envelope struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

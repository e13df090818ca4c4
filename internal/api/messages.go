package api

// Wire messages are "<verb>:<payload>".

const (
	TraceQuery     = "trace"
	SyncQuery      = "sync"
	ParamHelpQuery = "param-help"
	AttQuery       = "att"
	StatusPoll     = "status"
)

const (
	ControlStart = "start"
	ControlStop  = "stop"
	ControlReset = "reset"
)

// Short builds an immediate query such as short:sync.
func Short(name string) string { return "short:" + name }

// Long builds a long-poll query such as long:status.
func Long(name string) string { return "long:" + name }

// Points builds the path submission from an encoded waypoint payload.
func Points(payload string) string { return "points:" + payload }

// Program asks the agent to switch to the named program.
func Program(name string) string { return "program:" + name }

// Control sends start, stop or reset to the running program.
func Control(op string) string { return "control:" + op }

// Set changes a program parameter.
func Set(code, value string) string { return "set:" + code + "=" + value }

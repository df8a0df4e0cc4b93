package frame

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Priorities understood by the device command queue. Higher values preempt
// queued commands.
const (
	DefaultPriority   = 600
	EmergencyPriority = 9000
)

// Frame is a single command understood by the device. The set of
// implementations is closed to this package.
type Frame interface {
	Kind() string
	args() any
}

type bodied interface {
	body() []Frame
}

type node struct {
	Kind string `json:"kind"`
	Args any    `json:"args"`
	Body []node `json:"body,omitempty"`
}

type noArgs struct{}

func toNode(f Frame) node {
	n := node{Kind: f.Kind(), Args: f.args()}
	if n.Args == nil {
		n.Args = noArgs{}
	}
	if b, ok := f.(bodied); ok {
		for _, child := range b.body() {
			n.Body = append(n.Body, toNode(child))
		}
	}
	return n
}

// Marshal encodes the frame and its nested body into the wire format.
func Marshal(f Frame) ([]byte, error) {
	return json.Marshal(toNode(f))
}

// RPCRequest is the envelope wrapping the commands of one request. The label
// correlates the device reply with the request.
type RPCRequest struct {
	Label    string
	Priority int
	Body     []Frame
}

// Wrap places the frame in an envelope with the given priority and a fresh
// label. Envelopes are returned unchanged apart from a missing label.
func Wrap(f Frame, priority int) RPCRequest {
	if rpc, ok := f.(RPCRequest); ok {
		if rpc.Label == "" {
			rpc.Label = NewLabel()
		}
		return rpc
	}
	return RPCRequest{Label: NewLabel(), Priority: priority, Body: []Frame{f}}
}

// NewLabel returns a unique correlation label.
func NewLabel() string { return uuid.NewString() }

func (RPCRequest) Kind() string { return "rpc_request" }

func (r RPCRequest) args() any {
	p := r.Priority
	if p == 0 {
		p = DefaultPriority
	}
	return struct {
		Label    string `json:"label"`
		Priority int    `json:"priority"`
	}{r.Label, p}
}

func (r RPCRequest) body() []Frame { return r.Body }

package frame

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reply kinds sent by the device in answer to an rpc_request.
const (
	KindRPCOk    = "rpc_ok"
	KindRPCError = "rpc_error"
)

// Reply is a decoded rpc_ok or rpc_error frame.
type Reply struct {
	Kind         string
	Label        string
	Explanations []string
}

// OK reports whether the device accepted the request.
func (r Reply) OK() bool { return r.Kind == KindRPCOk }

// Err returns nil for rpc_ok and an *RPCError otherwise.
func (r Reply) Err() error {
	if r.OK() {
		return nil
	}
	return &RPCError{Label: r.Label, Explanations: r.Explanations}
}

// DecodeReply parses a device reply. Frames of other kinds are rejected.
func DecodeReply(payload []byte) (Reply, error) {
	var raw struct {
		Kind string `json:"kind"`
		Args struct {
			Label string `json:"label"`
		} `json:"args"`
		Body []struct {
			Args struct {
				Message string `json:"message"`
			} `json:"args"`
		} `json:"body"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	if raw.Kind != KindRPCOk && raw.Kind != KindRPCError {
		return Reply{}, fmt.Errorf("unexpected reply kind %q", raw.Kind)
	}
	r := Reply{Kind: raw.Kind, Label: raw.Args.Label}
	for _, b := range raw.Body {
		if b.Args.Message != "" {
			r.Explanations = append(r.Explanations, b.Args.Message)
		}
	}
	return r, nil
}

// RPCError is returned when the device rejects a request.
type RPCError struct {
	Label        string
	Explanations []string
}

func (e *RPCError) Error() string {
	if len(e.Explanations) == 0 {
		return fmt.Sprintf("rpc %s rejected", e.Label)
	}
	return fmt.Sprintf("rpc %s rejected: %s", e.Label, strings.Join(e.Explanations, "; "))
}

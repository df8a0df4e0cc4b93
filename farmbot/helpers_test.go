package farmbot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
	"github.com/kilianp07/farmbot/core/rest"
	"github.com/kilianp07/farmbot/infra/logger"
	"github.com/kilianp07/farmbot/infra/mqtt"
)

type apiCall struct {
	Method   string
	Endpoint string
	ID       rest.ID
	Payload  any
}

// fakeAPI is an in-memory web API. PATCH merges into the stored object and
// POST appends to the collection.
type fakeAPI struct {
	mu        sync.Mutex
	resources map[string]map[rest.ID]map[string]any
	calls     []apiCall
	err       error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{resources: make(map[string]map[rest.ID]map[string]any)}
}

func (f *fakeAPI) put(endpoint string, id rest.ID, obj map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resources[endpoint] == nil {
		f.resources[endpoint] = make(map[rest.ID]map[string]any)
	}
	f.resources[endpoint][id] = obj
}

func (f *fakeAPI) Request(_ context.Context, method, endpoint string, id rest.ID, payload any) (rest.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, apiCall{method, endpoint, id, payload})
	if f.err != nil {
		return nil, f.err
	}
	coll := f.resources[endpoint]
	switch method {
	case http.MethodGet:
		if id == rest.NoID {
			if obj, ok := coll[rest.NoID]; ok {
				return json.Marshal(obj)
			}
			list := make([]map[string]any, 0, len(coll))
			for _, obj := range coll {
				list = append(list, obj)
			}
			return json.Marshal(list)
		}
		obj, ok := coll[id]
		if !ok {
			return nil, fmt.Errorf("%s/%d: not found", endpoint, id)
		}
		return json.Marshal(obj)
	case http.MethodPatch:
		obj, ok := coll[id]
		if !ok {
			return nil, fmt.Errorf("%s/%d: not found", endpoint, id)
		}
		for k, v := range toMap(payload) {
			obj[k] = v
		}
		return json.Marshal(obj)
	case http.MethodPost:
		if f.resources[endpoint] == nil {
			f.resources[endpoint] = make(map[rest.ID]map[string]any)
		}
		obj := toMap(payload)
		f.resources[endpoint][rest.ID(len(f.resources[endpoint])+1)] = obj
		return json.Marshal(obj)
	}
	return nil, fmt.Errorf("unsupported method %s", method)
}

func (f *fakeAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method + " " + c.Endpoint
	}
	return out
}

func toMap(payload any) map[string]any {
	b, _ := json.Marshal(payload)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

var quiet = WithLogger(logger.NopLogger{})

func newBot(api *fakeAPI, b *mqtt.MockBroker, opts ...Option) *Farmbot {
	return New(api, b, nil, append([]Option{quiet}, opts...)...)
}

// envelope decodes a recorded envelope for assertions.
func envelope(t *testing.T, rpc frame.RPCRequest) map[string]any {
	t.Helper()
	b, err := frame.Marshal(rpc)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

// body returns the single command inside a decoded envelope.
func body(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	frames, ok := env["body"].([]any)
	require.True(t, ok, "envelope has no body")
	require.Len(t, frames, 1)
	return frames[0].(map[string]any)
}

func statusPayload(x, y, z float64, pins map[int]float64) []byte {
	p := map[string]any{}
	for pin, v := range pins {
		p[fmt.Sprint(pin)] = map[string]any{"mode": 0, "value": v}
	}
	b, _ := json.Marshal(map[string]any{
		"location_data": map[string]any{"position": map[string]any{"x": x, "y": y, "z": z}},
		"pins":          p,
	})
	return b
}

// replyStatus makes the broker publish tree whenever read_status is sent.
func replyStatus(b *mqtt.MockBroker, tree []byte) {
	b.OnPublish = func(rpc frame.RPCRequest) {
		if len(rpc.Body) == 1 && rpc.Body[0].Kind() == "read_status" {
			b.Emit(broker.ChannelStatus, tree)
		}
	}
}

package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
	"github.com/pkg/errors"
)

// StatusHeader lets a remote service flag its response as pending, which
// suspends the workflow thread until it is invoked again.
const StatusHeader = "X-Workflow-Status"

const defaultRemoteTimeout = 30 * time.Second

// RemoteAgent delegates a workflow step to an external service. The
// current state is POSTed as JSON and the response body is decoded as the
// state delta to merge back in.
type RemoteAgent[T state.GraphState[T]] struct {
	name     string
	endpoint string
	client   *http.Client
	metadata map[string]any
}

// RemoteOption configures a RemoteAgent.
type RemoteOption[T state.GraphState[T]] func(*RemoteAgent[T])

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient[T state.GraphState[T]](client *http.Client) RemoteOption[T] {
	return func(ra *RemoteAgent[T]) {
		if client != nil {
			ra.client = client
		}
	}
}

func NewRemoteAgent[T state.GraphState[T]](name, endpoint string, meta map[string]any, opts ...RemoteOption[T]) *RemoteAgent[T] {
	ra := &RemoteAgent[T]{
		name:     name,
		endpoint: endpoint,
		metadata: meta,
		client:   &http.Client{Timeout: defaultRemoteTimeout},
	}
	for _, opt := range opts {
		opt(ra)
	}
	return ra
}

func (ra *RemoteAgent[T]) Name() string {
	return ra.name
}

func (ra *RemoteAgent[T]) Execute(ctx context.Context, s T, cfg types.Config[T]) (types.NodeResponse[T], error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return types.NodeResponse[T]{State: s, Status: types.StatusFailed},
			errors.Wrapf(err, "remote agent %s: encode state", ra.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ra.endpoint, bytes.NewReader(payload))
	if err != nil {
		return types.NodeResponse[T]{State: s, Status: types.StatusFailed},
			errors.Wrapf(err, "remote agent %s: build request", ra.name)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Thread-ID", cfg.ThreadID)

	resp, err := ra.client.Do(req)
	if err != nil {
		return types.NodeResponse[T]{State: s, Status: types.StatusFailed},
			errors.Wrapf(err, "remote agent %s: call %s", ra.name, ra.endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.NodeResponse[T]{State: s, Status: types.StatusFailed},
			errors.Errorf("remote agent %s: %s returned %d: %s", ra.name, ra.endpoint, resp.StatusCode, bytes.TrimSpace(body))
	}

	var delta T
	if err := json.NewDecoder(resp.Body).Decode(&delta); err != nil {
		return types.NodeResponse[T]{State: s, Status: types.StatusFailed},
			errors.Wrapf(err, "remote agent %s: decode response", ra.name)
	}

	status := types.StatusCompleted
	if resp.Header.Get(StatusHeader) == string(types.StatusPending) {
		status = types.StatusPending
	}

	return types.NodeResponse[T]{State: delta, Status: status}, nil
}

func (ra *RemoteAgent[T]) Metadata() map[string]any {
	return ra.metadata
}

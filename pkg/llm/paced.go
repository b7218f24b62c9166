// Package llm provides the model gateway: langchaingo models wrapped
// with call pacing, a deterministic scripted model for offline use, and
// provider bootstrap.
package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/paceline/paceline/pkg/pacing"
	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
)

// Limiter is the pacing surface PacedModel needs: reserve a slot on a
// shared timeline and sleep until it opens.
type Limiter interface {
	Wait(ctx context.Context) (time.Duration, error)
}

var _ Limiter = (*pacing.Pacer)(nil)

// PacedModel spaces out calls to the wrapped model. Every generation
// first waits for its slot on the shared pacer, so concurrent agents
// drain against one provider at a controlled rate.
type PacedModel struct {
	model   llms.Model
	limiter Limiter
}

// NewPacedModel wraps model so each call waits on limiter first. A nil
// limiter disables pacing.
func NewPacedModel(model llms.Model, limiter Limiter) *PacedModel {
	return &PacedModel{model: model, limiter: limiter}
}

var _ llms.Model = (*PacedModel)(nil)

// GenerateContent waits for the next pacing slot, then delegates.
func (m *PacedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if err := m.pace(ctx); err != nil {
		return nil, err
	}
	return m.model.GenerateContent(ctx, messages, options...)
}

// Call implements the legacy completion surface of llms.Model.
func (m *PacedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if err := m.pace(ctx); err != nil {
		return "", err
	}
	return m.model.Call(ctx, prompt, options...)
}

func (m *PacedModel) pace(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}
	waited, err := m.limiter.Wait(ctx)
	if err != nil {
		return errors.Wrap(err, "pacing wait aborted")
	}
	if waited > 0 {
		slog.Debug("model call paced", "waited", waited)
	}
	return nil
}

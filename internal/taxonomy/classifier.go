package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensedash/internal/core"
	applog "expensedash/internal/log"
)

// DefaultClassifyTimeout bounds a single predictor call.
const DefaultClassifyTimeout = 10 * time.Second

// Predictor suggests a category label for a free-text expense name. It
// may return any string; the Classifier validates it.
type Predictor interface {
	PredictCategory(ctx context.Context, name string, categories []core.Category) (string, error)
}

// PredictorFunc adapts a plain function to Predictor.
type PredictorFunc func(ctx context.Context, name string, categories []core.Category) (string, error)

func (f PredictorFunc) PredictCategory(ctx context.Context, name string, categories []core.Category) (string, error) {
	return f(ctx, name, categories)
}

// Classifier maps names onto a taxonomy through a Predictor. Classify
// never fails: every predictor failure degrades to Miscellaneous.
type Classifier struct {
	tax       *Taxonomy
	predictor Predictor
	timeout   time.Duration
	logger    *slog.Logger
}

type ClassifierOption func(*Classifier)

func WithTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClassifier builds a Classifier. A nil predictor makes every call
// return Miscellaneous.
func NewClassifier(tax *Taxonomy, p Predictor, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		tax:       tax,
		predictor: p,
		timeout:   DefaultClassifyTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns a member of the taxonomy for name.
func (c *Classifier) Classify(ctx context.Context, name string) core.Category {
	name = strings.TrimSpace(name)
	if name == "" || c.predictor == nil {
		return core.Miscellaneous
	}

	label, err := c.predict(ctx, name)
	if err != nil {
		c.logger.WarnContext(ctx, "Category prediction failed, using fallback",
			"expense_name", name, applog.FieldError, err)
		return core.Miscellaneous
	}

	cat, ok := c.tax.Category(label)
	if !ok {
		c.logger.DebugContext(ctx, "Predicted category outside taxonomy",
			"expense_name", name, "label", label)
		return core.Miscellaneous
	}
	return cat
}

// predict runs the predictor on its own goroutine so a predictor that
// ignores ctx still cannot hold the caller past the timeout.
func (c *Classifier) predict(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		label string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("predictor panic: %v", r)}
			}
		}()
		l, e := c.predictor.PredictCategory(ctx, name, c.tax.Categories())
		done <- result{label: l, err: e}
	}()

	select {
	case res := <-done:
		return res.label, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Package classifier turns a recognized transcript into an expense draft.
//
// A remote model is asked first, bounded by a timeout. Whatever goes wrong
// with it (timeout, transport error, unusable response) is logged and the
// deterministic Fallback parser answers instead, so Analyze always returns
// a usable draft.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"spesevoce/internal/core"
	"spesevoce/internal/log"
)

// DefaultTimeout bounds a single remote classification.
const DefaultTimeout = 8 * time.Second

// Generator sends a prompt to a text model and returns its raw answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	Timeout         time.Duration
	Taxonomy        core.Taxonomy
	EnforceTaxonomy bool
	Location        *time.Location
	Now             func() time.Time
	Logger          *log.Logger
}

type Classifier struct {
	gen     Generator
	timeout time.Duration
	tax     core.Taxonomy
	enforce bool
	loc     *time.Location
	now     func() time.Time
	logger  *log.Logger
}

// New returns a classifier. A nil gen gives a fallback-only classifier.
func New(gen Generator, opts Options) *Classifier {
	c := &Classifier{
		gen:     gen,
		timeout: opts.Timeout,
		tax:     opts.Taxonomy,
		enforce: opts.EnforceTaxonomy,
		loc:     opts.Location,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.tax == nil {
		c.tax = core.DefaultTaxonomy()
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentClassifier)
	}
	return c
}

// Remote reports whether a model is configured.
func (c *Classifier) Remote() bool { return c.gen != nil }

// Analyze never fails: remote problems are logged and answered by Fallback.
func (c *Classifier) Analyze(ctx context.Context, text string) core.Draft {
	now := c.now().In(c.loc)
	if c.gen == nil {
		return Fallback(text, now)
	}

	start := time.Now()
	d, err := c.classify(ctx, text, now)
	if err != nil {
		kind := "unknown"
		var f *Failure
		if errors.As(err, &f) {
			kind = f.Kind.String()
		}
		c.logger.WarnContext(ctx, "Remote classification failed, using fallback parser",
			log.FieldErrorType, kind,
			log.FieldError, err,
			log.FieldDuration, time.Since(start).Milliseconds())
		return Fallback(text, now)
	}

	c.logger.DebugContext(ctx, "Transcript classified",
		log.FieldPrimaryCategory, d.Category,
		log.FieldSecondaryCategory, d.Subcategory,
		log.FieldDuration, time.Since(start).Milliseconds())
	return d
}

func (c *Classifier) classify(ctx context.Context, text string, now time.Time) (core.Draft, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := BuildPrompt(text, c.tax, c.enforce, now.Format(core.DateLayout), now.Format("15:04"))
	raw, err := c.generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return core.Draft{}, &Failure{Kind: KindTimeout, Err: err}
		}
		return core.Draft{}, &Failure{Kind: KindNetwork, Err: err}
	}

	obj, ok := ExtractObject(raw)
	if !ok {
		return core.Draft{}, &Failure{Kind: KindParse, Err: &ParseError{Reason: "no JSON object in response"}}
	}
	d, ignored, err := decode(obj, text, now)
	if err != nil {
		return core.Draft{}, &Failure{Kind: KindParse, Err: err}
	}
	if len(ignored) > 0 {
		c.logger.DebugContext(ctx, "Malformed optional fields defaulted", "fields", strings.Join(ignored, ","))
	}
	return d, nil
}

type generated struct {
	text string
	err  error
}

// generate enforces the deadline even if the generator ignores ctx.
func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	done := make(chan generated, 1)
	go func() {
		text, err := c.gen.Generate(ctx, prompt)
		done <- generated{text, err}
	}()
	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for model: %w", ctx.Err())
	}
}

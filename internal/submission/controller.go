package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ahlyab/flood-prediction/internal/indicators"
	"github.com/Ahlyab/flood-prediction/internal/logging"
	"github.com/Ahlyab/flood-prediction/internal/predict"
)

var (
	// ErrPending is returned by Submit under RejectWhilePending while a
	// request is in flight.
	ErrPending = errors.New("a submission is already pending")

	// ErrSuperseded is returned by Submit when a newer submission started
	// before this one resolved. The returned state is the current one.
	ErrSuperseded = errors.New("submission superseded by a newer one")

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("submission controller closed")
)

// Predictor is the prediction service as seen by the controller.
// *predict.Client satisfies it.
type Predictor interface {
	Predict(ctx context.Context, payload indicators.Payload) (*predict.Prediction, error)
}

// PredictorFunc adapts a function to Predictor
type PredictorFunc func(ctx context.Context, payload indicators.Payload) (*predict.Prediction, error)

// Predict calls f
func (f PredictorFunc) Predict(ctx context.Context, payload indicators.Payload) (*predict.Prediction, error) {
	return f(ctx, payload)
}

// Controller owns one form and its submission state. It is safe for
// concurrent use; every renderer reads snapshots through State and Form.
type Controller struct {
	predictor Predictor
	policy    Policy
	initial   indicators.FormValues
	newID     func() string
	now       func() time.Time

	mu       sync.Mutex
	form     indicators.FormValues
	state    State
	seq      uint64
	resetSeq uint64
	cancels  map[uint64]context.CancelFunc
	closed   bool
	subs     map[int]chan State
	nextSub  int
}

// Option configures a Controller
type Option func(*Controller)

// WithPolicy sets the overlap policy (default LastSentWins)
func WithPolicy(p Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithInitialForm sets the form used at creation and by Reset
func WithInitialForm(form indicators.FormValues) Option {
	return func(c *Controller) { c.initial = form }
}

// WithIDGenerator replaces the request id generator
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) { c.newID = gen }
}

// WithClock replaces the time source used for UpdatedAt
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a controller that submits to p
func New(p Predictor, opts ...Option) *Controller {
	c := &Controller{
		predictor: p,
		policy:    LastSentWins,
		initial:   indicators.Defaults(),
		newID:     uuid.NewString,
		now:       time.Now,
		cancels:   make(map[uint64]context.CancelFunc),
		subs:      make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.form = c.initial
	c.state = State{Phase: PhaseIdle, UpdatedAt: c.now()}
	return c
}

// Policy returns the overlap policy
func (c *Controller) Policy() Policy {
	return c.policy
}

// Form returns the current form values
func (c *Controller) Form() indicators.FormValues {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// SetField replaces one raw field value. It never touches the submission
// state; a pending request keeps the payload it was started with.
func (c *Controller) SetField(name, raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = c.form.SetField(name, raw)
}

// SetForm replaces every field at once
func (c *Controller) SetForm(form indicators.FormValues) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = form
}

// State returns the current submission snapshot
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset restores the initial form, cancels any in-flight request and
// returns to Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelAllLocked()
	c.seq++
	c.resetSeq = c.seq
	c.form = c.initial
	c.setStateLocked(State{Phase: PhaseIdle, Seq: c.seq})
}

// Submit sends the current form to the predictor and blocks until the
// request resolves or ctx is done. The state moves to Pending first, which
// clears any previous result or error.
//
// The returned State is the controller's state after this call. A request
// overtaken by Reset, or by a newer Submit under LastSentWins, returns
// ErrSuperseded and leaves the state alone.
func (c *Controller) Submit(ctx context.Context) (State, error) {
	t, state, err := c.begin(ctx)
	if err != nil {
		return state, err
	}
	return c.finish(t)
}

// Start is Submit without the wait. It returns the Pending state, or the
// same ErrClosed and ErrPending errors Submit would; the outcome is only
// visible through State and Subscribe.
func (c *Controller) Start(ctx context.Context) (State, error) {
	t, state, err := c.begin(ctx)
	if err != nil {
		return state, err
	}
	go func() {
		_, _ = c.finish(t)
	}()
	return state, nil
}

// ticket is one in-flight submission
type ticket struct {
	seq       uint64
	ctx       context.Context
	cancel    context.CancelFunc
	requestID string
	form      indicators.FormValues
}

// begin moves the state to Pending and registers the request
func (c *Controller) begin(ctx context.Context) (ticket, State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ticket{}, c.state, ErrClosed
	}
	if c.policy == RejectWhilePending && len(c.cancels) > 0 {
		return ticket{}, c.state, ErrPending
	}
	if c.policy == LastSentWins {
		c.cancelAllLocked()
	}

	c.seq++
	t := ticket{seq: c.seq, requestID: c.newID(), form: c.form}
	t.ctx, t.cancel = context.WithCancel(ctx)
	c.cancels[t.seq] = t.cancel

	c.setStateLocked(State{Phase: PhasePending, RequestID: t.requestID, Seq: t.seq})
	return t, c.state, nil
}

// finish runs the request for t and records its outcome
func (c *Controller) finish(t ticket) (State, error) {
	defer t.cancel()
	probability, err := c.run(t.ctx, t.requestID, t.form)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cancels, t.seq)

	if c.closed {
		return c.state, ErrClosed
	}
	if c.superseded(t.seq) {
		logging.LogSubmissionSuperseded(t.requestID, c.seq, t.seq)
		return c.state, ErrSuperseded
	}

	if err != nil {
		logging.LogSubmissionFailure(t.requestID, err)
		c.setStateLocked(State{Phase: PhaseFailed, Message: FailureMessage, RequestID: t.requestID, Seq: t.seq})
		return c.state, nil
	}

	c.setStateLocked(State{Phase: PhaseSucceeded, Probability: probability, RequestID: t.requestID, Seq: t.seq})
	return c.state, nil
}

// superseded reports whether the result of submission seq must be dropped
func (c *Controller) superseded(seq uint64) bool {
	if seq <= c.resetSeq {
		return true
	}
	if c.policy == LastResolvedWins {
		return false
	}
	return seq != c.seq
}

// cancelAllLocked cancels every in-flight request
func (c *Controller) cancelAllLocked() {
	for seq, cancel := range c.cancels {
		cancel()
		delete(c.cancels, seq)
	}
}

func (c *Controller) run(ctx context.Context, requestID string, form indicators.FormValues) (float64, error) {
	payload, err := form.Payload()
	if err != nil {
		return 0, err
	}
	prediction, err := c.predictor.Predict(predict.WithRequestID(ctx, requestID), payload)
	if err != nil {
		return 0, err
	}
	if prediction == nil {
		return 0, errors.New("predictor returned no prediction")
	}
	return prediction.Probability, nil
}

// Subscribe returns a channel that receives every state change. Only the
// latest snapshot is buffered; slow readers skip intermediate states.
// Call the returned function to unsubscribe.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close cancels any in-flight request and closes all subscriptions.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancelAllLocked()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// setStateLocked must be called with c.mu held
func (c *Controller) setStateLocked(s State) {
	s.UpdatedAt = c.now()
	c.state = s
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

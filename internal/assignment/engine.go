// Package assignment computes Secret Santa draws.
//
// Two modes are supported and never mixed:
//
//   - ModeDerangement: a uniformly random permutation without fixed points
//     that honors every exclusion, found by rejection sampling with a bounded
//     attempt budget, then by a randomized backtracking search.
//   - ModeCircular: the participants are shuffled into one cycle. Exclusions
//     are ignored.
package assignment

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"
)

const (
	// DefaultMaxAttempts bounds the rejection-sampling loop.
	DefaultMaxAttempts = 10000

	// DefaultTimeout bounds a single derangement computation.
	DefaultTimeout = 2 * time.Second

	// DefaultSearchSteps bounds the backtracking fallback.
	DefaultSearchSteps = 1 << 20

	// ctxCheckInterval is how many iterations run between context checks.
	ctxCheckInterval = 64
)

var (
	ErrInsufficientParticipants = errors.New("at least two participants are required")
	ErrInfeasible               = errors.New("no valid assignment satisfies the restrictions")
	ErrDuplicateParticipant     = errors.New("duplicate participant")
)

// Mode selects the assignment algorithm.
type Mode string

const (
	ModeDerangement Mode = "derangement"
	ModeCircular    Mode = "circular"
)

// ParseMode maps user input to a Mode. The empty string selects
// ModeDerangement.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "derangement", "random":
		return ModeDerangement, nil
	case "circle", "circular", "kreis":
		return ModeCircular, nil
	default:
		return "", fmt.Errorf("unknown assignment mode %q", s)
	}
}

// Exclusions reports whether a giver must not draw a recipient.
// models.Restrictions implements it.
type Exclusions interface {
	Forbids(giverID, recipientID string) bool
}

// Result is a computed assignment.
type Result struct {
	Mode Mode

	// Recipients maps giver ID to recipient ID.
	Recipients map[string]string

	// Attempts is the number of shuffles tried by rejection sampling.
	Attempts int

	// Fallback is set when the backtracking search produced the result.
	Fallback bool
}

// Engine draws assignments. It is safe for concurrent use.
type Engine struct {
	maxAttempts  int
	searchSteps  int
	timeout      time.Duration
	forbidMutual bool

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxAttempts sets the rejection-sampling budget. Values < 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithSearchSteps sets the backtracking budget. Values < 1 are ignored.
func WithSearchSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.searchSteps = n
		}
	}
}

// WithTimeout bounds each derangement computation. Zero disables the bound;
// the caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithForbidMutual rejects draws in which two participants give to each
// other. It only applies to groups of three or more.
func WithForbidMutual(forbid bool) Option {
	return func(e *Engine) { e.forbidMutual = forbid }
}

// WithRand replaces the random source, mainly for reproducible tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// NewEngine creates an engine seeded from crypto/rand.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		maxAttempts: DefaultMaxAttempts,
		searchSteps: DefaultSearchSteps,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		var seed [32]byte
		if _, err := crand.Read(seed[:]); err != nil {
			return nil, fmt.Errorf("read random seed: %w", err)
		}
		e.rng = rand.New(rand.NewChaCha8(seed))
	}
	return e, nil
}

// Assign draws a recipient for every participant. Participants are user IDs;
// excl may be nil.
func (e *Engine) Assign(ctx context.Context, mode Mode, participants []string, excl Exclusions) (Result, error) {
	if len(participants) < 2 {
		return Result{Mode: mode}, ErrInsufficientParticipants
	}
	seen := make(map[string]struct{}, len(participants))
	for _, id := range participants {
		if _, dup := seen[id]; dup {
			return Result{Mode: mode}, fmt.Errorf("%w: %s", ErrDuplicateParticipant, id)
		}
		seen[id] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch mode {
	case ModeCircular:
		return e.circular(participants), nil
	case ModeDerangement:
		return e.derange(ctx, participants, excl)
	default:
		return Result{Mode: mode}, fmt.Errorf("unknown assignment mode %q", mode)
	}
}

func (e *Engine) circular(participants []string) Result {
	order := slices.Clone(participants)
	e.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	recipients := make(map[string]string, len(order))
	for i, giver := range order {
		recipients[giver] = order[(i+1)%len(order)]
	}
	return Result{Mode: ModeCircular, Recipients: recipients, Attempts: 1}
}

func (e *Engine) derange(ctx context.Context, participants []string, excl Exclusions) (Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	n := len(participants)
	allowed := allowedMatrix(participants, excl)
	if !coversEveryone(allowed) {
		return Result{Mode: ModeDerangement}, ErrInfeasible
	}
	mutual := e.forbidMutual && n >= 3

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{Mode: ModeDerangement, Attempts: attempt}, fmt.Errorf("%w: %w", ErrInfeasible, err)
			}
		}
		e.rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		if valid(allowed, perm, mutual) {
			return newResult(participants, perm, attempt, false), nil
		}
	}

	s := &search{
		allowed: allowed,
		mutual:  mutual,
		budget:  e.searchSteps,
		ctx:     ctx,
		rng:     e.rng,
		perm:    make([]int, n),
		used:    make([]bool, n),
	}
	if !s.run(0) {
		if err := ctx.Err(); err != nil {
			return Result{Mode: ModeDerangement, Attempts: e.maxAttempts}, fmt.Errorf("%w: %w", ErrInfeasible, err)
		}
		return Result{Mode: ModeDerangement, Attempts: e.maxAttempts}, ErrInfeasible
	}
	return newResult(participants, s.perm, e.maxAttempts, true), nil
}

// allowedMatrix[i][j] is true when participant i may give to participant j.
func allowedMatrix(participants []string, excl Exclusions) [][]bool {
	n := len(participants)
	allowed := make([][]bool, n)
	for i, giver := range participants {
		allowed[i] = make([]bool, n)
		for j, recipient := range participants {
			allowed[i][j] = i != j && (excl == nil || !excl.Forbids(giver, recipient))
		}
	}
	return allowed
}

// coversEveryone is a cheap necessary condition: every giver has some allowed
// recipient and every participant has some allowed giver.
func coversEveryone(allowed [][]bool) bool {
	n := len(allowed)
	for i := 0; i < n; i++ {
		var gives, receives bool
		for j := 0; j < n; j++ {
			gives = gives || allowed[i][j]
			receives = receives || allowed[j][i]
		}
		if !gives || !receives {
			return false
		}
	}
	return true
}

func valid(allowed [][]bool, perm []int, mutual bool) bool {
	for i, j := range perm {
		if !allowed[i][j] {
			return false
		}
		if mutual && perm[j] == i {
			return false
		}
	}
	return true
}

func newResult(participants []string, perm []int, attempts int, fallback bool) Result {
	recipients := make(map[string]string, len(participants))
	for i, j := range perm {
		recipients[participants[i]] = participants[j]
	}
	return Result{
		Mode:       ModeDerangement,
		Recipients: recipients,
		Attempts:   attempts,
		Fallback:   fallback,
	}
}

// search is a randomized depth-first search over givers in order. Candidate
// recipients are tried in random order so repeated runs differ.
type search struct {
	allowed [][]bool
	mutual  bool
	budget  int
	steps   int
	ctx     context.Context
	rng     *rand.Rand
	perm    []int
	used    []bool
}

func (s *search) run(giver int) bool {
	n := len(s.allowed)
	if giver == n {
		return true
	}

	candidates := s.rng.Perm(n)
	for _, r := range candidates {
		if s.used[r] || !s.allowed[giver][r] {
			continue
		}
		// r < giver means r already gives; reject r -> giver -> r.
		if s.mutual && r < giver && s.perm[r] == giver {
			continue
		}

		s.steps++
		if s.steps > s.budget {
			return false
		}
		if s.steps%ctxCheckInterval == 0 && s.ctx.Err() != nil {
			return false
		}

		s.perm[giver] = r
		s.used[r] = true
		if s.run(giver + 1) {
			return true
		}
		s.used[r] = false
	}
	return false
}

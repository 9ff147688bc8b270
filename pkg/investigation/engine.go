// Package investigation runs a party through a category tree: moving
// between locations, picking item variants, and resolving their checks.
package investigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/inquest-engine/pkg/conditionals"
	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/dice"
	"github.com/jwebster45206/inquest-engine/pkg/effects"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
	"github.com/jwebster45206/inquest-engine/pkg/survival"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotMember       = errors.New("player is not in the party")
	ErrInvalidRoll     = errors.New("roll must be between 1 and 100")
	ErrWrongType       = errors.New("item does not resolve this way")
	ErrPartyIncomplete = errors.New("every member must choose")
	ErrForfeitRequired = errors.New("a two-member ritual must forfeit one stat")
	// ErrNotReachable means a move target is not a child of the current node.
	ErrNotReachable = errors.New("location not reachable")
)

// Engine runs investigation sessions against the stores.
type Engine struct {
	characters storage.CharacterStore
	sessions   storage.SessionStore
	content    storage.ContentSource
	effects    *effects.Interpreter
	keeper     *survival.Keeper
	roller     dice.Roller
	limits     state.Limits
	logger     *slog.Logger

	now func() time.Time
	loc *time.Location

	locks sync.Map // session id -> *sync.Mutex
}

func NewEngine(characters storage.CharacterStore, sessions storage.SessionStore, source storage.ContentSource, keeper *survival.Keeper, roller dice.Roller, limits state.Limits, logger *slog.Logger) *Engine {
	return &Engine{
		characters: characters,
		sessions:   sessions,
		content:    source,
		effects:    effects.NewInterpreter(characters, sessions, source, logger),
		keeper:     keeper,
		roller:     roller,
		limits:     limits,
		logger:     logger,
		now:        time.Now,
		loc:        time.UTC,
	}
}

// WithClock sets the clock and zone used for time: conditions.
func (e *Engine) WithClock(now func() time.Time, loc *time.Location) *Engine {
	if now != nil {
		e.now = now
	}
	if loc != nil {
		e.loc = loc
	}
	return e
}

func (e *Engine) lock(id uuid.UUID) func() {
	mu, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// Scene is what a player sees at a node.
type Scene struct {
	SessionID   uuid.UUID `json:"session_id"`
	NodeID      string    `json:"node_id"`
	Name        string    `json:"name"`
	Path        []string  `json:"path"`
	Description string    `json:"description,omitempty"`
	Actions     []Action  `json:"actions"`
}

// Move is the result of a location change.
type Move struct {
	Moved  bool   `json:"moved"`
	Reason string `json:"reason,omitempty"`
	Scene  *Scene `json:"scene"`
}

// StartSession opens a session at the root of a category.
func (e *Engine) StartSession(ctx context.Context, category string, members []string) (*state.Session, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("session needs at least one member")
	}
	tree, err := e.content.GetLocationTree(ctx, category)
	if err != nil {
		return nil, err
	}
	s := state.NewSession(category, tree.RootID, members)
	s.StartedAt = e.now()
	if err := e.sessions.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	e.logger.Info("investigation started", "session_id", s.ID, "category", category, "members", members)
	return s, nil
}

// EndSession discards a session and its shared state.
func (e *Engine) EndSession(ctx context.Context, sessionID uuid.UUID) error {
	defer e.locks.Delete(sessionID)
	return e.sessions.DeleteSession(ctx, sessionID)
}

// turn is everything loaded for one player's action.
type turn struct {
	playerID string
	session  *state.Session
	tree     *content.Tree
	node     *content.Node
	char     *survival.Character
	vitals   state.VitalState
	player   conditionals.PlayerView
	world    conditionals.WorldView
}

func (e *Engine) loadSession(ctx context.Context, sessionID uuid.UUID) (*state.Session, *content.Tree, error) {
	s, err := e.sessions.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if s == nil {
		return nil, nil, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}
	tree, err := e.content.GetLocationTree(ctx, s.Category)
	if err != nil {
		return nil, nil, err
	}
	return s, tree, nil
}

func (e *Engine) loadTurn(ctx context.Context, sessionID uuid.UUID, playerID string) (*turn, error) {
	s, tree, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.IsMember(playerID) {
		return nil, fmt.Errorf("%s: %w", playerID, ErrNotMember)
	}
	node, err := tree.Node(s.LocationID)
	if err != nil {
		return nil, err
	}

	c, err := survival.LoadCharacter(ctx, e.characters, playerID, e.limits)
	if err != nil {
		return nil, err
	}
	v, err := e.characters.GetVitalState(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vitals for %s: %w", playerID, err)
	}
	items, err := e.characters.ListItems(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for %s: %w", playerID, err)
	}
	triggers, err := e.sessions.Triggers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load triggers: %w", err)
	}
	counts, err := e.sessions.Counts(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load interaction counts: %w", err)
	}

	return &turn{
		playerID: playerID,
		session:  s,
		tree:     tree,
		node:     node,
		char:     c,
		vitals:   v,
		player:   NewPlayerView(c, v, items),
		world:    NewWorldView(s, triggers, counts, e.now().In(e.loc).Format(ClockFormat)),
	}, nil
}

func (t *turn) scene() *Scene {
	path := t.tree.Path(t.node.ID)
	names := make([]string, 0, len(path))
	for _, n := range path {
		names = append(names, n.Name)
	}
	return &Scene{
		SessionID:   t.session.ID,
		NodeID:      t.node.ID,
		Name:        t.node.Name,
		Path:        names,
		Description: Describe(t.node, t.player, t.world),
		Actions:     Visibility(t.tree, t.node, t.player, t.world),
	}
}

// Look shows the party's current node from one player's point of view.
func (e *Engine) Look(ctx context.Context, sessionID uuid.UUID, playerID string) (*Scene, error) {
	t, err := e.loadTurn(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	return t.scene(), nil
}

// Advance moves the party into a child node. A closed entry gate leaves the
// party where it is and reports why.
func (e *Engine) Advance(ctx context.Context, sessionID uuid.UUID, playerID, targetID string) (*Move, error) {
	unlock := e.lock(sessionID)
	defer unlock()

	t, err := e.loadTurn(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	target, err := t.tree.Node(targetID)
	if err != nil {
		return nil, err
	}
	if target.ParentID != t.node.ID {
		return nil, fmt.Errorf("%s is not below %s: %w", targetID, t.node.ID, ErrNotReachable)
	}

	e.warnMalformed(target.Condition)
	gate := conditionals.EvaluateAll(parseCondition(target.Condition), t.player, t.world)
	if !gate.Enabled {
		return &Move{Reason: gate.Reason, Scene: t.scene()}, nil
	}
	return e.moveTo(ctx, t, target)
}

// Back moves the party to the parent node. At the root it does nothing.
func (e *Engine) Back(ctx context.Context, sessionID uuid.UUID, playerID string) (*Move, error) {
	unlock := e.lock(sessionID)
	defer unlock()

	t, err := e.loadTurn(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	parent, ok := t.tree.Parent(t.node.ID)
	if !ok {
		return &Move{Scene: t.scene()}, nil
	}
	return e.moveTo(ctx, t, parent)
}

func (e *Engine) moveTo(ctx context.Context, t *turn, target *content.Node) (*Move, error) {
	t.session.LocationID = target.ID
	if err := e.sessions.SaveSession(ctx, t.session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	t.node = target
	t.world.LocationID = target.ID
	e.logger.Debug("party moved", "session_id", t.session.ID, "node_id", target.ID)
	return &Move{Moved: true, Scene: t.scene()}, nil
}

func (e *Engine) warnMalformed(raw string) {
	if _, errs := conditionals.Parse(raw); len(errs) > 0 {
		for _, err := range errs {
			e.logger.Warn("skipping malformed condition", "raw", raw, "error", err)
		}
	}
}

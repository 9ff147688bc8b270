package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/inquest-engine/pkg/actor"
	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/state"
)

// MockStorage is an in-memory CharacterStore, SessionStore and Locker.
type MockStorage struct {
	mu     sync.RWMutex
	limits state.Limits

	investigators map[string]*actor.InvestigatorSpec
	vitals        map[string]state.VitalState
	items         map[string]map[string]int
	clues         map[string][]content.Clue
	madness       map[string][]OwnedMadness

	sessions map[uuid.UUID]*state.Session
	pending  map[string]*state.PendingRoll
	party    map[uuid.UUID]*state.PendingRoll
	triggers map[uuid.UUID]map[string]bool
	counts   map[uuid.UUID]map[string]int
	days     map[string]bool

	pingError  error
	applyError error
}

var (
	_ CharacterStore = (*MockStorage)(nil)
	_ SessionStore   = (*MockStorage)(nil)
	_ Locker         = (*MockStorage)(nil)
)

// NewMockStorage creates an empty store clamping vitals to limits.
func NewMockStorage(limits state.Limits) *MockStorage {
	return &MockStorage{
		limits:        limits,
		investigators: make(map[string]*actor.InvestigatorSpec),
		vitals:        make(map[string]state.VitalState),
		items:         make(map[string]map[string]int),
		clues:         make(map[string][]content.Clue),
		madness:       make(map[string][]OwnedMadness),
		sessions:      make(map[uuid.UUID]*state.Session),
		pending:       make(map[string]*state.PendingRoll),
		party:         make(map[uuid.UUID]*state.PendingRoll),
		triggers:      make(map[uuid.UUID]map[string]bool),
		counts:        make(map[uuid.UUID]map[string]int),
		days:          make(map[string]bool),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetApplyError makes ApplyChanges fail without applying anything.
func (m *MockStorage) SetApplyError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveInvestigator(ctx context.Context, spec *actor.InvestigatorSpec) error {
	if spec == nil || spec.ID == "" {
		return fmt.Errorf("investigator id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *spec
	m.investigators[spec.ID] = &cp
	return nil
}

func (m *MockStorage) GetInvestigator(ctx context.Context, id string) (*actor.InvestigatorSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.investigators[id]
	if !ok {
		return nil, fmt.Errorf("investigator %q: %w", id, engineerr.ErrContentNotFound)
	}
	cp := *spec
	return &cp, nil
}

func (m *MockStorage) ListInvestigators(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.investigators)), nil
}

// limitsFor must be called with the lock held.
func (m *MockStorage) limitsFor(id string) state.Limits {
	l := m.limits
	if spec, ok := m.investigators[id]; ok && spec.MaxHP > 0 {
		l.HP = spec.MaxHP
	}
	return l
}

// vitalsFor must be called with the write lock held.
func (m *MockStorage) vitalsFor(id string) state.VitalState {
	v, ok := m.vitals[id]
	if !ok {
		v = state.NewVitalState(id, m.limitsFor(id))
		m.vitals[id] = v
	}
	return v
}

func (m *MockStorage) GetVitalState(ctx context.Context, characterID string) (state.VitalState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vitalsFor(characterID), nil
}

func (m *MockStorage) SaveVitalState(ctx context.Context, v state.VitalState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vitals[v.CharacterID] = v
	return nil
}

func (m *MockStorage) ApplyChanges(ctx context.Context, characterID string, cs Changeset) (Applied, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.applyError != nil {
		return Applied{}, m.applyError
	}

	limits := m.limitsFor(characterID)
	before := m.vitalsFor(characterID)
	after := before
	items := maps.Clone(m.items[characterID])
	if items == nil {
		items = make(map[string]int)
	}
	clues := slices.Clone(m.clues[characterID])
	deltas := make([]int, len(cs.Ops))

	for i, op := range cs.Ops {
		switch op.Kind {
		case OpStat, OpFeed, OpUpdate:
			d, err := ApplyVitalOp(&after, op, limits)
			if err != nil {
				return Applied{}, err
			}
			deltas[i] = d
		case OpItemAdd:
			items[op.Name] += op.Amount
			deltas[i] = op.Amount
		case OpItemRemove:
			have := items[op.Name]
			if op.Required && have < op.Amount {
				return Applied{}, fmt.Errorf("item %q: %w", op.Name, engineerr.ErrResourceInsufficient)
			}
			take := min(have, op.Amount)
			if have-take <= 0 {
				delete(items, op.Name)
			} else {
				items[op.Name] = have - take
			}
			deltas[i] = take
		case OpClue:
			if !slices.ContainsFunc(clues, func(c content.Clue) bool { return c.ID == op.ID }) {
				clues = append(clues, content.Clue{ID: op.ID, Name: op.Name})
				deltas[i] = 1
			}
		}
	}

	m.vitals[characterID] = after
	m.items[characterID] = items
	m.clues[characterID] = clues
	return Applied{Before: before, After: after, Deltas: deltas}, nil
}

func (m *MockStorage) AddItem(ctx context.Context, characterID, name string, count int) error {
	var cs Changeset
	_, err := m.ApplyChanges(ctx, characterID, *cs.AddItem(name, count))
	return err
}

func (m *MockStorage) RemoveItem(ctx context.Context, characterID, name string, count int) error {
	var cs Changeset
	_, err := m.ApplyChanges(ctx, characterID, *cs.RemoveItem(name, count))
	return err
}

func (m *MockStorage) ListItems(ctx context.Context, characterID string) ([]ItemCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.items[characterID]
	out := make([]ItemCount, 0, len(items))
	for _, name := range slices.Sorted(maps.Keys(items)) {
		out = append(out, ItemCount{Name: name, Count: items[name]})
	}
	return out, nil
}

func (m *MockStorage) ListClues(ctx context.Context, characterID string) ([]content.Clue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.clues[characterID]), nil
}

func (m *MockStorage) ListMadness(ctx context.Context, characterID string) ([]OwnedMadness, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.madness[characterID]), nil
}

func (m *MockStorage) AddMadness(ctx context.Context, characterID string, rec content.MadnessRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.madness[characterID] = append(m.madness[characterID], OwnedMadness{
		MadnessID:  rec.ID,
		Name:       rec.Name,
		AcquiredAt: time.Now(),
	})
	return nil
}

func (m *MockStorage) RemoveMadness(ctx context.Context, characterID, madnessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.madness[characterID] = slices.DeleteFunc(m.madness[characterID], func(o OwnedMadness) bool {
		return o.MadnessID == madnessID
	})
	return nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s *state.Session) error {
	if s == nil {
		return fmt.Errorf("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Members = slices.Clone(s.Members)
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Members = slices.Clone(s.Members)
	return &cp, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.triggers, id)
	delete(m.counts, id)
	delete(m.party, id)
	for k, p := range m.pending {
		if p.SessionID == id {
			delete(m.pending, k)
		}
	}
	return nil
}

func pendingKey(sessionID uuid.UUID, playerID string) string {
	return sessionID.String() + ":" + playerID
}

func (m *MockStorage) PutPendingRoll(ctx context.Context, roll *state.PendingRoll) error {
	if roll == nil {
		return fmt.Errorf("pending roll cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *roll
	m.pending[pendingKey(roll.SessionID, roll.PlayerID)] = &cp
	return nil
}

func (m *MockStorage) TakePendingRoll(ctx context.Context, sessionID uuid.UUID, playerID string) (*state.PendingRoll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pendingKey(sessionID, playerID)
	roll, ok := m.pending[key]
	if !ok {
		return nil, engineerr.ErrNoPendingRoll
	}
	delete(m.pending, key)
	return roll, nil
}

func (m *MockStorage) PutPendingParty(ctx context.Context, action *state.PendingRoll) error {
	if action == nil {
		return fmt.Errorf("pending party action cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *action
	m.party[action.SessionID] = &cp
	return nil
}

func (m *MockStorage) TakePendingParty(ctx context.Context, sessionID uuid.UUID) (*state.PendingRoll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	action, ok := m.party[sessionID]
	if !ok {
		return nil, engineerr.ErrNoPendingRoll
	}
	delete(m.party, sessionID)
	return action, nil
}

func (m *MockStorage) Triggers(ctx context.Context, sessionID uuid.UUID) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := maps.Clone(m.triggers[sessionID])
	if out == nil {
		out = make(map[string]bool)
	}
	return out, nil
}

func (m *MockStorage) UpdateTriggers(ctx context.Context, sessionID uuid.UUID, ops []TriggerOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.triggers[sessionID]
	if !ok {
		set = make(map[string]bool)
		m.triggers[sessionID] = set
	}
	for _, op := range ops {
		if op.Remove {
			delete(set, op.Name)
		} else {
			set[op.Name] = true
		}
	}
	return nil
}

func (m *MockStorage) IncrementCount(ctx context.Context, sessionID uuid.UUID, itemID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counts[sessionID]
	if !ok {
		c = make(map[string]int)
		m.counts[sessionID] = c
	}
	c[itemID]++
	return c[itemID], nil
}

func (m *MockStorage) Counts(ctx context.Context, sessionID uuid.UUID) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := maps.Clone(m.counts[sessionID])
	if out == nil {
		out = make(map[string]int)
	}
	return out, nil
}

func (m *MockStorage) ClaimDay(ctx context.Context, job, day string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := job + ":" + day
	if m.days[key] {
		return false, nil
	}
	m.days[key] = true
	return true, nil
}

// MockContent is an in-memory ContentSource.
type MockContent struct {
	mu            sync.RWMutex
	trees         map[string]*content.Tree
	items         map[string]content.ItemRecord
	clues         map[string]content.Clue
	madness       []content.MadnessRecord
	recipes       []content.Recipe
	investigators []actor.InvestigatorSpec
}

var _ ContentSource = (*MockContent)(nil)

func NewMockContent() *MockContent {
	return &MockContent{
		trees: make(map[string]*content.Tree),
		items: make(map[string]content.ItemRecord),
		clues: make(map[string]content.Clue),
	}
}

// AddTree adds a category tree (for testing)
func (c *MockContent) AddTree(t *content.Tree) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees[t.Category] = t
}

// AddItem adds an item record (for testing)
func (c *MockContent) AddItem(rec content.ItemRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[rec.Name] = rec
}

// AddClue adds a clue record (for testing)
func (c *MockContent) AddClue(clue content.Clue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clues[clue.ID] = clue
}

// AddMadness appends to the madness catalog (for testing)
func (c *MockContent) AddMadness(recs ...content.MadnessRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.madness = append(c.madness, recs...)
}

// AddRecipe appends a clue recipe (for testing)
func (c *MockContent) AddRecipe(recs ...content.Recipe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recipes = append(c.recipes, recs...)
}

// AddInvestigator appends to the roster (for testing)
func (c *MockContent) AddInvestigator(specs ...actor.InvestigatorSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.investigators = append(c.investigators, specs...)
}

func (c *MockContent) Categories(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.trees)), nil
}

func (c *MockContent) GetLocationTree(ctx context.Context, category string) (*content.Tree, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.trees[category]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", category, engineerr.ErrContentNotFound)
	}
	return t, nil
}

func (c *MockContent) GetItemData(ctx context.Context, name string) (*content.ItemRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.items[name]
	if !ok {
		return nil, fmt.Errorf("item %q: %w", name, engineerr.ErrContentNotFound)
	}
	return &rec, nil
}

func (c *MockContent) GetClue(ctx context.Context, id string) (*content.Clue, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clue, ok := c.clues[id]
	if !ok {
		return nil, fmt.Errorf("clue %q: %w", id, engineerr.ErrContentNotFound)
	}
	return &clue, nil
}

func (c *MockContent) GetMadnessCatalog(ctx context.Context) ([]content.MadnessRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.madness), nil
}

func (c *MockContent) GetClueCombinationRecipes(ctx context.Context) ([]content.Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.recipes), nil
}

func (c *MockContent) Investigators(ctx context.Context) ([]actor.InvestigatorSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.investigators), nil
}

// MockNotifier records notifications.
type MockNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

var _ Notifier = (*MockNotifier)(nil)

func (n *MockNotifier) Notify(ctx context.Context, note Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, note)
	return nil
}

// SetError makes Notify fail.
func (n *MockNotifier) SetError(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

// Sent returns the notifications delivered so far.
func (n *MockNotifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.sent)
}

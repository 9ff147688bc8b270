// Package storage defines the collaborator ports the engine reads and
// mutates through, plus in-memory implementations for tests and offline play.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/inquest-engine/pkg/actor"
	"github.com/jwebster45206/inquest-engine/pkg/content"
	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/state"
)

// ItemCount is one inventory line.
type ItemCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// OwnedMadness is a madness a character currently suffers.
type OwnedMadness struct {
	MadnessID  string    `json:"madness_id"`
	Name       string    `json:"name"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// InventoryStore tracks item counts per character.
type InventoryStore interface {
	AddItem(ctx context.Context, characterID, name string, count int) error
	RemoveItem(ctx context.Context, characterID, name string, count int) error
	ListItems(ctx context.Context, characterID string) ([]ItemCount, error)
}

// CharacterStore persists investigators and everything that changes about them.
type CharacterStore interface {
	InventoryStore

	Ping(ctx context.Context) error
	Close() error

	SaveInvestigator(ctx context.Context, spec *actor.InvestigatorSpec) error
	GetInvestigator(ctx context.Context, id string) (*actor.InvestigatorSpec, error)
	ListInvestigators(ctx context.Context) ([]string, error)

	// GetVitalState returns the vitals, creating them on first reference.
	GetVitalState(ctx context.Context, characterID string) (state.VitalState, error)
	// SaveVitalState replaces the whole record. Rules change vitals through
	// ApplyChanges instead.
	SaveVitalState(ctx context.Context, v state.VitalState) error
	// ApplyChanges applies every op in order inside one transaction. If any
	// required op cannot be satisfied nothing is applied and the error wraps
	// engineerr.ErrResourceInsufficient.
	ApplyChanges(ctx context.Context, characterID string, cs Changeset) (Applied, error)

	ListClues(ctx context.Context, characterID string) ([]content.Clue, error)

	ListMadness(ctx context.Context, characterID string) ([]OwnedMadness, error)
	AddMadness(ctx context.Context, characterID string, m content.MadnessRecord) error
	RemoveMadness(ctx context.Context, characterID, madnessID string) error
}

// TriggerOp sets or clears one world trigger.
type TriggerOp struct {
	Name   string
	Remove bool
}

// SessionStore holds the shared per-party state: sessions, pending rolls,
// world triggers and interaction counts.
type SessionStore interface {
	SaveSession(ctx context.Context, s *state.Session) error
	// LoadSession returns nil, nil when the session does not exist.
	LoadSession(ctx context.Context, id uuid.UUID) (*state.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	PutPendingRoll(ctx context.Context, roll *state.PendingRoll) error
	// TakePendingRoll removes and returns the entry atomically. A missing
	// entry returns engineerr.ErrNoPendingRoll.
	TakePendingRoll(ctx context.Context, sessionID uuid.UUID, playerID string) (*state.PendingRoll, error)
	// PutPendingParty records the ritual or combat the party must resolve
	// next, replacing any earlier one.
	PutPendingParty(ctx context.Context, action *state.PendingRoll) error
	// TakePendingParty removes and returns it atomically. A missing entry
	// returns engineerr.ErrNoPendingRoll.
	TakePendingParty(ctx context.Context, sessionID uuid.UUID) (*state.PendingRoll, error)

	Triggers(ctx context.Context, sessionID uuid.UUID) (map[string]bool, error)
	UpdateTriggers(ctx context.Context, sessionID uuid.UUID, ops []TriggerOp) error

	IncrementCount(ctx context.Context, sessionID uuid.UUID, itemID string) (int, error)
	Counts(ctx context.Context, sessionID uuid.UUID) (map[string]int, error)
}

// Locker guards daily jobs so each runs at most once per day.
type Locker interface {
	// ClaimDay reports true for the first caller of (job, day) only.
	ClaimDay(ctx context.Context, job, day string) (bool, error)
}

// ContentSource serves authored content.
type ContentSource interface {
	Categories(ctx context.Context) ([]string, error)
	GetLocationTree(ctx context.Context, category string) (*content.Tree, error)
	GetItemData(ctx context.Context, name string) (*content.ItemRecord, error)
	GetClue(ctx context.Context, id string) (*content.Clue, error)
	GetMadnessCatalog(ctx context.Context) ([]content.MadnessRecord, error)
	GetClueCombinationRecipes(ctx context.Context) ([]content.Recipe, error)
	Investigators(ctx context.Context) ([]actor.InvestigatorSpec, error)
}

// Notification kinds.
const (
	NotifyMadness       = "madness"
	NotifyStarvation    = "starvation"
	NotifySanity        = "sanity"
	NotifyIncapacitated = "incapacitated"
	NotifyClue          = "clue"
)

// Notification is an out-of-band message to one character.
type Notification struct {
	CharacterID string    `json:"character_id"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	At          time.Time `json:"at"`
}

// Notifier delivers notifications. Callers log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// OpKind is the type of one changeset operation.
type OpKind string

const (
	OpStat       OpKind = "stat"
	OpItemAdd    OpKind = "item_add"
	OpItemRemove OpKind = "item_remove"
	OpClue       OpKind = "clue"
	OpFeed       OpKind = "feed" // resets the zero-hunger counter
	OpUpdate     OpKind = "update"
)

// VitalFunc changes vitals in place and returns the delta to report. It runs
// against the vitals as stored when the changeset is applied; an error
// aborts the changeset.
type VitalFunc func(v *state.VitalState, l state.Limits) (int, error)

// Op is one mutation. Required ops fail the whole changeset when they cannot
// be applied in full.
type Op struct {
	Kind     OpKind
	Resource string // OpStat: canonical resource
	Amount   int    // OpStat: delta; item ops: count
	Name     string // item name or clue name
	ID       string // clue id
	Required bool
	Fn       VitalFunc // OpUpdate
}

// Changeset is an ordered list of ops applied atomically.
type Changeset struct {
	Ops []Op
}

// Stat adds a clamped resource delta.
func (c *Changeset) Stat(resource string, delta int) *Changeset {
	c.Ops = append(c.Ops, Op{Kind: OpStat, Resource: resource, Amount: delta})
	return c
}

// Cost deducts amount from a resource, failing if the character has less.
func (c *Changeset) Cost(resource string, amount int) *Changeset {
	c.Ops = append(c.Ops, Op{Kind: OpStat, Resource: resource, Amount: -amount, Required: true})
	return c
}

// AddItem grants count of an item.
func (c *Changeset) AddItem(name string, count int) *Changeset {
	c.Ops = append(c.Ops, Op{Kind: OpItemAdd, Name: name, Amount: count})
	return c
}

// RemoveItem takes up to count of an item. Missing items are ignored.
func (c *Changeset) RemoveItem(name string, count int) *Changeset {
	c.Ops = append(c.Ops, Op{Kind: OpItemRemove, Name: name, Amount: count})
	return c
}

// Consume takes exactly one of an item, failing if it is not held.
func (c *Changeset) Consume(name string) *Changeset {
	c.Ops = append(c.Ops, Op{Kind: OpItemRemove, Name: name, Amount: 1, Required: true})
	return c
}

// AddClue records a clue. Owning it already is not an error.
func (c *Changeset) AddClue(id, name string) *Changeset {
	c.Ops = append(c.Ops, Op{Kind: OpClue, ID: id, Name: name})
	return c
}

// Feed resets the zero-hunger counter.
func (c *Changeset) Feed() *Changeset {
	c.Ops = append(c.Ops, Op{Kind: OpFeed})
	return c
}

// Update runs fn on the vitals inside the changeset. Daily rules and other
// read-modify-write changes go through it so they cannot lose a concurrent
// change.
func (c *Changeset) Update(fn VitalFunc) *Changeset {
	c.Ops = append(c.Ops, Op{Kind: OpUpdate, Fn: fn})
	return c
}

// Empty reports whether there is nothing to apply.
func (c Changeset) Empty() bool {
	return len(c.Ops) == 0
}

// Applied is the result of a committed changeset.
type Applied struct {
	Before state.VitalState
	After  state.VitalState
	Deltas []int // per op: the clamped stat change, or the item count moved
}

// ApplyVitalOp applies one stat, feed or update op to v. It is shared by the store
// implementations so clamping and cost rules stay identical.
func ApplyVitalOp(v *state.VitalState, op Op, l state.Limits) (int, error) {
	switch op.Kind {
	case OpStat:
		if op.Required && v.Get(op.Resource) < -op.Amount {
			return 0, fmt.Errorf("%s %d < %d: %w", op.Resource, v.Get(op.Resource), -op.Amount, engineerr.ErrResourceInsufficient)
		}
		return v.Apply(op.Resource, op.Amount, l), nil
	case OpFeed:
		v.HungerZeroDays = 0
	case OpUpdate:
		if op.Fn == nil {
			return 0, nil
		}
		return op.Fn(v, l)
	}
	return 0, nil
}

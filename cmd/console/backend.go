package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/inquest-engine/internal/config"
	"github.com/jwebster45206/inquest-engine/internal/services/events"
	"github.com/jwebster45206/inquest-engine/internal/storage"
	"github.com/jwebster45206/inquest-engine/pkg/dice"
	"github.com/jwebster45206/inquest-engine/pkg/investigation"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	store "github.com/jwebster45206/inquest-engine/pkg/storage"
	"github.com/jwebster45206/inquest-engine/pkg/survival"
)

// backend wires the engine in-process for the console.
type backend struct {
	cfg        *config.Config
	engine     *investigation.Engine
	keeper     *survival.Keeper
	characters store.CharacterStore
	content    store.ContentSource
	notes      <-chan store.Notification
	log        *slog.Logger
	closers    []func() error
	cancel     context.CancelFunc
}

// chanNotifier delivers notifications to the UI when Redis is not in use.
type chanNotifier struct {
	ch chan store.Notification
}

func (n *chanNotifier) Notify(ctx context.Context, note store.Notification) error {
	if note.At.IsZero() {
		note.At = time.Now()
	}
	select {
	case n.ch <- note:
	default:
		// dropped while the UI is behind
	}
	return nil
}

func newBackend(cfg *config.Config, memory bool, log *slog.Logger) (*backend, error) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &backend{cfg: cfg, log: log, cancel: cancel}

	source, err := storage.NewFileContent(cfg.ContentDir, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	b.content = source

	var (
		characters store.CharacterStore
		sessions   store.SessionStore
		notifier   store.Notifier
	)
	if memory {
		mem := store.NewMockStorage(cfg.Limits())
		characters, sessions = mem, mem
		ch := &chanNotifier{ch: make(chan store.Notification, 64)}
		notifier, b.notes = ch, ch.ch
	} else {
		sqlite, err := storage.OpenSQLite(cfg.DatabasePath, cfg.Limits(), log)
		if err != nil {
			cancel()
			return nil, err
		}
		b.closers = append(b.closers, sqlite.Close)
		characters = sqlite

		client, err := storage.NewRedisClient(cfg.RedisURL)
		if err != nil {
			b.close()
			return nil, err
		}
		rs := storage.NewRedisStorage(client, cfg.PendingRollTTL, log)
		if err := rs.Ping(ctx); err != nil {
			_ = client.Close()
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, rs.Close)
		sessions = rs

		bc := events.NewBroadcaster(client, log)
		notifier, b.notes = bc, bc.Subscribe(ctx)
	}
	b.characters = characters

	if err := seedInvestigators(ctx, source, characters); err != nil {
		b.close()
		return nil, err
	}

	var roller dice.Roller
	if cfg.Seed != 0 {
		roller = dice.New(uint64(cfg.Seed))
	} else if roller, err = dice.NewRandom(); err != nil {
		b.close()
		return nil, err
	}

	b.keeper = survival.NewKeeper(characters, source, notifier, roller, cfg.Limits(), log)
	b.engine = investigation.NewEngine(characters, sessions, source, b.keeper, roller, cfg.Limits(), log).
		WithClock(time.Now, cfg.Location())
	return b, nil
}

// seedInvestigators copies the authored roster into the character store.
func seedInvestigators(ctx context.Context, source store.ContentSource, characters store.CharacterStore) error {
	specs, err := source.Investigators(ctx)
	if err != nil {
		return err
	}
	for i := range specs {
		if err := characters.SaveInvestigator(ctx, &specs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (b *backend) close() {
	b.cancel()
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func (b *backend) today() string {
	return state.Day(time.Now(), b.cfg.Location())
}

// partyStatus renders one line per member for the side panel.
func (b *backend) partyStatus(ctx context.Context, members []string) string {
	var sb strings.Builder
	for _, id := range members {
		c, err := survival.LoadCharacter(ctx, b.characters, id, b.cfg.Limits())
		if err != nil {
			fmt.Fprintf(&sb, "%s: %v\n\n", id, err)
			continue
		}
		v, err := b.characters.GetVitalState(ctx, id)
		if err != nil {
			fmt.Fprintf(&sb, "%s: %v\n\n", id, err)
			continue
		}
		cur := c.Base.Current(v, c.Limits)
		name := c.Spec.Name
		if name == "" {
			name = id
		}
		fmt.Fprintf(&sb, "%s\n", name)
		fmt.Fprintf(&sb, "  %s %d/%d  %s %d/%d\n",
			rules.DisplayName(rules.ResourceHP), v.HP, c.Limits.HP,
			rules.DisplayName(rules.ResourceSanity), v.Sanity, c.Limits.Sanity)
		fmt.Fprintf(&sb, "  %s %d/%d\n", rules.DisplayName(rules.ResourceHunger), v.Hunger, c.Limits.Hunger)
		fmt.Fprintf(&sb, "  %s %d  %s %d  %s %d\n\n",
			rules.DisplayName(rules.StatPerception), cur.Perception,
			rules.DisplayName(rules.StatIntelligence), cur.Intelligence,
			rules.DisplayName(rules.StatWillpower), cur.Willpower)
	}
	return sb.String()
}

// inventory renders a character's items and clues.
func (b *backend) inventory(ctx context.Context, id string) (string, error) {
	items, err := b.characters.ListItems(ctx, id)
	if err != nil {
		return "", err
	}
	clues, err := b.characters.ListClues(ctx, id)
	if err != nil {
		return "", err
	}
	madness, err := b.characters.ListMadness(ctx, id)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("소지품:\n")
	if len(items) == 0 {
		sb.WriteString("  (없음)\n")
	}
	for _, it := range items {
		fmt.Fprintf(&sb, "  • %s x%d\n", it.Name, it.Count)
	}
	sb.WriteString("단서:\n")
	if len(clues) == 0 {
		sb.WriteString("  (없음)\n")
	}
	for _, c := range clues {
		fmt.Fprintf(&sb, "  • %s\n", c.Name)
	}
	if len(madness) > 0 {
		sb.WriteString("광기:\n")
		for _, m := range madness {
			fmt.Fprintf(&sb, "  • %s\n", m.Name)
		}
	}
	return sb.String(), nil
}

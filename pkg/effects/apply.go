package effects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

// Report is what applying a program did.
type Report struct {
	Lines        []string         `json:"lines,omitempty"`
	Description  string           `json:"description,omitempty"`
	MadnessCheck bool             `json:"madness_check"` // a sanity loss was applied
	Spawns       []string         `json:"spawns,omitempty"`
	Moves        []string         `json:"moves,omitempty"`
	Hours        int              `json:"hours,omitempty"`
	Vitals       state.VitalState `json:"vitals"`
}

// Interpreter applies programs through the store ports.
type Interpreter struct {
	characters storage.CharacterStore
	sessions   storage.SessionStore
	content    storage.ContentSource
	logger     *slog.Logger
}

func NewInterpreter(characters storage.CharacterStore, sessions storage.SessionStore, content storage.ContentSource, logger *slog.Logger) *Interpreter {
	return &Interpreter{
		characters: characters,
		sessions:   sessions,
		content:    content,
		logger:     logger,
	}
}

// Parse reads raw and logs the malformed clauses it skipped.
func (in *Interpreter) Parse(raw string) Program {
	prog, errs := Parse(raw)
	for _, err := range errs {
		in.logger.Warn("skipping malformed effect", "raw", raw, "error", err)
	}
	return prog
}

// ApplyString parses raw, logs malformed clauses, and applies the rest.
func (in *Interpreter) ApplyString(ctx context.Context, characterID string, sessionID uuid.UUID, raw string) (*Report, error) {
	return in.Apply(ctx, characterID, sessionID, in.Parse(raw))
}

// Apply commits a program for one character. Trigger changes are written
// first and undone if the character changeset fails, so an error leaves
// neither applied. Triggers are skipped when sessionID is uuid.Nil.
func (in *Interpreter) Apply(ctx context.Context, characterID string, sessionID uuid.UUID, prog Program) (*Report, error) {
	report := &Report{Description: prog.Description}

	var (
		cs       storage.Changeset
		triggers []storage.TriggerOp
		// index of the changeset op that produced each line, -1 for none
		lineOps []int
	)
	for _, e := range prog.Effects {
		switch e.Kind {
		case StatChange:
			lineOps = append(lineOps, len(cs.Ops))
			cs.Stat(e.Stat, e.Amount)
			report.Lines = append(report.Lines, "")
			if e.Stat == rules.ResourceSanity && e.Amount < 0 {
				report.MadnessCheck = true
			}
		case ItemAdd:
			cs.AddItem(e.Value, 1)
			report.Lines = append(report.Lines, "아이템 획득: "+e.Value)
			lineOps = append(lineOps, -1)
		case ItemRemove:
			cs.RemoveItem(e.Value, 1)
			report.Lines = append(report.Lines, "아이템 소모: "+e.Value)
			lineOps = append(lineOps, -1)
		case ClueAdd:
			line, name, err := in.clueLine(ctx, e.Value)
			if err != nil {
				return nil, err
			}
			cs.AddClue(e.Value, name)
			report.Lines = append(report.Lines, line)
			lineOps = append(lineOps, -1)
		case TriggerAdd:
			triggers = append(triggers, storage.TriggerOp{Name: e.Value})
			report.Lines = append(report.Lines, "트리거 획득: "+e.Value)
			lineOps = append(lineOps, -1)
		case TriggerRemove:
			triggers = append(triggers, storage.TriggerOp{Name: e.Value, Remove: true})
			report.Lines = append(report.Lines, "트리거 제거: "+e.Value)
			lineOps = append(lineOps, -1)
		case BlockAdd:
			triggers = append(triggers, storage.TriggerOp{Name: e.Value})
			report.Lines = append(report.Lines, "차단됨: "+e.Value)
			lineOps = append(lineOps, -1)
		case Spawn:
			report.Spawns = append(report.Spawns, e.Value)
			report.Lines = append(report.Lines, "이벤트 발생: "+e.Value)
			lineOps = append(lineOps, -1)
		case Move:
			report.Moves = append(report.Moves, e.Value)
			report.Lines = append(report.Lines, "이동: "+e.Value)
			lineOps = append(lineOps, -1)
		case TimePass:
			report.Hours += e.Amount
			report.Lines = append(report.Lines, fmt.Sprintf("시간 경과: %d시간", e.Amount))
			lineOps = append(lineOps, -1)
		}
	}

	var undo []storage.TriggerOp
	if len(triggers) > 0 && sessionID != uuid.Nil {
		before, err := in.sessions.Triggers(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load triggers for session %s: %w", sessionID, err)
		}
		if err := in.sessions.UpdateTriggers(ctx, sessionID, triggers); err != nil {
			return nil, fmt.Errorf("failed to update triggers for session %s: %w", sessionID, err)
		}
		undo = revertTriggers(before, triggers)
	}

	applied, err := in.characters.ApplyChanges(ctx, characterID, cs)
	if err != nil {
		if len(undo) > 0 {
			if uerr := in.sessions.UpdateTriggers(ctx, sessionID, undo); uerr != nil {
				in.logger.Error("failed to revert triggers", "session_id", sessionID, "error", uerr)
			}
		}
		return nil, fmt.Errorf("failed to apply effects for %s: %w", characterID, err)
	}
	report.Vitals = applied.After

	for i, opIdx := range lineOps {
		if opIdx < 0 {
			continue
		}
		op := cs.Ops[opIdx]
		report.Lines[i] = fmt.Sprintf("%s %+d", rules.DisplayName(op.Resource), applied.Deltas[opIdx])
	}
	return report, nil
}

// revertTriggers returns the ops that restore before after ops ran. Only
// triggers whose state actually changed are touched.
func revertTriggers(before map[string]bool, ops []storage.TriggerOp) []storage.TriggerOp {
	after := make(map[string]bool, len(ops))
	for _, op := range ops {
		after[op.Name] = !op.Remove
	}
	var undo []storage.TriggerOp
	for _, op := range ops {
		set, seen := after[op.Name]
		if !seen {
			continue
		}
		delete(after, op.Name)
		if set != before[op.Name] {
			undo = append(undo, storage.TriggerOp{Name: op.Name, Remove: set})
		}
	}
	return undo
}

// clueLine resolves display metadata. A clue missing from content is still
// granted under its id.
func (in *Interpreter) clueLine(ctx context.Context, id string) (line, name string, err error) {
	clue, err := in.content.GetClue(ctx, id)
	switch {
	case errors.Is(err, engineerr.ErrContentNotFound):
		in.logger.Warn("clue missing from content", "clue_id", id)
		return fmt.Sprintf("단서 획득: %s (데이터 없음)", id), id, nil
	case err != nil:
		return "", "", fmt.Errorf("failed to load clue %s: %w", id, err)
	}
	return fmt.Sprintf("단서 획득: %s\n단서 설명: %s", clue.Name, clue.Description), clue.Name, nil
}

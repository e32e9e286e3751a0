package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/edforge/mentor/internal/types"
)

const (
	defaultMinSuccessRate = 0.6
	maxStrategies         = 10
	// emaNewWeight biases the success-rate moving average toward recent
	// outcomes, so a strategy's reputation can recover after bad feedback.
	emaNewWeight = 0.7
	// useCountCap bounds the ranking influence of very high-frequency
	// strategies whose volume may be noise.
	useCountCap = 10

	procedureIDPrefixLen    = 30
	procedureDedupPrefixLen = 20
)

// ProcedureExplanation labels outcomes recorded from explanation attempts.
const ProcedureExplanation = "explanation"

// ProceduralMemory is a reinforcement-scored registry of which teaching
// strategies work for one user. This is a lightweight signal, not a
// bandit algorithm.
type ProceduralMemory struct {
	store   RecordStore
	userID  string
	nowFunc func() time.Time
}

// NewProceduralMemory returns procedural memory over the injected store.
func NewProceduralMemory(store RecordStore, userID string) *ProceduralMemory {
	return &ProceduralMemory{
		store:   store,
		userID:  userID,
		nowFunc: time.Now,
	}
}

// StoreProcedure records a strategy outcome. A near-duplicate (matching
// content prefix) updates the existing record with a 70/30
// recency-weighted moving average and bumps its use count instead of
// inserting. Store failures are logged, never raised.
func (m *ProceduralMemory) StoreProcedure(ctx context.Context, procedureType, description string, successRate float64, extra map[string]any) string {
	successRate = clamp01(successRate)
	now := m.nowFunc().UTC()

	existing, err := m.store.FindByContentMatch(ctx, m.userID, types.MemoryProcedural, types.Prefix(description, procedureDedupPrefixLen))
	if err != nil {
		slog.Error("failed to check for duplicate procedure", "error", err, "user_id", m.userID)
	}
	if len(existing) > 0 {
		dup := existing[0]
		oldRate := contextFloat(dup.Context, "success_rate", 0.5)
		updated := make(map[string]any, len(dup.Context)+2)
		for k, v := range dup.Context {
			updated[k] = v
		}
		updated["success_rate"] = emaNewWeight*successRate + (1-emaNewWeight)*oldRate
		updated["use_count"] = contextInt(dup.Context, "use_count", 0) + 1
		if err := m.store.PatchContext(ctx, dup.ID, updated, now); err != nil {
			slog.Error("failed to update duplicate procedure", "error", err, "id", dup.ID)
		}
		return dup.ID
	}

	importance := types.ImportanceMedium
	if successRate > 0.7 {
		importance = types.ImportanceHigh
	}

	context := map[string]any{
		"procedure_type": procedureType,
		"success_rate":   successRate,
		"use_count":      1,
	}
	for k, v := range extra {
		context[k] = v
	}

	id := types.RecordID(m.userID, string(types.MemoryProcedural), procedureType, types.Prefix(description, procedureIDPrefixLen))
	rec := types.MemoryRecord{
		ID:           id,
		UserID:       m.userID,
		Kind:         types.MemoryProcedural,
		Content:      description,
		Context:      context,
		Importance:   importance,
		CreatedAt:    now,
		LastAccessed: now,
		DecayFactor:  1.0,
	}
	if err := m.store.Insert(ctx, rec); err != nil {
		slog.Error("failed to store procedural memory", "error", err, "user_id", m.userID)
	}
	return id
}

// EffectiveStrategies returns up to ten strategies with success_rate >=
// minSuccessRate (and the given procedure type, when non-empty), ranked
// by success_rate * min(use_count, 10) so proven volume outranks a
// barely-used high score. Records with unparsable context are skipped.
func (m *ProceduralMemory) EffectiveStrategies(ctx context.Context, procedureType string, minSuccessRate float64) ([]types.Strategy, error) {
	if minSuccessRate <= 0 {
		minSuccessRate = defaultMinSuccessRate
	}

	records, err := m.store.List(ctx, RecordQuery{
		UserID: m.userID,
		Kind:   types.MemoryProcedural,
	})
	if err != nil {
		return nil, err
	}

	strategies := make([]types.Strategy, 0, len(records))
	for _, rec := range records {
		if rec.Context == nil {
			continue
		}
		rate := contextFloat(rec.Context, "success_rate", 0)
		if rate < minSuccessRate {
			continue
		}
		recType := contextString(rec.Context, "procedure_type", "general")
		if procedureType != "" && recType != procedureType {
			continue
		}
		strategies = append(strategies, types.Strategy{
			Description: rec.Content,
			SuccessRate: rate,
			UseCount:    contextInt(rec.Context, "use_count", 0),
			Type:        recType,
		})
	}

	sort.SliceStable(strategies, func(i, j int) bool {
		return strategyScore(strategies[i]) > strategyScore(strategies[j])
	})
	if len(strategies) > maxStrategies {
		strategies = strategies[:maxStrategies]
	}
	return strategies, nil
}

// RecordExplanationOutcome feeds a binary explanation outcome into the
// procedural registry.
func (m *ProceduralMemory) RecordExplanationOutcome(ctx context.Context, topic, explanationStyle string, wasSuccessful bool, feedback string) {
	successRate := 0.0
	if wasSuccessful {
		successRate = 1.0
	}
	m.StoreProcedure(ctx, ProcedureExplanation,
		fmt.Sprintf("For %s: %s", topic, explanationStyle),
		successRate,
		map[string]any{
			"topic":    topic,
			"style":    explanationStyle,
			"feedback": feedback,
		})
}

func strategyScore(s types.Strategy) float64 {
	count := s.UseCount
	if count > useCountCap {
		count = useCountCap
	}
	return s.SuccessRate * float64(count)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

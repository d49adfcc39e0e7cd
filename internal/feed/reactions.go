package feed

// ReactionLabels maps each supported reaction kind to its display label.
// Mirrors the client's fixed reaction palette.
var ReactionLabels = map[string]string{
	"love":  "Love",
	"smile": "Smile",
	"wow":   "Wow",
	"sad":   "Sad",
	"check": "Seen",
}

// LabelFor returns the display label for a reaction kind, falling back to
// the raw kind for unrecognized values.
func LabelFor(kind string) string {
	if label, ok := ReactionLabels[kind]; ok {
		return label
	}
	return kind
}

// applyReaction folds one reaction event into the moment's aggregate set.
//
// Policy: one reaction per user per kind. A user already present in the
// kind's set is a no-op, keeping Count equal to the number of distinct
// reactors. There is no toggle-off; reacting is append-only per event.
func applyReaction(m *Moment, kind string, label string, actingUserID string) bool {
	if actingUserID == "" {
		return false
	}
	if label == "" {
		label = LabelFor(kind)
	}
	for i := range m.Reactions {
		if m.Reactions[i].Kind != kind {
			continue
		}
		if m.Reactions[i].UserIDs == nil {
			m.Reactions[i].UserIDs = make(map[string]struct{}, 1)
		}
		if _, reacted := m.Reactions[i].UserIDs[actingUserID]; reacted {
			return false
		}
		m.Reactions[i].UserIDs[actingUserID] = struct{}{}
		m.Reactions[i].Count++
		return true
	}
	m.Reactions = append(m.Reactions, Reaction{
		Kind:         kind,
		DisplayLabel: label,
		Count:        1,
		UserIDs:      map[string]struct{}{actingUserID: {}},
	})
	return true
}

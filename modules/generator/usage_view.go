package generator

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/qrforge/qrforge/pkg/entitlement"
	"github.com/qrforge/qrforge/pkg/usage"
)

// RemainingView is the tri-state remaining budget in API responses.
// Daily and Monthly are present only for the "metered" kind.
type RemainingView struct {
	Kind    string `json:"kind"` // metered|unlimited|not_applicable
	Daily   *int64 `json:"daily,omitempty"`
	Monthly *int64 `json:"monthly,omitempty"`
}

// FeatureView describes one feature's state for the current user.
type FeatureView struct {
	Kind      string         `json:"kind"` // metered|permission|cap
	Enabled   *bool          `json:"enabled,omitempty"`
	Max       *int64         `json:"max,omitempty"`
	Used      *usage.Windows `json:"used,omitempty"`
	Remaining *RemainingView `json:"remaining,omitempty"`
}

// UsageView is the GET /usage response body.
type UsageView struct {
	Tier     string                 `json:"tier"`
	Features map[string]FeatureView `json:"features"`
}

func (m *Module) handleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestUserID(r)
	if userID == uuid.Nil {
		m.respondError(w, r, usage.ErrNotAuthenticated)
		return
	}

	snap, err := m.store.Snapshot(ctx, userID)
	switch {
	case errors.Is(err, usage.ErrUserNotFound):
		// Fresh users read as free tier with zero usage.
		snap = &usage.Snapshot{UserID: userID, Tier: entitlement.TierFree}
	case err != nil:
		m.respondError(w, r, err)
		return
	}

	view := UsageView{
		Tier:     string(snap.Tier),
		Features: make(map[string]FeatureView, len(entitlement.Features())),
	}
	for _, feature := range entitlement.Features() {
		ent, ok := m.policy[snap.Tier][feature]
		if !ok {
			continue
		}
		view.Features[string(feature)] = m.featureView(snap, feature, ent)
	}
	m.respond(w, http.StatusOK, view, nil)
}

func (m *Module) featureView(snap *usage.Snapshot, feature entitlement.Feature, ent entitlement.Entitlement) FeatureView {
	switch ent.Kind {
	case entitlement.KindPermission:
		enabled := ent.Enabled
		return FeatureView{Kind: "permission", Enabled: &enabled}
	case entitlement.KindCap:
		capMax := ent.Max
		return FeatureView{Kind: "cap", Max: &capMax}
	default:
		used := snap.Windows(feature)
		remaining := m.policy.Remaining(snap.Tier, feature, used.Quota())
		return FeatureView{
			Kind:      "metered",
			Used:      &used,
			Remaining: remainingView(remaining),
		}
	}
}

func remainingView(r entitlement.Remaining) *RemainingView {
	switch r.Kind {
	case entitlement.RemainingUnlimited:
		return &RemainingView{Kind: "unlimited"}
	case entitlement.RemainingNotApplicable:
		return &RemainingView{Kind: "not_applicable"}
	default:
		daily, monthly := r.Daily, r.Monthly
		return &RemainingView{Kind: "metered", Daily: &daily, Monthly: &monthly}
	}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"

	"coinpredict/internal/models"
	"coinpredict/internal/repository"
)

const switchPrefix = "feature."

const (
	FeatureResolution       = switchPrefix + "resolution"
	FeaturePredictionIntake = switchPrefix + "prediction_intake"
)

var switchDescriptions = map[string]string{
	FeatureResolution:       "resolution runs triggered over HTTP",
	FeaturePredictionIntake: "accepting new predictions",
}

func DefaultFeatureSwitches() map[string]bool {
	return map[string]bool{
		FeatureResolution:       true,
		FeaturePredictionIntake: true,
	}
}

// SwitchState is a feature switch as exposed over the admin API.
type SwitchState struct {
	Name      string     `json:"name"`
	Key       string     `json:"key"`
	Enabled   bool       `json:"enabled"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type SystemSettingsService struct {
	Repo repository.SettingsRepository
}

// EnsureDefaultSwitches inserts missing switches. Stored values are never changed,
// so a switch turned off by an operator stays off across restarts.
func (s *SystemSettingsService) EnsureDefaultSwitches(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	for key, enabled := range DefaultFeatureSwitches() {
		existing, err := s.Repo.GetSystemSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := s.Repo.UpsertSystemSetting(ctx, switchSetting(key, enabled)); err != nil {
			return err
		}
	}
	return nil
}

// IsEnabled returns fallback when the switch is missing, unreadable or the store fails.
func (s *SystemSettingsService) IsEnabled(ctx context.Context, key string, fallback bool) bool {
	if s == nil || s.Repo == nil {
		return fallback
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	item, err := s.Repo.GetSystemSettingByKey(ctx, key)
	if err != nil || item == nil {
		return fallback
	}
	return decodeSwitch(item.Value, fallback)
}

func (s *SystemSettingsService) SetEnabled(ctx context.Context, name string, enabled bool) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	key, ok := SwitchKey(name)
	if !ok {
		return fmt.Errorf("%w: switch %q", repository.ErrNotFound, name)
	}
	return s.Repo.UpsertSystemSetting(ctx, switchSetting(key, enabled))
}

// SwitchKey maps a short switch name ("resolution") or a full key to a known key.
func SwitchKey(name string) (string, bool) {
	key := strings.TrimSpace(name)
	if !strings.HasPrefix(key, switchPrefix) {
		key = switchPrefix + key
	}
	_, ok := DefaultFeatureSwitches()[key]
	return key, ok
}

// ListSwitches reports every known switch; a switch the store cannot provide shows its default.
func (s *SystemSettingsService) ListSwitches(ctx context.Context) []SwitchState {
	stored := map[string]models.SystemSetting{}
	if s != nil && s.Repo != nil {
		prefix := switchPrefix
		items, err := s.Repo.ListSystemSettings(ctx, repository.ListSystemSettingsParams{Prefix: &prefix, Limit: 100})
		if err == nil {
			for _, item := range items {
				stored[item.Key] = item
			}
		}
	}

	defaults := DefaultFeatureSwitches()
	out := make([]SwitchState, 0, len(defaults))
	for key, fallback := range defaults {
		st := SwitchState{
			Name:    strings.TrimPrefix(key, switchPrefix),
			Key:     key,
			Enabled: fallback,
		}
		if item, ok := stored[key]; ok {
			st.Enabled = decodeSwitch(item.Value, fallback)
			updated := item.UpdatedAt
			st.UpdatedAt = &updated
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func switchSetting(key string, enabled bool) *models.SystemSetting {
	raw, _ := json.Marshal(enabled)
	now := time.Now().UTC()
	return &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(raw),
		Description: switchDescriptions[key],
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func decodeSwitch(raw datatypes.JSON, fallback bool) bool {
	if len(raw) == 0 {
		return fallback
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		return fallback
	}
	return enabled
}

package manager

import (
	"context"

	"github.com/cliair-memcore/memcore/memtypes"
)

// SetProfile validates input.Key against the configured whitelist (if
// any) before delegating to the profile store, per spec.md §4.7/§6.
func (m *Manager) SetProfile(ctx context.Context, input memtypes.ProfileInput) (memtypes.ProfileItem, error) {
	if err := m.policy.ValidateProfileKey(input.Key); err != nil {
		return memtypes.ProfileItem{}, err
	}
	return m.profiles.Set(ctx, input)
}

// GetProfile delegates to the profile store, per spec.md §6.
func (m *Manager) GetProfile(ctx context.Context, key string) (memtypes.ProfileItem, error) {
	return m.profiles.Get(ctx, key)
}

// GetAllProfiles delegates to the profile store, per spec.md §6.
func (m *Manager) GetAllProfiles(ctx context.Context) ([]memtypes.ProfileItem, error) {
	return m.profiles.GetAll(ctx)
}

package app

import "context"

// PreferencesStore keeps display preferences.
type PreferencesStore struct {
	records
}

func NewPreferencesStore(kv KVStore, namespace string) *PreferencesStore {
	return &PreferencesStore{records: records{kv: kv, namespace: namespace}}
}

// DarkMode is false until set.
func (s *PreferencesStore) DarkMode(ctx context.Context) (bool, error) {
	var enabled bool
	ok, err := s.load(ctx, DarkModeKey, &enabled)
	if err != nil || !ok {
		return false, err
	}
	return enabled, nil
}

func (s *PreferencesStore) SetDarkMode(ctx context.Context, enabled bool) error {
	return s.save(ctx, DarkModeKey, enabled)
}

package store

import (
	"errors"
	"testing"
)

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get(SettingPreset); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store error = %v, want ErrNotFound", err)
	}

	if err := repo.Set(SettingPreset, "wheel"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(SettingPreset, "dance_map"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if v, err := repo.Get(SettingPreset); err != nil || v != "dance_map" {
		t.Errorf("Get() = %q, %v; want dance_map", v, err)
	}

	tests := []struct {
		name  string
		value string
		def   bool
		want  bool
	}{
		{name: "missing uses default", value: "", def: true, want: true},
		{name: "stored false", value: "false", def: true, want: false},
		{name: "stored true", value: "true", def: false, want: true},
		{name: "garbage uses default", value: "maybe", def: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "bool_" + tt.name
			if tt.value != "" {
				if err := repo.Set(key, tt.value); err != nil {
					t.Fatalf("Set() error = %v", err)
				}
			}
			got, err := repo.GetBool(key, tt.def)
			if err != nil {
				t.Fatalf("GetBool() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetBool() = %v, want %v", got, tt.want)
			}
		})
	}

	if err := repo.SetBool(SettingEnabled, false); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	if on, _ := repo.GetBool(SettingEnabled, true); on {
		t.Error("detection should be disabled after SetBool(false)")
	}
}

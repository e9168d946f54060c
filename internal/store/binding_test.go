package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingRepository_CRUD(t *testing.T) {
	repo := newTestStore(t).Bindings()

	b := &Binding{
		Move:       "start_right",
		PluginName: "keyboard",
		ActionName: "key_down",
		Config:     json.RawMessage(`{"key":"right"}`),
		Enabled:    true,
	}
	require.NoError(t, repo.Create(b))
	require.NotEmpty(t, b.ID)

	got, err := repo.GetByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "start_right", got.Move)
	assert.JSONEq(t, `{"key":"right"}`, string(got.Config))
	assert.True(t, got.Enabled)

	byMove, err := repo.GetByMove("start_right")
	require.NoError(t, err)
	require.NotNil(t, byMove)
	assert.Equal(t, b.ID, byMove.ID)

	b.Enabled = false
	b.ActionName = "keystroke"
	require.NoError(t, repo.Update(b))

	got, err = repo.GetByID(b.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, "keystroke", got.ActionName)

	require.NoError(t, repo.Delete(b.ID))
	if _, err := repo.GetByID(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
}

func TestBindingRepository_GetByMoveUnbound(t *testing.T) {
	repo := newTestStore(t).Bindings()

	b, err := repo.GetByMove("jump")
	if err != nil {
		t.Fatalf("GetByMove() error = %v", err)
	}
	if b != nil {
		t.Errorf("GetByMove() = %+v, want nil for unbound move", b)
	}
}

func TestBindingRepository_MoveIsUnique(t *testing.T) {
	repo := newTestStore(t).Bindings()

	require.NoError(t, repo.Create(&Binding{Move: "jump", PluginName: "keyboard", ActionName: "keystroke"}))
	err := repo.Create(&Binding{Move: "jump", PluginName: "keyboard", ActionName: "key_down"})
	assert.Error(t, err)
}

func TestBindingRepository_DefaultsAndList(t *testing.T) {
	repo := newTestStore(t).Bindings()

	require.NoError(t, repo.Create(&Binding{Move: "step_right", PluginName: "keyboard", ActionName: "keystroke"}))
	require.NoError(t, repo.Create(&Binding{Move: "bend", PluginName: "keyboard", ActionName: "keystroke"}))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bend", list[0].Move)
	assert.Equal(t, "{}", string(list[1].Config))

	if err := repo.Update(&Binding{ID: "missing", Move: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
}

package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct{ ops []Operator }

func (m *memRepo) LoadAll() ([]Operator, error) { return append([]Operator{}, m.ops...), nil }
func (m *memRepo) SaveAll(ops []Operator) error {
	m.ops = append([]Operator{}, ops...)
	return nil
}

func TestServiceBasic(t *testing.T) {
	repo := &memRepo{ops: []Operator{{ID: 10, Username: "alice"}}}
	svc, err := NewService(repo, 1, []int64{20})
	require.NoError(t, err)

	assert.True(t, svc.IsAllowed(10), "repo preload")
	assert.True(t, svc.IsAllowed(20), "env list merged")
	assert.True(t, svc.IsAllowed(1), "admin always allowed")
	assert.False(t, svc.IsAllowed(30))

	require.NoError(t, svc.Allow(Operator{ID: 30, Username: "bob"}))
	assert.True(t, svc.IsAllowed(30))

	require.NoError(t, svc.Revoke(10))
	assert.False(t, svc.IsAllowed(10))

	lst := svc.List()
	require.Len(t, lst, 2)
	assert.Equal(t, int64(20), lst[0].ID)
	assert.Equal(t, int64(30), lst[1].ID)
	assert.Len(t, repo.ops, 2, "changes persisted")
}

func TestServiceNoAdmin(t *testing.T) {
	svc, err := NewService(nil, 0, nil)
	require.NoError(t, err)
	assert.False(t, svc.IsAdmin(0))
	assert.False(t, svc.IsAllowed(0))
}

func TestFileRepository(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data", "allowlist.json")
	repo, err := NewFileRepository(p)
	require.NoError(t, err)

	ops, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, ops)

	require.NoError(t, repo.SaveAll([]Operator{{ID: 5, Username: "carol"}}))
	ops, err = repo.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []Operator{{ID: 5, Username: "carol"}}, ops)

	require.NoError(t, os.WriteFile(p, []byte("{broken"), 0o644))
	_, err = repo.LoadAll()
	assert.Error(t, err)
}

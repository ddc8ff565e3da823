package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t)

	base := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)
	statuses := []string{"Creating", "InService", "Updating", "InService"}
	for i, status := range statuses {
		require.NoError(t, s.Record(Transition{
			Endpoint:   "credit-model",
			Status:     status,
			ObservedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := s.List("credit-model", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Newest first.
	assert.Equal(t, "InService", all[0].Status)
	assert.Equal(t, base.Add(3*time.Minute), all[0].ObservedAt.UTC())
	assert.Equal(t, "Creating", all[3].Status)

	limited, err := s.List("credit-model", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "InService", limited[0].Status)
	assert.Equal(t, "Updating", limited[1].Status)
}

func TestListUnknownEndpoint(t *testing.T) {
	s := testStore(t)

	got, err := s.List("never-seen", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordValidation(t *testing.T) {
	s := testStore(t)
	require.Error(t, s.Record(Transition{Status: "InService"}))
}

func TestRecordDefaultsObservedAt(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Record(Transition{Endpoint: "credit-model", Status: "InService"}))

	got, err := s.List("credit-model", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.WithinDuration(t, time.Now(), got[0].ObservedAt, time.Minute)
}

func TestEndpoints(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Record(Transition{Endpoint: "credit-model", Status: "InService"}))
	require.NoError(t, s.Record(Transition{Endpoint: "fraud-model", Status: "Creating"}))

	names, err := s.Endpoints()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"credit-model", "fraud-model"}, names)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Record(Transition{Endpoint: "credit-model", Status: "InService"}))
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.List("credit-model", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "InService", got[0].Status)
}

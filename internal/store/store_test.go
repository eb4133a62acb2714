package store

import (
	"errors"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufw-inspector/internal/model"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot(takenAt time.Time) Snapshot {
	src := netip.MustParsePrefix("10.0.0.0/8")
	end := uint16(6007)
	on := true
	return Snapshot{
		TakenAt: takenAt,
		Host:    "gw01",
		Version: "ufw 0.36.2",
		Enabled: &on,
		Logging: "low",
		Defaults: []model.Default{
			{Direction: model.Incoming, Policy: model.PolicyDeny},
			{Direction: model.Outgoing, Policy: model.PolicyAllow},
		},
		Rules: []model.Result[model.RuleEntry]{
			model.Ok(model.RuleEntry{
				Number:      1,
				Destination: model.Endpoint{Ports: []model.Port{{Number: 22, Protocols: []model.Protocol{model.TCP}}}},
				Source:      model.Endpoint{Address: &src},
				Protocol:    model.TCP,
				Action:      model.RuleAction{Type: model.RuleAllow, Direction: model.RuleIn},
				Comment:     "ssh",
			}),
			model.Fail[model.RuleEntry](errors.New("wrong rule type: no rule type in \"junk\"")),
			model.Ok(model.RuleEntry{
				Number:      3,
				Destination: model.Endpoint{Ports: []model.Port{{Number: 6000, EndNumber: &end, Protocols: []model.Protocol{model.UDP}}}},
				IPVersion:   model.V6,
				Action:      model.RuleAction{Type: model.RuleLimit, Direction: model.RuleOut},
			}),
		},
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	s := openMemory(t)
	takenAt := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	id, err := s.SaveSnapshot(sampleSnapshot(takenAt))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap, err := s.LoadSnapshot(id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.True(t, takenAt.Equal(snap.TakenAt))
	assert.Equal(t, "gw01", snap.Host)
	assert.Equal(t, "ufw 0.36.2", snap.Version)
	require.NotNil(t, snap.Enabled)
	assert.True(t, *snap.Enabled)
	assert.Equal(t, "low", snap.Logging)
	assert.Len(t, snap.Defaults, 2)

	require.Len(t, snap.Rules, 3)
	want := sampleSnapshot(takenAt)
	assert.Equal(t, want.Rules[0].Value, snap.Rules[0].Value)
	assert.EqualError(t, snap.Rules[1].Err, want.Rules[1].Err.Error())
	assert.Equal(t, want.Rules[2].Value, snap.Rules[2].Value)
}

func TestSnapshotWithUnreadableParts(t *testing.T) {
	s := openMemory(t)

	id, err := s.SaveSnapshot(Snapshot{Host: "gw02"})
	require.NoError(t, err)

	snap, err := s.LoadSnapshot(id)
	require.NoError(t, err)
	assert.Nil(t, snap.Enabled)
	assert.Empty(t, snap.Version)
	assert.Empty(t, snap.Rules)
	assert.False(t, snap.TakenAt.IsZero())
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	s := openMemory(t)
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	oldID, err := s.SaveSnapshot(sampleSnapshot(older))
	require.NoError(t, err)
	newID, err := s.SaveSnapshot(Snapshot{TakenAt: newer, Host: "gw01"})
	require.NoError(t, err)

	infos, err := s.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, newID, infos[0].ID)
	assert.Equal(t, 0, infos[0].RuleCount)
	assert.Equal(t, oldID, infos[1].ID)
	assert.Equal(t, 3, infos[1].RuleCount)
	assert.Equal(t, 1, infos[1].ErrorCount)
	assert.Equal(t, "ufw 0.36.2", infos[1].Version)
}

func TestLoadUnknownSnapshot(t *testing.T) {
	s := openMemory(t)
	_, err := s.LoadSnapshot("does-not-exist")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

// Runs against a real MariaDB/MySQL when UFW_INSPECTOR_MYSQL_DSN is set,
// e.g. "root:secret@tcp(127.0.0.1:3306)/ufw_inspector".
func TestMySQLRoundTrip(t *testing.T) {
	dsn := os.Getenv("UFW_INSPECTOR_MYSQL_DSN")
	if dsn == "" {
		t.Skip("UFW_INSPECTOR_MYSQL_DSN not set")
	}
	s, err := Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not reachable: %v", err)
	}
	defer s.Close()

	id, err := s.SaveSnapshot(sampleSnapshot(time.Now()))
	require.NoError(t, err)
	snap, err := s.LoadSnapshot(id)
	require.NoError(t, err)
	assert.Len(t, snap.Rules, 3)
}

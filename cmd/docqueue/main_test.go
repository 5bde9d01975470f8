package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dbPath string, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--db-driver", "sqlite", "--db-url", dbPath, "--log-level", "error"}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.Bytes()
}

func TestIngestDrainStatus(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "queue.db")
	files := filepath.Join(dir, "files")
	require.NoError(t, os.MkdirAll(files, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(files, "design_and_access_statement.txt"),
		[]byte("The proposal respects the local character."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(files, "empty.txt"), nil, 0o600))

	var ing struct {
		Stats struct {
			Succeeded int `json:"Succeeded"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(run(t, db, "ingest", "REF-1", files), &ing))
	assert.Equal(t, 2, ing.Stats.Succeeded)

	var drained struct {
		Processed int `json:"processed"`
	}
	require.NoError(t, json.Unmarshal(run(t, db, "drain"), &drained))
	assert.Equal(t, 2, drained.Processed)

	var st caseStatus
	require.NoError(t, json.Unmarshal(run(t, db, "status", "REF-1"), &st))
	assert.Equal(t, 2, st.Counts.Total)
	assert.Equal(t, 1, st.Counts.Processed)
	assert.Equal(t, 1, st.Counts.Failed)
	assert.Zero(t, st.Pending)
	assert.Zero(t, st.QueuedTotal)

	var reset struct {
		Reset int64 `json:"reset"`
	}
	require.NoError(t, json.Unmarshal(run(t, db, "reset", "REF-1", "--stalled"), &reset))
	assert.EqualValues(t, 1, reset.Reset)

	xlsx := filepath.Join(dir, "case.xlsx")
	run(t, db, "export", "REF-1", "-o", xlsx)
	fi, err := os.Stat(xlsx)
	require.NoError(t, err)
	assert.Positive(t, fi.Size())
}

func TestResetHelpNamesStalledScope(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"reset", "--help"})
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	help := out.String()
	assert.Contains(t, help, "only the\nqueued and failed ones")
	assert.Contains(t, help, "only reset queued and failed documents")
	assert.NotContains(t, help, "processing or failed")
}

func TestRejectsUnknownDriver(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--db-driver", "oracle", "--db-url", "x", "dbhealth"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

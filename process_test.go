package update

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeForCompare(t *testing.T) {
	assert.Equal(t, "/a/b/c.exe", normalizeForCompare("/A/B/C.EXE"))
}

func TestProcessesUnder_NoMatches(t *testing.T) {
	pids, err := processesUnder(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, pids)
}

func TestTerminateProcessesUnder_NoMatchesReturnsImmediately(t *testing.T) {
	err := TerminateProcessesUnder(context.Background(), t.TempDir(), time.Second)
	assert.NoError(t, err)
}

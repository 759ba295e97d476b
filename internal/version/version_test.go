package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolved(t *testing.T) {
	assert.NotEmpty(t, Resolved())

	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", Resolved())
}

func TestString(t *testing.T) {
	old := [3]string{Version, GitCommit, BuildTime}
	t.Cleanup(func() { Version, GitCommit, BuildTime = old[0], old[1], old[2] })
	Version, GitCommit, BuildTime = "v0.3.0", "abc1234", "2026-10-01"

	assert.Equal(t, "docstage v0.3.0 (commit abc1234, built 2026-10-01)", String())
}

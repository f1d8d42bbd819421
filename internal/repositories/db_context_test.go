package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_WithPragmas(t *testing.T) {
	assert.Equal(t, "seen.db?"+sqlitePragmas, withPragmas("seen.db"))
	assert.Equal(t, "file:seen.db?mode=rwc&"+sqlitePragmas, withPragmas("file:seen.db?mode=rwc"))
	assert.Equal(t, "seen.db?_pragma=foreign_keys(1)", withPragmas("seen.db?_pragma=foreign_keys(1)"))
}

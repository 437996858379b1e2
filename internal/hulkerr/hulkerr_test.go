package hulkerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWalksWrappedChain(t *testing.T) {
	inner := Run("jobrun", errors.New("exit status 1"), "job %q failed", "a.fa")
	outer := fmt.Errorf("sketch: %w", inner)

	assert.True(t, Is(outer, KindRun))
	assert.False(t, Is(outer, KindConfig))
	assert.Equal(t, KindRun, KindOf(outer))
}

func TestIsFindsNestedKind(t *testing.T) {
	cause := Config("alias", "bad header")
	wrapped := IO("pipeline", cause, "loading aliases")

	assert.True(t, Is(wrapped, KindIO))
	assert.True(t, Is(wrapped, KindConfig))
}

func TestErrorMessage(t *testing.T) {
	err := External("matrix", nil, "exit status 2", "boom\n", "comparator failed")
	assert.Equal(t, "matrix: comparator failed (exit status 2)\nboom", err.Error())

	err = IO("discover", fs.ErrNotExist, "stat %q", "x")
	assert.Equal(t, `discover: stat "x": file does not exist`, err.Error())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("x")))
	assert.False(t, Is(nil, KindIO))
}

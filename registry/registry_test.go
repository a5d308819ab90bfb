package registry

import (
	"fmt"
	"os"
	"path"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("/outputs/a-1.webp", "/tmp/out/a-1.webp"))

	loc, ok := r.Resolve("/outputs/a-1.webp")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/out/a-1.webp", loc)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterIsWriteOnce(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("/outputs/a.webp", "/first"))
	assert.ErrorIs(t, r.Register("/outputs/a.webp", "/second"), ErrAlreadyRegistered)

	loc, ok := r.Resolve("/outputs/a.webp")
	assert.True(t, ok)
	assert.Equal(t, "/first", loc)
}

func TestRegisterRejectsOtherPrefixes(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Register("/etc/passwd", "/etc/passwd"), ErrInvalidPath)
	assert.ErrorIs(t, r.Register("/outputs/", "/tmp"), ErrInvalidPath)
	assert.Equal(t, 0, r.Len())
}

func TestUnregisteredFileIsNotFound(t *testing.T) {
	dir := t.TempDir()
	onDisk := path.Join(dir, "planted.webp")
	require.NoError(t, os.WriteFile(onDisk, []byte("not ours"), 0644))

	r := New()
	_, ok := r.Resolve(VirtualPath("planted.webp"))
	assert.False(t, ok)
	_, ok = r.Resolve(onDisk)
	assert.False(t, ok)
}

func TestConcurrentRegistrationHasOneWinner(t *testing.T) {
	r := New()
	wg := &sync.WaitGroup{}
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- r.Register("/outputs/contested.webp", fmt.Sprintf("/loc/%d", i))
		}(i)
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyRegistered)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, r.Len())
}

package tokenizer

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDictionary_Deduplicates(t *testing.T) {
	d := NewDictionary([]string{"ซูชิ", "ราเมน", "ซูชิ", "  ", ""}, false)
	snap := d.Current()

	assert.Equal(t, []string{"ซูชิ", "ราเมน"}, snap.Words())
	assert.True(t, snap.Contains("ซูชิ"))
	assert.False(t, snap.Contains("วากาเมะ"))
}

func TestNewDictionary_WakamePreset(t *testing.T) {
	d := NewDictionary([]string{"ต้มยำ"}, true)
	snap := d.Current()

	assert.True(t, snap.Contains("ต้มยำ"))
	assert.True(t, snap.Contains("วากาเมะ"), "preset guarantees the wakame terms")
	assert.True(t, snap.Contains("สาหร่ายวากาเมะ"))
	assert.True(t, snap.Contains("ซูชิ"))
}

func TestDictionary_ReplaceBumpsVersion(t *testing.T) {
	d := NewDictionary(nil, false)
	v1 := d.Current().Version()

	d.Replace([]string{"ใหม่"})
	v2 := d.Current().Version()

	assert.Greater(t, v2, v1)
}

func TestDictionary_SnapshotIsStable(t *testing.T) {
	d := NewDictionary([]string{"เก่า"}, false)
	snap := d.Current()

	d.Replace([]string{"ใหม่"})

	// A reader holding the old snapshot still sees the old contents.
	assert.True(t, snap.Contains("เก่า"))
	assert.False(t, snap.Contains("ใหม่"))
	assert.True(t, d.Current().Contains("ใหม่"))
}

func TestDictionary_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.txt")
	content := "# domain vocabulary\nวากาเมะ\n\nซูชิ\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d := NewDictionary(nil, false)
	snap, err := d.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"วากาเมะ", "ซูชิ"}, snap.Words())
}

func TestDictionary_LoadFileMissing(t *testing.T) {
	d := NewDictionary(nil, false)
	_, err := d.LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestDictionary_WatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.txt")
	require.NoError(t, os.WriteFile(path, []byte("หนึ่ง\n"), 0o644))

	d := NewDictionary(nil, false)
	_, err := d.LoadFile(path)
	require.NoError(t, err)

	done := make(chan struct{})
	defer close(done)
	require.NoError(t, d.Watch(path, done, slog.Default()))

	require.NoError(t, os.WriteFile(path, []byte("หนึ่ง\nสอง\n"), 0o644))

	assert.Eventually(t, func() bool {
		return d.Current().Contains("สอง")
	}, 2*time.Second, 20*time.Millisecond, "watcher should pick up the new word")
}

func TestNilSnapshotAccessors(t *testing.T) {
	var snap *Snapshot
	assert.Nil(t, snap.Words())
	assert.False(t, snap.Contains("x"))
	assert.Zero(t, snap.Version())
	assert.Zero(t, snap.Len())
}

package tokenizer

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/thaisearch/thaitok/internal/errors"
)

// wakameWords is the "wakame-optimized" preset: Thai-transliterated
// Japanese/English food terms that must always be segmentable as whole
// words regardless of the surrounding noun phrase.
var wakameWords = []string{
	"วากาเมะ",        // wakame
	"สาหร่ายวากาเมะ", // wakame seaweed
	"สาหร่ายโนริ",    // nori seaweed
	"ซูชิ",           // sushi
	"ซาชิมิ",         // sashimi
	"ราเมน",          // ramen
	"เทมปุระ",        // tempura
	"อุด้ง",          // udon
	"โซบะ",           // soba
	"มิโซะ",          // miso
	"ชาเขียวมัทฉะ",   // matcha green tea
}

// Snapshot is an immutable custom-dictionary view. Readers acquire a
// snapshot once at the start of a call and keep it for the call's duration;
// hot reload publishes a new snapshot without touching existing ones.
type Snapshot struct {
	words   []string
	set     map[string]struct{}
	version uint64
}

// newSnapshot builds a snapshot, deduplicating while preserving first
// occurrence order.
func newSnapshot(words []string, version uint64) *Snapshot {
	set := make(map[string]struct{}, len(words))
	var unique []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := set[w]; ok {
			continue
		}
		set[w] = struct{}{}
		unique = append(unique, w)
	}
	return &Snapshot{words: unique, set: set, version: version}
}

// Words returns the dictionary entries in insertion order.
// The returned slice must not be mutated.
func (s *Snapshot) Words() []string {
	if s == nil {
		return nil
	}
	return s.words
}

// Contains reports whether w is in the dictionary.
func (s *Snapshot) Contains(w string) bool {
	if s == nil {
		return false
	}
	_, ok := s.set[w]
	return ok
}

// Version identifies the snapshot; it increases on every swap.
func (s *Snapshot) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// Dictionary holds the current snapshot behind an atomic pointer.
// Single writer, many readers; readers never block the writer.
type Dictionary struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	wakame  bool
}

// NewDictionary creates a dictionary with the given initial words.
// When wakamePreset is set, the preset terms are always merged in.
func NewDictionary(words []string, wakamePreset bool) *Dictionary {
	d := &Dictionary{wakame: wakamePreset}
	d.Replace(words)
	return d
}

// Current returns the current snapshot. Never nil.
func (d *Dictionary) Current() *Snapshot {
	return d.current.Load()
}

// Replace atomically publishes a new snapshot built from words.
func (d *Dictionary) Replace(words []string) *Snapshot {
	merged := words
	if d.wakame {
		merged = append(append([]string{}, words...), wakameWords...)
	}
	snap := newSnapshot(merged, d.version.Add(1))
	d.current.Store(snap)
	return snap
}

// LoadFile replaces the dictionary with the contents of a newline-delimited
// word file. Lines starting with '#' are comments.
func (d *Dictionary) LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDictionaryLoad, err)
	}
	defer func() { _ = f.Close() }()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDictionaryLoad, err)
	}

	return d.Replace(words), nil
}

// Watch hot-reloads the dictionary whenever path changes. The watcher stops
// when the channel returned by done is closed. Reload failures keep the
// previous snapshot and are logged.
func (d *Dictionary) Watch(path string, done <-chan struct{}, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDictionaryLoad, err)
	}

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return errors.Wrap(errors.ErrCodeDictionaryLoad, err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				snap, err := d.LoadFile(path)
				if err != nil {
					logger.Warn("dictionary reload failed, keeping previous snapshot",
						"path", path, "error", err)
					continue
				}
				logger.Info("dictionary reloaded",
					"path", path, "words", snap.Len(), "version", snap.Version())
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("dictionary watcher error", "error", err)
			}
		}
	}()

	return nil
}

// Package content keeps image affordances in sync with rendered post
// content.
//
// Posts arrive as markdown and are re-rendered as the user browses; the
// Enhancer watches that content for image references and maintains a
// registry of enhanced images, each paired with its own teardown. The TUI
// uses the registry to present numbered open-in-viewer affordances.
package content

import (
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

// markdownImage matches ![alt](src) references.
var markdownImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)

// bareImageURL matches standalone image links outside markdown syntax.
var bareImageURL = regexp.MustCompile(`(?:^|\s)((?:https?://|/)[^\s)]+\.(?:png|jpe?g|gif|webp|bmp))`)

// ImageRef is one enhanced image reference.
type ImageRef struct {
	// Key identifies the image by its source, stable across scans
	Key string

	// Source is the image URL as written in the content
	Source string

	// Alt is the markdown alt text, empty for bare URLs
	Alt string

	// Index is the 1-based affordance number, assigned on first sight
	Index int
}

// EnhanceFunc attaches an affordance for a newly discovered image and
// returns the matching teardown. The teardown runs exactly once: when the
// image leaves the content or when the enhancer is disposed.
type EnhanceFunc func(ref ImageRef) (dispose func())

// Enhancer scans content for image references, enhancing new ones and
// tearing down ones that disappeared. Scans are debounced so bursts of
// content changes collapse into a single pass.
type Enhancer struct {
	mu sync.Mutex

	debounce time.Duration
	enhance  EnhanceFunc

	pending    string
	hasPending bool
	timer      *time.Timer

	// registry maps each enhanced image to its teardown
	registry map[string]func()
	refs     map[string]ImageRef
	order    []string
	nextIdx  int

	disposed bool
}

// NewEnhancer creates an enhancer. debounce <= 0 disables debouncing and
// makes SetContent scan synchronously.
func NewEnhancer(debounce time.Duration, enhance EnhanceFunc) *Enhancer {
	if enhance == nil {
		enhance = func(ImageRef) func() { return func() {} }
	}
	return &Enhancer{
		debounce: debounce,
		enhance:  enhance,
		registry: make(map[string]func()),
		refs:     make(map[string]ImageRef),
		nextIdx:  1,
	}
}

// SetContent schedules an enhancement pass over text. Calls within the
// debounce window replace the pending text and restart the timer, so only
// the latest content is scanned.
func (e *Enhancer) SetContent(text string) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}

	if e.debounce <= 0 {
		e.mu.Unlock()
		e.scan(text)
		return
	}

	e.pending = text
	e.hasPending = true
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, e.flushPending)
	e.mu.Unlock()
}

// Flush runs any pending scan immediately. The TUI calls this before
// rendering affordances for freshly loaded content.
func (e *Enhancer) Flush() {
	e.flushPending()
}

func (e *Enhancer) flushPending() {
	e.mu.Lock()
	if e.disposed || !e.hasPending {
		e.mu.Unlock()
		return
	}
	text := e.pending
	e.hasPending = false
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	e.scan(text)
}

// scan reconciles the registry against the image references in text.
// Already-enhanced images are skipped, so a repeated pass over unchanged
// content is a no-op.
func (e *Enhancer) scan(text string) {
	found := extractRefs(text)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}

	seen := make(map[string]bool, len(found))
	for _, ref := range found {
		seen[ref.Key] = true

		if _, ok := e.registry[ref.Key]; ok {
			continue
		}

		ref.Index = e.nextIdx
		e.nextIdx++

		e.registry[ref.Key] = e.enhance(ref)
		e.refs[ref.Key] = ref
		e.order = append(e.order, ref.Key)
	}

	// Tear down images that left the content.
	kept := e.order[:0]
	for _, key := range e.order {
		if seen[key] {
			kept = append(kept, key)
			continue
		}
		if dispose := e.registry[key]; dispose != nil {
			dispose()
		}
		delete(e.registry, key)
		delete(e.refs, key)
	}
	e.order = kept
}

// Images returns the enhanced references in first-seen order.
func (e *Enhancer) Images() []ImageRef {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]ImageRef, 0, len(e.order))
	for _, key := range e.order {
		out = append(out, e.refs[key])
	}
	return out
}

// Count returns the number of currently enhanced images.
func (e *Enhancer) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}

// Dispose cancels any pending scan and runs every registered teardown.
// The enhancer is unusable afterwards; further SetContent calls are
// ignored.
func (e *Enhancer) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.disposed = true

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.hasPending = false

	for _, key := range e.order {
		if dispose := e.registry[key]; dispose != nil {
			dispose()
		}
	}
	e.registry = nil
	e.refs = nil
	e.order = nil
}

// extractRefs pulls image references out of markdown content, deduplicated
// by source in order of first appearance.
func extractRefs(text string) []ImageRef {
	var refs []ImageRef
	seen := make(map[string]bool)

	add := func(src, alt string) {
		src = strings.TrimSpace(src)
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		refs = append(refs, ImageRef{
			Key:    imageKey(src),
			Source: src,
			Alt:    alt,
		})
	}

	for _, m := range markdownImage.FindAllStringSubmatch(text, -1) {
		add(m[2], m[1])
	}

	// Strip markdown images before looking for bare URLs so sources are
	// not picked up twice.
	stripped := markdownImage.ReplaceAllString(text, "")
	for _, m := range bareImageURL.FindAllStringSubmatch(stripped, -1) {
		add(m[1], "")
	}

	return refs
}

// imageKey fingerprints an image source.
func imageKey(src string) string {
	sum := blake3.Sum256([]byte(src))
	return hex.EncodeToString(sum[:8])
}

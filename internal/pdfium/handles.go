package pdfium

import (
	"fmt"
	"sort"
	"sync"
)

// Handle is an opaque identifier for an open native resource. Zero is never
// a valid handle.
type Handle uint32

// Kind tags the resource a handle refers to.
type Kind uint8

const (
	KindDocument Kind = iota + 1
	KindPage
	KindTextPage
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindPage:
		return "page"
	case KindTextPage:
		return "text page"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type entry struct {
	kind Kind
	ref  uintptr
	// doc is the owning document for pages and text pages.
	doc Handle
}

// handleTable maps handles to native references. Its operations are atomic
// with respect to each other; native calls are serialized by the caller.
type handleTable struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]entry

	// Source bytes of loaded documents. The native document may read them
	// lazily, so they stay referenced until after the native close. The Go
	// heap does not move objects, which keeps the address stable.
	docData map[Handle][]byte
}

func newHandleTable() *handleTable {
	return &handleTable{
		next:    1,
		entries: make(map[Handle]entry),
		docData: make(map[Handle][]byte),
	}
}

func (t *handleTable) allocate(kind Kind, ref uintptr, doc Handle) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocateLocked(kind, ref, doc)
}

func (t *handleTable) allocateLocked(kind Kind, ref uintptr, doc Handle) Handle {
	h := t.next
	t.next++
	t.entries[h] = entry{kind: kind, ref: ref, doc: doc}
	return h
}

// allocateDocument issues a document handle and retains its source bytes
// under the same lock. data may be nil for documents created natively.
func (t *handleTable) allocateDocument(ref uintptr, data []byte) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.allocateLocked(KindDocument, ref, 0)
	if data != nil {
		t.docData[h] = data
	}
	return h
}

func (t *handleTable) resolve(h Handle, want Kind) (entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookupLocked(h, want)
}

// remove deletes and returns the entry. A handle of the wrong kind is left
// in place.
func (t *handleTable) remove(h Handle, want Kind) (entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.lookupLocked(h, want)
	if err != nil {
		return entry{}, err
	}
	delete(t.entries, h)
	return e, nil
}

func (t *handleTable) lookupLocked(h Handle, want Kind) (entry, error) {
	e, ok := t.entries[h]
	if !ok {
		return entry{}, &HandleError{
			Handle:   h,
			Want:     want,
			Reason:   NotFound,
			Released: h != 0 && h < t.next,
		}
	}
	if e.kind != want {
		return entry{}, &HandleError{
			Handle: h,
			Want:   want,
			Got:    e.kind,
			Reason: WrongKind,
		}
	}
	return e, nil
}

// releaseData drops the retained source bytes of a document. It must run
// after the native close.
func (t *handleTable) releaseData(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.docData, h)
}

func (t *handleTable) retained(h Handle) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data, ok := t.docData[h]
	return data, ok
}

// children counts open pages and text pages derived from doc.
func (t *handleTable) children(doc Handle) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, e := range t.entries {
		if e.kind != KindDocument && e.doc == doc {
			n++
		}
	}
	return n
}

// live returns open handles, most recently issued first.
func (t *handleTable) live() []Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	hs := make([]Handle, 0, len(t.entries))
	for h := range t.entries {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] > hs[j] })
	return hs
}

func (t *handleTable) kindOf(h Handle) (Kind, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[h]
	return e.kind, ok
}

func (t *handleTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

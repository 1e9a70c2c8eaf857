package pdfium

import (
	"unsafe"

	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// Bookmarks returns the outline of doc as a tree in document order.
// Branches nested deeper than Config.MaxBookmarkDepth are cut off, and a
// sibling chain that loops back on itself ends at the repeated entry.
func (l *Library) Bookmarks(doc Handle) ([]protocol.BookmarkNode, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return nil, err
	}

	w := &outlineWalker{
		lib:     l,
		doc:     ref,
		maxDeep: l.config.MaxBookmarkDepth,
		seen:    make(map[uintptr]bool),
	}
	return w.children(0, 0)
}

type outlineWalker struct {
	lib     *Library
	doc     uintptr
	maxDeep int
	seen    map[uintptr]bool
}

// children walks the first-child/next-sibling chain below parent. The zero
// parent is the outline root.
func (w *outlineWalker) children(parent uintptr, depth int) ([]protocol.BookmarkNode, error) {
	if depth > w.maxDeep {
		return nil, nil
	}
	fn := w.lib.fn

	var nodes []protocol.BookmarkNode
	for cur := fn.bookmarkGetFirstChild(w.doc, parent); cur != 0; cur = fn.bookmarkGetNextSibling(w.doc, cur) {
		if w.seen[cur] {
			break
		}
		w.seen[cur] = true

		title, _, err := readUTF16Field("bookmark title", func(buf unsafe.Pointer, n cULong) cULong {
			return fn.bookmarkGetTitle(cur, buf, n)
		})
		if err != nil {
			return nil, err
		}

		node := protocol.BookmarkNode{
			Title:     title,
			PageIndex: -1,
			Count:     int(fn.bookmarkGetCount(cur)),
		}
		if dest := fn.bookmarkGetDest(w.doc, cur); dest != 0 {
			node.PageIndex = int(fn.destGetDestPageIndex(w.doc, dest))
		}
		if action := fn.bookmarkGetAction(cur); action != 0 {
			node.Action = protocol.ActionType(fn.actionGetType(action))
		}

		if node.Children, err = w.children(cur, depth+1); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

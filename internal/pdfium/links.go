package pdfium

import (
	"unsafe"

	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// Links returns every link annotation on page in enumeration order.
// doc must be the document the page belongs to; it is needed to resolve
// destinations and URIs.
func (l *Library) Links(page, doc Handle) ([]protocol.LinkInfo, error) {
	pageRef, err := l.page(page)
	if err != nil {
		return nil, err
	}
	docRef, err := l.doc(doc)
	if err != nil {
		return nil, err
	}
	fn := l.fn

	var (
		links []protocol.LinkInfo
		pos   int32
		link  uintptr
	)
	for cBool(fn.linkEnumerate(pageRef, &pos, &link)) {
		if link == 0 {
			continue
		}

		info := protocol.LinkInfo{Index: len(links)}
		var r fsRectF
		if cBool(fn.linkGetAnnotRect(link, &r)) {
			info.Rect = rectFromF(r)
		}

		action := fn.linkGetAction(link)
		if action != 0 {
			a, err := l.linkAction(docRef, action)
			if err != nil {
				return nil, err
			}
			info.Action = a
		}

		dest := fn.linkGetDest(docRef, link)
		if dest == 0 && action != 0 {
			dest = fn.actionGetDest(docRef, action)
		}
		if dest != 0 {
			info.Dest = l.destination(docRef, dest)
		}

		links = append(links, info)
	}
	return links, nil
}

func (l *Library) linkAction(doc, action uintptr) (*protocol.LinkAction, error) {
	a := &protocol.LinkAction{Type: protocol.ActionType(l.fn.actionGetType(action))}

	var err error
	switch a.Type {
	case protocol.ActionURI:
		a.URI, _, err = readByteField("link URI", encodingUTF8, func(buf unsafe.Pointer, n cULong) cULong {
			return l.fn.actionGetURIPath(doc, action, buf, n)
		})
	case protocol.ActionRemoteGoTo, protocol.ActionLaunch:
		a.FilePath, _, err = readByteField("link file path", encodingUTF8, func(buf unsafe.Pointer, n cULong) cULong {
			return l.fn.actionGetFilePath(action, buf, n)
		})
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (l *Library) destination(doc, dest uintptr) *protocol.Destination {
	d := &protocol.Destination{
		PageIndex: int(l.fn.destGetDestPageIndex(doc, dest)),
	}

	var (
		n      cULong
		params [4]float32
	)
	d.View = protocol.ViewKind(l.fn.destGetView(dest, &n, &params))
	if n > 4 {
		n = 4
	}
	for i := cULong(0); i < n; i++ {
		d.Params = append(d.Params, float64(params[i]))
	}

	var hasX, hasY, hasZoom int32
	var x, y, zoom float32
	if cBool(l.fn.destGetLocationInPage(dest, &hasX, &hasY, &hasZoom, &x, &y, &zoom)) {
		if cBool(hasX) {
			d.X = ptrTo(float64(x))
		}
		if cBool(hasY) {
			d.Y = ptrTo(float64(y))
		}
		if cBool(hasZoom) {
			d.Zoom = ptrTo(float64(zoom))
		}
	}
	return d
}

func ptrTo[T any](v T) *T {
	return &v
}

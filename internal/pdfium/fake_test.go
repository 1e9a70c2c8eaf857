package pdfium

import (
	"encoding/binary"
	"math"
	"runtime"
	"strings"
	"testing"
	"unicode/utf16"
	"unsafe"

	"go.uber.org/zap/zaptest"
)

// fakePDFium is an in-process stand-in for the native library. Its
// closures are installed into a symbols table so Library can be exercised
// without a shared object.

type fakeDest struct {
	page    int32
	view    uint32
	params  []float32
	x, y, z *float32
}

type fakeAction struct {
	typ  uint32
	uri  string
	path string
	dest *fakeDest
}

type fakeBookmark struct {
	title  string
	count  int32
	dest   *fakeDest
	action *fakeAction
	first  *fakeBookmark
	next   *fakeBookmark
}

type fakeLink struct {
	rect   fsRectF
	action *fakeAction
	dest   *fakeDest
}

type fakeAnnot struct {
	subtype int32
	rect    fsRectF
	color   *[4]uint32
	flags   int32
	strings map[string]string
	uri     string
	quads   []fsQuadPointsF
}

type fakePage struct {
	width, height float32
	text          string
	rotation      int32
	boxes         [boxKindCount]*[4]float32
	annots        []*fakeAnnot
	links         []*fakeLink
}

type fakeSignature struct {
	contents  []byte
	byteRange []int32
	subFilter string
	reason    string
	time      string
	docMDP    uint32
}

type fakeAttachment struct {
	name string
	data []byte
}

type fakeDoc struct {
	password    string
	version     int32
	meta        map[string]string
	labels      map[int32]string
	pages       []*fakePage
	outline     *fakeBookmark
	signatures  []*fakeSignature
	attachments []*fakeAttachment
}

type fakeBitmap struct {
	buf    unsafe.Pointer
	width  int32
	height int32
	stride int32
}

type fakeSearch struct {
	matches [][2]int32
	pos     int
}

type fakePDFium struct {
	t testing.TB

	next uintptr
	refs map[any]uintptr
	objs map[uintptr]any

	lastError uint32
	// newDoc builds the document returned for every successful load.
	newDoc func() *fakeDoc

	initCalls    int
	destroyCalls int
	// events records native closes in call order.
	events []string
	// onCloseDocument runs inside FPDF_CloseDocument.
	onCloseDocument func(ref uintptr)

	openAnnots    int
	strideSkew    int32
	renderMode    bool
	saveChunks    []string
	lastSaveFlags cULong
	lastVersion   int32
}

func newFakePDFium(t testing.TB) *fakePDFium {
	return &fakePDFium{
		t:          t,
		next:       0x1000,
		refs:       make(map[any]uintptr),
		objs:       make(map[uintptr]any),
		newDoc:     defaultFakeDoc,
		renderMode: true,
		saveChunks: []string{"%PDF-1.7\n", "", "1 0 obj\n<<>>\nendobj\n", "%%EOF\n"},
	}
}

func defaultFakeDoc() *fakeDoc {
	return &fakeDoc{
		version: 17,
		meta:    map[string]string{"Title": "Hello", "Author": ""},
		labels:  map[int32]string{0: "i"},
		pages: []*fakePage{{
			width:  612,
			height: 792,
			text:   "Hello World",
			boxes:  [boxKindCount]*[4]float32{BoxMedia: {0, 0, 612, 792}},
		}},
	}
}

func (f *fakePDFium) ref(obj any) uintptr {
	if r, ok := f.refs[obj]; ok {
		return r
	}
	f.next += 0x10
	f.refs[obj] = f.next
	f.objs[f.next] = obj
	return f.next
}

func fakeObj[T any](f *fakePDFium, ref uintptr) T {
	obj, ok := f.objs[ref].(T)
	if !ok {
		f.t.Fatalf("fake: ref %#x is %T, not the expected type", ref, f.objs[ref])
	}
	return obj
}

func (f *fakePDFium) doc(ref uintptr) *fakeDoc   { return fakeObj[*fakeDoc](f, ref) }
func (f *fakePDFium) page(ref uintptr) *fakePage { return fakeObj[*fakePage](f, ref) }

// textPage refs point at the page they were loaded from.
type fakeTextPage struct{ page *fakePage }

func (f *fakePDFium) text(ref uintptr) []uint16 {
	return utf16.Encode([]rune(fakeObj[*fakeTextPage](f, ref).page.text))
}

func putUTF16(s string, buf unsafe.Pointer, n cULong) cULong {
	units := append(utf16.Encode([]rune(s)), 0)
	size := cULong(len(units) * 2)
	if buf != nil && n >= size {
		out := unsafe.Slice((*byte)(buf), size)
		for i, u := range units {
			binary.LittleEndian.PutUint16(out[i*2:], u)
		}
	}
	return size
}

func putBytes(s string, buf unsafe.Pointer, n cULong) cULong {
	size := cULong(len(s) + 1)
	if buf != nil && n >= size {
		out := unsafe.Slice((*byte)(buf), size)
		copy(out, s)
		out[len(s)] = 0
	}
	return size
}

func readUTF16Z(p unsafe.Pointer) string {
	var units []uint16
	for i := 0; ; i++ {
		u := *(*uint16)(unsafe.Add(p, i*2))
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

func goString(p *byte) string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	for i := 0; ; i++ {
		b := *(*byte)(unsafe.Add(unsafe.Pointer(p), i))
		if b == 0 {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func (f *fakePDFium) symbols() *symbols {
	s := &symbols{}

	s.initLibraryWithConfig = func(cfg *libraryConfig) {
		if cfg.version != 2 {
			f.t.Errorf("fake: init config version = %d, want 2", cfg.version)
		}
		f.initCalls++
	}
	s.destroyLibrary = func() { f.destroyCalls++ }
	s.getLastError = func() cULong { return cULong(f.lastError) }

	s.loadMemDocument = func(data unsafe.Pointer, size int32, password *byte) uintptr {
		content := unsafe.Slice((*byte)(data), size)
		if !strings.HasPrefix(string(content), "%PDF-") {
			f.lastError = uint32(ErrCodeFormat)
			return 0
		}
		d := f.newDoc()
		if d.password != "" && goString(password) != d.password {
			f.lastError = uint32(ErrCodePassword)
			return 0
		}
		return f.ref(d)
	}
	s.closeDocument = func(doc uintptr) {
		f.events = append(f.events, "close document")
		if f.onCloseDocument != nil {
			f.onCloseDocument(doc)
		}
	}
	s.getPageCount = func(doc uintptr) int32 { return int32(len(f.doc(doc).pages)) }

	s.loadPage = func(doc uintptr, index int32) uintptr {
		d := f.doc(doc)
		if index < 0 || int(index) >= len(d.pages) {
			return 0
		}
		return f.ref(d.pages[index])
	}
	s.closePage = func(uintptr) { f.events = append(f.events, "close page") }
	s.getPageWidthF = func(page uintptr) float32 { return f.page(page).width }
	s.getPageHeightF = func(page uintptr) float32 { return f.page(page).height }
	s.getPageBoundingBox = func(page uintptr, r *fsRectF) int32 {
		p := f.page(page)
		*r = fsRectF{Left: 0, Top: p.height, Right: p.width, Bottom: 0}
		return 1
	}

	s.textLoadPage = func(page uintptr) uintptr {
		return f.ref(&fakeTextPage{page: f.page(page)})
	}
	s.textClosePage = func(uintptr) { f.events = append(f.events, "close text page") }
	s.textCountChars = func(tp uintptr) int32 { return int32(len(f.text(tp))) }
	s.textGetText = func(tp uintptr, start, count int32, buf unsafe.Pointer) int32 {
		units := f.text(tp)[start : start+count]
		out := unsafe.Slice((*uint16)(buf), count+1)
		copy(out, units)
		out[count] = 0
		return count + 1
	}
	s.textGetFontSize = func(uintptr, int32) float64 { return 12 }
	s.textGetFontWeight = func(uintptr, int32) int32 { return 400 }
	s.textGetFontInfo = func(_ uintptr, _ int32, buf unsafe.Pointer, n cULong, flags *int32) cULong {
		*flags = 32
		return putBytes("Helvetica", buf, n)
	}
	if f.renderMode {
		s.textGetTextRenderMode = func(uintptr, int32) int32 { return 1 }
	}
	s.textGetUnicode = func(tp uintptr, i int32) uint32 { return uint32(f.text(tp)[i]) }
	s.textIsGenerated = func(uintptr, int32) int32 { return 0 }
	s.textIsHyphen = func(_ uintptr, i int32) int32 {
		if i > 1000 {
			return -1
		}
		return 0
	}
	s.textGetCharBox = func(_ uintptr, i int32, left, right, bottom, top *float64) int32 {
		*left, *right, *bottom, *top = float64(i*10), float64(i*10+8), 700, 712
		return 1
	}

	s.textFindStart = func(tp uintptr, query unsafe.Pointer, flags cULong, start int32) uintptr {
		text := string(utf16.Decode(f.text(tp)))
		q := readUTF16Z(query)
		if SearchFlags(flags)&MatchCase == 0 {
			text, q = strings.ToLower(text), strings.ToLower(q)
		}
		search := &fakeSearch{}
		for i := int(start); ; {
			j := strings.Index(text[i:], q)
			if j < 0 {
				break
			}
			search.matches = append(search.matches, [2]int32{int32(i + j), int32(len(q))})
			i += j + 1
		}
		return f.ref(search)
	}
	s.textFindNext = func(ref uintptr) int32 {
		search := fakeObj[*fakeSearch](f, ref)
		if search.pos >= len(search.matches) {
			return 0
		}
		search.pos++
		return 1
	}
	s.textFindClose = func(uintptr) { f.events = append(f.events, "close search") }
	s.textGetSchResultIndex = func(ref uintptr) int32 {
		search := fakeObj[*fakeSearch](f, ref)
		return search.matches[search.pos-1][0]
	}
	s.textGetSchCount = func(ref uintptr) int32 {
		search := fakeObj[*fakeSearch](f, ref)
		return search.matches[search.pos-1][1]
	}
	s.textCountRects = func(_ uintptr, _, count int32) int32 {
		if count == 0 {
			return 0
		}
		return 1
	}
	s.textGetRect = func(_ uintptr, index int32, left, top, right, bottom *float64) int32 {
		if index != 0 {
			return 0
		}
		*left, *top, *right, *bottom = 72, 720, 144, 708
		return 1
	}
	s.textGetBoundedText = func(tp uintptr, _, _, _, _ float64, buf unsafe.Pointer, n int32) int32 {
		units := f.text(tp)
		if len(units) > 5 {
			units = units[:5]
		}
		if buf == nil || n == 0 {
			return int32(len(units))
		}
		copy(unsafe.Slice((*uint16)(buf), n), units)
		return int32(min(len(units), int(n)))
	}

	s.bitmapCreateEx = func(w, h, format int32, first unsafe.Pointer, stride int32) uintptr {
		if format != bitmapBGRA {
			f.t.Errorf("fake: bitmap format = %d, want %d", format, bitmapBGRA)
		}
		return f.ref(&fakeBitmap{buf: first, width: w, height: h, stride: stride})
	}
	s.bitmapGetStride = func(ref uintptr) int32 {
		return fakeObj[*fakeBitmap](f, ref).stride + f.strideSkew
	}
	s.bitmapGetBuffer = func(ref uintptr) uintptr {
		return uintptr(fakeObj[*fakeBitmap](f, ref).buf)
	}
	s.bitmapFillRect = func(ref uintptr, left, top, w, h int32, color cULong) {
		bm := fakeObj[*fakeBitmap](f, ref)
		pix := unsafe.Slice((*byte)(bm.buf), bm.stride*bm.height)
		for i := 0; i < len(pix); i += 4 {
			binary.LittleEndian.PutUint32(pix[i:], uint32(color))
		}
	}
	s.renderPageBitmap = func(ref, _ uintptr, _, _, _, _, _, _ int32) {
		bm := fakeObj[*fakeBitmap](f, ref)
		pix := unsafe.Slice((*byte)(bm.buf), 4)
		// One BGRA pixel at the origin.
		pix[0], pix[1], pix[2], pix[3] = 1, 2, 3, 4
	}
	s.bitmapDestroy = func(uintptr) { f.events = append(f.events, "destroy bitmap") }

	s.getMetaText = func(doc uintptr, tag *byte, buf unsafe.Pointer, n cULong) cULong {
		v, ok := f.doc(doc).meta[goString(tag)]
		if !ok {
			return 0
		}
		return putUTF16(v, buf, n)
	}
	s.getFileVersion = func(doc uintptr, v *int32) int32 {
		d := f.doc(doc)
		if d.version == 0 {
			return 0
		}
		*v = d.version
		return 1
	}
	s.getDocPermissions = func(uintptr) cULong { return 0xFFFFFFFC }
	s.getDocUserPermissions = func(uintptr) cULong { return 0xFFFFFFFC }
	s.docGetPageMode = func(uintptr) int32 { return 0 }
	s.getSecurityHandlerRevision = func(uintptr) int32 { return -1 }
	s.catalogIsTagged = func(uintptr) int32 { return 0 }
	s.getPageLabel = func(doc uintptr, i int32, buf unsafe.Pointer, n cULong) cULong {
		v, ok := f.doc(doc).labels[i]
		if !ok {
			return 0
		}
		return putUTF16(v, buf, n)
	}

	for k := BoxKind(0); k < boxKindCount; k++ {
		s.getBox[k] = func(page uintptr, left, bottom, right, top *float32) int32 {
			b := f.page(page).boxes[k]
			if b == nil {
				return 0
			}
			*left, *bottom, *right, *top = b[0], b[1], b[2], b[3]
			return 1
		}
		s.setBox[k] = func(page uintptr, left, bottom, right, top float32) {
			f.page(page).boxes[k] = &[4]float32{left, bottom, right, top}
		}
	}

	s.getSignatureCount = func(doc uintptr) int32 { return int32(len(f.doc(doc).signatures)) }
	s.getSignatureObject = func(doc uintptr, i int32) uintptr {
		sigs := f.doc(doc).signatures
		if int(i) >= len(sigs) {
			return 0
		}
		return f.ref(sigs[i])
	}
	sig := func(ref uintptr) *fakeSignature { return fakeObj[*fakeSignature](f, ref) }
	s.signatureGetContents = func(ref uintptr, buf unsafe.Pointer, n cULong) cULong {
		c := sig(ref).contents
		if buf != nil && n >= cULong(len(c)) {
			copy(unsafe.Slice((*byte)(buf), n), c)
		}
		return cULong(len(c))
	}
	s.signatureGetByteRange = func(ref uintptr, buf *int32, n cULong) cULong {
		br := sig(ref).byteRange
		if buf != nil && n >= cULong(len(br)) {
			copy(unsafe.Slice(buf, n), br)
		}
		return cULong(len(br))
	}
	s.signatureGetSubFilter = func(ref uintptr, buf unsafe.Pointer, n cULong) cULong {
		if sig(ref).subFilter == "" {
			return 0
		}
		return putBytes(sig(ref).subFilter, buf, n)
	}
	s.signatureGetReason = func(ref uintptr, buf unsafe.Pointer, n cULong) cULong {
		if sig(ref).reason == "" {
			return 0
		}
		return putUTF16(sig(ref).reason, buf, n)
	}
	s.signatureGetTime = func(ref uintptr, buf unsafe.Pointer, n cULong) cULong {
		if sig(ref).time == "" {
			return 0
		}
		return putBytes(sig(ref).time, buf, n)
	}
	s.signatureGetDocMDPPermission = func(ref uintptr) uint32 { return sig(ref).docMDP }

	s.docGetAttachmentCount = func(doc uintptr) int32 { return int32(len(f.doc(doc).attachments)) }
	s.docGetAttachment = func(doc uintptr, i int32) uintptr {
		atts := f.doc(doc).attachments
		if int(i) >= len(atts) {
			return 0
		}
		return f.ref(atts[i])
	}
	s.attachmentGetName = func(ref uintptr, buf unsafe.Pointer, n cULong) cULong {
		return putUTF16(fakeObj[*fakeAttachment](f, ref).name, buf, n)
	}
	s.attachmentGetFile = func(ref uintptr, buf unsafe.Pointer, n cULong, outLen *cULong) int32 {
		data := fakeObj[*fakeAttachment](f, ref).data
		if data == nil {
			return 0
		}
		*outLen = cULong(len(data))
		if buf != nil {
			copy(unsafe.Slice((*byte)(buf), n), data)
		}
		return 1
	}

	s.importPages = func(dest, src uintptr, pageRange *byte, index int32) int32 {
		d, from := f.doc(dest), f.doc(src)
		if r := goString(pageRange); r != "" && r != "1" {
			return 0
		}
		d.pages = append(d.pages[:index], append(append([]*fakePage{}, from.pages...), d.pages[index:]...)...)
		return 1
	}
	s.importPagesByIndex = func(dest, src uintptr, indices *int32, length cULong, index int32) int32 {
		d, from := f.doc(dest), f.doc(src)
		picked := from.pages
		if indices != nil {
			picked = nil
			for _, i := range unsafe.Slice(indices, length) {
				if int(i) >= len(from.pages) {
					return 0
				}
				picked = append(picked, from.pages[i])
			}
		}
		d.pages = append(d.pages[:index], append(append([]*fakePage{}, picked...), d.pages[index:]...)...)
		return 1
	}
	s.importNPagesToOne = func(src uintptr, w, h float32, perRow, perColumn uintptr) uintptr {
		from := f.doc(src)
		per := int(perRow * perColumn)
		out := &fakeDoc{version: 17}
		for i := 0; i < len(from.pages); i += per {
			out.pages = append(out.pages, &fakePage{width: w, height: h})
		}
		return f.ref(out)
	}
	s.copyViewerPreferences = func(dest, src uintptr) int32 { return 0 }

	s.bookmarkGetFirstChild = func(doc, parent uintptr) uintptr {
		var b *fakeBookmark
		if parent == 0 {
			b = f.doc(doc).outline
		} else {
			b = fakeObj[*fakeBookmark](f, parent).first
		}
		if b == nil {
			return 0
		}
		return f.ref(b)
	}
	s.bookmarkGetNextSibling = func(_, cur uintptr) uintptr {
		b := fakeObj[*fakeBookmark](f, cur).next
		if b == nil {
			return 0
		}
		return f.ref(b)
	}
	s.bookmarkGetTitle = func(ref uintptr, buf unsafe.Pointer, n cULong) cULong {
		return putUTF16(fakeObj[*fakeBookmark](f, ref).title, buf, n)
	}
	s.bookmarkGetCount = func(ref uintptr) int32 { return fakeObj[*fakeBookmark](f, ref).count }
	s.bookmarkGetDest = func(_, ref uintptr) uintptr {
		d := fakeObj[*fakeBookmark](f, ref).dest
		if d == nil {
			return 0
		}
		return f.ref(d)
	}
	s.bookmarkGetAction = func(ref uintptr) uintptr {
		a := fakeObj[*fakeBookmark](f, ref).action
		if a == nil {
			return 0
		}
		return f.ref(a)
	}
	s.destGetDestPageIndex = func(_, ref uintptr) int32 { return fakeObj[*fakeDest](f, ref).page }
	s.actionGetType = func(ref uintptr) cULong { return cULong(fakeObj[*fakeAction](f, ref).typ) }

	s.linkEnumerate = func(page uintptr, pos *int32, link *uintptr) int32 {
		links := f.page(page).links
		if int(*pos) >= len(links) {
			return 0
		}
		l := links[*pos]
		*pos++
		*link = 0
		if l != nil {
			*link = f.ref(l)
		}
		return 1
	}
	s.linkGetAnnotRect = func(ref uintptr, r *fsRectF) int32 {
		*r = fakeObj[*fakeLink](f, ref).rect
		return 1
	}
	s.linkGetAction = func(ref uintptr) uintptr {
		a := fakeObj[*fakeLink](f, ref).action
		if a == nil {
			return 0
		}
		return f.ref(a)
	}
	s.linkGetDest = func(_, ref uintptr) uintptr {
		d := fakeObj[*fakeLink](f, ref).dest
		if d == nil {
			return 0
		}
		return f.ref(d)
	}
	s.actionGetDest = func(_, ref uintptr) uintptr {
		d := fakeObj[*fakeAction](f, ref).dest
		if d == nil {
			return 0
		}
		return f.ref(d)
	}
	s.actionGetURIPath = func(_, ref uintptr, buf unsafe.Pointer, n cULong) cULong {
		return putBytes(fakeObj[*fakeAction](f, ref).uri, buf, n)
	}
	s.actionGetFilePath = func(ref uintptr, buf unsafe.Pointer, n cULong) cULong {
		return putBytes(fakeObj[*fakeAction](f, ref).path, buf, n)
	}
	s.destGetView = func(ref uintptr, n *cULong, params *[4]float32) cULong {
		d := fakeObj[*fakeDest](f, ref)
		*n = cULong(copy(params[:], d.params))
		return cULong(d.view)
	}
	s.destGetLocationInPage = func(ref uintptr, hasX, hasY, hasZoom *int32, x, y, zoom *float32) int32 {
		d := fakeObj[*fakeDest](f, ref)
		set := func(v *float32, has *int32, out *float32) {
			if v != nil {
				*has, *out = 1, *v
			}
		}
		set(d.x, hasX, x)
		set(d.y, hasY, y)
		set(d.z, hasZoom, zoom)
		return 1
	}

	annot := func(ref uintptr) *fakeAnnot { return fakeObj[*fakeAnnot](f, ref) }
	s.pageGetAnnotCount = func(page uintptr) int32 { return int32(len(f.page(page).annots)) }
	s.pageGetAnnot = func(page uintptr, i int32) uintptr {
		annots := f.page(page).annots
		if i < 0 || int(i) >= len(annots) || annots[i] == nil {
			return 0
		}
		f.openAnnots++
		return f.ref(annots[i])
	}
	s.pageCloseAnnot = func(uintptr) { f.openAnnots-- }
	s.pageCreateAnnot = func(page uintptr, subtype int32) uintptr {
		if subtype <= 0 {
			return 0
		}
		p := f.page(page)
		a := &fakeAnnot{subtype: subtype}
		p.annots = append(p.annots, a)
		f.openAnnots++
		return f.ref(a)
	}
	s.pageRemoveAnnot = func(page uintptr, i int32) int32 {
		p := f.page(page)
		if i < 0 || int(i) >= len(p.annots) {
			return 0
		}
		p.annots = append(p.annots[:i], p.annots[i+1:]...)
		return 1
	}
	s.annotGetSubtype = func(ref uintptr) int32 { return annot(ref).subtype }
	s.annotGetRect = func(ref uintptr, r *fsRectF) int32 {
		*r = annot(ref).rect
		return 1
	}
	s.annotSetRect = func(ref uintptr, r *fsRectF) int32 {
		annot(ref).rect = *r
		return 1
	}
	s.annotGetColor = func(ref uintptr, ct int32, r, g, b, a *uint32) int32 {
		c := annot(ref).color
		if c == nil || ct != 0 {
			return 0
		}
		*r, *g, *b, *a = c[0], c[1], c[2], c[3]
		return 1
	}
	s.annotSetColor = func(ref uintptr, ct int32, r, g, b, a uint32) int32 {
		annot(ref).color = &[4]uint32{r, g, b, a}
		return 1
	}
	s.annotGetFlags = func(ref uintptr) int32 { return annot(ref).flags }
	s.annotSetFlags = func(ref uintptr, flags int32) int32 {
		annot(ref).flags = flags
		return 1
	}
	s.annotSetStringValue = func(ref uintptr, key *byte, value unsafe.Pointer) int32 {
		a := annot(ref)
		if a.strings == nil {
			a.strings = make(map[string]string)
		}
		a.strings[goString(key)] = readUTF16Z(value)
		return 1
	}
	s.annotSetBorder = func(uintptr, float32, float32, float32) int32 { return 1 }
	s.annotSetAttachmentPoints = func(ref uintptr, qi uintptr, q *fsQuadPointsF) int32 {
		a := annot(ref)
		if int(qi) >= len(a.quads) {
			return 0
		}
		a.quads[qi] = *q
		return 1
	}
	s.annotAppendAttachmentPoints = func(ref uintptr, q *fsQuadPointsF) int32 {
		a := annot(ref)
		a.quads = append(a.quads, *q)
		return 1
	}
	s.annotSetURI = func(ref uintptr, uri *byte) int32 {
		a := annot(ref)
		if a.subtype != 2 {
			return 0
		}
		a.uri = goString(uri)
		return 1
	}

	s.pageGetRotation = func(page uintptr) int32 { return f.page(page).rotation }
	s.pageSetRotation = func(page uintptr, r int32) { f.page(page).rotation = r }
	s.pageHasTransparency = func(uintptr) int32 { return 0 }
	s.pageFlatten = func(page uintptr, _ int32) int32 {
		if len(f.page(page).annots) == 0 {
			return 2
		}
		f.page(page).annots = nil
		return 1
	}
	s.pageGenerateContent = func(uintptr) int32 { return 1 }

	// Device coordinates are normalised to the viewport, then turned by
	// rot quarter turns clockwise.
	s.deviceToPage = func(page uintptr, sx, sy, w, h, rot, dx, dy int32, px, py *float64) int32 {
		p := f.page(page)
		fx := float64(dx-sx) / float64(w)
		fy := float64(dy-sy) / float64(h)
		var u, v float64
		switch rot {
		case 0:
			u, v = fx, 1-fy
		case 1:
			u, v = fy, fx
		case 2:
			u, v = 1-fx, fy
		case 3:
			u, v = 1-fy, 1-fx
		}
		*px = u * float64(p.width)
		*py = v * float64(p.height)
		return 1
	}
	s.pageToDevice = func(page uintptr, sx, sy, w, h, rot int32, px, py float64, dx, dy *int32) int32 {
		p := f.page(page)
		u := px / float64(p.width)
		v := py / float64(p.height)
		var fx, fy float64
		switch rot {
		case 0:
			fx, fy = u, 1-v
		case 1:
			fx, fy = v, u
		case 2:
			fx, fy = 1-u, v
		case 3:
			fx, fy = 1-v, 1-u
		}
		*dx = sx + int32(math.Round(fx*float64(w)))
		*dy = sy + int32(math.Round(fy*float64(h)))
		return 1
	}

	s.saveAsCopy = func(_ uintptr, fw *fileWrite, flags cULong) int32 {
		f.lastSaveFlags = flags
		return f.writeChunks(fw, f.saveChunks)
	}
	s.saveWithVersion = func(_ uintptr, fw *fileWrite, flags cULong, version int32) int32 {
		f.lastSaveFlags = flags
		f.lastVersion = version
		chunks := append([]string{}, f.saveChunks...)
		chunks[0] = "%PDF-" + string(rune('0'+version/10)) + "." + string(rune('0'+version%10)) + "\n"
		return f.writeChunks(fw, chunks)
	}

	return s
}

// writeChunks pushes chunks through the write callback the way PDFium does.
// Empty chunks are sent with a NULL data pointer.
func (f *fakePDFium) writeChunks(fw *fileWrite, chunks []string) int32 {
	if fw.version != 1 {
		f.t.Errorf("fake: FPDF_FILEWRITE version = %d, want 1", fw.version)
	}
	this := uintptr(unsafe.Pointer(fw))
	for _, c := range chunks {
		b := []byte(c)
		var data uintptr
		if len(b) > 0 {
			data = uintptr(unsafe.Pointer(&b[0]))
		}
		ok := dispatchWriteBlock(this, data, uintptr(len(b)))
		runtime.KeepAlive(b)
		if ok == 0 {
			return 0
		}
	}
	return 1
}

func newTestLibrary(t *testing.T, f *fakePDFium, cfg *Config) *Library {
	t.Helper()

	l, err := newLibrary(f.symbols(), nil, Capabilities{TextRenderMode: f.renderMode}, cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create library: %v", err)
	}
	if err := l.Init(); err != nil {
		t.Fatalf("Failed to init library: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

var minimalPDF = []byte("%PDF-1.7\n%fake\n")

func openTestPage(t *testing.T, l *Library) (doc, page Handle) {
	t.Helper()

	doc, err := l.LoadDocument(minimalPDF, "")
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	page, err = l.LoadPage(doc, 0)
	if err != nil {
		t.Fatalf("LoadPage failed: %v", err)
	}
	return doc, page
}

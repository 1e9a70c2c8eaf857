package pdfium

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// dynLib is an opened shared object.
type dynLib interface {
	lookup(name string) (uintptr, error)
	close() error
}

// C structs passed by pointer. Field order and widths follow fpdfview.h.

type libraryConfig struct {
	version        int32
	userFontPaths  unsafe.Pointer
	isolate        uintptr
	v8EmbedderSlot uint32
	platform       uintptr
}

type fsRectF struct {
	Left, Top, Right, Bottom float32
}

type fsMatrix struct {
	A, B, C, D, E, F float32
}

type fsQuadPointsF struct {
	X1, Y1, X2, Y2, X3, Y3, X4, Y4 float32
}

type fileWrite struct {
	version    int32
	writeBlock uintptr
}

// symbols holds one typed function per native entry point. Opaque native
// objects are passed as uintptr.
type symbols struct {
	initLibraryWithConfig func(cfg *libraryConfig)
	destroyLibrary        func()
	getLastError          func() cULong

	loadMemDocument func(data unsafe.Pointer, size int32, password *byte) uintptr
	closeDocument   func(doc uintptr)
	getPageCount    func(doc uintptr) int32

	loadPage           func(doc uintptr, index int32) uintptr
	closePage          func(page uintptr)
	getPageWidthF      func(page uintptr) float32
	getPageHeightF     func(page uintptr) float32
	getPageBoundingBox func(page uintptr, rect *fsRectF) int32

	textLoadPage          func(page uintptr) uintptr
	textClosePage         func(tp uintptr)
	textCountChars        func(tp uintptr) int32
	textGetText           func(tp uintptr, start, count int32, buf unsafe.Pointer) int32
	textGetFontSize       func(tp uintptr, index int32) float64
	textGetFontWeight     func(tp uintptr, index int32) int32
	textGetFontInfo       func(tp uintptr, index int32, buf unsafe.Pointer, buflen cULong, flags *int32) cULong
	textGetTextRenderMode func(tp uintptr, index int32) int32

	textGetUnicode         func(tp uintptr, index int32) uint32
	textIsGenerated        func(tp uintptr, index int32) int32
	textIsHyphen           func(tp uintptr, index int32) int32
	textHasUnicodeMapError func(tp uintptr, index int32) int32
	textGetCharAngle       func(tp uintptr, index int32) float32
	textGetCharOrigin      func(tp uintptr, index int32, x, y *float64) int32
	textGetCharBox         func(tp uintptr, index int32, left, right, bottom, top *float64) int32
	textGetLooseCharBox    func(tp uintptr, index int32, rect *fsRectF) int32
	textGetCharIndexAtPos  func(tp uintptr, x, y, xTolerance, yTolerance float64) int32
	textGetFillColor       func(tp uintptr, index int32, r, g, b, a *uint32) int32
	textGetStrokeColor     func(tp uintptr, index int32, r, g, b, a *uint32) int32
	textGetMatrix          func(tp uintptr, index int32, m *fsMatrix) int32

	textFindStart         func(tp uintptr, query unsafe.Pointer, flags cULong, start int32) uintptr
	textFindNext          func(search uintptr) int32
	textFindClose         func(search uintptr)
	textGetSchResultIndex func(search uintptr) int32
	textGetSchCount       func(search uintptr) int32
	textCountRects        func(tp uintptr, start, count int32) int32
	textGetRect           func(tp uintptr, index int32, left, top, right, bottom *float64) int32
	textGetBoundedText    func(tp uintptr, left, top, right, bottom float64, buf unsafe.Pointer, n int32) int32

	bitmapCreateEx   func(width, height, format int32, firstScan unsafe.Pointer, stride int32) uintptr
	bitmapFillRect   func(bitmap uintptr, left, top, width, height int32, color cULong)
	bitmapDestroy    func(bitmap uintptr)
	bitmapGetBuffer  func(bitmap uintptr) uintptr
	bitmapGetStride  func(bitmap uintptr) int32
	renderPageBitmap func(bitmap, page uintptr, startX, startY, sizeX, sizeY, rotate, flags int32)

	getMetaText                func(doc uintptr, tag *byte, buf unsafe.Pointer, buflen cULong) cULong
	getFileVersion             func(doc uintptr, version *int32) int32
	getDocPermissions          func(doc uintptr) cULong
	getDocUserPermissions      func(doc uintptr) cULong
	docGetPageMode             func(doc uintptr) int32
	getSecurityHandlerRevision func(doc uintptr) int32
	catalogIsTagged            func(doc uintptr) int32
	getPageLabel               func(doc uintptr, index int32, buf unsafe.Pointer, buflen cULong) cULong

	// Indexed by BoxKind.
	getBox [boxKindCount]func(page uintptr, left, bottom, right, top *float32) int32
	setBox [boxKindCount]func(page uintptr, left, bottom, right, top float32)

	getSignatureCount            func(doc uintptr) int32
	getSignatureObject           func(doc uintptr, index int32) uintptr
	signatureGetContents         func(sig uintptr, buf unsafe.Pointer, buflen cULong) cULong
	signatureGetByteRange        func(sig uintptr, buf *int32, length cULong) cULong
	signatureGetSubFilter        func(sig uintptr, buf unsafe.Pointer, buflen cULong) cULong
	signatureGetReason           func(sig uintptr, buf unsafe.Pointer, buflen cULong) cULong
	signatureGetTime             func(sig uintptr, buf unsafe.Pointer, buflen cULong) cULong
	signatureGetDocMDPPermission func(sig uintptr) uint32

	docGetAttachmentCount func(doc uintptr) int32
	docGetAttachment      func(doc uintptr, index int32) uintptr
	attachmentGetName     func(att uintptr, buf unsafe.Pointer, buflen cULong) cULong
	attachmentGetFile     func(att uintptr, buf unsafe.Pointer, buflen cULong, outLen *cULong) int32

	importPages           func(dest, src uintptr, pageRange *byte, index int32) int32
	importPagesByIndex    func(dest, src uintptr, indices *int32, length cULong, index int32) int32
	importNPagesToOne     func(src uintptr, width, height float32, perRow, perColumn uintptr) uintptr
	copyViewerPreferences func(dest, src uintptr) int32

	bookmarkGetFirstChild  func(doc, bookmark uintptr) uintptr
	bookmarkGetNextSibling func(doc, bookmark uintptr) uintptr
	bookmarkGetTitle       func(bookmark uintptr, buf unsafe.Pointer, buflen cULong) cULong
	bookmarkGetCount       func(bookmark uintptr) int32
	bookmarkGetDest        func(doc, bookmark uintptr) uintptr
	bookmarkGetAction      func(bookmark uintptr) uintptr
	destGetDestPageIndex   func(doc, dest uintptr) int32
	actionGetType          func(action uintptr) cULong

	linkEnumerate         func(page uintptr, startPos *int32, link *uintptr) int32
	linkGetAnnotRect      func(link uintptr, rect *fsRectF) int32
	linkGetAction         func(link uintptr) uintptr
	linkGetDest           func(doc, link uintptr) uintptr
	actionGetDest         func(doc, action uintptr) uintptr
	actionGetURIPath      func(doc, action uintptr, buf unsafe.Pointer, buflen cULong) cULong
	actionGetFilePath     func(action uintptr, buf unsafe.Pointer, buflen cULong) cULong
	destGetView           func(dest uintptr, numParams *cULong, params *[4]float32) cULong
	destGetLocationInPage func(dest uintptr, hasX, hasY, hasZoom *int32, x, y, zoom *float32) int32

	pageGetAnnotCount           func(page uintptr) int32
	pageGetAnnot                func(page uintptr, index int32) uintptr
	pageCloseAnnot              func(annot uintptr)
	pageCreateAnnot             func(page uintptr, subtype int32) uintptr
	pageRemoveAnnot             func(page uintptr, index int32) int32
	annotGetSubtype             func(annot uintptr) int32
	annotGetRect                func(annot uintptr, rect *fsRectF) int32
	annotSetRect                func(annot uintptr, rect *fsRectF) int32
	annotGetColor               func(annot uintptr, colorType int32, r, g, b, a *uint32) int32
	annotSetColor               func(annot uintptr, colorType int32, r, g, b, a uint32) int32
	annotGetFlags               func(annot uintptr) int32
	annotSetFlags               func(annot uintptr, flags int32) int32
	annotSetStringValue         func(annot uintptr, key *byte, value unsafe.Pointer) int32
	annotSetBorder              func(annot uintptr, hRadius, vRadius, width float32) int32
	annotSetAttachmentPoints    func(annot uintptr, quadIndex uintptr, points *fsQuadPointsF) int32
	annotAppendAttachmentPoints func(annot uintptr, points *fsQuadPointsF) int32
	annotSetURI                 func(annot uintptr, uri *byte) int32

	pageGetRotation     func(page uintptr) int32
	pageSetRotation     func(page uintptr, rotate int32)
	pageHasTransparency func(page uintptr) int32
	pageFlatten         func(page uintptr, flag int32) int32
	pageGenerateContent func(page uintptr) int32

	deviceToPage func(page uintptr, startX, startY, sizeX, sizeY, rotate, deviceX, deviceY int32, pageX, pageY *float64) int32
	pageToDevice func(page uintptr, startX, startY, sizeX, sizeY, rotate int32, pageX, pageY float64, deviceX, deviceY *int32) int32

	saveAsCopy      func(doc uintptr, fw *fileWrite, flags cULong) int32
	saveWithVersion func(doc uintptr, fw *fileWrite, flags cULong, version int32) int32
}

type symbolSpec struct {
	name string
	// fn points at a func field of symbols.
	fn       any
	optional bool
	// capability names the feature an optional symbol provides.
	capability string
}

// CapTextRenderMode is provided by FPDFText_GetTextRenderMode.
const CapTextRenderMode = "text_render_mode"

// KnownCapabilities lists every feature that depends on an optional symbol.
var KnownCapabilities = []string{CapTextRenderMode}

func (s *symbols) table() []symbolSpec {
	return []symbolSpec{
		{name: "FPDF_InitLibraryWithConfig", fn: &s.initLibraryWithConfig},
		{name: "FPDF_DestroyLibrary", fn: &s.destroyLibrary},
		{name: "FPDF_GetLastError", fn: &s.getLastError},

		{name: "FPDF_LoadMemDocument", fn: &s.loadMemDocument},
		{name: "FPDF_CloseDocument", fn: &s.closeDocument},
		{name: "FPDF_GetPageCount", fn: &s.getPageCount},

		{name: "FPDF_LoadPage", fn: &s.loadPage},
		{name: "FPDF_ClosePage", fn: &s.closePage},
		{name: "FPDF_GetPageWidthF", fn: &s.getPageWidthF},
		{name: "FPDF_GetPageHeightF", fn: &s.getPageHeightF},
		{name: "FPDF_GetPageBoundingBox", fn: &s.getPageBoundingBox},

		{name: "FPDFText_LoadPage", fn: &s.textLoadPage},
		{name: "FPDFText_ClosePage", fn: &s.textClosePage},
		{name: "FPDFText_CountChars", fn: &s.textCountChars},
		{name: "FPDFText_GetText", fn: &s.textGetText},
		{name: "FPDFText_GetFontSize", fn: &s.textGetFontSize},
		{name: "FPDFText_GetFontWeight", fn: &s.textGetFontWeight},
		{name: "FPDFText_GetFontInfo", fn: &s.textGetFontInfo},
		{name: "FPDFText_GetTextRenderMode", fn: &s.textGetTextRenderMode, optional: true, capability: CapTextRenderMode},
		{name: "FPDFText_GetUnicode", fn: &s.textGetUnicode},
		{name: "FPDFText_IsGenerated", fn: &s.textIsGenerated},
		{name: "FPDFText_IsHyphen", fn: &s.textIsHyphen},
		{name: "FPDFText_HasUnicodeMapError", fn: &s.textHasUnicodeMapError},
		{name: "FPDFText_GetCharAngle", fn: &s.textGetCharAngle},
		{name: "FPDFText_GetCharOrigin", fn: &s.textGetCharOrigin},
		{name: "FPDFText_GetCharBox", fn: &s.textGetCharBox},
		{name: "FPDFText_GetLooseCharBox", fn: &s.textGetLooseCharBox},
		{name: "FPDFText_GetCharIndexAtPos", fn: &s.textGetCharIndexAtPos},
		{name: "FPDFText_GetFillColor", fn: &s.textGetFillColor},
		{name: "FPDFText_GetStrokeColor", fn: &s.textGetStrokeColor},
		{name: "FPDFText_GetMatrix", fn: &s.textGetMatrix},
		{name: "FPDFText_FindStart", fn: &s.textFindStart},
		{name: "FPDFText_FindNext", fn: &s.textFindNext},
		{name: "FPDFText_FindClose", fn: &s.textFindClose},
		{name: "FPDFText_GetSchResultIndex", fn: &s.textGetSchResultIndex},
		{name: "FPDFText_GetSchCount", fn: &s.textGetSchCount},
		{name: "FPDFText_CountRects", fn: &s.textCountRects},
		{name: "FPDFText_GetRect", fn: &s.textGetRect},
		{name: "FPDFText_GetBoundedText", fn: &s.textGetBoundedText},

		{name: "FPDFBitmap_CreateEx", fn: &s.bitmapCreateEx},
		{name: "FPDFBitmap_FillRect", fn: &s.bitmapFillRect},
		{name: "FPDFBitmap_Destroy", fn: &s.bitmapDestroy},
		{name: "FPDFBitmap_GetBuffer", fn: &s.bitmapGetBuffer},
		{name: "FPDFBitmap_GetStride", fn: &s.bitmapGetStride},
		{name: "FPDF_RenderPageBitmap", fn: &s.renderPageBitmap},

		{name: "FPDF_GetMetaText", fn: &s.getMetaText},
		{name: "FPDF_GetFileVersion", fn: &s.getFileVersion},
		{name: "FPDF_GetDocPermissions", fn: &s.getDocPermissions},
		{name: "FPDF_GetDocUserPermissions", fn: &s.getDocUserPermissions},
		{name: "FPDFDoc_GetPageMode", fn: &s.docGetPageMode},
		{name: "FPDF_GetSecurityHandlerRevision", fn: &s.getSecurityHandlerRevision},
		{name: "FPDFCatalog_IsTagged", fn: &s.catalogIsTagged},
		{name: "FPDF_GetPageLabel", fn: &s.getPageLabel},

		{name: "FPDFPage_GetMediaBox", fn: &s.getBox[BoxMedia]},
		{name: "FPDFPage_GetCropBox", fn: &s.getBox[BoxCrop]},
		{name: "FPDFPage_GetBleedBox", fn: &s.getBox[BoxBleed]},
		{name: "FPDFPage_GetTrimBox", fn: &s.getBox[BoxTrim]},
		{name: "FPDFPage_GetArtBox", fn: &s.getBox[BoxArt]},
		{name: "FPDFPage_SetMediaBox", fn: &s.setBox[BoxMedia]},
		{name: "FPDFPage_SetCropBox", fn: &s.setBox[BoxCrop]},
		{name: "FPDFPage_SetBleedBox", fn: &s.setBox[BoxBleed]},
		{name: "FPDFPage_SetTrimBox", fn: &s.setBox[BoxTrim]},
		{name: "FPDFPage_SetArtBox", fn: &s.setBox[BoxArt]},

		{name: "FPDF_GetSignatureCount", fn: &s.getSignatureCount},
		{name: "FPDF_GetSignatureObject", fn: &s.getSignatureObject},
		{name: "FPDFSignatureObj_GetContents", fn: &s.signatureGetContents},
		{name: "FPDFSignatureObj_GetByteRange", fn: &s.signatureGetByteRange},
		{name: "FPDFSignatureObj_GetSubFilter", fn: &s.signatureGetSubFilter},
		{name: "FPDFSignatureObj_GetReason", fn: &s.signatureGetReason},
		{name: "FPDFSignatureObj_GetTime", fn: &s.signatureGetTime},
		{name: "FPDFSignatureObj_GetDocMDPPermission", fn: &s.signatureGetDocMDPPermission},

		{name: "FPDFDoc_GetAttachmentCount", fn: &s.docGetAttachmentCount},
		{name: "FPDFDoc_GetAttachment", fn: &s.docGetAttachment},
		{name: "FPDFAttachment_GetName", fn: &s.attachmentGetName},
		{name: "FPDFAttachment_GetFile", fn: &s.attachmentGetFile},

		{name: "FPDF_ImportPages", fn: &s.importPages},
		{name: "FPDF_ImportPagesByIndex", fn: &s.importPagesByIndex},
		{name: "FPDF_ImportNPagesToOne", fn: &s.importNPagesToOne},
		{name: "FPDF_CopyViewerPreferences", fn: &s.copyViewerPreferences},

		{name: "FPDFBookmark_GetFirstChild", fn: &s.bookmarkGetFirstChild},
		{name: "FPDFBookmark_GetNextSibling", fn: &s.bookmarkGetNextSibling},
		{name: "FPDFBookmark_GetTitle", fn: &s.bookmarkGetTitle},
		{name: "FPDFBookmark_GetCount", fn: &s.bookmarkGetCount},
		{name: "FPDFBookmark_GetDest", fn: &s.bookmarkGetDest},
		{name: "FPDFBookmark_GetAction", fn: &s.bookmarkGetAction},
		{name: "FPDFDest_GetDestPageIndex", fn: &s.destGetDestPageIndex},
		{name: "FPDFAction_GetType", fn: &s.actionGetType},

		{name: "FPDFLink_Enumerate", fn: &s.linkEnumerate},
		{name: "FPDFLink_GetAnnotRect", fn: &s.linkGetAnnotRect},
		{name: "FPDFLink_GetAction", fn: &s.linkGetAction},
		{name: "FPDFLink_GetDest", fn: &s.linkGetDest},
		{name: "FPDFAction_GetDest", fn: &s.actionGetDest},
		{name: "FPDFAction_GetURIPath", fn: &s.actionGetURIPath},
		{name: "FPDFAction_GetFilePath", fn: &s.actionGetFilePath},
		{name: "FPDFDest_GetView", fn: &s.destGetView},
		{name: "FPDFDest_GetLocationInPage", fn: &s.destGetLocationInPage},

		{name: "FPDFPage_GetAnnotCount", fn: &s.pageGetAnnotCount},
		{name: "FPDFPage_GetAnnot", fn: &s.pageGetAnnot},
		{name: "FPDFPage_CloseAnnot", fn: &s.pageCloseAnnot},
		{name: "FPDFPage_CreateAnnot", fn: &s.pageCreateAnnot},
		{name: "FPDFPage_RemoveAnnot", fn: &s.pageRemoveAnnot},
		{name: "FPDFAnnot_GetSubtype", fn: &s.annotGetSubtype},
		{name: "FPDFAnnot_GetRect", fn: &s.annotGetRect},
		{name: "FPDFAnnot_SetRect", fn: &s.annotSetRect},
		{name: "FPDFAnnot_GetColor", fn: &s.annotGetColor},
		{name: "FPDFAnnot_SetColor", fn: &s.annotSetColor},
		{name: "FPDFAnnot_GetFlags", fn: &s.annotGetFlags},
		{name: "FPDFAnnot_SetFlags", fn: &s.annotSetFlags},
		{name: "FPDFAnnot_SetStringValue", fn: &s.annotSetStringValue},
		{name: "FPDFAnnot_SetBorder", fn: &s.annotSetBorder},
		{name: "FPDFAnnot_SetAttachmentPoints", fn: &s.annotSetAttachmentPoints},
		{name: "FPDFAnnot_AppendAttachmentPoints", fn: &s.annotAppendAttachmentPoints},
		{name: "FPDFAnnot_SetURI", fn: &s.annotSetURI},

		{name: "FPDFPage_GetRotation", fn: &s.pageGetRotation},
		{name: "FPDFPage_SetRotation", fn: &s.pageSetRotation},
		{name: "FPDFPage_HasTransparency", fn: &s.pageHasTransparency},
		{name: "FPDFPage_Flatten", fn: &s.pageFlatten},
		{name: "FPDFPage_GenerateContent", fn: &s.pageGenerateContent},

		{name: "FPDF_DeviceToPage", fn: &s.deviceToPage},
		{name: "FPDF_PageToDevice", fn: &s.pageToDevice},

		{name: "FPDF_SaveAsCopy", fn: &s.saveAsCopy},
		{name: "FPDF_SaveWithVersion", fn: &s.saveWithVersion},
	}
}

// resolveSymbols looks up every entry of specs. A missing mandatory symbol
// fails the whole resolution; missing optional symbols are reported back.
func resolveSymbols(lib dynLib, specs []symbolSpec) (map[string]uintptr, []string, error) {
	addrs := make(map[string]uintptr, len(specs))
	var missing []string

	for _, spec := range specs {
		addr, err := lib.lookup(spec.name)
		if err == nil && addr == 0 {
			err = fmt.Errorf("symbol resolved to a null address")
		}
		if err != nil {
			if spec.optional {
				missing = append(missing, spec.name)
				continue
			}
			return nil, nil, &LoadError{Symbol: spec.name, Err: err}
		}
		addrs[spec.name] = addr
	}

	return addrs, missing, nil
}

// bindSymbols turns resolved addresses into callable Go functions.
func bindSymbols(specs []symbolSpec, addrs map[string]uintptr) {
	for _, spec := range specs {
		addr, ok := addrs[spec.name]
		if !ok {
			continue
		}
		purego.RegisterFunc(spec.fn, addr)
	}
}

// Capabilities records which optional symbols were found at load time.
type Capabilities struct {
	TextRenderMode bool `json:"text_render_mode"`
}

// Has reports whether the named capability is present.
func (c Capabilities) Has(name string) bool {
	switch name {
	case CapTextRenderMode:
		return c.TextRenderMode
	default:
		return false
	}
}

func capabilitiesFrom(specs []symbolSpec, addrs map[string]uintptr) Capabilities {
	var caps Capabilities
	for _, spec := range specs {
		if !spec.optional {
			continue
		}
		_, present := addrs[spec.name]
		switch spec.capability {
		case CapTextRenderMode:
			caps.TextRenderMode = present
		}
	}
	return caps
}

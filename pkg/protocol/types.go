package protocol

import "fmt"

// Result types shared by the bridge, the service layer and the CLI.
// Coordinates are PDF user-space points unless stated otherwise.

// Rect is an axis-aligned rectangle.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 {
	if r.Right < r.Left {
		return r.Left - r.Right
	}
	return r.Right - r.Left
}

// Height returns the vertical extent of r.
func (r Rect) Height() float64 {
	if r.Top < r.Bottom {
		return r.Bottom - r.Top
	}
	return r.Top - r.Bottom
}

// Point is a position on a page.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DevicePoint is a position in device pixels.
type DevicePoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Color is an RGBA colour with 0-255 components.
type Color struct {
	R uint32 `json:"r"`
	G uint32 `json:"g"`
	B uint32 `json:"b"`
	A uint32 `json:"a"`
}

// Matrix is a 2D affine transform.
type Matrix struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
	E float64 `json:"e"`
	F float64 `json:"f"`
}

// Quad holds the four corners of an annotation attachment area.
type Quad struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
	X3 float64 `json:"x3"`
	Y3 float64 `json:"y3"`
	X4 float64 `json:"x4"`
	Y4 float64 `json:"y4"`
}

// FontInfo describes the font used by a character.
type FontInfo struct {
	Name  string `json:"name"`
	Flags int32  `json:"flags"`
}

// SearchMatch is one hit of a text search, in character indices.
type SearchMatch struct {
	Start int `json:"start"`
	Count int `json:"count"`
}

// SearchHit is a match together with the rectangles it covers.
type SearchHit struct {
	SearchMatch
	Text  string `json:"text,omitempty"`
	Rects []Rect `json:"rects,omitempty"`
}

// ActionType classifies a bookmark or link action.
type ActionType int

const (
	ActionUnsupported ActionType = iota
	ActionGoTo
	ActionRemoteGoTo
	ActionURI
	ActionLaunch
	ActionEmbeddedGoTo
)

var actionNames = [...]string{"unsupported", "goto", "remote_goto", "uri", "launch", "embedded_goto"}

func (a ActionType) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func (a ActionType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ViewKind is the fit type of a destination view.
type ViewKind int

const (
	ViewUnknown ViewKind = iota
	ViewXYZ
	ViewFit
	ViewFitH
	ViewFitV
	ViewFitR
	ViewFitB
	ViewFitBH
	ViewFitBV
)

var viewNames = [...]string{"unknown", "XYZ", "Fit", "FitH", "FitV", "FitR", "FitB", "FitBH", "FitBV"}

func (v ViewKind) String() string {
	if v >= 0 && int(v) < len(viewNames) {
		return viewNames[v]
	}
	return fmt.Sprintf("view(%d)", int(v))
}

func (v ViewKind) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// BookmarkNode is one outline entry and its children.
type BookmarkNode struct {
	Title string `json:"title"`
	// PageIndex is -1 when the bookmark has no destination.
	PageIndex int `json:"page_index"`
	// Count is the raw child count. Negative means the entry is closed.
	Count    int            `json:"count"`
	Action   ActionType     `json:"action"`
	Children []BookmarkNode `json:"children,omitempty"`
}

// Destination is a resolved jump target.
type Destination struct {
	PageIndex int       `json:"page_index"`
	View      ViewKind  `json:"view"`
	Params    []float64 `json:"params,omitempty"`
	X         *float64  `json:"x,omitempty"`
	Y         *float64  `json:"y,omitempty"`
	Zoom      *float64  `json:"zoom,omitempty"`
}

// LinkAction is the action attached to a link.
type LinkAction struct {
	Type     ActionType `json:"type"`
	URI      string     `json:"uri,omitempty"`
	FilePath string     `json:"file_path,omitempty"`
}

// LinkInfo is a link annotation on a page.
type LinkInfo struct {
	Index  int          `json:"index"`
	Rect   Rect         `json:"rect"`
	Action *LinkAction  `json:"action,omitempty"`
	Dest   *Destination `json:"dest,omitempty"`
}

// AnnotationSubtype is the /Subtype of an annotation.
type AnnotationSubtype int

const (
	AnnotUnknown AnnotationSubtype = iota
	AnnotText
	AnnotLink
	AnnotFreeText
	AnnotLine
	AnnotSquare
	AnnotCircle
	AnnotPolygon
	AnnotPolyline
	AnnotHighlight
	AnnotUnderline
	AnnotSquiggly
	AnnotStrikeout
	AnnotStamp
	AnnotCaret
	AnnotInk
	AnnotPopup
	AnnotFileAttachment
	AnnotSound
	AnnotMovie
	AnnotWidget
	AnnotScreen
	AnnotPrinterMark
	AnnotTrapNet
	AnnotWatermark
	AnnotThreeD
	AnnotRichMedia
	AnnotXFAWidget
	AnnotRedact
)

var annotNames = [...]string{
	"unknown", "text", "link", "freetext", "line", "square", "circle",
	"polygon", "polyline", "highlight", "underline", "squiggly", "strikeout",
	"stamp", "caret", "ink", "popup", "fileattachment", "sound", "movie",
	"widget", "screen", "printermark", "trapnet", "watermark", "3d",
	"richmedia", "xfawidget", "redact",
}

func (s AnnotationSubtype) String() string {
	if s >= 0 && int(s) < len(annotNames) {
		return annotNames[s]
	}
	return fmt.Sprintf("annotation(%d)", int(s))
}

func (s AnnotationSubtype) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AnnotationInfo summarises one annotation on a page.
type AnnotationInfo struct {
	Index   int               `json:"index"`
	Subtype AnnotationSubtype `json:"subtype"`
	Rect    *Rect             `json:"rect,omitempty"`
	Color   *Color            `json:"color,omitempty"`
}

// Signature holds the fields of one signature dictionary.
type Signature struct {
	Index     int     `json:"index"`
	Contents  []byte  `json:"contents,omitempty"`
	ByteRange []int32 `json:"byte_range,omitempty"`
	SubFilter string  `json:"sub_filter,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	Time      string  `json:"time,omitempty"`
	// DocMDPPermission is 0 when the signature carries no DocMDP transform.
	DocMDPPermission uint32 `json:"docmdp_permission"`
}

// Attachment is an embedded file.
type Attachment struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Data  []byte `json:"-"`
	Size  int    `json:"size"`
}

// PageReport describes one page of a document.
type PageReport struct {
	Index    int     `json:"index"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation int     `json:"rotation"`
	Label    string  `json:"label,omitempty"`
	MediaBox *Rect   `json:"media_box,omitempty"`
	CropBox  *Rect   `json:"crop_box,omitempty"`
}

// DocumentReport is the summary produced by an inspection.
type DocumentReport struct {
	PageCount        int               `json:"page_count"`
	FileVersion      int               `json:"file_version,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Permissions      uint32            `json:"permissions"`
	UserPermissions  uint32            `json:"user_permissions"`
	SecurityRevision int               `json:"security_revision"`
	PageMode         int               `json:"page_mode"`
	Tagged           bool              `json:"tagged"`
	Pages            []PageReport      `json:"pages"`
	Bookmarks        []BookmarkNode    `json:"bookmarks,omitempty"`
	Attachments      []string          `json:"attachments,omitempty"`
	SignatureCount   int               `json:"signature_count"`
}

// VerifyReport is the result of checking saved bytes with pure-Go readers.
type VerifyReport struct {
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
	PageCount       int    `json:"page_count"`
}

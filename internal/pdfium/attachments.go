package pdfium

import (
	"unsafe"

	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// AttachmentCount returns the number of embedded files in doc.
func (l *Library) AttachmentCount(doc Handle) (int, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return 0, err
	}
	return int(l.fn.docGetAttachmentCount(ref)), nil
}

// Attachment reads embedded file index of doc. The bool is false when the
// attachment has no readable file stream, in which case only Name is set.
func (l *Library) Attachment(doc Handle, index int) (protocol.Attachment, bool, error) {
	if err := validIndex("attachment index", index); err != nil {
		return protocol.Attachment{}, false, err
	}
	ref, err := l.doc(doc)
	if err != nil {
		return protocol.Attachment{}, false, err
	}

	att := l.fn.docGetAttachment(ref, int32(index))
	if att == 0 {
		return protocol.Attachment{}, false, &NativeCallError{Op: "FPDFDoc_GetAttachment", Detail: "attachment index out of range"}
	}

	out := protocol.Attachment{Index: index}
	if out.Name, _, err = readUTF16Field("attachment name", func(buf unsafe.Pointer, n cULong) cULong {
		return l.fn.attachmentGetName(att, buf, n)
	}); err != nil {
		return protocol.Attachment{}, false, err
	}

	var size cULong
	if !cBool(l.fn.attachmentGetFile(att, nil, 0, &size)) {
		return out, false, nil
	}
	if size > 0 {
		data := make([]byte, size)
		var got cULong
		if !cBool(l.fn.attachmentGetFile(att, unsafe.Pointer(&data[0]), size, &got)) {
			return out, false, nil
		}
		if got < size {
			data = data[:got]
		}
		out.Data = data
	}
	out.Size = len(out.Data)
	return out, true, nil
}

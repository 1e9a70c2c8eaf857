package pdfium

import (
	"unsafe"

	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// SignatureCount returns the number of signature fields in doc.
func (l *Library) SignatureCount(doc Handle) (int, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return 0, err
	}
	n := l.fn.getSignatureCount(ref)
	if n < 0 {
		return 0, &NativeCallError{Op: "FPDF_GetSignatureCount"}
	}
	return int(n), nil
}

// Signature reads signature index of doc. The contents are returned as raw
// DER bytes and are not verified.
func (l *Library) Signature(doc Handle, index int) (protocol.Signature, error) {
	if err := validIndex("signature index", index); err != nil {
		return protocol.Signature{}, err
	}
	ref, err := l.doc(doc)
	if err != nil {
		return protocol.Signature{}, err
	}

	sig := l.fn.getSignatureObject(ref, int32(index))
	if sig == 0 {
		return protocol.Signature{}, &NativeCallError{Op: "FPDF_GetSignatureObject", Detail: "signature index out of range"}
	}

	out := protocol.Signature{Index: index}
	out.Contents = readSized(func(buf unsafe.Pointer, n cULong) cULong {
		return l.fn.signatureGetContents(sig, buf, n)
	})

	// The byte range is sized in int32 elements.
	if n := l.fn.signatureGetByteRange(sig, nil, 0); n > 0 {
		br := make([]int32, n)
		if got := l.fn.signatureGetByteRange(sig, &br[0], n); got < n {
			br = br[:got]
		}
		out.ByteRange = br
	}

	if out.SubFilter, _, err = readByteField("signature sub filter", encodingASCII, func(buf unsafe.Pointer, n cULong) cULong {
		return l.fn.signatureGetSubFilter(sig, buf, n)
	}); err != nil {
		return protocol.Signature{}, err
	}
	if out.Reason, _, err = readUTF16Field("signature reason", func(buf unsafe.Pointer, n cULong) cULong {
		return l.fn.signatureGetReason(sig, buf, n)
	}); err != nil {
		return protocol.Signature{}, err
	}
	if out.Time, _, err = readByteField("signature time", encodingASCII, func(buf unsafe.Pointer, n cULong) cULong {
		return l.fn.signatureGetTime(sig, buf, n)
	}); err != nil {
		return protocol.Signature{}, err
	}
	out.DocMDPPermission = l.fn.signatureGetDocMDPPermission(sig)

	return out, nil
}

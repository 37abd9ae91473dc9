package jbig2

import "bytes"

var fileSignature = []byte{0x97, 0x4A, 0x42, 0x32, 0x0D, 0x0A, 0x1A, 0x0A}

// FileHeader holds the fields of a standalone JBIG2 file header (T.88
// Annex D). Embedded PDF streams carry bare segments and have no header.
type FileHeader struct {
	Sequential  bool
	HasNumPages bool
	NumPages    uint32
}

// stripFileHeader recognizes and removes a standalone file header. Data
// without the signature passes through untouched with a nil header.
func stripFileHeader(data []byte) ([]byte, *FileHeader, error) {
	if len(data) < len(fileSignature) || !bytes.Equal(data[:len(fileSignature)], fileSignature) {
		return data, nil, nil
	}
	r := NewReader(data)
	r.Skip(uint32(len(fileSignature)))
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, nil, formatErr("truncated file header")
	}
	if flags&0xFC != 0 {
		return nil, nil, formatErr("nonzero reserved file header flags %#02x", flags)
	}
	header := &FileHeader{Sequential: flags&0x01 != 0}
	if flags&0x02 == 0 {
		header.NumPages, err = r.ReadUint32()
		if err != nil {
			return nil, nil, formatErr("truncated file header page count")
		}
		header.HasNumPages = true
	}
	return r.Rest(), header, nil
}

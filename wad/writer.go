package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Lump is a named lump to be written to a WAD.
type Lump struct {
	Name string
	Data []byte
}

// Write writes lumps as a WAD archive: header, lump data, then directory.
func Write(w io.Writer, magic string, lumps []Lump) error {
	if magic != "IWAD" && magic != "PWAD" {
		return fmt.Errorf("bad magic: %q", magic)
	}
	var buf bytes.Buffer
	infos := make([]binLumpInfo, len(lumps))
	pos := binary.Size(binHeader{})
	for i, l := range lumps {
		if len(l.Name) > 8 {
			return fmt.Errorf("lump name too long: %v", l.Name)
		}
		infos[i].Filepos = int32(pos)
		infos[i].Size = int32(len(l.Data))
		copy(infos[i].Name[:], l.Name)
		buf.Write(l.Data)
		pos += len(l.Data)
	}

	var header binHeader
	copy(header.Magic[:], magic)
	header.NumLumps = int32(len(lumps))
	header.InfoTableOfs = int32(pos)
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, infos)
}

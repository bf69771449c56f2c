package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

type binTextureHeader struct {
	TextureName String8
	Masked      int32
	Width       int16
	Height      int16
	Unused      int32 // ColumnDirectory
	NumPatches  int16
}

type binPatch struct {
	XOffset      int16
	YOffset      int16
	PatchNameIdx int16
	Unused1      int16 // StepDir
	Unused2      int16 // ColorMap
}

// TextureDef is a wall texture as defined in TEXTURE1 or TEXTURE2: a named
// rectangle composed of patches.
type TextureDef struct {
	Name          string
	IsMasked      bool
	Width, Height int
	Patches       []TexturePatch
}

// TexturePatch places one patch lump within a texture.
type TexturePatch struct {
	XOffset int // horizontal offset of patch relative to upper-left of texture
	YOffset int // vertical offset of patch relative to upper-left of texture
	Lump    int // patch lump number
}

// readPatchNames reads the PNAMES lump and resolves each name to a lump
// number, -1 when the lump is missing.
func (w *WAD) readPatchNames() ([]int, error) {
	logger.Printf("Loading patch names ...\n")
	lump := w.CheckNumForName("PNAMES")
	if lump < 0 {
		return nil, fmt.Errorf("PNAMES not found")
	}
	data, err := w.ReadLump(lump)
	if err != nil {
		return nil, err
	}
	reader := bytes.NewReader(data)

	// Read PNAMES header
	var count uint32
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	if int(count) > reader.Len()/8 {
		return nil, fmt.Errorf("PNAMES: %d names in %d bytes", count, len(data))
	}

	// Read and translate PNAMES body
	pnames := make([]String8, count)
	if err := binary.Read(reader, binary.LittleEndian, pnames); err != nil {
		return nil, err
	}
	patchLumps := make([]int, count)
	for i, p := range pnames {
		name := strings.ToUpper(p.String()) // ToUpper required for "w94_1" patch
		patchLumps[i] = w.CheckNumForName(name)
		if patchLumps[i] < 0 {
			logger.Printf("Missing patch %v", name)
		}
	}
	return patchLumps, nil
}

// ReadTextureDefs reads the texture definitions from TEXTURE1 and, when
// present, TEXTURE2, in that order.
func (w *WAD) ReadTextureDefs() ([]TextureDef, error) {
	logger.Println("Loading textures ...")

	patchLumps, err := w.readPatchNames()
	if err != nil {
		return nil, err
	}

	var defs []TextureDef
	for _, name := range []string{"TEXTURE1", "TEXTURE2"} {
		lump := w.CheckNumForName(name)
		if lump < 0 {
			if name == "TEXTURE1" {
				return nil, fmt.Errorf("TEXTURE1 not found")
			}
			continue
		}
		logger.Printf("Loading %v ...", name)
		data, err := w.ReadLump(lump)
		if err != nil {
			return nil, err
		}
		d, err := parseTextureLump(data, patchLumps)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", name, err)
		}
		defs = append(defs, d...)
	}
	logger.Printf("Loaded %v textures", len(defs))

	return defs, nil
}

func parseTextureLump(data []byte, patchLumps []int) ([]TextureDef, error) {
	reader := bytes.NewReader(data)

	// Read header
	var count uint32
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	if int(count) > reader.Len()/4 {
		return nil, fmt.Errorf("%d textures in %d bytes", count, len(data))
	}

	// Read offsets
	offsets := make([]int32, count)
	if err := binary.Read(reader, binary.LittleEndian, offsets); err != nil {
		return nil, err
	}

	// For each offset...
	defs := make([]TextureDef, 0, count)
	for _, offset := range offsets {
		if offset < 0 || int(offset) >= len(data) {
			return nil, fmt.Errorf("bad texture offset %d", offset)
		}
		reader := bytes.NewReader(data[offset:])

		// Read header
		var binHeader binTextureHeader
		if err := binary.Read(reader, binary.LittleEndian, &binHeader); err != nil {
			return nil, err
		}
		def := TextureDef{
			Name:     strings.ToUpper(binHeader.TextureName.String()),
			IsMasked: binHeader.Masked != 0,
			Width:    int(binHeader.Width),
			Height:   int(binHeader.Height),
		}
		if binHeader.NumPatches < 0 {
			return nil, fmt.Errorf("%v: bad patch count %d", def.Name, binHeader.NumPatches)
		}

		// Add patches to texture
		binPatches := make([]binPatch, binHeader.NumPatches)
		if err := binary.Read(reader, binary.LittleEndian, binPatches); err != nil {
			return nil, err
		}
		def.Patches = make([]TexturePatch, len(binPatches))
		for pi, p := range binPatches {
			if p.PatchNameIdx < 0 || int(p.PatchNameIdx) >= len(patchLumps) {
				return nil, fmt.Errorf("%v: bad patch index %d", def.Name, p.PatchNameIdx)
			}
			def.Patches[pi] = TexturePatch{
				XOffset: int(p.XOffset),
				YOffset: int(p.YOffset),
				Lump:    patchLumps[p.PatchNameIdx],
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

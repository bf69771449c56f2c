package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/color"
)

type RGB struct {
	Red, Green, Blue uint8
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{c.Red, c.Green, c.Blue, 0xff}.RGBA()
}

// Each palette in PLAYPAL contains 256 three-ubyte colors totaling 768 bytes (RGB).
type Palette [256]RGB

// Color returns the palette as a color.Palette.
func (p *Palette) Color() color.Palette {
	cp := make(color.Palette, len(p))
	for i, c := range p {
		cp[i] = color.RGBA{c.Red, c.Green, c.Blue, 0xff}
	}
	return cp
}

// PLAYPAL lump. A set of color palettes used to set the main graphics colors. The Doom engine can
// only display 256 simultaneous colors, so it performs palette swaps to achieve these effects.
// Doom has 14; Heretic and Hexen carry more or fewer.
type Palettes []Palette

const paletteSize = 256 * 3

// ReadPalettes reads every palette in PLAYPAL.
func (w *WAD) ReadPalettes() (Palettes, error) {
	logger.Println("Loading PLAYPAL ...")
	lump := w.CheckNumForName("PLAYPAL")
	if lump < 0 {
		return nil, fmt.Errorf("PLAYPAL not found")
	}
	data, err := w.ReadLump(lump)
	if err != nil {
		return nil, err
	}
	if len(data) < paletteSize {
		return nil, fmt.Errorf("PLAYPAL too short: %d bytes", len(data))
	}
	playpal := make(Palettes, len(data)/paletteSize)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, playpal); err != nil {
		return nil, err
	}
	return playpal, nil
}

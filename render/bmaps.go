package render

import "strings"

// Brightmaps mark the texels that stay fullbright whatever the sector
// light, so lamps and screens glow in the dark.
var (
	brightRed    = colorRanges([2]int{176, 191}, [2]int{32, 47})
	brightGreen  = colorRanges([2]int{112, 127})
	brightBlue   = colorRanges([2]int{192, 207}, [2]int{240, 247})
	brightYellow = colorRanges([2]int{160, 167}, [2]int{224, 231})
)

// brightNotGray lights everything except the gray ramp.
var brightNotGray = func() []byte {
	b := colorRanges([2]int{0, 255})
	for i := 80; i <= 111; i++ {
		b[i] = 0
	}
	return b
}()

func colorRanges(ranges ...[2]int) []byte {
	b := make([]byte, 256)
	for _, r := range ranges {
		for i := r[0]; i <= r[1]; i++ {
			b[i] = 1
		}
	}
	return b
}

var textureBrightmaps = map[string][]byte{
	"COMPSTA1": brightNotGray,
	"COMPSTA2": brightNotGray,
	"COMPUTE1": brightNotGray,
	"COMPUTE2": brightNotGray,
	"COMPUTE3": brightNotGray,
	"EXITSIGN": brightRed,
	"LITE3":    brightNotGray,
	"LITE5":    brightNotGray,
	"LITEBLU1": brightBlue,
	"LITEBLU4": brightBlue,
	"SW1COMP":  brightNotGray,
	"SW2COMP":  brightNotGray,
	"SW2EXIT":  brightGreen,
	"PLANET1":  brightYellow,
}

var flatBrightmaps = map[string][]byte{
	"CEIL1_2":  brightNotGray,
	"CEIL1_3":  brightNotGray,
	"FLOOR1_7": brightRed,
	"GATE1":    brightYellow,
	"TLITE6_1": brightNotGray,
	"TLITE6_4": brightNotGray,
}

func (d *renderData) brightmapFor(table map[string][]byte, name string, enabled bool) []byte {
	if b, ok := table[strings.ToUpper(name)]; ok && enabled {
		return b
	}
	return d.noBrightmap
}

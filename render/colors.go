package render

import "github.com/lucasb-eyer/go-colorful"

// paletteSize is the number of generated chain colors before they repeat
const paletteSize = 8

// palette holds evenly spaced, well separated hues for chains without bone colors
var palette = func() []RGB {
	out := make([]RGB, paletteSize)
	for i := range out {
		out[i] = fromColorful(colorful.Hcl(float64(i)*360/paletteSize+20, 0.6, 0.7))
	}
	return out
}()

// ChainColor returns the default color of the i-th chain
func ChainColor(i int) RGB {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// BoneColor resolves a bone color string, falling back to the chain color
func BoneColor(hex string, chain int) RGB {
	if hex != "" {
		if c, err := ParseHex(hex); err == nil {
			return c
		}
	}
	return ChainColor(chain)
}

// DepthFade maps depth within [near, far] to a fade amount in [0, maxFade]
func DepthFade(depth, near, far, maxFade float64) float64 {
	if far <= near {
		return 0
	}
	t := (depth - near) / (far - near)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * maxFade
}

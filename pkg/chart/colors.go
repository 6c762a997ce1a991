package chart

import (
	"fmt"
	"math"
)

const (
	currentYearColor = "#FF0000"

	pastelLightness  = 0.8
	pastelSaturation = 0.5
)

// pastelColor spreads prior-year line colors evenly around the hue wheel
// at fixed lightness and saturation.
func pastelColor(i, total int) string {
	if total <= 0 {
		total = 1
	}

	r, g, b := hlsToRGB(float64(i)/float64(total), pastelLightness, pastelSaturation)

	return fmt.Sprintf("#%02X%02X%02X", int(r*255), int(g*255), int(b*255))
}

func hlsToRGB(h, l, s float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}

	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - l*s
	}
	m1 := 2*l - m2

	return hueToChannel(m1, m2, h+1.0/3), hueToChannel(m1, m2, h), hueToChannel(m1, m2, h-1.0/3)
}

func hueToChannel(m1, m2, hue float64) float64 {
	hue = math.Mod(hue, 1)
	if hue < 0 {
		hue++
	}

	switch {
	case hue < 1.0/6:
		return m1 + (m2-m1)*hue*6
	case hue < 0.5:
		return m2
	case hue < 2.0/3:
		return m1 + (m2-m1)*(2.0/3-hue)*6
	default:
		return m1
	}
}

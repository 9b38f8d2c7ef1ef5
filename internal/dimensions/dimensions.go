// Package dimensions extracts physical furniture dimensions from the
// free-text size labels carried on product records, e.g. "120寬 60深 75高 公分".
package dimensions

import (
	"regexp"
	"strconv"
)

// Dimensions holds per-axis sizes in centimeters. A nil axis means the
// label carried no value for it.
type Dimensions struct {
	WidthCm  *float64 `json:"widthCm"`
	HeightCm *float64 `json:"heightCm"`
	DepthCm  *float64 `json:"depthCm"`
}

var (
	widthRe  = regexp.MustCompile(`(\d+(\.\d+)?)\s*寬`)
	heightRe = regexp.MustCompile(`(\d+(\.\d+)?)\s*高`)
	depthRe  = regexp.MustCompile(`(\d+(\.\d+)?)\s*深`)
)

// Parse reads the first size label and matches each axis independently.
// Axes may appear in any order; a missing axis yields nil, never an error.
func Parse(labels []string) Dimensions {
	var d Dimensions
	if len(labels) == 0 || labels[0] == "" {
		return d
	}
	label := labels[0]

	d.WidthCm = matchAxis(widthRe, label)
	d.HeightCm = matchAxis(heightRe, label)
	d.DepthCm = matchAxis(depthRe, label)
	return d
}

// Empty reports whether no axis was parsed.
func (d Dimensions) Empty() bool {
	return d.WidthCm == nil && d.HeightCm == nil && d.DepthCm == nil
}

func matchAxis(re *regexp.Regexp, label string) *float64 {
	m := re.FindStringSubmatch(label)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// Package viewer holds the pure math and link building behind the 3D
// viewer page: per-axis scale factors from target centimeters against the
// asset's intrinsic size, and the deep link the catalog emits.
package viewer

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"modelhaus/api/internal/dimensions"
)

// Meters is an asset's intrinsic bounding size per axis, as reported by
// the viewer after load.
type Meters struct {
	X float64
	Y float64
	Z float64
}

// Scale is the per-axis factor applied to the asset before the camera is
// reframed.
type Scale struct {
	X float64
	Y float64
	Z float64
}

// ScaleFactors computes (targetCm/100)/intrinsicMeters per axis. An axis
// clamps to 1 when its target is absent or the computed value is
// non-finite or non-positive.
func ScaleFactors(target dimensions.Dimensions, intrinsic Meters) Scale {
	return Scale{
		X: axisScale(target.WidthCm, intrinsic.X),
		Y: axisScale(target.HeightCm, intrinsic.Y),
		Z: axisScale(target.DepthCm, intrinsic.Z),
	}
}

func axisScale(targetCm *float64, intrinsicM float64) float64 {
	if targetCm == nil || intrinsicM <= 0 {
		return 1
	}
	s := (*targetCm / 100) / intrinsicM
	if math.IsInf(s, 0) || math.IsNaN(s) || s <= 0 {
		return 1
	}
	return s
}

// PageURL builds the viewer deep link: URL-encoded model URL plus one
// query parameter per parsed axis. Absent axes are omitted entirely.
func PageURL(pagePath, modelURL string, d dimensions.Dimensions) string {
	link := fmt.Sprintf("%s?modelUrl=%s", pagePath, url.QueryEscape(modelURL))
	if d.WidthCm != nil {
		link += "&targetWidthCm=" + formatCm(*d.WidthCm)
	}
	if d.HeightCm != nil {
		link += "&targetHeightCm=" + formatCm(*d.HeightCm)
	}
	if d.DepthCm != nil {
		link += "&targetDepthCm=" + formatCm(*d.DepthCm)
	}
	return link
}

func formatCm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

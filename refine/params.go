// Package refine turns a foreground probability mask into the alpha channel
// of a cutout: the mask is resampled onto the image grid, thresholded by
// sensitivity and then box blurred according to the edge smoothing strength.
package refine

// Params controls one refinement run. Both fields are in [0,1].
type Params struct {
	Sensitivity   float64 `yaml:"sensitivity" json:"sensitivity"`
	EdgeSmoothing float64 `yaml:"edgeSmoothing" json:"edgeSmoothing"`
}

// DefaultParams matches the initial slider positions of the editor.
func DefaultParams() Params {
	return Params{Sensitivity: 0.5, EdgeSmoothing: 0.5}
}

// Clamped returns p with both fields forced into [0,1].
func (p Params) Clamped() Params {
	return Params{
		Sensitivity:   clamp(p.Sensitivity, 0, 1),
		EdgeSmoothing: clamp(p.EdgeSmoothing, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v != v {
		return lo
	}
	return max(lo, min(hi, v))
}

package toolkit

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"nucleolseg/internal/models"
)

// gaussianTruncate is the kernel half-width in standard deviations
const gaussianTruncate = 4.0

// Native implements Toolkit in pure Go. Filters treat the image as mirrored
// about its edges, with the edge sample repeated (d c b a | a b c d | d c b a).
type Native struct{}

// NewNative returns the pure Go toolkit
func NewNative() *Native {
	return &Native{}
}

// GaussianBlur applies a separable Gaussian filter truncated at four standard
// deviations.
func (n *Native) GaussianBlur(img *models.Image, sigma float64) *models.Image {
	if sigma <= 0 {
		return img.Clone()
	}

	kernel := gaussianKernel(sigma)
	half := len(kernel) / 2
	w, h := img.Width, img.Height

	// Horizontal pass
	tmp := models.NewImage(w, h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*w : (y+1)*w]
		out := tmp.Pix[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var sum float64
			for k, weight := range kernel {
				sum += row[reflectIndex(x+k-half, w)] * weight
			}
			out[x] = sum
		}
	}

	// Vertical pass
	result := models.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, weight := range kernel {
				sum += tmp.Pix[reflectIndex(y+k-half, h)*w+x] * weight
			}
			result.Pix[y*w+x] = sum
		}
	}

	return result
}

// gaussianKernel builds a normalized 1D Gaussian with radius
// int(4*sigma + 0.5).
func gaussianKernel(sigma float64) []float64 {
	radius := int(gaussianTruncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// MinimumFilter computes a separable running minimum. For a window of size s
// the neighbourhood of sample i spans i-s/2 .. i-s/2+s-1, so even sizes lean
// towards the lower index.
func (n *Native) MinimumFilter(img *models.Image, size int) *models.Image {
	if size <= 1 || len(img.Pix) == 0 {
		return img.Clone()
	}

	w, h := img.Width, img.Height

	tmp := models.NewImage(w, h)
	for y := 0; y < h; y++ {
		runningMin(img.Pix[y*w:(y+1)*w], size, tmp.Pix[y*w:(y+1)*w])
	}

	result := models.NewImage(w, h)
	column := make([]float64, h)
	out := make([]float64, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			column[y] = tmp.Pix[y*w+x]
		}
		runningMin(column, size, out)
		for y := 0; y < h; y++ {
			result.Pix[y*w+x] = out[y]
		}
	}

	return result
}

// runningMin writes the sliding window minimum of line into out using a
// monotonic deque over the mirrored line.
func runningMin(line []float64, size int, out []float64) {
	n := len(line)
	if n == 0 {
		return
	}
	offset := -(size / 2)

	padded := make([]float64, n+size-1)
	for k := range padded {
		padded[k] = line[reflectIndex(k+offset, n)]
	}

	deque := make([]int, 0, size)
	for k, v := range padded {
		for len(deque) > 0 && padded[deque[len(deque)-1]] >= v {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, k)
		if deque[0] <= k-size {
			deque = deque[1:]
		}
		if i := k - size + 1; i >= 0 {
			out[i] = padded[deque[0]]
		}
	}
}

// reflectIndex maps an out-of-range index back into [0, n) by mirroring about
// the edges, repeating the edge sample.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// Label performs two-pass connected-component labeling. Provisional labels
// from the raster scan are merged through a disjoint set and then renumbered
// in order of first appearance, so the output is dense and deterministic.
func (n *Native) Label(mask *models.Mask, conn Connectivity) (*models.LabelMap, int) {
	w, h := mask.Width, mask.Height
	labels := models.NewLabelMap(w, h)
	sets := newDisjointSet(w * h / 2)

	// Neighbours already visited by the raster scan
	offsets := [][2]int{{-1, 0}, {0, -1}}
	if conn == Eight {
		offsets = [][2]int{{-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if !mask.Pix[idx] {
				continue
			}

			current := 0
			for _, o := range offsets {
				nx, ny := x+o[0], y+o[1]
				if nx < 0 || ny < 0 || nx >= w {
					continue
				}
				neighbour := labels.Pix[ny*w+nx]
				if neighbour == 0 {
					continue
				}
				if current == 0 {
					current = neighbour
				} else {
					sets.union(current, neighbour)
				}
			}

			if current == 0 {
				current = sets.add()
			}
			labels.Pix[idx] = current
		}
	}

	// Resolve equivalences and renumber densely
	final := make([]int, sets.size())
	count := 0
	for i, v := range labels.Pix {
		if v == 0 {
			continue
		}
		root := sets.root(v)
		if final[root] == 0 {
			count++
			final[root] = count
		}
		labels.Pix[i] = final[root]
	}

	return labels, count
}

// RegionStats groups the samples of img by label and measures each group.
// Labels without pixels report a zero area and NaN statistics.
func (n *Native) RegionStats(img *models.Image, labels *models.LabelMap, count int) []Region {
	groups := make([][]float64, count)
	for i, l := range labels.Pix {
		if l > 0 && l <= count {
			groups[l-1] = append(groups[l-1], img.Pix[i])
		}
	}

	regions := make([]Region, count)
	for i, values := range groups {
		r := Region{Label: i + 1, Area: len(values)}
		if len(values) == 0 {
			r.Mean, r.StdDev = math.NaN(), math.NaN()
			r.Min, r.Max = math.NaN(), math.NaN()
		} else {
			r.Sum = floats.Sum(values)
			r.Mean, r.StdDev = stat.PopMeanStdDev(values, nil)
			r.Min = floats.Min(values)
			r.Max = floats.Max(values)
		}
		regions[i] = r
	}

	return regions
}

// FillHoles floods the background from every border pixel using conn and
// turns whatever background was not reached into foreground.
func (n *Native) FillHoles(mask *models.Mask, conn Connectivity) *models.Mask {
	w, h := mask.Width, mask.Height
	reached := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))

	seed := func(x, y int) {
		idx := y*w + x
		if !mask.Pix[idx] && !reached[idx] {
			reached[idx] = true
			queue = append(queue, idx)
		}
	}
	for x := 0; x < w; x++ {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := 0; y < h; y++ {
		seed(0, y)
		seed(w-1, y)
	}

	neighbours := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	if conn == Eight {
		neighbours = append(neighbours, [2]int{1, 1}, [2]int{1, -1}, [2]int{-1, 1}, [2]int{-1, -1})
	}

	for len(queue) > 0 {
		idx := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := idx%w, idx/w
		for _, o := range neighbours {
			nx, ny := x+o[0], y+o[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			seed(nx, ny)
		}
	}

	filled := models.NewMask(w, h)
	for i := range filled.Pix {
		filled.Pix[i] = mask.Pix[i] || !reached[i]
	}
	return filled
}

var _ Toolkit = (*Native)(nil)

package timeseries

// RunningWindow describes a running window over days of the year, as used
// by the ISIMIP method: windows of Length days are advanced by Step days,
// every sample inside a window is used for fitting, and only the central
// Step days of each window receive debiased output.
type RunningWindow struct {
	Length int // window width in days of the year
	Step   int // days written back per window
}

// yearCircle is the length of the day-of-year circle. Using 366 keeps
// Feb 29 inside the circle in leap years.
const yearCircle = 366

// NumWindows returns the number of windows needed to cover every day of
// the year once.
func (w RunningWindow) NumWindows() int {
	if w.Step <= 0 {
		return 0
	}
	return (yearCircle + w.Step - 1) / w.Step
}

// center returns the (fractional) day-of-year at the middle of window k.
func (w RunningWindow) center(k int) float64 {
	return float64(1+k*w.Step) + float64(w.Step-1)/2
}

// InWindow reports which sample positions fall inside window k, given the
// day-of-year of every sample. Window membership is circular so windows
// near the turn of the year wrap around.
func (w RunningWindow) InWindow(doys []int, k int) []int {
	c := w.center(k)
	half := float64(w.Length) / 2
	var idx []int
	for i, d := range doys {
		dist := circularDistance(float64(d), c)
		if dist <= half {
			idx = append(idx, i)
		}
	}
	return idx
}

// InCore reports which sample positions fall inside the central Step days
// of window k. Every day of the year belongs to exactly one core.
func (w RunningWindow) InCore(doys []int, k int) []int {
	lo := 1 + k*w.Step
	hi := lo + w.Step
	var idx []int
	for i, d := range doys {
		if d >= lo && d < hi {
			idx = append(idx, i)
		}
	}
	return idx
}

func circularDistance(a, b float64) float64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	for d > yearCircle {
		d -= yearCircle
	}
	if d > yearCircle/2 {
		d = yearCircle - d
	}
	return d
}

package dataset

// BarsAndStripes generates every side × side image made of full vertical bars (class 0) or full
// horizontal stripes (class 1). The blank and the full images only appear once, as stripes.
func BarsAndStripes(side int) *Set {
	s := new(Set)
	patterns := 1 << uint(side)
	for mask := 0; mask < patterns; mask++ {
		img := make([]float32, side*side)
		for y := 0; y < side; y++ {
			if mask&(1<<uint(y)) == 0 {
				continue
			}
			for x := 0; x < side; x++ {
				img[y*side+x] = 1
			}
		}
		s.Inputs = append(s.Inputs, img)
		s.Labels = append(s.Labels, 1)
	}
	for mask := 1; mask < patterns-1; mask++ {
		img := make([]float32, side*side)
		for x := 0; x < side; x++ {
			if mask&(1<<uint(x)) == 0 {
				continue
			}
			for y := 0; y < side; y++ {
				img[y*side+x] = 1
			}
		}
		s.Inputs = append(s.Inputs, img)
		s.Labels = append(s.Labels, 0)
	}
	return s
}

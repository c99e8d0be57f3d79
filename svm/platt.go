package svm

import "math"

const (
	plattIterations = 100
	plattMinStep    = 1e-10
	plattSigma      = 1e-12
	plattEpsilon    = 1e-5
)

// platt fits P(positive | f) = 1/(1+exp(A·f+B)) to the decision values with Newton's method.
func platt(dec []float64, positive []bool) (A, B float64) {
	var prior1, prior0 float64
	for _, p := range positive {
		if p {
			prior1++
		} else {
			prior0++
		}
	}
	hi := (prior1 + 1) / (prior1 + 2)
	lo := 1 / (prior0 + 2)
	t := make([]float64, len(dec))
	for i, p := range positive {
		if p {
			t[i] = hi
		} else {
			t[i] = lo
		}
	}

	objective := func(A, B float64) (f float64) {
		for i, d := range dec {
			fApB := d*A + B
			if fApB >= 0 {
				f += t[i]*fApB + math.Log1p(math.Exp(-fApB))
			} else {
				f += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
			}
		}
		return f
	}

	B = math.Log((prior0 + 1) / (prior1 + 1))
	fval := objective(A, B)
	for it := 0; it < plattIterations; it++ {
		h11, h22 := plattSigma, plattSigma
		var h21, g1, g2 float64
		for i, d := range dec {
			p := sigmoid(d*A + B)
			q := 1 - p
			d2 := p * q
			h11 += d * d * d2
			h22 += d2
			h21 += d * d2
			d1 := t[i] - p
			g1 += d * d1
			g2 += d1
		}
		if math.Abs(g1) < plattEpsilon && math.Abs(g2) < plattEpsilon {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for ; step >= plattMinStep; step /= 2 {
			newA, newB := A+step*dA, B+step*dB
			if newf := objective(newA, newB); newf < fval+1e-4*step*gd {
				A, B, fval = newA, newB, newf
				break
			}
		}
		if step < plattMinStep {
			break
		}
	}
	return A, B
}

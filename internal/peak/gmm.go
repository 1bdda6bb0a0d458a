package peak

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// mixture is a 1-D Gaussian mixture
type mixture struct {
	weights   []float64
	means     []float64
	variances []float64
}

// fitMixture fits k components to x by expectation maximisation,
// starting from a k-means partition. Iteration stops when the mean
// log-likelihood changes less than emTol.
func fitMixture(x []float64, k int, rnd *rand.Rand) mixture {
	m := mixture{
		weights:   make([]float64, k),
		means:     make([]float64, k),
		variances: make([]float64, k),
	}
	resp := make([][]float64, k)
	for j := range resp {
		resp[j] = make([]float64, len(x))
	}
	for i, l := range kmeans(x, k, rnd) {
		resp[l][i] = 1
	}
	m.maximize(x, resp)

	lower := math.Inf(-1)
	for iter := 0; iter < emMaxIter; iter++ {
		prev := lower
		lower = m.expect(x, resp)
		m.maximize(x, resp)
		if math.Abs(lower-prev) < emTol {
			break
		}
	}
	return m
}

// expect fills resp with the posterior component probabilities and
// returns the mean log-likelihood of x
func (m *mixture) expect(x []float64, resp [][]float64) float64 {
	k := len(m.means)
	norm := make([]distuv.Normal, k)
	logW := make([]float64, k)
	for j := range norm {
		norm[j] = distuv.Normal{Mu: m.means[j], Sigma: math.Sqrt(m.variances[j])}
		logW[j] = math.Log(m.weights[j])
	}
	lp := make([]float64, k)
	total := 0.0
	for i, v := range x {
		for j := range norm {
			lp[j] = logW[j] + norm[j].LogProb(v)
		}
		lse := floats.LogSumExp(lp)
		for j := range norm {
			resp[j][i] = math.Exp(lp[j] - lse)
		}
		total += lse
	}
	return total / float64(len(x))
}

// maximize updates the parameters from the responsibilities. Variances
// are regularised by emRegCovar; a component without support keeps its
// mean.
func (m *mixture) maximize(x []float64, resp [][]float64) {
	const eps = 2.220446049250313e-16
	n := float64(len(x))
	for j, r := range resp {
		sum := floats.Sum(r)
		nk := sum + 10*eps
		m.weights[j] = nk / n
		if sum < 1e-10 {
			m.variances[j] = emRegCovar
			continue
		}
		mean := floats.Dot(r, x) / nk
		ss := 0.0
		for i, v := range x {
			ss += r[i] * (v - mean) * (v - mean)
		}
		m.means[j] = mean
		m.variances[j] = ss/nk + emRegCovar
	}
}

// kmeans partitions x into k clusters (k-means++ seeding, Lloyd
// iterations) and returns the cluster of every point
func kmeans(x []float64, k int, rnd *rand.Rand) []int {
	centers := seedCenters(x, k, rnd)
	labels := make([]int, len(x))
	sums := make([]float64, k)
	counts := make([]int, k)
	for iter := 0; iter < kmMaxIter; iter++ {
		changed := iter == 0
		for i, v := range x {
			l := nearestCenter(centers, v)
			if l != labels[i] {
				labels[i] = l
				changed = true
			}
		}
		if !changed {
			break
		}
		for j := range sums {
			sums[j], counts[j] = 0, 0
		}
		for i, v := range x {
			sums[labels[i]] += v
			counts[labels[i]]++
		}
		for j := range centers {
			if counts[j] > 0 {
				centers[j] = sums[j] / float64(counts[j])
			}
		}
	}
	return labels
}

// seedCenters picks k initial centers, each with probability
// proportional to its squared distance from the nearest chosen center
func seedCenters(x []float64, k int, rnd *rand.Rand) []float64 {
	centers := []float64{x[rnd.Intn(len(x))]}
	d2 := make([]float64, len(x))
	for len(centers) < k {
		for i, v := range x {
			d := v - centers[nearestCenter(centers, v)]
			d2[i] = d * d
		}
		sum := floats.Sum(d2)
		next := len(x) - 1
		if sum == 0 {
			next = rnd.Intn(len(x))
		} else {
			r := rnd.Float64() * sum
			for i, d := range d2 {
				r -= d
				if r < 0 {
					next = i
					break
				}
			}
		}
		centers = append(centers, x[next])
	}
	return centers
}

func nearestCenter(centers []float64, v float64) int {
	best := 0
	for j := 1; j < len(centers); j++ {
		if math.Abs(v-centers[j]) < math.Abs(v-centers[best]) {
			best = j
		}
	}
	return best
}

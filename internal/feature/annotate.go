package feature

import "math"

type massDelta struct {
	name string
	mass float64
}

var adducts = []massDelta{
	{"M+H", 1.007276},
	{"M+H-H2O", -17.00384},
	{"M+H+H2O", 19.01839},
	{"M+Na", 23.98922},
}

var isotopes = []massDelta{
	{"M+1", 1.00335},
	{"M+2", 2.00671},
}

// AnnotationTol is the m/z tolerance of the CSV annotation columns
const AnnotationTol = 0.001

// AnnotateAdducts labels every m/z that is an adduct of an earlier one
func AnnotateAdducts(mz []float64, tol float64) []string {
	return annotate(mz, tol, adducts, "unknown adduct")
}

// AnnotateIsotopes labels every m/z that is an isotope of an earlier one
func AnnotateIsotopes(mz []float64, tol float64) []string {
	return annotate(mz, tol, isotopes, "unknown isotope")
}

// annotate assigns each m/z at most one parent with a lower index. A
// value that is already a child is not used as parent. The first
// matching delta in the table wins.
func annotate(mz []float64, tol float64, deltas []massDelta, unknown string) []string {
	parent := make([]int, len(mz))
	name := make([]string, len(mz))
	for i := range parent {
		parent[i] = -1
	}
	for i := range mz {
		if parent[i] != -1 {
			continue
		}
		for j := i + 1; j < len(mz); j++ {
			if parent[j] != -1 {
				continue
			}
			for _, d := range deltas {
				if math.Abs(mz[j]-mz[i]-d.mass) < tol {
					parent[j] = i
					name[j] = d.name
					break
				}
			}
		}
	}
	labels := make([]string, len(mz))
	for i, p := range parent {
		if p == -1 {
			labels[i] = unknown
			continue
		}
		labels[i] = name[i] + " of m/z:" + formatFloat(round(mz[p], 4))
	}
	return labels
}

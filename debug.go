// This file contains code to help debugging, and is
// separated in from the rest in order not to litter
// the main code with debugging stuff

package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/524D/breathx/internal/feature"
)

var debugFeatures string // Print debug output for given feature range

// Output of concurrent extractions must not interleave
var debugMux sync.Mutex

func addDebugFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&debugFeatures, "debug", "",
		"Print debug output for given feature `range` e.g. 3:6")
}

func debugLogFeatures(path string, tab *feature.Table) {
	if debugFeatures == `` || tab.Len() == 0 {
		return
	}
	debugMin, debugMax, _ := parseIntRange(debugFeatures, 0, tab.Len()-1)
	rsd := tab.RSD()

	debugMux.Lock()
	defer debugMux.Unlock()
	fmt.Printf("File:%s features:%d scans:%d\n", path, tab.Len(), len(tab.Time))
	for i := debugMin; i <= debugMax; i++ {
		r := tab.Rows[i]
		nonZero := 0
		apex := 0
		for j, v := range r.Intensity {
			if v != 0 {
				nonZero++
			}
			if v > r.Intensity[apex] {
				apex = j
			}
		}
		fmt.Printf("%d mz:%f score:%f rsd:%0.3f nonzero:%d", i, r.Mz, r.Score, rsd[i], nonZero)
		if len(r.Intensity) > 0 {
			fmt.Printf(" apex rt:%f intens:%f", tab.Time[apex], r.Intensity[apex])
		}
		fmt.Printf("\n")
	}
}

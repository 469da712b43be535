package strcall

import (
	"github.com/antzucaro/matchr"
	"github.com/grailbio/forensic/align"
)

// cluster links candidates whose regions of interest align with at most
// maxDiff differences, counting a gap of one repeat unit as one difference.
// Candidates must be in report order; reserved ROIs are never linked.
func cluster(c []Candidate, unit, maxDiff int) {
	aligner := align.Global{Unit: unit}
	for i := range c {
		a := c[i].ROI
		if IsMarker(a) {
			continue
		}
		for j := i + 1; j < len(c); j++ {
			b := c[j].ROI
			if unit > 0 && len(b)-len(a) > maxDiff*unit {
				break
			}
			if len(a) == len(b) {
				if h, err := matchr.Hamming(a, b); err == nil && h > maxDiff {
					continue
				}
			}
			res, _ := aligner.Align(a, b)
			if diff := res.Differences(); diff <= maxDiff {
				link(&c[i], c[j].Index, diff)
				link(&c[j], c[i].Index, diff)
			}
		}
	}
}

func link(c *Candidate, index, diff int) {
	if c.Related == nil {
		c.Related = map[int][]int{}
	}
	c.Related[diff] = append(c.Related[diff], index)
}

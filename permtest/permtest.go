// Package permtest assesses per-gene transcript-level scores by Monte
// Carlo permutation. Each gene's intron-level scores are collapsed to one
// observed statistic (one value per intron cluster, plus each orphan
// intron's own value), which is then compared against an empirical null
// distribution of medians drawn from the score column across the whole
// table.
package permtest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/carbocation/pfx"
	"github.com/carbocation/runningvariance"
	"github.com/montanaflynn/stats"

	"github.com/irtools/irperm/intronnest"
	"github.com/irtools/irperm/irtable"
)

// Result is one gene's row in a score column's output table.
type Result struct {
	Gene     string
	Observed float64
	Expected float64
	PValLow  float64 // fraction of null medians <= observed
	PValHigh float64 // fraction of null medians >= observed
	SD       float64
	ZScore   float64
	// NumIntron is the gene's raw row count in the classified table.
	// NumCollapsed is the number of values the observed statistic was
	// computed from: one per cluster plus one per orphan, or the raw
	// count when the gene has no clusters.
	NumIntron    int
	NumCollapsed int
}

// Tester runs the permutation scheme with a fixed number of draws per
// null distribution.
type Tester struct {
	Nperms int

	rng *rand.Rand
}

// New returns a Tester performing nperms draws per gene. A zero seed
// leaves the draws unseeded (time-derived source); any other value makes
// the run reproducible.
func New(nperms int, seed int64) *Tester {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Tester{
		Nperms: nperms,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Run produces one Result per gene for the named score column, genes in
// sorted order. The table must already carry the classifier's label and
// cluster columns. The table is never modified, so Run may be called once
// per score column over the same table.
func (pt *Tester) Run(t *irtable.Table, scoreCol string) ([]Result, error) {
	if err := t.Require("gene", intronnest.LabelColumn, intronnest.ClusterColumn, scoreCol); err != nil {
		return nil, err
	}

	// The null pool is the score column over all rows, not the gene's.
	pool, err := t.Floats(scoreCol)
	if err != nil {
		return nil, err
	}

	genes, err := t.GroupSorted("gene")
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(genes))
	for _, gene := range genes {
		observed, num, err := observedStatistic(t, gene.Rows, scoreCol)
		if err != nil {
			return nil, err
		}

		null, err := pt.resolve(pool, observed, num, len(gene.Rows))
		if err != nil {
			return nil, err
		}

		results = append(results, Result{
			Gene:         gene.Key,
			Observed:     observed,
			Expected:     null.expected,
			PValLow:      null.pLow,
			PValHigh:     null.pHigh,
			SD:           null.sd,
			ZScore:       (observed - null.expected) / null.sd,
			NumIntron:    len(gene.Rows),
			NumCollapsed: num,
		})
	}

	return results, nil
}

// observedStatistic collapses one gene's rows. Rows sharing a cluster id
// contribute a single value (the median of their scores); orphan rows
// contribute their own scores. A gene with no clusters falls back to the
// median of its raw scores.
func observedStatistic(t *irtable.Table, rows [][]string, scoreCol string) (observed float64, num int, err error) {
	ci, ok := t.Index(intronnest.ClusterColumn)
	if !ok {
		return 0, 0, fmt.Errorf("input table is missing required columns: %s", intronnest.ClusterColumn)
	}

	var orphans []float64
	clusters := make(map[string][]float64)
	var order []string

	for _, row := range rows {
		v, err := t.Float(row, scoreCol)
		if err != nil {
			return 0, 0, err
		}

		id := row[ci]
		if id == intronnest.NoCluster {
			orphans = append(orphans, v)
			continue
		}

		if _, seen := clusters[id]; !seen {
			order = append(order, id)
		}
		clusters[id] = append(clusters[id], v)
	}

	if len(clusters) == 0 {
		observed, err = stats.Median(orphans)
		if err != nil {
			return 0, 0, pfx.Err(err)
		}

		return observed, len(rows), nil
	}

	combined := make([]float64, 0, len(orphans)+len(order))
	combined = append(combined, orphans...)
	for _, id := range order {
		med, err := stats.Median(clusters[id])
		if err != nil {
			return 0, 0, pfx.Err(err)
		}
		combined = append(combined, med)
	}

	observed, err = stats.Median(combined)
	if err != nil {
		return 0, 0, pfx.Err(err)
	}

	return observed, len(combined), nil
}

type nullSummary struct {
	expected float64
	sd       float64
	pLow     float64
	pHigh    float64
	drawSize int // values per draw in the pass that produced these stats
}

type passState int

const (
	firstPass passState = iota
	secondPass
	resolved
)

// resolve runs the two-pass protocol for one gene. The first pass draws
// num values per permutation. When its low p-value is exactly zero the
// pass is discarded and a single second pass re-draws at the gene's raw
// row count for extra resolution; the second pass's statistics are final
// even if its own low p-value is again zero.
func (pt *Tester) resolve(pool []float64, observed float64, num, raw int) (nullSummary, error) {
	var null nullSummary

	for state := firstPass; state != resolved; {
		drawSize := num
		if state == secondPass {
			drawSize = raw
		}

		var err error
		null, err = pt.nullPass(pool, drawSize, observed)
		if err != nil {
			return nullSummary{}, err
		}

		if state == secondPass || null.pLow != 0 {
			state = resolved
		} else {
			state = secondPass
		}
	}

	return null, nil
}

// nullPass builds one empirical null distribution: Nperms medians of
// drawSize values sampled uniformly with replacement from the pool.
func (pt *Tester) nullPass(pool []float64, drawSize int, observed float64) (nullSummary, error) {
	rs := runningvariance.NewRunningStat()
	draw := make([]float64, drawSize)

	var below, above int
	for i := 0; i < pt.Nperms; i++ {
		for j := range draw {
			draw[j] = pool[pt.rng.Intn(len(pool))]
		}

		med, err := stats.Median(draw)
		if err != nil {
			return nullSummary{}, pfx.Err(err)
		}

		rs.Push(med)
		if med <= observed {
			below++
		}
		if med >= observed {
			above++
		}
	}

	return nullSummary{
		expected: rs.Mean(),
		sd:       rs.StandardDeviation(),
		pLow:     float64(below) / float64(pt.Nperms),
		pHigh:    float64(above) / float64(pt.Nperms),
		drawSize: drawSize,
	}, nil
}

package permtest

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/carbocation/pfx"
)

// ResultFileName is the destination file name for one score column's
// result table.
func ResultFileName(scoreCol string) string {
	return scoreCol + ".permutation.tsv"
}

// WriteResults emits one score column's result table as tab-separated
// text. The observed and expected column headers carry the metric name,
// so tables for different score columns stay self-describing.
func WriteResults(w io.Writer, metric string, results []Result) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	header := []string{
		"gene",
		"obs." + metric,
		"exp." + metric,
		"pval_low",
		"pval_high",
		"sd",
		"z_score",
		"num_intron",
		"num_intron_without_nested",
	}
	if err := cw.Write(header); err != nil {
		return pfx.Err(err)
	}

	for _, res := range results {
		row := []string{
			res.Gene,
			ff(res.Observed),
			ff(res.Expected),
			ff(res.PValLow),
			ff(res.PValHigh),
			ff(res.SD),
			ff(res.ZScore),
			strconv.Itoa(res.NumIntron),
			strconv.Itoa(res.NumCollapsed),
		}
		if err := cw.Write(row); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()

	return pfx.Err(cw.Error())
}

// ff formats a statistic at full precision. Non-finite values (degenerate
// genes, zero-variance nulls) print as NaN/±Inf rather than being
// suppressed.
func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

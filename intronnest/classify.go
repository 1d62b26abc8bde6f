// Package intronnest classifies the introns of each gene into a
// Parent/Nested/Orphan hierarchy based on genomic-coordinate containment,
// and groups every Parent with the Nested introns it contains into a
// numbered intron cluster. Classification is scoped to a single gene's
// introns; containment across genes is never considered.
package intronnest

import (
	"strconv"

	"github.com/irtools/irperm/irtable"
)

// Labels written to the LabelColumn. An intron contained by another
// intron of its gene is Nested, even when it also contains introns of its
// own; an intron that only contains others is a Parent; an intron with no
// containment relation to any other is an Orphan.
const (
	Parent = "Parent"
	Nested = "Nested"
	Orphan = "Orphan"
)

// NoCluster marks rows that belong to no intron cluster.
const NoCluster = "none"

// Columns added by Classify.
const (
	LabelColumn   = "Nested"
	ClusterColumn = "Intron_cluster"
)

type span struct {
	start, end int
	row        []string
	label      string
}

func (s span) contains(other span) bool {
	return s.start <= other.start && s.end >= other.end
}

// clusterCounter issues cluster ids. Ids are unique within one Classify
// call and are assigned in the order Parents are encountered, with genes
// visited in sorted order and rows in input order within a gene. The
// counter advances before each assignment, so the first id issued is 1.
type clusterCounter struct {
	n int
}

func (c *clusterCounter) next() string {
	c.n++

	return strconv.Itoa(c.n)
}

// Classify returns a new table with two added columns: the containment
// label and the intron cluster id ("none" for Orphans). Rows come back
// grouped by gene in sorted gene order; within a gene, each Parent is
// followed by its Nested members, and the gene's Orphans come last.
//
// A Nested intron contained by more than one Parent is emitted once per
// containing Parent, under each Parent's cluster id. Start/End pairs are
// taken as-is; a row with Start > End simply ends up with whatever
// containment relations the coordinate comparisons yield.
func Classify(t *irtable.Table) (*irtable.Table, error) {
	if err := t.Require("gene", "Start", "End"); err != nil {
		return nil, err
	}

	genes, err := t.GroupSorted("gene")
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(t.Columns)+2)
	cols = append(cols, t.Columns...)
	cols = append(cols, LabelColumn, ClusterColumn)
	out := irtable.New(cols)

	counter := &clusterCounter{}

	for _, gene := range genes {
		spans, err := makeSpans(t, gene.Rows)
		if err != nil {
			return nil, err
		}

		label(spans)
		emit(out, spans, counter)
	}

	return out, nil
}

func makeSpans(t *irtable.Table, rows [][]string) ([]span, error) {
	spans := make([]span, 0, len(rows))
	for _, row := range rows {
		start, err := t.Int(row, "Start")
		if err != nil {
			return nil, err
		}

		end, err := t.Int(row, "End")
		if err != nil {
			return nil, err
		}

		spans = append(spans, span{start: start, end: end, row: row})
	}

	return spans, nil
}

// label assigns each span exactly one label from its containment counts.
// Both counts include the span itself, so "more than one" means some
// other intron is involved. Nested takes precedence over Parent.
func label(spans []span) {
	for i := range spans {
		var containing, contained int
		for j := range spans {
			if spans[j].contains(spans[i]) {
				containing++
			}
			if spans[i].contains(spans[j]) {
				contained++
			}
		}

		switch {
		case containing > 1:
			spans[i].label = Nested
		case contained > 1:
			spans[i].label = Parent
		default:
			spans[i].label = Orphan
		}
	}
}

// emit appends one gene's classified rows: per-cluster groups in Parent
// row order, then the Orphans. Nested spans whose gene has no Parent at
// all (mutually identical coordinates) have no cluster to join and are
// not emitted.
func emit(out *irtable.Table, spans []span, counter *clusterCounter) {
	for i := range spans {
		if spans[i].label != Parent {
			continue
		}

		id := counter.next()
		out.Rows = append(out.Rows, annotate(spans[i], id))

		for j := range spans {
			if spans[j].label == Nested && spans[i].contains(spans[j]) {
				out.Rows = append(out.Rows, annotate(spans[j], id))
			}
		}
	}

	for i := range spans {
		if spans[i].label == Orphan {
			out.Rows = append(out.Rows, annotate(spans[i], NoCluster))
		}
	}
}

func annotate(s span, cluster string) []string {
	row := make([]string, 0, len(s.row)+2)
	row = append(row, s.row...)
	row = append(row, s.label, cluster)

	return row
}

package intronnest

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/irtools/irperm/irtable"
)

func makeTable(rows ...[]string) *irtable.Table {
	t := irtable.New([]string{"gene", "Start", "End"})
	t.Rows = rows

	return t
}

func TestClassify(t *testing.T) {
	for _, v := range []struct {
		name string
		in   *irtable.Table
		want [][]string
	}{
		{
			name: "parent with nested plus orphan gene",
			in: makeTable(
				[]string{"G1", "100", "200"},
				[]string{"G1", "150", "180"},
				[]string{"G2", "200", "300"},
			),
			want: [][]string{
				{"G1", "100", "200", Parent, "1"},
				{"G1", "150", "180", Nested, "1"},
				{"G2", "200", "300", Orphan, "none"},
			},
		},
		{
			name: "nested takes precedence over parent",
			in: makeTable(
				[]string{"A", "0", "100"},
				[]string{"A", "10", "90"},
				[]string{"A", "20", "80"},
			),
			want: [][]string{
				{"A", "0", "100", Parent, "1"},
				{"A", "10", "90", Nested, "1"},
				{"A", "20", "80", Nested, "1"},
			},
		},
		{
			name: "nested in two parents is emitted once per parent",
			in: makeTable(
				[]string{"X", "0", "100"},
				[]string{"X", "50", "200"},
				[]string{"X", "60", "90"},
			),
			want: [][]string{
				{"X", "0", "100", Parent, "1"},
				{"X", "60", "90", Nested, "1"},
				{"X", "50", "200", Parent, "2"},
				{"X", "60", "90", Nested, "2"},
			},
		},
		{
			name: "counter is not reset across genes, genes sorted",
			in: makeTable(
				[]string{"b", "0", "100"},
				[]string{"b", "10", "20"},
				[]string{"a", "0", "100"},
				[]string{"a", "30", "40"},
			),
			want: [][]string{
				{"a", "0", "100", Parent, "1"},
				{"a", "30", "40", Nested, "1"},
				{"b", "0", "100", Parent, "2"},
				{"b", "10", "20", Nested, "2"},
			},
		},
		{
			name: "orphans only",
			in: makeTable(
				[]string{"G", "0", "10"},
				[]string{"G", "20", "30"},
			),
			want: [][]string{
				{"G", "0", "10", Orphan, "none"},
				{"G", "20", "30", Orphan, "none"},
			},
		},
		{
			name: "identical spans leave no parent to emit",
			in: makeTable(
				[]string{"G", "5", "10"},
				[]string{"G", "5", "10"},
			),
			want: [][]string{},
		},
	} {
		out, err := Classify(v.in)
		if err != nil {
			t.Fatalf("%s: %v", v.name, err)
		}

		got := out.Rows
		if len(got) == 0 {
			got = [][]string{}
		}
		if !reflect.DeepEqual(got, v.want) {
			t.Errorf("%s:\ngot:  %v\nwant: %v", v.name, got, v.want)
		}
	}
}

func TestClassifyColumns(t *testing.T) {
	out, err := Classify(makeTable([]string{"G", "0", "10"}))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"gene", "Start", "End", LabelColumn, ClusterColumn}
	if !reflect.DeepEqual(out.Columns, want) {
		t.Errorf("columns: got %v, want %v", out.Columns, want)
	}
}

// Cluster ids must be reproducible per call: nothing carries over from a
// previous classification.
func TestClassifyReproducible(t *testing.T) {
	in := func() *irtable.Table {
		return makeTable(
			[]string{"G1", "100", "200"},
			[]string{"G1", "150", "180"},
			[]string{"G2", "0", "50"},
			[]string{"G2", "10", "40"},
		)
	}

	first, err := Classify(in())
	if err != nil {
		t.Fatal(err)
	}

	second, err := Classify(in())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Errorf("repeat classification differs:\nfirst:  %v\nsecond: %v", first.Rows, second.Rows)
	}
}

func TestClassifyMissingColumns(t *testing.T) {
	in := irtable.New([]string{"gene", "score"})
	in.Rows = [][]string{{"G", "1.0"}}

	_, err := Classify(in)
	if err == nil {
		t.Fatal("expected an error for missing Start/End columns")
	}

	for _, col := range []string{"Start", "End"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("error %q does not name missing column %s", err, col)
		}
	}
}

// Every Nested row's cluster id must belong to a Parent that genuinely
// contains it, even in the multi-parent case.
func TestNestedClusterContainment(t *testing.T) {
	out, err := Classify(makeTable(
		[]string{"X", "0", "100"},
		[]string{"X", "50", "200"},
		[]string{"X", "60", "90"},
		[]string{"X", "300", "400"},
	))
	if err != nil {
		t.Fatal(err)
	}

	coords := func(row []string) (int, int) {
		start, err := strconv.Atoi(row[1])
		if err != nil {
			t.Fatal(err)
		}
		end, err := strconv.Atoi(row[2])
		if err != nil {
			t.Fatal(err)
		}

		return start, end
	}

	type bounds struct{ start, end int }
	parents := make(map[string]bounds)
	for _, row := range out.Rows {
		if row[3] == Parent {
			start, end := coords(row)
			parents[row[4]] = bounds{start, end}
		}
	}

	for _, row := range out.Rows {
		if row[3] != Nested {
			continue
		}

		p, ok := parents[row[4]]
		if !ok {
			t.Fatalf("nested row %v has cluster id with no parent", row)
		}
		start, end := coords(row)
		if start < p.start || end > p.end {
			t.Errorf("nested row %v not contained by its cluster parent [%d,%d]", row, p.start, p.end)
		}
	}
}

// irpermute classifies the introns of each gene into Parent/Nested/Orphan
// clusters by coordinate containment, then assesses each gene's
// transcript-level score by Monte Carlo permutation, writing one
// tab-separated result table per score column.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"gonum.org/v1/gonum/stat"

	"github.com/irtools/irperm/intronnest"
	"github.com/irtools/irperm/irtable"
	"github.com/irtools/irperm/permtest"
)

func main() {
	var (
		input      string
		scores     string
		nperms     int
		seed       int64
		outDir     string
		classified string
		hist       bool
	)

	flag.StringVar(&input, "input", "", "Tab-separated table with at least gene, Start, and End columns plus one or more numeric score columns.")
	flag.StringVar(&scores, "scores", "", "Comma-separated names of the score columns to permute (e.g., IRratio_lfc,IRratio_zscore).")
	flag.IntVar(&nperms, "nperms", 100000, "Number of random draws per gene when building each null distribution.")
	flag.Int64Var(&seed, "seed", 0, "Random seed. 0 leaves the permutation draws unseeded (non-reproducible).")
	flag.StringVar(&outDir, "out", ".", "Directory for the per-score result tables.")
	flag.StringVar(&classified, "classified", "", "Optional. If set, the classified intron table is also written to this path.")
	flag.BoolVar(&hist, "hist", false, "Print a terminal histogram of each score column before testing.")
	flag.Parse()

	if input == "" || scores == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(input)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()

	table, err := irtable.Read(f)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Read", len(table.Rows), "introns from", input)

	table, err = intronnest.Classify(table)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Classified table has", len(table.Rows), "rows")

	if classified != "" {
		if err := writeClassified(table, classified); err != nil {
			log.Fatalln(err)
		}
		log.Println("Wrote classified table to", classified)
	}

	tester := permtest.New(nperms, seed)

	for _, col := range strings.Split(scores, ",") {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}

		if err := runColumn(tester, table, col, outDir, hist); err != nil {
			log.Fatalln(err)
		}
	}
}

func runColumn(tester *permtest.Tester, table *irtable.Table, col, outDir string, hist bool) error {
	values, err := table.Floats(col)
	if err != nil {
		return err
	}

	mean, sd := stat.MeanStdDev(values, nil)
	log.Printf("Score column %s: n=%d mean=%.4f sd=%.4f\n", col, len(values), mean, sd)

	if hist {
		fmt.Println("Distribution of", col, ":")
		if err := histogram.Fprint(os.Stdout, histogram.Hist(25, values), histogram.Linear(40)); err != nil {
			return err
		}
	}

	results, err := tester.Run(table, col)
	if err != nil {
		return err
	}

	outPath := filepath.Join(outDir, permtest.ResultFileName(col))
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := permtest.WriteResults(out, col, results); err != nil {
		return err
	}
	log.Println("Wrote", len(results), "gene results to", outPath)

	return nil
}

func writeClassified(table *irtable.Table, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	return table.Write(out)
}

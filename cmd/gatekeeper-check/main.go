// Command gatekeeper-check classifies messages offline against the rule pack.
// Each argument, or each stdin line when there are none, yields one JSON decision
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gatekeeper/internal/core/classifier"
	"gatekeeper/internal/core/rulepack"
)

type result struct {
	Text     string `json:"text"`
	Matched  bool   `json:"matched"`
	Category string `json:"category,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Fragment string `json:"fragment,omitempty"`
}

func must(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

func main() {
	var (
		rules       = flag.String("rules", "", "rule pack overlay JSON")
		threshold   = flag.Float64("threshold", 0.8, "fuzzy similarity threshold")
		noFuzzy     = flag.Bool("no-fuzzy", false, "disable fuzzy term matching")
		noConfuse   = flag.Bool("no-confusables", false, "disable lookalike folding")
		failOnMatch = flag.Bool("fail", false, "exit 1 when any input matches")
	)
	flag.Parse()

	var overlays []rulepack.Source
	if *rules != "" {
		src, err := rulepack.ParseFile(*rules)
		must(err)
		overlays = append(overlays, src)
	}
	pack, err := rulepack.Load(overlays...)
	must(err)

	c := classifier.New(pack, classifier.Options{
		Fuzzy:          !*noFuzzy,
		FuzzyThreshold: *threshold,
		Confusables:    !*noConfuse,
	})

	var in io.Reader = os.Stdin
	if flag.NArg() > 0 {
		in = strings.NewReader(strings.Join(flag.Args(), "\n"))
	}
	n, err := run(c, in, os.Stdout)
	must(err)
	if *failOnMatch && n > 0 {
		os.Exit(1)
	}
}

// run writes one decision per input line and returns how many matched
func run(c *classifier.Classifier, in io.Reader, out io.Writer) (int, error) {
	enc := json.NewEncoder(out)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	matched := 0
	for sc.Scan() {
		line := sc.Text()
		d := c.Classify(classifier.Message{Text: line})
		if d.Matched {
			matched++
		}
		if err := enc.Encode(result{
			Text:     line,
			Matched:  d.Matched,
			Category: string(d.Category),
			Rule:     d.Rule,
			Fragment: d.Fragment,
		}); err != nil {
			return matched, err
		}
	}
	return matched, sc.Err()
}

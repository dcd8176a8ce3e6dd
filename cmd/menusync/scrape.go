package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"talabat-menusync/config"
	"talabat-menusync/output"
	"talabat-menusync/parser"
	"talabat-menusync/scraper"
)

var scrapeFlags struct {
	url          string
	format       string
	out          string
	pretty       bool
	timeoutSec   int
	retries      int
	backoffSec   float64
	debugHTML    string
	onlySections []string
	minPrice     float64
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape one restaurant menu to JSON or CSV",
	Example: `  menusync scrape --url "https://www.talabat.com/egypt/restaurant/771378/balbaa?aid=7137"
  menusync scrape --url "..." --format csv --out menu.csv
  menusync scrape --url "..." --only-sections "Picks for you" --min-price 50 --pretty`,
	RunE: runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	defaults := config.DefaultConfig()
	f.StringVar(&scrapeFlags.url, "url", "", "Restaurant URL (required)")
	f.StringVar(&scrapeFlags.format, "format", defaults.OutputFormat, "Output format: json or csv")
	f.StringVar(&scrapeFlags.out, "out", "", "Output file path (default derived from URL)")
	f.BoolVar(&scrapeFlags.pretty, "pretty", false, "Pretty JSON output")
	f.IntVar(&scrapeFlags.timeoutSec, "timeout", int(defaults.Timeout.Seconds()), "HTTP timeout per attempt (seconds)")
	f.IntVar(&scrapeFlags.retries, "retries", defaults.MaxRetries, "Number of retries (total attempts = retries + 1)")
	f.Float64Var(&scrapeFlags.backoffSec, "backoff", defaults.Backoff.Seconds(), "Backoff base seconds (exponential)")
	f.StringVar(&scrapeFlags.debugHTML, "debug-html", defaults.DebugHTMLPath, "Where to save HTML on blocked/parse failure")
	f.StringArrayVar(&scrapeFlags.onlySections, "only-sections", nil, "Keep only these section names (repeatable)")
	f.Float64Var(&scrapeFlags.minPrice, "min-price", 0, "Keep only items with price >= this value")
	_ = scrapeCmd.MarkFlagRequired("url")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := scrapeConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	url := scrapeFlags.url
	sink := &parser.DebugSink{Path: cfg.DebugHTMLPath}
	info := parser.ParseURLInfo(url)

	metrics := scraper.NewMetrics()
	fetcher := scraper.NewFetcher(scraper.FetchOptions{
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.Backoff,
		UserAgent:  cfg.UserAgent,
	}, metrics)

	html, err := fetcher.Fetch(cmd.Context(), url, sink)
	if err != nil {
		return err
	}

	next, err := parser.ExtractNextData(html)
	if err != nil {
		sink.Write(html)
		exitParseFailure(err, sink)
	}
	items, pageProps, err := parser.ParseItems(next, sink, html)
	if err != nil {
		exitParseFailure(err, sink)
	}

	var minPrice *float64
	if cmd.Flags().Changed("min-price") {
		minPrice = &scrapeFlags.minPrice
	}
	items = output.Filter(items, scrapeFlags.onlySections, minPrice)

	doc := output.BuildDocument(url, info, items, pageProps, time.Now())
	printScrapeSummary(doc)

	outPath := scrapeFlags.out
	if outPath == "" {
		outPath = output.DefaultOutfile(info, cfg.OutputFormat)
	}
	switch cfg.OutputFormat {
	case "json":
		err = output.WriteJSON(outPath, doc, scrapeFlags.pretty)
	case "csv":
		err = output.WriteCSV(outPath, items)
	}
	if err != nil {
		return err
	}

	if abs, aerr := filepath.Abs(outPath); aerr == nil {
		outPath = abs
	}
	fmt.Printf("\nWrote: %s\n", outPath)
	return nil
}

func scrapeConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Timeout = time.Duration(scrapeFlags.timeoutSec) * time.Second
	cfg.MaxRetries = scrapeFlags.retries
	cfg.Backoff = time.Duration(scrapeFlags.backoffSec * float64(time.Second))
	cfg.OutputFormat = scrapeFlags.format
	cfg.DebugHTMLPath = scrapeFlags.debugHTML
	return cfg
}

// exitParseFailure reports a parse/extraction failure and exits with the
// distinguishing code 2; the debug HTML has already been saved.
func exitParseFailure(err error, sink *parser.DebugSink) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if loc := sink.Location(); loc != "" {
		if abs, aerr := filepath.Abs(loc); aerr == nil {
			loc = abs
		}
		fmt.Fprintf(os.Stderr, "saved html to: %s\n", loc)
	}
	os.Exit(2)
}

func printScrapeSummary(doc output.Document) {
	fmt.Printf("Items: %d\n", doc.Counts.Items)
	if len(doc.Items) > 0 {
		first := doc.Items[0]
		fmt.Printf("Sample: %s | %g | section=%s\n", first.Name, first.Price, first.SectionName)
	}
	fmt.Println("\nSections:")
	for _, section := range doc.Sections {
		fmt.Printf("- %s: %d\n", section.Name, len(section.Items))
	}
}

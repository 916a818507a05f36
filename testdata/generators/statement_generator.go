package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// recurringItem is one periodic income or expense line planted in the
// generated statement.
type recurringItem struct {
	description string
	amount      float64
	credit      bool
	day         int
	jitter      float64 // max absolute drift per month, simulates fees
}

var plan = []recurringItem{
	{description: "ACME PTY SALARY", amount: 18500.00, credit: true, day: 25, jitter: 40},
	{description: "DEBIT ORDER SANTAM INSURANCE", amount: 950.00, credit: false, day: 1, jitter: 5},
	{description: "VODACOM AIRTIME D/O", amount: 499.00, credit: false, day: 3, jitter: 0},
	{description: "WESBANK VEHICLE INSTALMENT", amount: 3200.00, credit: false, day: 5, jitter: 12},
	{description: "CITY MUNICIPALITY ELECTRICITY", amount: 1100.00, credit: false, day: 7, jitter: 35},
}

var noise = []string{
	"CARD PURCHASE CHECKERS",
	"ATM WITHDRAWAL",
	"CARD PURCHASE ENGEN",
	"POS REFUND TAKEALOT",
}

func main() {
	var (
		months    = flag.Int("months", 3, "number of calendar months to cover")
		format    = flag.String("format", "text", "output format: text or csv")
		outputDir = flag.String("output-dir", "../generated", "output directory")
		seed      = flag.Int64("seed", 42, "random seed for reproducible output")
	)
	flag.Parse()

	if *months < 1 {
		log.Fatal("months must be at least 1")
	}

	rng := rand.New(rand.NewSource(*seed))
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	var b strings.Builder
	if *format == "csv" {
		b.WriteString("Transaction Date,Narration,Amount\n")
	}

	for m := 0; m < *months; m++ {
		for _, item := range plan {
			date := start.AddDate(0, m, item.day-1)
			amount := item.amount + (rng.Float64()*2-1)*item.jitter
			if !item.credit {
				amount = -amount
			}
			writeLine(&b, *format, date, item.description, amount)
		}

		// A few sub-threshold noise lines per month
		for n := 0; n < 3; n++ {
			date := start.AddDate(0, m, rng.Intn(27))
			amount := -(20 + rng.Float64()*180)
			writeLine(&b, *format, date, noise[rng.Intn(len(noise))], amount)
		}
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	name := fmt.Sprintf("statement_%dm.%s", *months, extension(*format))
	path := filepath.Join(*outputDir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		log.Fatalf("failed to write statement: %v", err)
	}

	fmt.Printf("Generated %s\n", path)
}

func writeLine(b *strings.Builder, format string, date time.Time, description string, amount float64) {
	if format == "csv" {
		fmt.Fprintf(b, "%s,%s,%.2f\n", date.Format("2006-01-02"), description, amount)
		return
	}
	fmt.Fprintf(b, "%s  %-36s %12.2f\n", date.Format("2006-01-02"), description, amount)
}

func extension(format string) string {
	if format == "csv" {
		return "csv"
	}
	return "txt"
}

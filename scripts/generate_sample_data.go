// Generates a sample <symbol>.csv price file for the CSV provider.
//
// Usage: go run scripts/generate_sample_data.go -symbol 510300 -out data
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

func main() {
	symbol := flag.String("symbol", "510300", "Symbol name for the output file")
	outDir := flag.String("out", "data", "Output directory")
	start := flag.String("start", "2020-01-01", "First trading day (YYYY-MM-DD)")
	end := flag.String("end", "2023-12-31", "Last trading day (YYYY-MM-DD)")
	base := flag.Float64("base", 4.0, "Starting price")
	seed := flag.Int64("seed", 42, "Random seed")
	flag.Parse()

	startDay, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("❌ Invalid -start: %v", err)
	}
	endDay, err := time.Parse("2006-01-02", *end)
	if err != nil {
		log.Fatalf("❌ Invalid -end: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("❌ Create output directory: %v", err)
	}
	path := filepath.Join(*outDir, *symbol+".csv")
	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("❌ Create %s: %v", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	if err := writer.Write([]string{"date", "close"}); err != nil {
		log.Fatalf("❌ Write header: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	price := *base
	rows := 0
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		// Random walk with a mild upward drift
		price *= 1 + 0.0002 + 0.012*rng.NormFloat64()
		price = math.Max(price, 0.01)
		if err := writer.Write([]string{d.Format("2006-01-02"), fmt.Sprintf("%.3f", price)}); err != nil {
			log.Fatalf("❌ Write row: %v", err)
		}
		rows++
	}

	log.Printf("✅ Wrote %d trading days to %s", rows, path)
}

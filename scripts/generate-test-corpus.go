//go:build ignore

// Generates a synthetic manual corpus for benchmarking and manual testing.
// Usage: go run scripts/generate-test-corpus.go -files 50 -output testdata/corpus
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numFiles  = flag.Int("files", 50, "Number of manuals to generate")
	numPages  = flag.Int("pages", 8, "Pages per manual")
	outputDir = flag.String("output", "testdata/corpus", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var brands = []string{
	"Gaggia", "Jura", "DeLonghi", "Breville", "Rancilio",
	"Rocket", "Lelit", "Sage", "Profitec", "Bezzera",
}

var models = []string{
	"Classic", "Evo", "E8", "Magnifica", "Barista", "Silvia",
	"Appartamento", "MaraX", "Bambino", "Pro700",
}

var sentences = []string{
	"Descale the boiler every %d weeks using the recommended descaling solution.",
	"The steam wand must be purged for %d seconds after frothing milk.",
	"Replace the water filter cartridge after %d liters of use.",
	"Set the grinder between %d and coarse for medium roasts.",
	"Allow the machine to heat for at least %d minutes before pulling a shot.",
	"Clean the group head gasket every %d days with a blind filter.",
	"The drip tray holds %d milliliters and should be emptied daily.",
	"Error code E%d indicates a blocked brew unit; rinse under warm water.",
	"Backflush with detergent no more than every %d weeks.",
	"The portafilter basket takes %d grams of ground coffee.",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *numFiles; i++ {
		brand := brands[rng.Intn(len(brands))]
		model := models[rng.Intn(len(models))]
		name := fmt.Sprintf("%s_%s_%02d.txt", brand, model, i)

		var pages []string
		for p := 0; p < *numPages; p++ {
			var b strings.Builder
			fmt.Fprintf(&b, "%s %s User Manual - Section %d\n\n", brand, model, p+1)
			for s := 0; s < 12; s++ {
				fmt.Fprintf(&b, sentences[rng.Intn(len(sentences))], rng.Intn(90)+1)
				b.WriteString(" ")
			}
			pages = append(pages, b.String())
		}

		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(strings.Join(pages, "\f")), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d manuals in %s\n", *numFiles, *outputDir)
}

package main

import (
	"os"

	"github.com/brandonbloom/spie"
	_ "github.com/mtibben/androiddnsfix"
)

// spies defaults to https:// for URLs without a scheme.
func main() {
	os.Exit(spie.Main(&spie.Options{DefaultScheme: "https"}))
}

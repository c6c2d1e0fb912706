package main

import (
	"os"

	"github.com/brandonbloom/spie"
	_ "github.com/mtibben/androiddnsfix"
)

func main() {
	os.Exit(spie.Main(&spie.Options{}))
}

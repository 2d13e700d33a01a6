package main

import (
	"fmt"
	"os"
	"time"

	"github.com/anoixa/photo-bed/cmd"
	"github.com/anoixa/photo-bed/config"
)

func init() {
	var cstZone = time.FixedZone("CST", 8*3600) // 东八
	time.Local = cstZone
}

func main() {
	fmt.Fprintf(os.Stderr, "photo bed %s (%s)\n", config.Version, config.CommitHash)
	cmd.Execute()
}

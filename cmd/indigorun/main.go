// indigorun analyzes Sanger CRISPR-editing chromatograms with the INDIGO web
// tool, falling back to local ICE when INDIGO fails.
//
// Usage:
//
//	indigorun run --input=<dir> --reference=<wt.ab1> --output=<dir> --guide=<seq> [--target=<seq>]
//	indigorun check --config=<run.yaml>
//	indigorun highlight -i <page.html> -o <out.html> --guide=<seq>
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// PrintHeader prints the application header
func PrintHeader(dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Printf("ledgerlink (%s mode)\n", mode)
}

// PrintSummary prints the run result summary
func PrintSummary(summary *RunSummary) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Files: imported=%d skipped=%d | Records: %d\n",
		summary.FilesImported,
		summary.FilesSkipped,
		summary.Records)

	color.Green("Matched pairs: %d", summary.MatchedPairs)
	fmt.Printf("Singletons:    %d\n", summary.Singletons)

	if len(summary.Reimported) > 0 {
		color.Yellow("Re-imported files: %s", strings.Join(summary.Reimported, ", "))
	}

	if len(summary.Ambiguities) > 0 {
		color.Yellow("\nAmbiguities (%d) need manual review:", len(summary.Ambiguities))
		for _, amb := range summary.Ambiguities {
			fmt.Printf("  - [%s] %s: %s\n", amb.Phase, amb.Reason, strings.Join(amb.RecordIDs, ", "))
		}
	}

	if len(summary.Rejected) > 0 {
		color.Red("\nRejected records (%d):", len(summary.Rejected))
		for _, rej := range summary.Rejected {
			fmt.Printf("  - %v\n", rej)
		}
	}

	if summary.DryRun {
		color.Cyan("\nDry run: no ledger output written.")
	} else {
		fmt.Printf("\nLedger written to %s\n", summary.OutputPath)
	}
}

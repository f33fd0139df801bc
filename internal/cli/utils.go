// Package cli provides output formatting for the command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/status"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTime)
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", i+1, result.Score)
		fmt.Fprintf(w, "File: %s/%s\n", result.Meta.Share, result.Meta.Path)
		fmt.Fprintf(w, "Size: %d bytes | Indexed: %s\n",
			result.Meta.SizeBytes, result.Meta.IndexedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintln(w)
	}
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}

// WriteStatus writes an ingestion status snapshot to w in the given format.
func WriteStatus(w io.Writer, artifact *status.Artifact, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(artifact)
	default:
		writeStatusText(w, artifact)
		return nil
	}
}

func writeStatusText(w io.Writer, artifact *status.Artifact) {
	if artifact.RunID != "" {
		fmt.Fprintf(w, "Run:         %s\n", artifact.RunID)
	}
	fmt.Fprintf(w, "Shares:      %d/%d scanned", artifact.SharesScanned, artifact.SharesFound)
	if artifact.CurrentShare != "" {
		fmt.Fprintf(w, " (scanning %s)", artifact.CurrentShare)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Directories: %d\n", artifact.DirectoriesScanned)
	fmt.Fprintf(w, "Files:       %d found, %d cached, %d processed, %d vectorized\n",
		artifact.FilesFound, artifact.FilesCached, artifact.FilesProcessed, artifact.FilesVectorized)
	if artifact.CurrentFile != "" {
		fmt.Fprintf(w, "Current:     %s\n", artifact.CurrentFile)
	}
	fmt.Fprintf(w, "Errors:      %d\n", artifact.Errors)
	fmt.Fprintf(w, "Elapsed:     %.1fs (%.2f files/s, %.1f%% complete)\n",
		artifact.ElapsedTime, artifact.FilesPerSecond, artifact.ProcessingProgress)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"printvault/internal/format"
	"printvault/internal/models"
)

// outputFormatter is nil for plain text output.
var outputFormatter format.Formatter

var stdout io.Writer = os.Stdout

// writeStructured renders payload with the selected formatter and reports
// whether it did. Callers fall back to plain text when it returns false.
func writeStructured(payload any) (bool, error) {
	if outputFormatter == nil {
		return false, nil
	}
	return true, outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

func writeSessionList(sessions []models.Session) error {
	for _, session := range sessions {
		line := fmt.Sprintf("%s [%s] %s", session.ID, session.Status, formatTime(session.InsertedAt))
		if session.PrintJobID != "" {
			line += " job=" + session.PrintJobID
		}
		if err := writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func writeSessionDetail(view models.SessionView) error {
	lines := []string{
		fmt.Sprintf("id: %s", view.ID),
		fmt.Sprintf("status: %s", view.Status),
		fmt.Sprintf("inserted_at: %s", formatTime(view.InsertedAt)),
	}
	if len(view.RawFileIDs) > 0 {
		lines = append(lines, fmt.Sprintf("raw_files: %s", strings.Join(view.RawFileIDs, ", ")))
	}
	if view.PrintJobInfo != nil {
		lines = append(lines, fmt.Sprintf("print_job: %s [%s]", view.PrintJobInfo.ID, view.PrintJobInfo.Status))
	}
	if view.PrinterInfo != nil {
		lines = append(lines, fmt.Sprintf("printer: %s (%s)", view.PrinterInfo.ID, view.PrinterInfo.PrinterID))
	}
	if view.ObjectInfo != nil {
		lines = append(lines, fmt.Sprintf("object: %s", view.ObjectInfo.ID))
	}
	if len(view.ImageCollectionsInfo) > 0 {
		lines = append(lines, "image_collections:")
		for _, collection := range view.ImageCollectionsInfo {
			lines = append(lines, fmt.Sprintf("  - %s %s (%d images)", collection.ID, collection.Name, len(collection.ImagesInfo)))
		}
	}
	if len(view.TimeseriesInfo) > 0 {
		names := make([]string, 0, len(view.TimeseriesInfo))
		for name := range view.TimeseriesInfo {
			names = append(names, name)
		}
		sort.Strings(names)
		lines = append(lines, "timeseries:")
		for _, name := range names {
			series := view.TimeseriesInfo[name]
			lines = append(lines, fmt.Sprintf("  - %s: %s (%d values)", name, series.ID, series.ArraySize))
		}
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

// writeMapping prints a dictionary mapping sorted by raw key.
func writeMapping(mapping map[string]string) error {
	keys := make([]string, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := writePlain("%s: %s\n", key, mapping[key]); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

package digest

import (
	"encoding/json"
	"fmt"
	"strings"
)

func renderJSON(report *Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding digest: %w", err)
	}
	return append(data, '\n'), nil
}

func renderMarkdown(report *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Paper Digest %s\n\n", report.Period)
	fmt.Fprintf(&b, "Generated %s. %d papers tracked, %d completed, %d failed, %d still in flight.\n\n",
		report.GeneratedAt.Format("2006-01-02 15:04 MST"),
		report.Total, len(report.Completed), len(report.Failed), report.Pending)

	if len(report.Completed) == 0 {
		b.WriteString("No completed papers this week.\n")
	} else {
		b.WriteString("## Completed\n\n")
		for _, entry := range report.Completed {
			title := entry.Title
			if title == "" {
				title = entry.Key
			}
			if entry.PageURL != "" {
				fmt.Fprintf(&b, "- [%s](%s)", title, entry.PageURL)
			} else {
				fmt.Fprintf(&b, "- %s", title)
			}
			if entry.ResultPath != "" {
				fmt.Fprintf(&b, " (video: `%s`)", entry.ResultPath)
			}
			b.WriteString("\n")
		}
	}

	if len(report.Failed) > 0 {
		b.WriteString("\n## Failed\n\n")
		b.WriteString("| Key | Failed at | Retries | Error |\n")
		b.WriteString("|-----|-----------|---------|-------|\n")
		for _, entry := range report.Failed {
			fmt.Fprintf(&b, "| %s | %s | %d | %s |\n",
				entry.Key, entry.Stage, entry.Retries, escapeTableCell(entry.Error))
		}
	}
	return b.String()
}

func escapeTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tilemart/tileadmin/internal/models"
	"github.com/tilemart/tileadmin/internal/notify"
	"github.com/tilemart/tileadmin/internal/picker"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	missingStyle = cellStyle.Foreground(lipgloss.Color("9"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	levelStyles = map[notify.Level]lipgloss.Style{
		notify.Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		notify.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		notify.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		notify.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
)

// consoleNotifier prints notifications as they arrive.
type consoleNotifier struct {
	w io.Writer
}

func (c consoleNotifier) Notify(level notify.Level, message string) {
	style, ok := levelStyles[level]
	if !ok {
		style = lipgloss.NewStyle()
	}
	fmt.Fprintln(c.w, style.Render(message))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderDrafts(w io.Writer, drafts []models.Draft) {
	if len(drafts) == 0 {
		fmt.Fprintln(w, "No drafts.")
		return
	}

	rows := make([][]string, 0, len(drafts))
	for i, d := range drafts {
		switch d := d.(type) {
		case models.ExtractedDraft:
			rows = append(rows, []string{
				fmt.Sprint(i), string(d.Source), d.Name, d.SuggestedName,
				d.DetectedColorName, d.Thickness, d.CollectionID, d.TempImagePath,
			})
		case models.ExistingDraft:
			rows = append(rows, []string{
				fmt.Sprint(i), "existing", d.Name, "",
				d.ColorID, d.Thickness, d.CollectionID, d.ImageURL,
			})
		}
	}

	t := newTable("#", "KIND", "NAME", "SUGGESTED", "COLOR", "THICKNESS", "COLLECTION", "IMAGE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 2 && strings.TrimSpace(rows[row][2]) == "":
				return missingStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t)
}

func renderCollections(w io.Writer, collections []models.Collection) {
	if len(collections) == 0 {
		fmt.Fprintln(w, "No other collections.")
		return
	}
	t := newTable("ID", "NAME", "SIZE", "MATERIAL", "FINISH")
	for _, c := range collections {
		t.Row(c.ID, c.Name, attrName(c.Size), attrName(c.Material), attrName(c.Finish))
	}
	fmt.Fprintln(w, t)
}

func attrName(a *models.Attribute) string {
	if a == nil {
		return ""
	}
	return a.Name
}

func renderRows(w io.Writer, rows []picker.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No tile designs.")
		return
	}
	t := newTable("ID", "NAME", "COLOR", "THICKNESS", "IMAGE")
	for _, r := range rows {
		t.Row(r.TileDesignID, r.Name, r.ColorID, r.Thickness, r.ImageURL)
	}
	fmt.Fprintln(w, t)
}

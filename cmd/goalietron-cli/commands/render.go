package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"goalietron/lib/campaign"
	"goalietron/lib/campaigncache"
	"goalietron/lib/goalstore"
	"goalietron/lib/patreon"
	"goalietron/lib/progress"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const progressBarWidth = 30

var printer = message.NewPrinter(language.English)

var headingStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#E4572E", Dark: "#F96854"})

// heading renders a section title, styling is dropped when stdout is not a terminal.
func heading(w io.Writer, title string) {
	fmt.Fprintln(w, headingStyle.Render("=== "+title+" ==="))
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func writeJSON(w io.Writer, v any) error {
	serialized, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(serialized))
	return err
}

// progressBar floors the filled width, a bar is only full at 100%.
func progressBar(percentage float64) string {
	filled := int(math.Floor(progressBarWidth * percentage / 100))
	filled = min(progressBarWidth, max(0, filled))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", progressBarWidth-filled) + "]"
}

// formatMoney groups thousands, only dollar amounts get a symbol.
func formatMoney(amount float64, currency string) string {
	if currency == "" || currency == "USD" {
		return printer.Sprintf("$%.2f USD", amount)
	}
	return printer.Sprintf("%.2f %s", amount, currency)
}

// formatNumber drops the decimals of whole numbers.
func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func formatTime(t time.Time) string {
	return t.Format(time.DateTime)
}

func campaignRows(record campaign.Record) []table.Row {
	var rows []table.Row
	if record.CampaignName != nil {
		rows = append(rows, table.Row{"Campaign", *record.CampaignName})
	}
	if record.PatronCount != nil {
		rows = append(rows, table.Row{"Total Patrons", *record.PatronCount})
	}
	if record.PaidMemberCount != nil {
		rows = append(rows, table.Row{"Paid Members", *record.PaidMemberCount})
	}
	if record.CreationCount != nil {
		rows = append(rows, table.Row{"Posts Created", *record.CreationCount})
	}
	if record.PledgeSum != nil {
		currency := ""
		if record.Currency != nil {
			currency = *record.Currency
		}
		rows = append(rows, table.Row{"Monthly Income", formatMoney(*record.PledgeSum, currency)})
	}
	return rows
}

type pageGoal struct {
	AmountCents *int   `json:"amount_cents"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func renderCampaign(w io.Writer, username string, record campaign.Record) {
	heading(w, "Public Campaign Data for @"+username)

	t := newTable(w)
	t.AppendRows(campaignRows(record))
	if record.IsMonthly != nil {
		billing := "Per Creation"
		if *record.IsMonthly {
			billing = "Monthly"
		}
		t.AppendRow(table.Row{"Billing Type", billing})
	}
	if record.EarningsVisibility != nil {
		t.AppendRow(table.Row{"Earnings Visibility", *record.EarningsVisibility})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Extracted At", formatTime(record.ExtractedAt)})
	t.AppendRow(table.Row{"Source", record.DataSource})
	t.Render()

	if len(record.Goals) == 0 {
		return
	}

	goals := newTable(w)
	goals.SetTitle("Goals")
	goals.AppendHeader(table.Row{"#", "Target", "Title", "Description"})
	for i, raw := range record.Goals {
		var goal pageGoal
		err := json.Unmarshal(raw, &goal)
		if err != nil {
			continue
		}
		target := ""
		if goal.AmountCents != nil {
			target = formatMoney(float64(*goal.AmountCents)/100, "")
		}
		goals.AppendRow(table.Row{i + 1, target, goal.Title, goal.Description})
	}
	goals.Render()
}

func sortedProgress(goals map[string]progress.GoalProgress) []progress.GoalProgress {
	out := make([]progress.GoalProgress, 0, len(goals))
	for _, goal := range goals {
		out = append(out, goal)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GoalId < out[j].GoalId
	})
	return out
}

func renderGoalProgress(w io.Writer, goals map[string]progress.GoalProgress) {
	t := newTable(w)
	t.SetTitle("Custom Goals Progress")
	t.AppendHeader(table.Row{"ID", "Title", "Type", "Progress", "", "Status"})
	for _, goal := range sortedProgress(goals) {
		status := "In Progress"
		if goal.Completed {
			status = "COMPLETED"
		}
		t.AppendRow(table.Row{
			goal.GoalId,
			goal.Title,
			goal.Type,
			fmt.Sprintf("%s / %s (%.2f%%)", formatNumber(goal.Current), formatNumber(goal.Target), goal.Percentage),
			progressBar(goal.Percentage),
			status,
		})
	}
	t.Render()
}

func renderCampaignWithGoals(w io.Writer, username string, data patreon.CampaignWithGoals) {
	heading(w, "Campaign Data with Custom Goals for @"+username)

	t := newTable(w)
	t.AppendRows(campaignRows(data.Record))
	t.AppendSeparator()
	t.AppendRow(table.Row{"Extracted At", formatTime(data.Record.ExtractedAt)})
	t.Render()

	if !data.HasCustomGoals {
		fmt.Fprintln(w, "No custom goals defined. Use 'goal add' to create goals.")
		return
	}
	renderGoalProgress(w, data.CustomGoals)
}

func renderGoalList(w io.Writer, goals map[string]goalstore.Goal) {
	if len(goals) == 0 {
		fmt.Fprintln(w, "No custom goals defined")
		return
	}

	ids := make([]string, 0, len(goals))
	for id := range goals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := newTable(w)
	t.SetTitle("Custom Goals")
	t.AppendHeader(table.Row{"ID", "Title", "Type", "Target", "Created"})
	for _, id := range ids {
		goal := goals[id]
		created := ""
		if !goal.CreatedAt.IsZero() {
			created = formatTime(goal.CreatedAt)
		}
		t.AppendRow(table.Row{goal.Id, goal.Title, goal.Type, formatNumber(goal.Target), created})
	}
	t.Render()
}

func renderCacheInfo(w io.Writer, infos []campaigncache.EntryInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "Cache is empty")
		return
	}

	t := newTable(w)
	t.SetTitle("Cache contents")
	t.AppendHeader(table.Row{"Key", "Stored", "Age", "Status"})
	for _, info := range infos {
		status := "valid"
		if info.Expired {
			status = "expired"
		}
		t.AppendRow(table.Row{
			info.Key,
			formatTime(info.Timestamp),
			fmt.Sprintf("%ds", int64(info.Age/time.Second)),
			status,
		})
	}
	t.Render()
}

// Package render turns a usage report into terminal output. Presentation
// only: all numbers arrive precomputed in the report model.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"slurm_usage/internal/usage"
)

type Options struct {
	NoColor bool
}

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	dim    lipgloss.Style
	warn   lipgloss.Style
	over   lipgloss.Style
	border lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{title: plain, header: plain, dim: plain, warn: plain, over: plain, border: plain}
	}
	return styles{
		title:  lipgloss.NewStyle().Bold(true),
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		over:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		border: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Text renders the full report: title line, account/partition table, total
// line, and any warnings the report carries.
func Text(r usage.Report, opts Options) string {
	st := newStyles(opts.NoColor)
	var b strings.Builder

	b.WriteString(st.title.Render(fmt.Sprintf("GPU usage report for %s, %s", r.GeneratedFor, r.Window)))
	b.WriteByte('\n')
	b.WriteString(st.dim.Render(fmt.Sprintf("source: %s, generated: %s",
		r.Source, r.GeneratedAt.Format(time.RFC3339))))
	b.WriteString("\n\n")

	if len(r.Accounts) == 0 {
		b.WriteString("no GPU usage found for the specified criteria\n")
	} else {
		b.WriteString(accountTable(r, st))
		b.WriteByte('\n')
		b.WriteString(st.title.Render(fmt.Sprintf("total: %s GPU-hours", Hours(r.Total()))))
		b.WriteByte('\n')
	}

	if r.Partial {
		b.WriteByte('\n')
		b.WriteString(st.warn.Render("warning: " + r.PartialDetail))
		b.WriteByte('\n')
	}
	if r.Current {
		b.WriteByte('\n')
		b.WriteString(st.warn.Render(
			"warning: the window includes today; very recent jobs may be missing due to accounting delays"))
		b.WriteByte('\n')
	}

	return b.String()
}

func accountTable(r usage.Report, st styles) string {
	showCost := false
	for _, acct := range r.Accounts {
		if acct.TotalCost > 0 {
			showCost = true
			break
		}
	}

	headers := []string{"Account", "Partition", "GPU Hours"}
	if showCost {
		headers = append(headers, "Cost")
	}
	headers = append(headers, "Usage / Quota")

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)

	for _, acct := range r.Accounts {
		quota := quotaCell(acct, st)
		if len(acct.Partitions) == 0 {
			tbl.Row(rowCells(showCost, acct.Account, "-", Hours(0), "", quota)...)
			continue
		}
		for i, part := range acct.Partitions {
			name, quotaCol := "", ""
			if i == 0 {
				name = acct.Account
				quotaCol = quota
			}
			cost := ""
			if part.Cost > 0 {
				cost = fmt.Sprintf("$%.2f", part.Cost)
			}
			tbl.Row(rowCells(showCost, name, part.Partition, Hours(part.GPUHours), cost, quotaCol)...)
		}
	}

	return tbl.Render() + "\n"
}

func rowCells(showCost bool, account, partition, hours, cost, quota string) []string {
	cells := []string{account, partition, hours}
	if showCost {
		cells = append(cells, cost)
	}
	return append(cells, quota)
}

func quotaCell(acct usage.AccountUsage, st styles) string {
	if acct.QuotaLimit == nil {
		return fmt.Sprintf("%s / n/a", Hours(acct.TotalGPUHours))
	}
	cell := fmt.Sprintf("%s / %s", Hours(acct.TotalGPUHours), Hours(*acct.QuotaLimit))
	if acct.TotalGPUHours > *acct.QuotaLimit {
		return st.over.Render(cell)
	}
	return cell
}

// Hours formats GPU-hours with two decimals, the precision quotas are
// tracked at.
func Hours(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/noah-isme/sma-exams-api/internal/grading"
	"github.com/noah-isme/sma-exams-api/internal/models"
	"github.com/noah-isme/sma-exams-api/pkg/export"
)

var (
	primaryColor = lipgloss.Color("205")
	mutedColor   = lipgloss.Color("241")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	subtitleStyle = lipgloss.NewStyle().Foreground(mutedColor)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	emptyStyle    = lipgloss.NewStyle().Italic(true).Foreground(mutedColor)
)

// renderDataset writes a dataset as a bordered table.
func renderDataset(w io.Writer, data export.Dataset) error {
	if _, err := fmt.Fprintln(w, titleStyle.Render(data.Title)); err != nil {
		return err
	}
	if data.Subtitle != "" {
		if _, err := fmt.Fprintln(w, subtitleStyle.Render(data.Subtitle)); err != nil {
			return err
		}
	}
	if len(data.Rows) == 0 {
		_, err := fmt.Fprintln(w, emptyStyle.Render("no students in cohort"))
		return err
	}

	rows := make([][]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		rows = append(rows, data.Record(row))
	}
	_, err := fmt.Fprintln(w, newTable(data.Headers, rows).Render())
	return err
}

// renderSummary writes the cohort headline, grade distribution and subject analysis.
func renderSummary(w io.Writer, summary *models.ExamSummary) error {
	heading := fmt.Sprintf("%s - Form %s", summary.ExamName, summary.FormID)
	if summary.StreamID != "" {
		heading += " - Stream " + summary.StreamID
	}
	if _, err := fmt.Fprintln(w, titleStyle.Render(heading)); err != nil {
		return err
	}
	line := fmt.Sprintf("students: %d  subjects: %d  mean score: %s",
		summary.Students, summary.Subjects, formatFloat(summary.MeanScore))
	if _, err := fmt.Fprintln(w, subtitleStyle.Render(line)); err != nil {
		return err
	}

	if summary.Distribution != nil && summary.Distribution.Total > 0 {
		rows := make([][]string, 0, len(summary.Distribution.Buckets))
		for _, bucket := range summary.Distribution.Buckets {
			rows = append(rows, []string{bucket.Grade, strconv.Itoa(bucket.Count)})
		}
		if _, err := fmt.Fprintln(w, newTable([]string{"Grade", "Students"}, rows).Render()); err != nil {
			return err
		}
	}

	if len(summary.SubjectAnalysis) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(summary.SubjectAnalysis))
	for _, subject := range summary.SubjectAnalysis {
		rows = append(rows, []string{
			subject.SubjectName,
			strconv.Itoa(subject.Entries),
			formatFloat(subject.MeanScore),
			formatFloat(subject.MeanPercentage),
			dashIfEmpty(subject.MeanGrade),
			formatDistribution(subject.GradeDistribution),
		})
	}
	headers := []string{"Subject", "Entries", "Mean", "Mean %", "Grade", "Distribution"}
	_, err := fmt.Fprintln(w, newTable(headers, rows).Render())
	return err
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func formatDistribution(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(counts))
	for _, grade := range grading.GradeOrder() {
		if _, ok := counts[grade]; ok {
			keys = append(keys, grade)
		}
	}
	if len(keys) != len(counts) {
		// competency levels, highest first
		keys = keys[:0]
		for key := range counts {
			keys = append(keys, key)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	}
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", key, counts[key]))
	}
	return strings.Join(parts, " ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func dashIfEmpty(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

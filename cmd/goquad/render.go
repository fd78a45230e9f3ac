package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/njchilds90/goquad"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle    = lipgloss.NewStyle().Width(20)
	valueStyle    = lipgloss.NewStyle().Width(22).Align(lipgloss.Right)
	timeStyle     = lipgloss.NewStyle().Width(14).Align(lipgloss.Right).Faint(true)
	samplesStyle  = lipgloss.NewStyle().Width(18).Align(lipgloss.Right)
	invalidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func renderReport(rep *goquad.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("∫ %s dx over [%g, %g], n = %d", rep.Formula, rep.A, rep.B, rep.N)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(headerStyle.Render("Method")),
		valueStyle.Render(headerStyle.Render("Value")),
		timeStyle.Render(headerStyle.Render("Time")),
		samplesStyle.Render(headerStyle.Render("Valid samples")),
	))
	b.WriteString("\n")

	for _, r := range rep.Results {
		value := fmt.Sprintf("%.12g", r.Value)
		switch {
		case !r.Valid:
			value = invalidStyle.Render("invalid")
		case r.Degraded():
			value = degradedStyle.Render(value + "*")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(r.Method.Title()),
			valueStyle.Render(value),
			timeStyle.Render(r.Elapsed.String()),
			samplesStyle.Render(fmt.Sprintf("%d/%d", r.ValidSamples, r.Samples)),
		))
		b.WriteString("\n")
	}

	for _, r := range rep.Results {
		if r.Degraded() {
			b.WriteString("\n")
			b.WriteString(degradedStyle.Render("* skipped points where the function is undefined"))
			b.WriteString("\n")
			break
		}
	}
	return b.String()
}

func renderPresets(ps []goquad.Preset) string {
	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(headerStyle.Render("Name")),
		headerStyle.Render("Formula"),
	))
	b.WriteString("\n")
	for _, p := range ps {
		b.WriteString(labelStyle.Render(p.Name))
		b.WriteString(p.Formula)
		b.WriteString("\n")
	}
	return b.String()
}

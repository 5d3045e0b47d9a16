package ui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	accent lipgloss.Style
	done   lipgloss.Style
	err    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		accent: lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		done:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

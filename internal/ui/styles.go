package ui

import "github.com/charmbracelet/lipgloss"

// ColorAccent is the shared accent color for tree and table rendering.
var ColorAccent = lipgloss.Color("6")

var (
	deleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	cmdStyle    = lipgloss.NewStyle().Bold(true)
)

// Delete styles an artifact-deletion notice (magenta on color terminals).
func Delete(s string) string {
	if !ShouldUseColor() {
		return s
	}
	return deleteStyle.Render(s)
}

// Cmd styles a command echo line.
func Cmd(s string) string {
	if !ShouldUseColor() {
		return s
	}
	return cmdStyle.Render(s)
}

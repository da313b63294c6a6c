package cli

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Gold    = lipgloss.Color("#E5A00D")
	DimGray = lipgloss.Color("#6B7280")
	White   = lipgloss.Color("#F9FAFB")
	Green   = lipgloss.Color("#10B981")
	Red     = lipgloss.Color("#EF4444")
	SkyBlue = lipgloss.Color("#3B82F6")
)

// styles are bound to the renderer of the writer they print to, so output
// that is not a terminal stays free of escape codes.
type styles struct {
	banner  lipgloss.Style
	menu    lipgloss.Style
	prompt  lipgloss.Style
	dim     lipgloss.Style
	err     lipgloss.Style
	success lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		banner: r.NewStyle().
			Foreground(Gold).
			Bold(true),
		menu: r.NewStyle().
			Foreground(White),
		prompt: r.NewStyle().
			Foreground(SkyBlue),
		dim: r.NewStyle().
			Foreground(DimGray),
		err: r.NewStyle().
			Foreground(Red),
		success: r.NewStyle().
			Foreground(Green),
	}
}

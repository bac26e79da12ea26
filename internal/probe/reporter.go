package probe

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"

	"gateprobe/internal/logger"
	perrors "gateprobe/pkg/errors"
)

// Reporter prints the timestamped status lines of a probe and its final tally.
type Reporter struct {
	out    io.Writer
	status zerolog.Logger

	titleStyle lipgloss.Style
	goodStyle  lipgloss.Style
	warnStyle  lipgloss.Style
	badStyle   lipgloss.Style
}

// NewReporter creates a Reporter writing to out. Colors are used only when
// opts.Color is set and out is a terminal.
func NewReporter(out io.Writer, opts logger.StatusOptions) *Reporter {
	renderer := lipgloss.NewRenderer(out)
	if !opts.Color {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return &Reporter{
		out:        out,
		status:     logger.NewStatus(out, opts),
		titleStyle: renderer.NewStyle().Bold(true),
		goodStyle:  renderer.NewStyle().Foreground(lipgloss.Color("#04B575")),
		warnStyle:  renderer.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		badStyle:   renderer.NewStyle().Foreground(lipgloss.Color("#FF4672")),
	}
}

// Status prints one timestamped line.
func (r *Reporter) Status(format string, args ...interface{}) {
	r.status.Info().Msgf(format, args...)
}

// Banner separates iterations of a repeated probe.
func (r *Reporter) Banner(current, total int) {
	fmt.Fprintf(r.out, "\n=== Test %d/%d ===\n", current, total)
}

// Failure reports why an iteration failed.
func (r *Reporter) Failure(err error) {
	switch {
	case perrors.Is(err, perrors.ErrConnectTimeout):
		r.Status("Connection timed out")
	case perrors.Is(err, perrors.ErrConnectionRefused):
		r.Status("Connection refused")
	default:
		r.Status("Connection error: %v", err)
	}
}

// Summary prints the aggregate tally.
func (r *Reporter) Summary(s *Summary) {
	rateStyle := r.goodStyle
	switch {
	case s.Succeeded == 0:
		rateStyle = r.badStyle
	case s.Succeeded < s.Attempts:
		rateStyle = r.warnStyle
	}

	fmt.Fprintf(r.out, "\n%s\n", r.titleStyle.Render("=== Results ==="))
	fmt.Fprintf(r.out, "Succeeded: %s\n", rateStyle.Render(fmt.Sprintf("%d/%d", s.Succeeded, s.Attempts)))
	fmt.Fprintf(r.out, "Success rate: %s\n", rateStyle.Render(fmt.Sprintf("%.1f%%", s.Rate())))
	if s.RunID != "" {
		fmt.Fprintf(r.out, "Recorded as run %s\n", s.RunID)
	}
}

package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/tqwind/windalert/internal/store"
	"github.com/tqwind/windalert/internal/units"
	"github.com/tqwind/windalert/internal/weather"
)

//go:embed templates
var viewsFS embed.FS

var dashboardTmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"knots": func(ms float64) string {
		return fmt.Sprintf("%.1f", units.ToKnots(ms))
	},
}).ParseFS(viewsFS, "templates/*.html"))

// DashboardData is the view model for the main page: the trailing 24 h of
// readings, the latest stats snapshot and the recent alert log. Nil/empty
// fields render as "data unavailable" rather than stale-looking defaults.
type DashboardData struct {
	Latest   *weather.Reading
	Readings []weather.Reading
	Stats    *store.StatsSnapshot
	Alerts   []store.AlertEntry
}

// RenderDashboard executes the dashboard template into w.
func RenderDashboard(w io.Writer, data *DashboardData) error {
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

package server

import (
	"fmt"
	"net/http"

	"github.com/dan/aero/internal/dashboard"
	"github.com/dan/aero/internal/models"
)

// ── Template data ───────────────────────────────────────────────────────

type readingsData struct {
	Nav    string
	Email  string
	View   dashboard.View
	Rows   []readingRow
	Ranges []models.TimeRange
}

// readingRow is one table row, with display formatting applied: numbers
// rounded to two decimals and the proof badge resolved to a link or
// "Pending".
type readingRow struct {
	ID          int
	Time        string
	CO2         string
	Temperature string
	Verified    bool
	ExplorerURL string
}

// handleReadings renders the paginated table view.
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	us := s.currentSession(r)
	if us == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	s.render.render(w, "readings.html", readingsStateData(us, us.ctrl.Snapshot()))
}

// readingsStateData builds the table view's template data from a controller
// snapshot. Shared by the full page render and the polled fragment.
func readingsStateData(us *userSession, view dashboard.View) readingsData {
	rows := make([]readingRow, 0, len(view.PageReadings))
	for _, rd := range view.PageReadings {
		row := readingRow{
			ID:          rd.ID,
			Time:        rd.Timestamp.Format("02 Jan 2006 15:04:05"),
			CO2:         fmt.Sprintf("%.2f", rd.CO2),
			Temperature: fmt.Sprintf("%.2f", rd.Temperature),
			Verified:    rd.Verified(),
		}
		if row.Verified {
			row.ExplorerURL = us.backend.ExplorerURL(rd.TxSignature)
		}
		rows = append(rows, row)
	}

	return readingsData{
		Nav:    "readings",
		Email:  us.email,
		View:   view,
		Rows:   rows,
		Ranges: models.TimeRanges(),
	}
}

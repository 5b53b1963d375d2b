// Package dashboard implements the fetch/selection/pagination state machine
// behind the chart and table views. One Controller serves one logged-in
// browser; handlers mutate it through user actions and render from
// Snapshot().
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dan/aero/internal/airapi"
	"github.com/dan/aero/internal/metrics"
	"github.com/dan/aero/internal/models"
	"github.com/dan/aero/internal/session"
)

// Phase is the lifecycle state of a loader.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseNoSensors // terminal: the account owns no sensors
	PhaseError
)

// String returns the phase name used in templates and logs.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseNoSensors:
		return "no-sensors"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Fetcher is the slice of the API client the controller needs. The airapi
// client satisfies it; tests substitute a scriptable fake.
type Fetcher interface {
	Sensors(ctx context.Context, token string) ([]models.Sensor, error)
	Readings(ctx context.Context, token string, sensorID int, rng models.TimeRange) ([]models.Reading, error)
}

const defaultFetchTimeout = 30 * time.Second

// Controller runs the sensor-directory and readings loaders for one session.
//
// Responses are applied in request-issue order per loader: every outstanding
// request carries the generation current at issue time, and a completion
// whose generation is no longer the latest is discarded without touching
// state. Logout bumps both generations, abandoning in-flight effects.
type Controller struct {
	mu           sync.Mutex
	api          Fetcher
	sess         *session.Session
	fetchTimeout time.Duration

	sensors     []models.Sensor
	sensorPhase Phase
	sensorError string

	readings      []models.Reading
	readingsPhase Phase
	readingsError string

	selectedSensorID int // 0 = no selection
	timeRange        models.TimeRange
	page             int
	showCO2          bool
	showTemperature  bool

	sensorGen   uint64
	readingsGen uint64
	seq         int64 // bumped on every visible change, for fragment polling
}

// New wires a controller to a session. The caller starts the pipeline with
// LoadSensors once the session holds a token.
func New(api Fetcher, sess *session.Session) *Controller {
	c := &Controller{
		api:             api,
		sess:            sess,
		fetchTimeout:    defaultFetchTimeout,
		sensorPhase:     PhaseIdle,
		readingsPhase:   PhaseIdle,
		timeRange:       models.DefaultRange,
		page:            1,
		showCO2:         true,
		showTemperature: true,
	}
	sess.OnInvalidate(c.abandon)
	return c
}

// LoadSensors starts (or restarts) the sensor-directory fetch. Each call is
// a single attempt: loading is exited exactly once and nothing retries
// automatically.
func (c *Controller) LoadSensors() {
	c.mu.Lock()
	if !c.sess.IsAuthenticated() {
		c.mu.Unlock()
		return
	}
	token := c.sess.Token()
	c.sensorGen++
	gen := c.sensorGen
	c.sensorPhase = PhaseLoading
	c.sensorError = ""
	c.seq++
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		defer cancel()
		sensors, err := c.api.Sensors(ctx, token)
		c.applySensors(gen, sensors, err)
	}()
}

func (c *Controller) applySensors(gen uint64, sensors []models.Sensor, err error) {
	c.mu.Lock()
	if gen != c.sensorGen {
		c.mu.Unlock()
		metrics.IncStaleDiscard("sensors")
		return
	}

	if err != nil {
		c.sensorPhase = PhaseError
		c.sensorError = errMessage(err)
		c.seq++
		c.mu.Unlock()
		if sessionExpired(err) {
			c.sess.ScheduleLogout()
		}
		return
	}

	c.sensors = sensors
	c.page = 1
	if len(sensors) == 0 {
		c.sensorPhase = PhaseNoSensors
		c.selectedSensorID = 0
		c.readings = nil
		c.readingsPhase = PhaseIdle
		c.readingsError = ""
		c.seq++
		c.mu.Unlock()
		return
	}

	c.sensorPhase = PhaseReady
	c.selectedSensorID = sensors[0].ID
	c.seq++
	c.issueReadingsLocked()
	c.mu.Unlock()
}

// SelectSensor switches the active sensor, resets the table to page 1, and
// issues a readings fetch. The id must be a member of the current sensor
// collection.
func (c *Controller) SelectSensor(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	for _, s := range c.sensors {
		if s.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown sensor id %d", id)
	}

	c.selectedSensorID = id
	c.page = 1
	c.issueReadingsLocked()
	return nil
}

// SetTimeRange switches the readings window and refetches.
func (c *Controller) SetTimeRange(rng models.TimeRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeRange = rng
	c.issueReadingsLocked()
}

// Refresh is the manual retry control: it re-runs whichever loader is not in
// a good state, or refetches readings when everything is healthy.
func (c *Controller) Refresh() {
	c.mu.Lock()
	sensorsHealthy := c.sensorPhase == PhaseReady
	c.mu.Unlock()

	if !sensorsHealthy {
		c.LoadSensors()
		return
	}

	c.mu.Lock()
	c.issueReadingsLocked()
	c.mu.Unlock()
}

// issueReadingsLocked starts a readings fetch for the current selection.
// Caller holds c.mu; the fetch itself runs in a goroutine.
func (c *Controller) issueReadingsLocked() {
	if !c.sess.IsAuthenticated() || c.selectedSensorID == 0 {
		return
	}
	token := c.sess.Token()
	sensorID := c.selectedSensorID
	rng := c.timeRange
	c.readingsGen++
	gen := c.readingsGen
	c.readingsPhase = PhaseLoading
	c.readingsError = ""
	c.seq++

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		defer cancel()
		readings, err := c.api.Readings(ctx, token, sensorID, rng)
		c.applyReadings(gen, readings, err)
	}()
}

func (c *Controller) applyReadings(gen uint64, readings []models.Reading, err error) {
	c.mu.Lock()
	if gen != c.readingsGen {
		c.mu.Unlock()
		metrics.IncStaleDiscard("readings")
		return
	}

	if err != nil {
		c.readingsPhase = PhaseError
		c.readingsError = errMessage(err)
		c.seq++
		c.mu.Unlock()
		if sessionExpired(err) {
			c.sess.ScheduleLogout()
		}
		return
	}

	c.readings = readings
	c.readingsPhase = PhaseReady
	c.page = clampPage(c.page, TotalPages(len(readings)))
	c.seq++
	c.mu.Unlock()
}

// NextPage advances the table one page; a no-op on the last page.
func (c *Controller) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPageLocked(c.page + 1)
}

// PrevPage goes back one page; a no-op on page 1.
func (c *Controller) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPageLocked(c.page - 1)
}

// GoToPage jumps straight to page n. Out-of-range pages are rejected rather
// than trusted, since the number arrives from the browser.
func (c *Controller) GoToPage(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 || n > TotalPages(len(c.readings)) {
		return fmt.Errorf("page %d out of range [1, %d]", n, TotalPages(len(c.readings)))
	}
	c.page = n
	c.seq++
	return nil
}

func (c *Controller) setPageLocked(n int) {
	clamped := clampPage(n, TotalPages(len(c.readings)))
	if clamped != c.page {
		c.page = clamped
		c.seq++
	}
}

// SetToggles controls which series the chart view draws.
func (c *Controller) SetToggles(co2, temperature bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showCO2 = co2
	c.showTemperature = temperature
	c.seq++
}

// abandon runs on session invalidation: bump both generations so in-flight
// completions are discarded instead of mutating a dead view.
func (c *Controller) abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sensorGen++
	c.readingsGen++
	c.seq++
}

// Seq returns the change counter, so polling handlers can answer 204 when
// nothing moved.
func (c *Controller) Seq() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// View is an immutable render snapshot of the controller. Slices are shared,
// not copied: reading collections are replaced wholesale and never mutated.
type View struct {
	SensorPhase Phase
	SensorError string
	Sensors     []models.Sensor

	SelectedSensorID int
	TimeRange        models.TimeRange

	ReadingsPhase Phase
	ReadingsError string
	Readings      []models.Reading // full set, server order
	PageReadings  []models.Reading // current page slice
	Page          int
	TotalPages    int
	PageStrip     []PageItem

	Stats       Stats
	ChartPoints []ChartPoint

	ShowCO2         bool
	ShowTemperature bool
	LogoutPending   bool
	Seq             int64
}

// SelectedSensor returns the selected sensor, or nil when none is selected.
func (v View) SelectedSensor() *models.Sensor {
	for i := range v.Sensors {
		if v.Sensors[i].ID == v.SelectedSensorID {
			return &v.Sensors[i]
		}
	}
	return nil
}

// Snapshot derives everything the presentation layer needs in one locked
// pass: phases, the page window, summary stats, and chart tuples.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := TotalPages(len(c.readings))
	start, end := PageBounds(c.page, len(c.readings))

	return View{
		SensorPhase:      c.sensorPhase,
		SensorError:      c.sensorError,
		Sensors:          c.sensors,
		SelectedSensorID: c.selectedSensorID,
		TimeRange:        c.timeRange,
		ReadingsPhase:    c.readingsPhase,
		ReadingsError:    c.readingsError,
		Readings:         c.readings,
		PageReadings:     c.readings[start:end],
		Page:             clampPage(c.page, total),
		TotalPages:       total,
		PageStrip:        PageStrip(c.page, total),
		Stats:            ComputeStats(c.readings),
		ChartPoints:      ChartPoints(c.readings),
		ShowCO2:          c.showCO2,
		ShowTemperature:  c.showTemperature,
		LogoutPending:    c.sess.LogoutPending(),
		Seq:              c.seq,
	}
}

// errMessage extracts the user-displayable text from a loader failure.
func errMessage(err error) string {
	var apiErr *airapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// sessionExpired reports whether the failure was a 401.
func sessionExpired(err error) bool {
	var apiErr *airapi.Error
	return errors.As(err, &apiErr) && apiErr.Kind == airapi.KindSessionExpired
}

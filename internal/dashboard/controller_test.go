package dashboard

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dan/aero/internal/airapi"
	"github.com/dan/aero/internal/models"
	"github.com/dan/aero/internal/session"
)

// ── Scriptable fetcher ──────────────────────────────────────────────────

// fakeAPI parks every request on a channel so tests decide when, and in
// what order, responses arrive.
type fakeAPI struct {
	sensorsCalls  chan *sensorsCall
	readingsCalls chan *readingsCall
}

type sensorsCall struct {
	token string
	reply chan sensorsReply
}

type sensorsReply struct {
	sensors []models.Sensor
	err     error
}

type readingsCall struct {
	token    string
	sensorID int
	rng      models.TimeRange
	reply    chan readingsReply
}

type readingsReply struct {
	readings []models.Reading
	err      error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		sensorsCalls:  make(chan *sensorsCall, 16),
		readingsCalls: make(chan *readingsCall, 16),
	}
}

func (f *fakeAPI) Sensors(ctx context.Context, token string) ([]models.Sensor, error) {
	c := &sensorsCall{token: token, reply: make(chan sensorsReply, 1)}
	f.sensorsCalls <- c
	r := <-c.reply
	return r.sensors, r.err
}

func (f *fakeAPI) Readings(ctx context.Context, token string, sensorID int, rng models.TimeRange) ([]models.Reading, error) {
	c := &readingsCall{token: token, sensorID: sensorID, rng: rng, reply: make(chan readingsReply, 1)}
	f.readingsCalls <- c
	r := <-c.reply
	return r.readings, r.err
}

func (f *fakeAPI) nextSensorsCall(t *testing.T) *sensorsCall {
	t.Helper()
	select {
	case c := <-f.sensorsCalls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a sensors request")
		return nil
	}
}

func (f *fakeAPI) nextReadingsCall(t *testing.T) *readingsCall {
	t.Helper()
	select {
	case c := <-f.readingsCalls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a readings request")
		return nil
	}
}

func (f *fakeAPI) expectNoSensorsCall(t *testing.T) {
	t.Helper()
	select {
	case <-f.sensorsCalls:
		t.Fatal("unexpected sensors request")
	case <-time.After(50 * time.Millisecond):
	}
}

func (f *fakeAPI) expectNoReadingsCall(t *testing.T) {
	t.Helper()
	select {
	case <-f.readingsCalls:
		t.Fatal("unexpected readings request")
	case <-time.After(50 * time.Millisecond):
	}
}

// ── Helpers ─────────────────────────────────────────────────────────────

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

func loggedInController(t *testing.T) (*Controller, *fakeAPI, *session.Session) {
	t.Helper()
	api := newFakeAPI()
	sess := session.New(10 * time.Millisecond)
	sess.Login("tok-1")
	return New(api, sess), api, sess
}

func twoSensors() []models.Sensor {
	return []models.Sensor{
		{ID: 7, Name: "Rooftop", Location: "Milan"},
		{ID: 9, Name: "Basement", Location: "Turin"},
	}
}

func genReadings(n int) []models.Reading {
	base := time.Date(2026, time.March, 5, 8, 0, 0, 0, time.UTC)
	readings := make([]models.Reading, 0, n)
	for i := 0; i < n; i++ {
		readings = append(readings, models.Reading{
			ID:          i + 1,
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
			CO2:         400 + float64(i),
			Temperature: 20 + float64(i)/10,
		})
	}
	return readings
}

func expiredErr() error {
	return &airapi.Error{Kind: airapi.KindSessionExpired, Status: 401, Message: airapi.MsgSessionExpired}
}

// ── Sensor loading ──────────────────────────────────────────────────────

func TestLoadSensorsSelectsFirstAndFetchesReadings(t *testing.T) {
	c, api, _ := loggedInController(t)

	c.LoadSensors()
	if got := c.Snapshot().SensorPhase; got != PhaseLoading {
		t.Fatalf("phase while in flight = %v, want loading", got)
	}

	sc := api.nextSensorsCall(t)
	if sc.token != "tok-1" {
		t.Errorf("sensors fetch used token %q, want tok-1", sc.token)
	}
	sc.reply <- sensorsReply{sensors: twoSensors()}

	rc := api.nextReadingsCall(t)
	if rc.sensorID != 7 {
		t.Errorf("readings issued for sensor %d, want the first sensor (7)", rc.sensorID)
	}
	if rc.rng != models.DefaultRange {
		t.Errorf("readings issued with range %q, want default %q", rc.rng, models.DefaultRange)
	}
	rc.reply <- readingsReply{readings: genReadings(5)}

	waitFor(t, "readings ready", func() bool {
		return c.Snapshot().ReadingsPhase == PhaseReady
	})

	view := c.Snapshot()
	if view.SensorPhase != PhaseReady {
		t.Errorf("sensor phase = %v, want ready", view.SensorPhase)
	}
	if view.SelectedSensorID != 7 {
		t.Errorf("selected sensor = %d, want 7", view.SelectedSensorID)
	}
	if len(view.Readings) != 5 || view.Page != 1 {
		t.Errorf("readings/page = %d/%d, want 5/1", len(view.Readings), view.Page)
	}
	if sel := view.SelectedSensor(); sel == nil || sel.Name != "Rooftop" {
		t.Errorf("SelectedSensor() = %+v, want Rooftop", sel)
	}
}

func TestLoadSensorsEmptyAccount(t *testing.T) {
	c, api, _ := loggedInController(t)

	c.LoadSensors()
	api.nextSensorsCall(t).reply <- sensorsReply{sensors: []models.Sensor{}}

	waitFor(t, "no-sensors phase", func() bool {
		return c.Snapshot().SensorPhase == PhaseNoSensors
	})

	view := c.Snapshot()
	if view.SelectedSensorID != 0 {
		t.Errorf("selected sensor = %d, want none", view.SelectedSensorID)
	}
	if view.ReadingsPhase != PhaseIdle || len(view.Readings) != 0 {
		t.Errorf("readings state = %v/%d, want idle/empty", view.ReadingsPhase, len(view.Readings))
	}
	api.expectNoReadingsCall(t)
}

func TestLoadSensorsWhenLoggedOut(t *testing.T) {
	api := newFakeAPI()
	sess := session.New(10 * time.Millisecond)
	c := New(api, sess)

	c.LoadSensors()
	api.expectNoSensorsCall(t)
	if got := c.Snapshot().SensorPhase; got != PhaseIdle {
		t.Errorf("phase = %v, want idle", got)
	}
}

// ── Stale responses ─────────────────────────────────────────────────────

func TestStaleSensorResponseDiscarded(t *testing.T) {
	c, api, _ := loggedInController(t)

	c.LoadSensors()
	first := api.nextSensorsCall(t)
	c.LoadSensors()
	second := api.nextSensorsCall(t)

	// Later request completes first and wins.
	second.reply <- sensorsReply{sensors: twoSensors()}
	waitFor(t, "second response applied", func() bool {
		return c.Snapshot().SensorPhase == PhaseReady
	})
	api.nextReadingsCall(t).reply <- readingsReply{readings: genReadings(3)}

	// The slow first response must not overwrite the newer state.
	first.reply <- sensorsReply{sensors: []models.Sensor{{ID: 99, Name: "Stale"}}}
	time.Sleep(50 * time.Millisecond)

	view := c.Snapshot()
	if len(view.Sensors) != 2 || view.Sensors[0].ID != 7 {
		t.Fatalf("stale response overwrote state: %+v", view.Sensors)
	}
	if view.SelectedSensorID != 7 {
		t.Errorf("selected sensor = %d, want 7", view.SelectedSensorID)
	}
}

func TestStaleReadingsResponseDiscarded(t *testing.T) {
	c, api, _ := loggedInController(t)

	c.LoadSensors()
	api.nextSensorsCall(t).reply <- sensorsReply{sensors: twoSensors()}
	slow := api.nextReadingsCall(t)

	// User switches sensor before the first readings fetch lands.
	waitFor(t, "sensors ready", func() bool {
		return c.Snapshot().SensorPhase == PhaseReady
	})
	if err := c.SelectSensor(9); err != nil {
		t.Fatalf("SelectSensor: %v", err)
	}
	fast := api.nextReadingsCall(t)
	if fast.sensorID != 9 {
		t.Fatalf("second fetch for sensor %d, want 9", fast.sensorID)
	}

	fast.reply <- readingsReply{readings: genReadings(4)}
	waitFor(t, "readings ready", func() bool {
		return c.Snapshot().ReadingsPhase == PhaseReady
	})

	slow.reply <- readingsReply{readings: genReadings(25)}
	time.Sleep(50 * time.Millisecond)

	view := c.Snapshot()
	if len(view.Readings) != 4 {
		t.Fatalf("stale readings applied: got %d rows, want 4", len(view.Readings))
	}
	if view.SelectedSensorID != 9 {
		t.Errorf("selected sensor = %d, want 9", view.SelectedSensorID)
	}
}

// ── Failures ────────────────────────────────────────────────────────────

func TestSessionExpiryForcesLogout(t *testing.T) {
	c, api, sess := loggedInController(t)

	var invalidated atomic.Int32
	sess.OnInvalidate(func() { invalidated.Add(1) })

	c.LoadSensors()
	api.nextSensorsCall(t).reply <- sensorsReply{err: expiredErr()}

	waitFor(t, "error phase", func() bool {
		return c.Snapshot().SensorPhase == PhaseError
	})
	view := c.Snapshot()
	if view.SensorError != airapi.MsgSessionExpired {
		t.Errorf("error message = %q, want %q", view.SensorError, airapi.MsgSessionExpired)
	}
	if !view.LogoutPending {
		t.Error("expected a pending forced logout")
	}

	waitFor(t, "forced logout", func() bool {
		return !sess.IsAuthenticated()
	})
	time.Sleep(20 * time.Millisecond)
	if got := invalidated.Load(); got != 1 {
		t.Errorf("invalidation callbacks ran %d times, want 1", got)
	}
}

func TestServerErrorKeepsSession(t *testing.T) {
	c, api, sess := loggedInController(t)

	c.LoadSensors()
	api.nextSensorsCall(t).reply <- sensorsReply{
		err: &airapi.Error{Kind: airapi.KindServer, Status: 500, Message: airapi.MsgServerError},
	}

	waitFor(t, "error phase", func() bool {
		return c.Snapshot().SensorPhase == PhaseError
	})
	view := c.Snapshot()
	if view.SensorError != airapi.MsgServerError {
		t.Errorf("error message = %q, want %q", view.SensorError, airapi.MsgServerError)
	}
	if view.LogoutPending {
		t.Error("a 500 must not schedule a logout")
	}

	time.Sleep(50 * time.Millisecond)
	if !sess.IsAuthenticated() {
		t.Error("session was dropped on a non-auth failure")
	}
}

func TestTransportErrorMessagePassesThrough(t *testing.T) {
	c, api, _ := loggedInController(t)

	c.LoadSensors()
	api.nextSensorsCall(t).reply <- sensorsReply{err: fmt.Errorf("dial tcp: connection refused")}

	waitFor(t, "error phase", func() bool {
		return c.Snapshot().SensorPhase == PhaseError
	})
	if got := c.Snapshot().SensorError; got != "dial tcp: connection refused" {
		t.Errorf("error message = %q", got)
	}
}

// ── Selection, range, pagination ────────────────────────────────────────

// readyController loads two sensors and n readings, then drains the fake.
func readyController(t *testing.T, n int) (*Controller, *fakeAPI) {
	t.Helper()
	c, api, _ := loggedInController(t)
	c.LoadSensors()
	api.nextSensorsCall(t).reply <- sensorsReply{sensors: twoSensors()}
	api.nextReadingsCall(t).reply <- readingsReply{readings: genReadings(n)}
	waitFor(t, "readings ready", func() bool {
		return c.Snapshot().ReadingsPhase == PhaseReady
	})
	return c, api
}

func TestSelectSensorUnknownID(t *testing.T) {
	c, api := readyController(t, 5)

	if err := c.SelectSensor(404); err == nil {
		t.Fatal("expected an error for an unknown sensor id")
	}
	api.expectNoReadingsCall(t)
	if got := c.Snapshot().SelectedSensorID; got != 7 {
		t.Errorf("selection changed to %d after a rejected id", got)
	}
}

func TestSelectSensorResetsPage(t *testing.T) {
	c, api := readyController(t, 25)

	if err := c.GoToPage(3); err != nil {
		t.Fatalf("GoToPage: %v", err)
	}
	if err := c.SelectSensor(9); err != nil {
		t.Fatalf("SelectSensor: %v", err)
	}
	if got := c.Snapshot().Page; got != 1 {
		t.Errorf("page = %d after sensor switch, want 1", got)
	}

	api.nextReadingsCall(t).reply <- readingsReply{readings: genReadings(12)}
	waitFor(t, "new readings applied", func() bool {
		return len(c.Snapshot().Readings) == 12
	})
	if got := c.Snapshot().Page; got != 1 {
		t.Errorf("page = %d after new readings, want 1", got)
	}
}

func TestSetTimeRangeRefetchesAndClampsPage(t *testing.T) {
	c, api := readyController(t, 25)

	if err := c.GoToPage(3); err != nil {
		t.Fatalf("GoToPage: %v", err)
	}

	c.SetTimeRange(models.Range7d)
	rc := api.nextReadingsCall(t)
	if rc.rng != models.Range7d {
		t.Fatalf("refetch range = %q, want 7d", rc.rng)
	}
	rc.reply <- readingsReply{readings: genReadings(5)}

	waitFor(t, "shrunk readings applied", func() bool {
		return len(c.Snapshot().Readings) == 5
	})
	view := c.Snapshot()
	if view.TimeRange != models.Range7d {
		t.Errorf("range = %q, want 7d", view.TimeRange)
	}
	if view.Page != 1 || view.TotalPages != 1 {
		t.Errorf("page/total = %d/%d after shrink, want 1/1", view.Page, view.TotalPages)
	}
}

func TestPagination(t *testing.T) {
	c, _ := readyController(t, 25)

	view := c.Snapshot()
	if view.TotalPages != 3 {
		t.Fatalf("TotalPages = %d, want 3", view.TotalPages)
	}
	if len(view.PageReadings) != 10 || view.PageReadings[0].ID != 1 {
		t.Fatalf("page 1 window wrong: %d rows starting at %d", len(view.PageReadings), view.PageReadings[0].ID)
	}

	c.PrevPage() // no-op on page 1
	if got := c.Snapshot().Page; got != 1 {
		t.Errorf("PrevPage on page 1 moved to %d", got)
	}

	c.NextPage()
	c.NextPage()
	view = c.Snapshot()
	if view.Page != 3 {
		t.Fatalf("page = %d, want 3", view.Page)
	}
	if len(view.PageReadings) != 5 || view.PageReadings[0].ID != 21 {
		t.Errorf("page 3 window wrong: %d rows starting at %d", len(view.PageReadings), view.PageReadings[0].ID)
	}

	c.NextPage() // no-op on the last page
	if got := c.Snapshot().Page; got != 3 {
		t.Errorf("NextPage on last page moved to %d", got)
	}
}

func TestGoToPageRejectsOutOfRange(t *testing.T) {
	c, _ := readyController(t, 25)

	if err := c.GoToPage(0); err == nil {
		t.Error("GoToPage(0) accepted")
	}
	if err := c.GoToPage(4); err == nil {
		t.Error("GoToPage(4) accepted with 3 pages")
	}
	if err := c.GoToPage(2); err != nil {
		t.Errorf("GoToPage(2): %v", err)
	}
	if got := c.Snapshot().Page; got != 2 {
		t.Errorf("page = %d, want 2", got)
	}
}

// ── Refresh and toggles ─────────────────────────────────────────────────

func TestRefreshRetriesSensorsAfterFailure(t *testing.T) {
	c, api, _ := loggedInController(t)

	c.LoadSensors()
	api.nextSensorsCall(t).reply <- sensorsReply{err: fmt.Errorf("boom")}
	waitFor(t, "error phase", func() bool {
		return c.Snapshot().SensorPhase == PhaseError
	})

	c.Refresh()
	api.nextSensorsCall(t).reply <- sensorsReply{sensors: twoSensors()}
	api.nextReadingsCall(t).reply <- readingsReply{readings: genReadings(2)}

	waitFor(t, "recovered", func() bool {
		v := c.Snapshot()
		return v.SensorPhase == PhaseReady && v.ReadingsPhase == PhaseReady
	})
}

func TestRefreshRefetchesReadingsWhenHealthy(t *testing.T) {
	c, api := readyController(t, 5)

	c.Refresh()
	api.expectNoSensorsCall(t)
	rc := api.nextReadingsCall(t)
	if rc.sensorID != 7 {
		t.Errorf("refresh fetched sensor %d, want 7", rc.sensorID)
	}
	rc.reply <- readingsReply{readings: genReadings(6)}
	waitFor(t, "refreshed readings", func() bool {
		return len(c.Snapshot().Readings) == 6
	})
}

func TestSetToggles(t *testing.T) {
	c, _ := readyController(t, 5)

	view := c.Snapshot()
	if !view.ShowCO2 || !view.ShowTemperature {
		t.Fatalf("both series should start enabled: %+v", view)
	}

	before := c.Seq()
	c.SetToggles(false, true)
	view = c.Snapshot()
	if view.ShowCO2 || !view.ShowTemperature {
		t.Errorf("toggles = %v/%v, want false/true", view.ShowCO2, view.ShowTemperature)
	}
	if view.Seq == before {
		t.Error("toggle change did not bump the change counter")
	}
}

func TestLogoutAbandonsInFlightFetch(t *testing.T) {
	c, api, sess := loggedInController(t)

	c.LoadSensors()
	inflight := api.nextSensorsCall(t)

	sess.Logout()
	inflight.reply <- sensorsReply{sensors: twoSensors()}
	time.Sleep(50 * time.Millisecond)

	view := c.Snapshot()
	if len(view.Sensors) != 0 {
		t.Fatalf("completion after logout mutated state: %+v", view.Sensors)
	}
	api.expectNoReadingsCall(t)
}

package location

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jengzang/location-bridge-go/internal/models"
)

type fakeSub struct {
	handle        int
	req           models.LocationRequest
	onUpdate      func(models.Location)
	onUnavailable func()
}

type fakeProvider struct {
	mu           sync.Mutex
	last         *models.Location
	status       models.ProviderStatus
	reject       func(models.LocationRequest) error
	nextHandle   int
	live         map[int]*fakeSub
	subscribed   []*fakeSub
	unsubscribed int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		live:   make(map[int]*fakeSub),
		status: models.ProviderStatus{LocationServicesEnabled: true, GPSAvailable: true, NetworkAvailable: true},
	}
}

func (p *fakeProvider) LastKnownLocation(ctx context.Context) (*models.Location, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil, nil
	}
	loc := *p.last
	return &loc, nil
}

func (p *fakeProvider) Subscribe(req models.LocationRequest, onUpdate func(models.Location), onUnavailable func()) (SubscriptionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject != nil {
		if err := p.reject(req); err != nil {
			return nil, err
		}
	}
	p.nextHandle++
	sub := &fakeSub{handle: p.nextHandle, req: req, onUpdate: onUpdate, onUnavailable: onUnavailable}
	p.live[sub.handle] = sub
	p.subscribed = append(p.subscribed, sub)
	return sub.handle, nil
}

func (p *fakeProvider) Unsubscribe(h SubscriptionHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := h.(int)
	if !ok {
		return
	}
	if _, found := p.live[id]; found {
		delete(p.live, id)
		p.unsubscribed++
	}
}

func (p *fakeProvider) Status() models.ProviderStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *fakeProvider) setStatus(s models.ProviderStatus) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

func (p *fakeProvider) liveSubs() []*fakeSub {
	p.mu.Lock()
	defer p.mu.Unlock()
	subs := make([]*fakeSub, 0, len(p.live))
	for _, s := range p.live {
		subs = append(subs, s)
	}
	return subs
}

func (p *fakeProvider) liveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

func (p *fakeProvider) subscribeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribed)
}

func (p *fakeProvider) unsubscribeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unsubscribed
}

// deliver pushes a fix into every live subscription
func (p *fakeProvider) deliver(loc models.Location) {
	for _, s := range p.liveSubs() {
		s.onUpdate(loc)
	}
}

func (p *fakeProvider) unavailable() {
	for _, s := range p.liveSubs() {
		s.onUnavailable()
	}
}

type fakePermissions struct {
	mu      sync.Mutex
	fine    bool
	coarse  bool
	grant   map[Capability]bool
	err     error
	prompts int
}

func (f *fakePermissions) HasCapability(c Capability) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch c {
	case CapabilityFine:
		return f.fine
	case CapabilityCoarse:
		return f.coarse
	}
	return false
}

func (f *fakePermissions) Request(ctx context.Context, caps []Capability) (map[Capability]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts++
	if f.err != nil {
		return nil, f.err
	}
	return f.grant, nil
}

func (f *fakePermissions) set(fine, coarse bool) {
	f.mu.Lock()
	f.fine, f.coarse = fine, coarse
	f.mu.Unlock()
}

type fakeChecker struct {
	mu      sync.Mutex
	calls   int
	pending []func(SettingsCheck)
	// auto answers every check immediately when set
	auto *SettingsCheck
}

func (f *fakeChecker) CheckSettings(req models.LocationRequest, done func(SettingsCheck)) {
	f.mu.Lock()
	f.calls++
	auto := f.auto
	if auto == nil {
		f.pending = append(f.pending, done)
	}
	f.mu.Unlock()
	if auto != nil {
		done(*auto)
	}
}

func (f *fakeChecker) respond(check SettingsCheck) {
	f.mu.Lock()
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, done := range pending {
		done(check)
	}
}

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeUI struct {
	mu         sync.Mutex
	surface    Surface
	accept     bool
	presentErr error
	dialogs    int
}

func (f *fakeUI) CurrentForegroundSurface() Surface {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.surface
}

func (f *fakeUI) PresentSettingsDialog(s Surface, resolution any, done func(bool)) error {
	f.mu.Lock()
	f.dialogs++
	accept, err := f.accept, f.presentErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	done(accept)
	return nil
}

func (f *fakeUI) dialogCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dialogs
}

type emitted struct {
	name    string
	payload any
}

type fakeSink struct {
	ch chan emitted
}

func newFakeSink() *fakeSink {
	return &fakeSink{ch: make(chan emitted, 64)}
}

func (s *fakeSink) Emit(name string, payload any) {
	s.ch <- emitted{name: name, payload: payload}
}

func (s *fakeSink) next(t *testing.T) emitted {
	t.Helper()
	select {
	case e := <-s.ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return emitted{}
	}
}

func (s *fakeSink) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case e := <-s.ch:
		t.Fatalf("unexpected event %s: %+v", e.name, e.payload)
	case <-time.After(wait):
	}
}

type fakeSensors struct {
	mu       sync.Mutex
	listener SensorListener
	starts   int
	stops    int
	err      error
}

func (f *fakeSensors) Start(l SensorListener) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.listener = l
	f.starts++
	return nil
}

func (f *fakeSensors) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = nil
	f.stops++
}

func (f *fakeSensors) current() SensorListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listener
}

type fakeGeocoder struct {
	block   chan struct{}
	results []models.Location
	err     error
}

func (g *fakeGeocoder) Forward(ctx context.Context, address string) ([]models.Location, error) {
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.results, g.err
}

func (g *fakeGeocoder) Reverse(ctx context.Context, loc models.Location) ([]models.Address, error) {
	if g.err != nil {
		return nil, g.err
	}
	return []models.Address{{City: "Berlin", Country: "Germany", IsoCountryCode: "DE"}}, nil
}

var errProviderRefused = errors.New("provider refused")

// waitFor polls cond until it holds or a second passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func int64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }

func fixAt(at time.Time, lat, lon float64) models.Location {
	return models.Location{
		Coords:    models.Coords{Latitude: lat, Longitude: lon, Accuracy: 5},
		Timestamp: at.UnixMilli(),
	}
}

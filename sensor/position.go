package sensor

import (
	"math"
	"sync"
	"time"

	"github.com/golang/geo/s2"

	"github.com/desmolabs/desmo-go/telemetry"
)

const earthRadiusMeters = 6_371_000

// DefaultMinMoveMeters is the displacement below which a new fix is treated
// as GPS jitter and dropped in favour of the fix already held.
const DefaultMinMoveMeters = 1.5

// PositionCache is a PositionAdapter fed by the host's platform location
// callback. It keeps the latest plausible fix, filters sub-jitter movement
// and derives speed and bearing from consecutive fixes when the platform
// does not supply them. Latest never blocks.
type PositionCache struct {
	minMove float64
	now     func() time.Time

	mu      sync.Mutex
	cur     *telemetry.Position
	curAt   time.Time
	running bool
}

// PositionCacheOption configures a PositionCache.
type PositionCacheOption func(*PositionCache)

// WithMinMove overrides the jitter floor in meters. Zero disables the
// filter.
func WithMinMove(meters float64) PositionCacheOption {
	return func(c *PositionCache) {
		c.minMove = meters
	}
}

func withClock(now func() time.Time) PositionCacheOption {
	return func(c *PositionCache) {
		c.now = now
	}
}

// NewPositionCache creates an empty cache with the default jitter floor.
func NewPositionCache(opts ...PositionCacheOption) *PositionCache {
	c := &PositionCache{
		minMove: DefaultMinMoveMeters,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PositionCache) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	return nil
}

func (c *PositionCache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

func (c *PositionCache) Available() bool { return true }

// Latest returns the most recent accepted fix.
func (c *PositionCache) Latest() (telemetry.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return telemetry.Position{}, false
	}
	return *c.cur, true
}

// Update feeds a raw platform fix into the cache. Fixes that moved less
// than the jitter floor refresh derived fields only; larger moves replace
// the held fix and, when the platform omitted them, gain a derived speed
// and bearing from the previous fix.
func (c *PositionCache) Update(fix telemetry.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}

	now := c.now()
	if c.cur == nil {
		c.cur = &fix
		c.curAt = now
		return
	}

	dist := distanceMeters(c.cur.Lat, c.cur.Lng, fix.Lat, fix.Lng)
	if c.minMove > 0 && dist < c.minMove {
		// Stationary within jitter: keep the held coordinates, adopt the
		// fresher auxiliary fields.
		if fix.AccuracyM != nil {
			c.cur.AccuracyM = fix.AccuracyM
		}
		if fix.AltitudeM != nil {
			c.cur.AltitudeM = fix.AltitudeM
		}
		c.curAt = now
		return
	}

	if dt := now.Sub(c.curAt).Seconds(); dt > 0 {
		if fix.SpeedMPS == nil {
			speed := dist / dt
			fix.SpeedMPS = &speed
		}
		if fix.BearingDeg == nil {
			bearing := bearingDegrees(c.cur.Lat, c.cur.Lng, fix.Lat, fix.Lng)
			fix.BearingDeg = &bearing
		}
	}

	c.cur = &fix
	c.curAt = now
}

// distanceMeters is the great-circle distance between two fixes.
func distanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * earthRadiusMeters
}

// bearingDegrees is the initial bearing from the first fix to the second,
// normalized to [0, 360).
func bearingDegrees(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)

	lonDiff := p2.Lng.Radians() - p1.Lng.Radians()
	y := math.Sin(lonDiff) * math.Cos(p2.Lat.Radians())
	x := math.Cos(p1.Lat.Radians())*math.Sin(p2.Lat.Radians()) -
		math.Sin(p1.Lat.Radians())*math.Cos(p2.Lat.Radians())*math.Cos(lonDiff)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

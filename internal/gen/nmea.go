// Package gen produces the playback artifacts a live run plays: NMEA
// sentence files describing the motion, and IQ sample files synthesized from
// the route for the RF transmitter.
package gen

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/routecast/navrig/internal/fsutil"
	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/units"
)

// NmeaConfig shapes the emitted sentences.
type NmeaConfig struct {
	// Talker is the two-letter sentence prefix, e.g. "GP" for $GPRMC.
	Talker string

	// AltitudeM is the fixed altitude reported in GGA sentences.
	AltitudeM float64

	// IncludeGGA adds a GGA fix after every RMC sentence.
	IncludeGGA bool
}

// DefaultNmeaConfig reports GP sentences at sea level with GGA fixes.
func DefaultNmeaConfig() NmeaConfig {
	return NmeaConfig{Talker: "GP", AltitudeM: 0.0, IncludeGGA: true}
}

// NmeaGenerator renders motion plans as RMC/GGA sentence files.
type NmeaGenerator struct {
	cfg NmeaConfig
	fs  fsutil.FileSystem
}

// NewNmeaGenerator builds a generator writing through fs. A nil fs uses the
// real filesystem; an empty talker falls back to "GP".
func NewNmeaGenerator(cfg NmeaConfig, fs fsutil.FileSystem) *NmeaGenerator {
	if cfg.Talker == "" {
		cfg.Talker = "GP"
	}
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &NmeaGenerator{cfg: cfg, fs: fs}
}

// Generate writes one sentence pair per plan point, stamping each from
// startTime plus the point's time offset. A zero startTime means now.
func (g *NmeaGenerator) Generate(plan *motion.Plan, outPath string, startTime time.Time) error {
	if startTime.IsZero() {
		startTime = time.Now().UTC()
	}
	var buf bytes.Buffer
	for _, pt := range plan.Points {
		ts := startTime.Add(time.Duration(pt.T * float64(time.Second)))
		buf.WriteString(g.buildRMC(ts, pt.Lat, pt.Lon, pt.SpeedMps, pt.BearingDeg))
		buf.WriteByte('\n')
		if g.cfg.IncludeGGA {
			buf.WriteString(g.buildGGA(ts, pt.Lat, pt.Lon))
			buf.WriteByte('\n')
		}
	}
	return g.writeFile(outPath, buf.Bytes())
}

// GenerateFixed writes a stationary fix at lat, lon repeated every dtS for
// durationS seconds. At least one sentence pair is always written.
func (g *NmeaGenerator) GenerateFixed(lat, lon, durationS, dtS float64, outPath string, startTime time.Time) error {
	if startTime.IsZero() {
		startTime = time.Now().UTC()
	}
	steps := int(durationS / math.Max(0.001, dtS))
	if steps < 1 {
		steps = 1
	}
	var buf bytes.Buffer
	for i := 0; i < steps; i++ {
		ts := startTime.Add(time.Duration(float64(i) * dtS * float64(time.Second)))
		buf.WriteString(g.buildRMC(ts, lat, lon, 0.0, 0.0))
		buf.WriteByte('\n')
		if g.cfg.IncludeGGA {
			buf.WriteString(g.buildGGA(ts, lat, lon))
			buf.WriteByte('\n')
		}
	}
	return g.writeFile(outPath, buf.Bytes())
}

func (g *NmeaGenerator) writeFile(outPath string, data []byte) error {
	if dir := filepath.Dir(outPath); dir != "." {
		if err := g.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return g.fs.WriteFile(outPath, data, 0o644)
}

func (g *NmeaGenerator) buildRMC(ts time.Time, lat, lon, speedMps, bearingDeg float64) string {
	latStr, ns := formatLat(lat)
	lonStr, ew := formatLon(lon)
	body := fmt.Sprintf("%sRMC,%s,A,%s,%s,%s,%s,%.2f,%.2f,%s,,,A",
		g.cfg.Talker, formatSentenceTime(ts), latStr, ns, lonStr, ew,
		units.MpsToKnots(speedMps), bearingDeg, ts.Format("020106"))
	return wrapSentence(body)
}

func (g *NmeaGenerator) buildGGA(ts time.Time, lat, lon float64) string {
	latStr, ns := formatLat(lat)
	lonStr, ew := formatLon(lon)
	body := fmt.Sprintf("%sGGA,%s,%s,%s,%s,%s,1,08,1.0,%.1f,M,0.0,M,,",
		g.cfg.Talker, formatSentenceTime(ts), latStr, ns, lonStr, ew, g.cfg.AltitudeM)
	return wrapSentence(body)
}

// formatLat renders ddmm.mmmm with the hemisphere letter.
func formatLat(lat float64) (string, string) {
	hemi := "N"
	if lat < 0 {
		hemi = "S"
	}
	lat = math.Abs(lat)
	deg := int(lat)
	min := (lat - float64(deg)) * 60.0
	return fmt.Sprintf("%02d%07.4f", deg, min), hemi
}

// formatLon renders dddmm.mmmm with the hemisphere letter.
func formatLon(lon float64) (string, string) {
	hemi := "E"
	if lon < 0 {
		hemi = "W"
	}
	lon = math.Abs(lon)
	deg := int(lon)
	min := (lon - float64(deg)) * 60.0
	return fmt.Sprintf("%03d%07.4f", deg, min), hemi
}

// formatSentenceTime renders HHMMSS.cc with centisecond resolution.
func formatSentenceTime(ts time.Time) string {
	centis := ts.Nanosecond() / 10_000_000
	return fmt.Sprintf("%s.%02d", ts.Format("150405"), centis)
}

// wrapSentence frames body with the leading $ and the XOR checksum suffix.
func wrapSentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

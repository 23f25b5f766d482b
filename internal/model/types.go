// Package model defines shared data structures.
package model

import (
	"path/filepath"
	"time"
)

// ReviewConfig defines the settings of one review session.
type ReviewConfig struct {
	Station   string
	PageSize  int
	Scale     float64
	TimeMin   float64
	TimeMax   float64
	Component string
	RFPath    string
	OutPath   string
	ImagePath string
}

// StationDir returns the directory holding the station's RF files.
func (c ReviewConfig) StationDir() string {
	return joinDir(c.RFPath, c.Station)
}

// OutStationDir returns the directory holding the station's cut waveforms.
func (c ReviewConfig) OutStationDir() string {
	return joinDir(c.OutPath, c.Station)
}

// Station identifies the recording station under review.
type Station struct {
	Name string
	Lat  float64
	Lon  float64
}

// Trace is one receiver function and the SAC header values the tool uses.
// Begin and End are offsets in seconds relative to the P arrival.
type Trace struct {
	Station     string
	Samples     []float64
	Delta       float64
	Begin       float64
	End         float64
	StartTime   time.Time
	StationLat  float64
	StationLon  float64
	EventLat    float64
	EventLon    float64
	EventDepth  float64
	Magnitude   float64
	Distance    float64
	Backazimuth float64
	RayParam    float64
	GaussWidth  float64
}

// Record pairs a trace with the identifier and file it was loaded from.
type Record struct {
	Identifier string
	Filename   string
	Trace      Trace
}

// Decision captures the final state of one trace in a review.
type Decision struct {
	Identifier  string
	Backazimuth float64
	Kept        bool
}

// ReviewSummary describes a finalized review.
type ReviewSummary struct {
	ReviewID    string
	Station     string
	StartedAt   time.Time
	EndedAt     time.Time
	Total       int
	Kept        int
	Rejected    int
	CatalogPath string
}

// HistoryFilter defines filters for review history output.
type HistoryFilter struct {
	Station string
	Since   *time.Time
	Last    int
}

// ReviewAggregate is a review row read back from the history store.
type ReviewAggregate struct {
	ID          int64
	ReviewID    string
	Station     string
	EndedAt     time.Time
	Total       int
	Kept        int
	Rejected    int
	CatalogPath string
}

// SectorAggregate counts decisions whose backazimuth falls in
// [Start, Start+Width) degrees.
type SectorAggregate struct {
	Start    int
	Width    int
	Kept     int
	Rejected int
}

func joinDir(root, station string) string {
	if root == "" {
		return ""
	}
	return filepath.Join(root, station)
}

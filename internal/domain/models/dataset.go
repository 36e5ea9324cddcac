package models

import "time"

// TrainingExample is one row of a horizon dataset: the fixed feature set
// plus the realized forward return used as the training target.
type TrainingExample struct {
	Ticker        string
	Sector        string
	Region        string
	Date          time.Time
	Features      []float64 // ModelFeatures order
	ForwardReturn float64
}

// Dataset is a chronologically partitioned horizon dataset.
type Dataset struct {
	Horizon     Horizon
	HorizonDays int
	Train       []TrainingExample
	Validation  []TrainingExample
}

// Size returns the total number of examples across partitions.
func (d *Dataset) Size() int {
	return len(d.Train) + len(d.Validation)
}

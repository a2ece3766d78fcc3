package models

import (
	"errors"
	"testing"
	"time"
)

// ============================================================
// PricingJob Tests
// ============================================================

func TestPricingJobValidate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()

	valid := PricingJob{
		Identifier:   "id-1",
		PortfolioID:  "p-1",
		SnapshotTime: now,
		TargetCcy:    "USD",
		StartedBy:    StartedBySystem,
		Status:       JobStatusNew,
		StartTime:    now,
	}

	tests := []struct {
		name    string
		mutate  func(j *PricingJob)
		wantErr error
	}{
		{name: "valid", mutate: func(j *PricingJob) {}},
		{name: "no identifier", mutate: func(j *PricingJob) { j.Identifier = "" }, wantErr: ErrJobMissingIdentifier},
		{name: "no portfolio", mutate: func(j *PricingJob) { j.PortfolioID = "" }, wantErr: ErrJobMissingPortfolio},
		{name: "no snapshot time", mutate: func(j *PricingJob) { j.SnapshotTime = time.Time{} }, wantErr: ErrJobMissingSnapshotTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := valid
			tt.mutate(&job)

			err := job.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

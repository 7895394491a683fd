package ops

import (
	"time"

	"github.com/hpungsan/carryover/internal/config"
	"github.com/hpungsan/carryover/internal/handover"
)

// ListHandoversOutput contains the result of the ListHandovers operation.
type ListHandoversOutput struct {
	Items []handover.Entry `json:"items"`
}

// ListHandovers returns the saved snapshots, newest first.
func ListHandovers(cfg *config.Config) (*ListHandoversOutput, error) {
	items, err := manager(cfg).List()
	if err != nil {
		return nil, err
	}
	return &ListHandoversOutput{Items: items}, nil
}

// LatestHandoverInput contains parameters for the LatestHandover operation.
type LatestHandoverInput struct {
	Now time.Time // default: time.Now()
}

// LatestHandoverOutput contains the result of the LatestHandover operation.
type LatestHandoverOutput struct {
	Item *LatestHandoverItem `json:"item"` // nil when no handover exists
}

// LatestHandoverItem is the current LATEST_HANDOVER.md.
type LatestHandoverItem struct {
	Path       string    `json:"path"`
	ModTime    time.Time `json:"mod_time"`
	AgeMinutes int       `json:"age_minutes"`
	Content    string    `json:"content"`
}

// LatestHandover reads the newest snapshot.
func LatestHandover(cfg *config.Config, input LatestHandoverInput) (*LatestHandoverOutput, error) {
	latest, ok, err := manager(cfg).Latest(clock(input.Now))
	if err != nil {
		return nil, err
	}
	if !ok {
		return &LatestHandoverOutput{Item: nil}, nil
	}
	return &LatestHandoverOutput{Item: &LatestHandoverItem{
		Path:       latest.Path,
		ModTime:    latest.ModTime,
		AgeMinutes: int(latest.Age.Minutes()),
		Content:    latest.Content,
	}}, nil
}

func manager(cfg *config.Config) *handover.Manager {
	return &handover.Manager{Dir: cfg.HandoverDir(), Agent: cfg.Agent, Keep: cfg.HandoverKeep}
}

package transport

import "fmt"

// Settings controls the random walk
type Settings struct {
	BumpDistance      float64 // offset along the new direction after a surface event
	MaxScatters       int     // scatter events before a history is capped
	LoopLimit         int     // state machine steps before a history is capped
	RouletteThreshold float64 // weight below which roulette is played
	RouletteSurvival  float64 // survival probability of roulette
	ImplicitCapture   bool    // deposit (1-albedo) of the weight at every interaction instead of absorbing it all
	MaxResamples      int     // redraws of a non-finite direction before the packet is discarded
}

// DefaultSettings returns settings suitable for most scenes
func DefaultSettings() Settings {
	return Settings{
		BumpDistance:      1e-6,
		MaxScatters:       100000,
		LoopLimit:         1000000,
		RouletteThreshold: 1e-2,
		RouletteSurvival:  0.1,
		ImplicitCapture:   false,
		MaxResamples:      8,
	}
}

// Validate checks the settings
func (s Settings) Validate() error {
	switch {
	case !(s.BumpDistance > 0):
		return fmt.Errorf("bump distance must be positive, got %v", s.BumpDistance)
	case s.MaxScatters < 1:
		return fmt.Errorf("max scatters must be at least 1, got %d", s.MaxScatters)
	case s.LoopLimit < 1:
		return fmt.Errorf("loop limit must be at least 1, got %d", s.LoopLimit)
	case !(s.RouletteThreshold >= 0):
		return fmt.Errorf("roulette threshold must be non-negative, got %v", s.RouletteThreshold)
	case !(s.RouletteSurvival > 0 && s.RouletteSurvival <= 1):
		return fmt.Errorf("roulette survival must be in (0, 1], got %v", s.RouletteSurvival)
	case s.MaxResamples < 0:
		return fmt.Errorf("max resamples must be non-negative, got %d", s.MaxResamples)
	}
	return nil
}

// internal/game/rules.go
package game

import "fmt"

// HouseRules defines the optional variants chosen at game creation.
type HouseRules struct {
	StackingEnabled  bool `json:"stackingEnabled"`  // allow chaining draw-penalty cards so the pending count compounds
	JumpInEnabled    bool `json:"jumpInEnabled"`    // reserved: out-of-turn identical-card plays
	ForcePlayEnabled bool `json:"forcePlayEnabled"` // reserved: a drawn playable card must be played
	WinningScore     int  `json:"winningScore"`     // cumulative-mode score threshold to win the game
	ChallengeEnabled bool `json:"challengeEnabled"` // allow challenging a wild draw four
}

// DefaultHouseRules returns the rule set used when a game is created without
// explicit overrides.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		StackingEnabled:  false,
		JumpInEnabled:    false,
		ForcePlayEnabled: true,
		WinningScore:     500,
		ChallengeEnabled: true,
	}
}

// Update merges the provided rules into the receiver. Keys that are absent or
// nil keep their previous value.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		if val, exists := newRules[key]; exists && val != nil {
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			*field = b
		}
		return nil
	}

	assignInt := func(field *int, key string, minVal int) error {
		if val, exists := newRules[key]; exists && val != nil {
			// JSON numbers decode as float64
			switch v := val.(type) {
			case float64:
				*field = int(v)
			case int:
				*field = v
			default:
				return fmt.Errorf("invalid type for %s", key)
			}
			if *field < minVal {
				return fmt.Errorf("%s must be at least %d", key, minVal)
			}
		}
		return nil
	}

	if err := assignBool(&rules.StackingEnabled, "stackingEnabled"); err != nil {
		return err
	}
	if err := assignBool(&rules.JumpInEnabled, "jumpInEnabled"); err != nil {
		return err
	}
	if err := assignBool(&rules.ForcePlayEnabled, "forcePlayEnabled"); err != nil {
		return err
	}
	if err := assignBool(&rules.ChallengeEnabled, "challengeEnabled"); err != nil {
		return err
	}
	if err := assignInt(&rules.WinningScore, "winningScore", 1); err != nil {
		return err
	}
	return nil
}

// ParseRules applies a map of overrides on top of the current rules and
// returns the result, validating types along the way.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(rules)
	return houseRules, err
}

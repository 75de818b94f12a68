package services

import (
	"fmt"
	"sort"

	"habitgrowth/backend/models"
)

// MilestoneDefinition is one streak threshold of the catalog.
type MilestoneDefinition struct {
	Days        int    `json:"days"`
	Name        string `json:"name"`
	Description string `json:"description"`
	XP          int    `json:"xp"`
	Icon        string `json:"icon"`
}

// MilestoneCatalog is an immutable table of streak milestones ordered by Days.
type MilestoneCatalog struct {
	defs []MilestoneDefinition
}

// NewMilestoneCatalog validates defs and returns them sorted ascending by Days.
func NewMilestoneCatalog(defs []MilestoneDefinition) (MilestoneCatalog, error) {
	sorted := make([]MilestoneDefinition, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Days < sorted[j].Days })

	for i, d := range sorted {
		if d.Days <= 0 {
			return MilestoneCatalog{}, fmt.Errorf("milestone %q: days must be positive", d.Name)
		}
		if i > 0 && sorted[i-1].Days == d.Days {
			return MilestoneCatalog{}, fmt.Errorf("duplicate milestone threshold %d", d.Days)
		}
	}
	return MilestoneCatalog{defs: sorted}, nil
}

// MustMilestoneCatalog is NewMilestoneCatalog for tables known at compile time.
func MustMilestoneCatalog(defs []MilestoneDefinition) MilestoneCatalog {
	c, err := NewMilestoneCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultMilestoneCatalog is the streak table from 3 days to a year.
func DefaultMilestoneCatalog() MilestoneCatalog {
	return MustMilestoneCatalog([]MilestoneDefinition{
		{Days: 3, Name: "First Steps", Description: "Complete a habit for 3 consecutive days", XP: 50, Icon: "🌱"},
		{Days: 7, Name: "Week Warrior", Description: "Complete a habit for 7 consecutive days", XP: 100, Icon: "⚡"},
		{Days: 14, Name: "Two Week Champion", Description: "Complete a habit for 14 consecutive days", XP: 200, Icon: "🔥"},
		{Days: 21, Name: "Habit Former", Description: "Complete a habit for 21 consecutive days", XP: 300, Icon: "💎"},
		{Days: 30, Name: "Monthly Master", Description: "Complete a habit for 30 consecutive days", XP: 500, Icon: "👑"},
		{Days: 60, Name: "Consistency King", Description: "Complete a habit for 60 consecutive days", XP: 750, Icon: "🏆"},
		{Days: 90, Name: "Habit Legend", Description: "Complete a habit for 90 consecutive days", XP: 1000, Icon: "🌟"},
		{Days: 180, Name: "Half Year Hero", Description: "Complete a habit for 180 consecutive days", XP: 1500, Icon: "🎯"},
		{Days: 365, Name: "Year Long Achiever", Description: "Complete a habit for 365 consecutive days", XP: 2500, Icon: "🎊"},
	})
}

// Definitions returns a copy of the table.
func (c MilestoneCatalog) Definitions() []MilestoneDefinition {
	out := make([]MilestoneDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Reached returns every definition whose threshold is at most streak.
func (c MilestoneCatalog) Reached(streak int) []MilestoneDefinition {
	var out []MilestoneDefinition
	for _, d := range c.defs {
		if d.Days > streak {
			break
		}
		out = append(out, d)
	}
	return out
}

// Next returns the first definition with a threshold above streak.
func (c MilestoneCatalog) Next(streak int) (MilestoneDefinition, bool) {
	for _, d := range c.defs {
		if d.Days > streak {
			return d, true
		}
	}
	return MilestoneDefinition{}, false
}

// UnlockConditionKey identifies a (threshold, habit) award. Its format is persisted
// and must never depend on display text.
func UnlockConditionKey(days int, habitID uint) string {
	return fmt.Sprintf("streak_%d_%d", days, habitID)
}

// DefaultGrowthMilestones is the seed for both metaphor tracks.
func DefaultGrowthMilestones() []models.GrowthMilestone {
	return []models.GrowthMilestone{
		{Name: "Seed", Description: "Your journey begins with a tiny seed", MetaphorType: models.MetaphorPlant, Stage: 1, RequiredCompletions: 5, Emoji: "🌱", XPReward: 50},
		{Name: "Sprout", Description: "First signs of growth appear", MetaphorType: models.MetaphorPlant, Stage: 2, RequiredCompletions: 15, Emoji: "🌿", XPReward: 100},
		{Name: "Young Plant", Description: "Your habits are taking root", MetaphorType: models.MetaphorPlant, Stage: 3, RequiredCompletions: 30, Emoji: "🪴", XPReward: 150},
		{Name: "Flowering Plant", Description: "Beautiful blooms show your progress", MetaphorType: models.MetaphorPlant, Stage: 4, RequiredCompletions: 50, Emoji: "🌸", XPReward: 200},
		{Name: "Mature Tree", Description: "Strong and established habits", MetaphorType: models.MetaphorPlant, Stage: 5, RequiredCompletions: 100, Emoji: "🌳", XPReward: 300},

		{Name: "Egg", Description: "Something magical is about to hatch", MetaphorType: models.MetaphorCreature, Stage: 1, RequiredCompletions: 5, Emoji: "🥚", XPReward: 50},
		{Name: "Hatchling", Description: "Your creature has emerged!", MetaphorType: models.MetaphorCreature, Stage: 2, RequiredCompletions: 15, Emoji: "🐣", XPReward: 100},
		{Name: "Young Creature", Description: "Growing stronger each day", MetaphorType: models.MetaphorCreature, Stage: 3, RequiredCompletions: 30, Emoji: "🐦", XPReward: 150},
		{Name: "Evolved Form", Description: "Your dedication has paid off", MetaphorType: models.MetaphorCreature, Stage: 4, RequiredCompletions: 50, Emoji: "🦅", XPReward: 200},
		{Name: "Legendary Dragon", Description: "The ultimate form of habit mastery", MetaphorType: models.MetaphorCreature, Stage: 5, RequiredCompletions: 100, Emoji: "🐉", XPReward: 300},
	}
}

package scoring

import (
	"github.com/yourusername/clever-handicapper/internal/models"
)

const (
	equipmentDefaultMax = 20.0
	equipmentMax        = 12.0
	medicationMax       = 8.0

	// trainerAngleRate is the category win rate that marks a trainer as good with a change
	trainerAngleRate   = 0.20
	trainerAngleStarts = 5
)

// EquipmentScorer scores equipment and medication changes
type EquipmentScorer struct {
	max float64
}

// NewEquipmentScorer creates an equipment/medication scorer
func NewEquipmentScorer(max float64) *EquipmentScorer {
	return &EquipmentScorer{max: max}
}

// Category returns the scored category
func (s *EquipmentScorer) Category() models.Category { return models.CategoryEquipment }

// Max returns the category budget
func (s *EquipmentScorer) Max() float64 { return s.max }

// Score scores blinker and other equipment changes plus Lasix
func (s *EquipmentScorer) Score(h *models.HorseRecord, _ RaceContext) models.CategoryScore {
	b := newBuilder(models.CategoryEquipment, s.max, equipmentDefaultMax)

	eq := neutralFraction
	switch {
	case h.Equipment.BlinkersOn:
		eq += 0.4
		b.reason("Blinkers on")
		if trainerHasAngle(h.Trainer, "blinkers_on") {
			eq += 0.1
			b.reason("Trainer strong with blinkers on")
		}
	case h.Equipment.BlinkersOff:
		eq += 0.2
		b.reason("Blinkers off")
	}
	if h.Equipment.OtherChange {
		eq += 0.1
		b.reason("Equipment change")
	}
	b.add("equipment", eq, equipmentMax)

	med := 0.4
	switch {
	case h.Medication.FirstTimeLasix:
		med = 1.0
		b.reason("First-time Lasix")
	case h.Medication.Lasix:
		med = 0.6
	}
	b.add("medication", med, medicationMax)

	if len(b.reasons) == 0 {
		b.reason("No equipment or medication changes")
	}
	return b.build()
}

func trainerHasAngle(c models.Connection, category string) bool {
	for _, stat := range c.CategoryStats {
		if stat.Category == category && stat.Starts >= trainerAngleStarts && stat.WinRate() >= trainerAngleRate {
			return true
		}
	}
	return false
}

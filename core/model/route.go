package model

import "github.com/google/uuid"

// Route is one technician's workday: an ordered stop list plus the
// workday bounds the timeline is built against.
type Route struct {
	ID            uuid.UUID
	TechnicianID  string
	Date          string // YYYY-MM-DD
	WorkdayStart  int    // minutes from midnight
	WorkdayEnd    int
	Stops         []Stop
	ReturnToDepot *TravelLeg // nil when no return leg has been computed
}

package sim

// ParkingSpace is a stationary entity bound to one cell. It is created once
// when the facility is provisioned and is never moved or destroyed.
// Occupancy is changed only by the Simulation's allocate/release operations.
type ParkingSpace struct {
	id       EntityID
	category Category
	cell     Cell
	occupied bool
	holder   EntityID // meaningful only while occupied
}

func (p *ParkingSpace) AgentID() EntityID { return p.id }
func (p *ParkingSpace) ID() EntityID { return p.id }
func (p *ParkingSpace) Category() Category { return p.category }
func (p *ParkingSpace) Cell() Cell { return p.cell }
func (p *ParkingSpace) Occupied() bool { return p.occupied }

// Holder returns the driver currently assigned to the space.
func (p *ParkingSpace) Holder() (EntityID, bool) {
	return p.holder, p.occupied
}

// Step is a no-op: spaces are passive.
func (p *ParkingSpace) Step(_ *StepContext) {}

// SpaceView is the read-only rendering record for a space.
type SpaceView struct {
	ID       EntityID `json:"id"`
	Category Category `json:"category"`
	Cell     Cell     `json:"cell"`
	Occupied bool     `json:"occupied"`
}

func (p *ParkingSpace) View() SpaceView {
	return SpaceView{ID: p.id, Category: p.category, Cell: p.cell, Occupied: p.occupied}
}

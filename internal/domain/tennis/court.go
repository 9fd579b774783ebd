package tennis

import "fmt"

type Location string

const (
	LocationIndoor  Location = "indoor"
	LocationOutdoor Location = "outdoor"
)

func (l Location) Valid() bool {
	return l == LocationIndoor || l == LocationOutdoor
}

type SurfaceType string

const (
	SurfaceSynthetic      SurfaceType = "synthetic"
	SurfacePorousConcrete SurfaceType = "porous-concrete"
)

func (s SurfaceType) Valid() bool {
	return s == SurfaceSynthetic || s == SurfacePorousConcrete
}

// Court is one bookable court as the site knows it. ID is the site's
// stable key and is treated as globally unique for the run.
// FacilityName is denormalized from the owning Facility at load time.
type Court struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	FacilityName string      `json:"-"`
	Location     Location    `json:"location"`
	SurfaceType  SurfaceType `json:"surface_type"`
}

func (c Court) String() string {
	return fmt.Sprintf("%s %s (%s)", c.FacilityName, c.Name, c.ID)
}

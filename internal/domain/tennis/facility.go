package tennis

// Facility is a site with one or more courts.
//
// LeafletIndex is the position of this facility's marker among the
// markers of the site's map widget. Marker ordering is defined by the
// page, not by us; the index must be re-verified whenever the site
// changes its map rendering.
type Facility struct {
	Name         string  `json:"name"`
	LeafletIndex int     `json:"leaflet_index"`
	Courts       []Court `json:"courts"`
}

func (f Facility) String() string { return f.Name }

// Website holds the two entry URLs of the booking site. Read-only for
// the whole run.
type Website struct {
	LoginURL  string `json:"login_url"`
	SearchURL string `json:"search_url"`
}

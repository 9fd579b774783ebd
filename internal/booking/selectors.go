package booking

import (
	"fmt"

	"github.com/example/court-racer/internal/browser"
)

// Selectors for the booking site's markup. All of these are external
// contracts the site can break without notice; they are kept in one
// place so a markup change is a one-file fix.
var (
	selUsername    = browser.ID("username")
	selPassword    = browser.ID("password")
	selLoginSubmit = browser.Name("Submit")

	selDatePicker = browser.ID("when")
	selSearch     = browser.ID("rechercher")

	// Descendants of the map's marker pane, in page order. The
	// facility's LeafletIndex indexes into exactly this list.
	selMapMarkers = browser.XPath("//*[contains(@class,'leaflet-marker-pane')]//*")

	selFacilityLink = browser.Class("accessTennisMap")
	selTimePanels   = browser.Class("panel-title")

	// Two visual variants of the reserve button: the account already
	// has a booking today, or everything is bookable. Both carry the
	// court id and start time attributes we match on.
	selReserveBusy = browser.XPath("//button[@class='btn btn-darkblue medium rollover rollover-grey buttonHasReservation']")
	selReserveFree = browser.XPath("//button[@class='btn btn-darkblue medium rollover rollover-grey buttonAllOk']")

	selPlayerInputs  = browser.XPath("//input[@class='form-control required']")
	selAddPlayer     = browser.XPath("//button[@class='btn btn-darkblue small addPlayer rollover rollover-grey']")
	selControlSubmit = browser.ID("submitControle")
	selFinalSubmit   = browser.ID("submit")
	selTables        = browser.Tag("table")
)

const (
	attrCourtID = "courtid"
	attrStart   = "datedeb"
)

// DefaultCreditPhrase is the fixed text of the booking-credit table on
// the French site. Locale-sensitive: override via the data file's
// credit_phrase key when the site changes wording.
const DefaultCreditPhrase = "J’utilise 1 heure\nde mon carnet en ligne"

func selDateCell(dateISO string) browser.Selector {
	return browser.XPath(fmt.Sprintf("//div[@dateiso='%s']", dateISO))
}

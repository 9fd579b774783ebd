package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/court-racer/internal/config"
)

// courts prints the courts the current filters would race over, so the
// operator can sanity-check a filter set before burning the release
// window on it.
func newCourtsCmd() *cobra.Command {
	var (
		dataPath    string
		facility    string
		location    string
		surfaceType string
		courtID     string
	)

	c := &cobra.Command{
		Use:   "courts",
		Short: "List the courts that pass the given preference filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := buildPreferences(facility, location, surfaceType, courtID, "")
			if err != nil {
				return err
			}
			data, err := config.Load(dataPath)
			if err != nil {
				return err
			}
			for _, f := range data.TennisFacilities {
				if !prefs.SelectsFacility(f) {
					continue
				}
				for _, court := range f.Courts {
					if !prefs.SelectsCourt(court) {
						continue
					}
					fmt.Fprintf(os.Stdout, "id=%s facility=%q name=%q location=%s surface=%s\n",
						court.ID, f.Name, court.Name, court.Location, court.SurfaceType)
				}
			}
			return nil
		},
	}

	c.Flags().StringVar(&dataPath, "data", "data.json", "facility/user/website data file")
	c.Flags().StringVar(&facility, "tennis-facility", "", "only this facility")
	c.Flags().StringVar(&location, "location", "", "only this location (indoor|outdoor)")
	c.Flags().StringVar(&surfaceType, "surface-type", "", "only this surface (synthetic|porous-concrete)")
	c.Flags().StringVar(&courtID, "court-id", "", "only this court id")
	return c
}

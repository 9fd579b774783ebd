package user

// User is a credential bundle for one account on the booking site.
// More accounts means more chances in the race: the site allows at
// most one reservation per account and period.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

package model

// Account is one bank account of the household. Bank carries the
// statement format tag used by the detector ("alfabank", "raiffeisen",
// "sberbank"). OwnerPhone is the canonical digit form ("79123456789")
// and links incoming SBP transfers back to the account.
type Account struct {
	ID         int
	Name       string
	Bank       string
	LastFour   string
	OwnerName  string
	OwnerPhone string
}

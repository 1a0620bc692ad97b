package account

// DevNames are the names of well-known development accounts.
var DevNames = []string{"Alice", "Bob", "Charlie", "Dave", "Eve", "Ferdie"}

// Dev returns a well-known development account (derived as "//<Name>").
func Dev(name string) (*Account, error) {
	a, err := NewFromURI("//" + name)
	if err != nil {
		return nil, err
	}
	a.Label = name
	return a, nil
}

// MustDev is like Dev, but panics on error.
func MustDev(name string) *Account {
	a, err := Dev(name)
	if err != nil {
		panic(err)
	}
	return a
}

// Alice returns the //Alice development account.
func Alice() *Account { return MustDev("Alice") }

// Bob returns the //Bob development account.
func Bob() *Account { return MustDev("Bob") }

package keytestcases

// Ktype represents key testcase values (different encodings of the key).
type Ktype struct {
	URI,
	AccountID,
	Address string
	// Prefix is the network prefix of Address.
	Prefix  uint16
	Invalid bool
}

// Arr contains a set of known keys in Ktype format.
var Arr = []Ktype{
	{
		URI:       "//Alice",
		AccountID: "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d",
		Address:   "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		Prefix:    42,
	},
	{
		URI:       "0xe5be9a5092b81bca64be81d212e7f2f9eba183bb7a90954f7b76361f6edb5c0a",
		AccountID: "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d",
		Address:   "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5",
		Prefix:    0,
	},
	{
		URI:       "//Bob",
		AccountID: "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48",
		Address:   "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty",
		Prefix:    42,
	},
	{
		URI:       "//Charlie",
		AccountID: "0x90b5ab205c6974c9ea841be688864633dc9ca8a357843eeacf2314649965fe22",
		Address:   "5FLSigC9HGRKVhB9FiEo4Y3koPsNmBmLJbpXg2mp1hXcS59Y",
		Prefix:    42,
	},
	{
		URI:       "//Dave",
		AccountID: "0x306721211d5404bd9da88e0204360a1a9ab8b87c66c1bc2fcdd37f3c2222cc20",
		Address:   "5DAAnrj7VHTznn2AWBemMuyBwZWs6FNFjdyVXUeYum3PTXFy",
		Prefix:    42,
	},
	{
		URI:       "//Eve",
		AccountID: "0xe659a7a1628cdd93febc04a4e0646ea20e9f5f0ce097d9a05290d4a9e054df4e",
		Address:   "5HGjWAeFDfFCWPsjFQdVV2Msvz2XtMktvgocEZcCj68kUMaw",
		Prefix:    42,
	},
	{
		URI:       "//Ferdie",
		AccountID: "0x1cbd2d43530a44705ad088af313e18f80b53ef16b36177cd4b77b846f2a5f07c",
		Address:   "5CiPPseXPECbkjWCa6MnjNokrgYjMqmKndv2rSnekmSK2DjL",
		Prefix:    42,
	},
	{
		URI:     "0xzz",
		Invalid: true,
	},
}

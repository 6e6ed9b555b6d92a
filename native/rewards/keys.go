package rewards

// Derivation seeds. Each singleton and program-owned account lives at an
// address derived from the program id and one of these seeds.
var (
	MintSeed           = []byte("token-2022")
	VaultSeed          = []byte("usdc")
	FeesSeed           = []byte("fees")
	FreezeSeed         = []byte("freeze")
	MintAuthoritySeed  = []byte("mint-authority")
	VaultAuthoritySeed = []byte("vault-authority")
)

const paramPrefix = "rewards/"

func paramKey(seed []byte) string { return paramPrefix + string(seed) }

var (
	paramKeyFees   = paramKey(FeesSeed)
	paramKeyFreeze = paramKey(FreezeSeed)
	paramKeyToken  = paramKey(MintSeed)
)

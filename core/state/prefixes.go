package state

var (
	lotteryParamsKeyBytes   = []byte("lottery/config")
	lotteryManagersKeyBytes = []byte("lottery/managers")
	lotteryRoundKeyBytes    = []byte("lottery/round")
	lotteryFeesKeyBytes     = []byte("lottery/fees")
	lotteryLastDrawKeyBytes = []byte("lottery/last-draw")

	tokenBalancePrefix   = []byte("token/balance/")
	tokenAllowancePrefix = []byte("token/allowance/")
	tokenFaucetPrefix    = []byte("token/faucet/")
	tokenSupplyKeyBytes  = []byte("token/supply")
)

func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return buf
}

// TokenBalanceKey returns the state key holding addr's balance.
func TokenBalanceKey(addr [20]byte) []byte {
	return prefixedKey(tokenBalancePrefix, addr[:])
}

// TokenAllowanceKey returns the state key holding spender's allowance over owner.
func TokenAllowanceKey(owner, spender [20]byte) []byte {
	return prefixedKey(tokenAllowancePrefix, owner[:], spender[:])
}

// TokenFaucetKey returns the state key holding addr's faucet usage.
func TokenFaucetKey(addr [20]byte) []byte {
	return prefixedKey(tokenFaucetPrefix, addr[:])
}

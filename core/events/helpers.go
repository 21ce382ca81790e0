package events

import (
	"math/big"
	"strconv"

	"potlottery/crypto"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAddress(addr [crypto.AddressLength]byte) string {
	return crypto.AddressFromArray(addr).String()
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}

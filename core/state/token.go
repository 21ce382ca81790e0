package state

import (
	"math/big"

	"potlottery/native/common"
)

func (m *Manager) getAmount(key []byte) (*big.Int, error) {
	amount := new(big.Int)
	if _, err := m.KVGet(key, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (m *Manager) putAmount(key []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, amount)
}

// TokenBalance returns addr's token balance.
func (m *Manager) TokenBalance(addr [20]byte) (*big.Int, error) {
	return m.getAmount(TokenBalanceKey(addr))
}

// PutTokenBalance overwrites addr's token balance.
func (m *Manager) PutTokenBalance(addr [20]byte, amount *big.Int) error {
	return m.putAmount(TokenBalanceKey(addr), amount)
}

// TokenAllowance returns spender's remaining allowance over owner.
func (m *Manager) TokenAllowance(owner, spender [20]byte) (*big.Int, error) {
	return m.getAmount(TokenAllowanceKey(owner, spender))
}

// PutTokenAllowance overwrites spender's allowance over owner.
func (m *Manager) PutTokenAllowance(owner, spender [20]byte, amount *big.Int) error {
	return m.putAmount(TokenAllowanceKey(owner, spender), amount)
}

// TokenSupply returns the total minted supply.
func (m *Manager) TokenSupply() (*big.Int, error) {
	return m.getAmount(tokenSupplyKeyBytes)
}

// PutTokenSupply overwrites the total minted supply.
func (m *Manager) PutTokenSupply(amount *big.Int) error {
	return m.putAmount(tokenSupplyKeyBytes, amount)
}

// TokenFaucetUsage returns addr's faucet counters.
func (m *Manager) TokenFaucetUsage(addr [20]byte) (common.QuotaNow, bool, error) {
	var usage common.QuotaNow
	ok, err := m.KVGet(TokenFaucetKey(addr), &usage)
	if err != nil {
		return common.QuotaNow{}, false, err
	}
	if usage.Amount == nil {
		usage.Amount = new(big.Int)
	}
	return usage, ok, nil
}

// PutTokenFaucetUsage records addr's faucet counters.
func (m *Manager) PutTokenFaucetUsage(addr [20]byte, usage common.QuotaNow) error {
	if usage.Amount == nil {
		usage.Amount = new(big.Int)
	}
	return m.KVPut(TokenFaucetKey(addr), usage)
}

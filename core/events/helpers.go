package events

import "gtonstaking/crypto"

func addressString(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.NHBPrefix, addr[:]).String()
}

type stringer interface {
	String() string
}

func formatAmount(amount stringer) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func zeroBytes(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func zeroAddress(addr [20]byte) bool {
	return zeroBytes(addr[:])
}

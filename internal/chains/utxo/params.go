package utxo

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

// DogecoinParams describes the Dogecoin main network. Only the fields the
// adapter touches are filled in: address version bytes for P2PKH encoding and
// the HD key version bytes for derivation.
var DogecoinParams = chaincfg.Params{
	Name:             "dogecoin",
	Net:              wire.BitcoinNet(0xc0c0c0c0),
	PubKeyHashAddrID: 0x1e,
	ScriptHashAddrID: 0x16,
	PrivateKeyID:     0x9e,
	HDPrivateKeyID:   [4]byte{0x02, 0xfa, 0xc3, 0x98},
	HDPublicKeyID:    [4]byte{0x02, 0xfa, 0xca, 0xfd},
	HDCoinType:       3,
}

func init() {
	// Registration lets btcutil address decoding recognize the network.
	// A duplicate registration only happens under test re-runs and is
	// harmless.
	_ = chaincfg.Register(&DogecoinParams)
}
